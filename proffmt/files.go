// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proffmt

import (
	"fmt"
	"strings"
)

// A Files resolves a list of command-line inputs into labeled paths.
//
// By default each input is labeled with its path, except that
// duplicate paths are disambiguated by appending "#N". If AllowLabels
// is true, entries in Paths may be of the form label=path, and the
// label part is used as given.
type Files struct {
	// Paths is the list of file names to read.
	Paths []string

	// AllowLabels indicates that custom labels are allowed in
	// Paths.
	AllowLabels bool
}

// An Input is one labeled file to parse.
type Input struct {
	Label string
	Path  string
}

// Inputs returns the labeled inputs in the order of f.Paths.
func (f *Files) Inputs() []Input {
	type input struct {
		Input
		isLabeled bool
	}
	var inputs []input
	pathCount := make(map[string]int)
	for _, path := range f.Paths {
		label := path
		isLabeled := false
		if i := strings.Index(path, "="); f.AllowLabels && i >= 0 {
			label, path = path[:i], path[i+1:]
			isLabeled = true
		} else {
			pathCount[path]++
		}
		inputs = append(inputs, input{Input{label, path}, isLabeled})
	}

	// Labels are used to tell profiles apart in the output, so
	// repeated paths get distinct labels. Explicit labels are
	// kept exactly as the user wrote them.
	pathI := make(map[string]int)
	out := make([]Input, len(inputs))
	for i, inp := range inputs {
		if !inp.isLabeled && pathCount[inp.Path] > 1 {
			inp.Label = fmt.Sprintf("%s#%d", inp.Path, pathI[inp.Path])
			pathI[inp.Path]++
		}
		out[i] = inp.Input
	}
	return out
}
