// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package profparse implements parsers for the profiling output of
// climate model components and the workflow tools that run them.
//
// Each parser satisfies proffmt.Parser. Parsers of text logs also
// satisfy proffmt.TextParser. Parsers carry only their configuration
// and are safe for concurrent use.
package profparse

import (
	"fmt"
	"sort"

	"github.com/access-nri/profiling/proffmt"
	"github.com/go-logr/logr"
)

// Options configures a parser created by New. Options that do not
// apply to the named parser are ignored.
type Options struct {
	// Hits says the FMS table has a hits column.
	Hits bool

	// Hierarchical makes the ESMF parser recover the call tree.
	Hierarchical bool

	Logger logr.Logger
}

var constructors = map[string]func(Options) proffmt.Parser{
	"fms":       newFMS,
	"cice5":     func(Options) proffmt.Parser { return CICE5Parser{} },
	"um":        func(o Options) proffmt.Parser { return &UMParser{Logger: o.Logger} },
	"um-total":  func(o Options) proffmt.Parser { return &UMTotalRuntimeParser{Logger: o.Logger} },
	"esmf":      func(o Options) proffmt.Parser { return &ESMFSummaryParser{Hierarchical: o.Hierarchical, Logger: o.Logger} },
	"cylc":      func(Options) proffmt.Parser { return CylcParser{} },
	"cylc-db":   func(o Options) proffmt.Parser { return &CylcDBReader{Logger: o.Logger} },
	"payu-json": func(Options) proffmt.Parser { return PayuJSONParser{} },
}

func newFMS(o Options) proffmt.Parser {
	p := NewFMSParser(o.Hits)
	p.Logger = o.Logger
	return p
}

// Names returns the names accepted by New, sorted.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New returns the parser called name.
func New(name string, opts Options) (proffmt.Parser, error) {
	c, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("unknown parser %q", name)
	}
	return c(opts), nil
}
