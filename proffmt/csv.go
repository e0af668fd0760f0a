// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proffmt

import (
	"encoding/csv"
	"io"
	"strings"
)

// WriteCSV writes each profile as CSV records with unscaled values.
// Every profile starts with a header record and profiles are
// separated by an empty record. Nested regions are named by their
// path joined with "/".
func WriteCSV(w io.Writer, profiles []Labeled) error {
	cw := csv.NewWriter(w)
	for i, lp := range profiles {
		if i > 0 {
			cw.Write([]string{})
		}
		header := []string{"label", "region"}
		for _, m := range lp.Metrics {
			header = append(header, m.Name()+" ("+string(m.Unit())+")")
		}
		cw.Write(header)

		for _, r := range csvRows(lp.Profile) {
			rec := []string{lp.Label, r.name}
			for _, m := range lp.Metrics {
				if v, ok := r.values[m]; ok {
					rec = append(rec, v.String())
				} else {
					rec = append(rec, "")
				}
			}
			cw.Write(rec)
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRows(p *Profile) []row {
	if p.Root == nil {
		return rows(p)
	}
	var out []row
	var path []string
	p.Root.Walk(func(n *Node, depth int) error {
		path = append(path[:depth], n.Name)
		out = append(out, row{strings.Join(path, "/"), n.Values})
		return nil
	})
	return out
}
