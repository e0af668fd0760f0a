// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proffmt

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/access-nri/profiling/profunit"
)

// A Labeled is a Profile together with the label of the input it was
// parsed from.
type Labeled struct {
	Label string
	*Profile
}

// row is one output row: a display name and its values.
type row struct {
	name   string
	values map[*profunit.Metric]Value
}

// rows returns the rows of p. For profiles with a call tree, names
// are indented by depth and every node in the tree is a row.
func rows(p *Profile) []row {
	var out []row
	if p.Root != nil {
		p.Root.Walk(func(n *Node, depth int) error {
			out = append(out, row{strings.Repeat("  ", depth) + n.Name, n.Values})
			return nil
		})
		return out
	}
	for i, r := range p.Regions {
		vals := make(map[*profunit.Metric]Value, len(p.Metrics))
		for _, m := range p.Metrics {
			vals[m] = p.Values[m][i]
		}
		out = append(out, row{r, vals})
	}
	return out
}

// formatter returns a function that formats values of metric m so
// that all values in the column share a scale.
func formatter(m *profunit.Metric, rs []row) func(Value) string {
	var floats []float64
	allInt := true
	for _, r := range rs {
		v, ok := r.values[m]
		if !ok {
			continue
		}
		if v.Kind() != Int {
			allInt = false
		}
		if f, ok := v.Float64(); ok {
			floats = append(floats, f)
		}
	}
	if allInt {
		return Value.String
	}
	scaler := profunit.CommonScale(floats, m.Unit().Class())
	return func(v Value) string {
		if f, ok := v.Float64(); ok {
			return scaler.Format(f)
		}
		return v.String()
	}
}

// WriteText writes each profile as an aligned text table. Time
// values are scaled to a common unit per column.
func WriteText(w io.Writer, profiles []Labeled) error {
	for i, lp := range profiles {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := writeTextTable(w, lp); err != nil {
			return err
		}
	}
	return nil
}

func writeTextTable(w io.Writer, lp Labeled) error {
	rs := rows(lp.Profile)
	fmts := make([]func(Value) string, len(lp.Metrics))
	for i, m := range lp.Metrics {
		fmts[i] = formatter(m, rs)
	}

	// The tab writer right-aligns every column, so pad names
	// ourselves to keep the first column left-aligned.
	width := utf8.RuneCountInString("region")
	for _, r := range rs {
		if n := utf8.RuneCountInString(r.name); n > width {
			width = n
		}
	}
	pad := func(s string) string {
		return s + strings.Repeat(" ", width-utf8.RuneCountInString(s))
	}

	if lp.Label != "" {
		if _, err := fmt.Fprintf(w, "%s\n", lp.Label); err != nil {
			return err
		}
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "%s\t", pad("region"))
	for _, m := range lp.Metrics {
		fmt.Fprintf(tw, "%s\t", m.Name())
	}
	fmt.Fprintln(tw)
	for _, r := range rs {
		fmt.Fprintf(tw, "%s\t", pad(r.name))
		for i, m := range lp.Metrics {
			v, ok := r.values[m]
			if !ok {
				fmt.Fprint(tw, "-\t")
				continue
			}
			fmt.Fprintf(tw, "%s\t", fmts[i](v))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}
