// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package profparse

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/access-nri/profiling/proffmt"
	"github.com/access-nri/profiling/profunit"
)

// A ColumnKind describes how a numeric column is written in a table
// row.
type ColumnKind int

const (
	// Plain is a bare number.
	Plain ColumnKind = iota
	// Parenthesized is a number in parentheses, such as "( 118)".
	Parenthesized
	// DiscardTrailing is a number followed by one more
	// whitespace-separated token that is ignored, such as the
	// "% of mean" column after a standard deviation.
	DiscardTrailing
)

func (k ColumnKind) String() string {
	switch k {
	case Plain:
		return "Plain"
	case Parenthesized:
		return "Parenthesized"
	case DiscardTrailing:
		return "DiscardTrailing"
	}
	return fmt.Sprintf("ColumnKind(%d)", int(k))
}

// A Column is one numeric column of a table.
type Column struct {
	Metric *profunit.Metric
	Kind   ColumnKind
}

// pattern returns the regexp fragment for c, including the leading
// white space. It has exactly one capture group.
func (c Column) pattern() string {
	switch c.Kind {
	case Parenthesized:
		return `\s+\(\s*([0-9.]+)\s*\)`
	case DiscardTrailing:
		return `\s+([0-9.]+)\s+\S+`
	}
	return `\s+([0-9.]+)`
}

// AssembleRowPattern returns a regexp that matches one whole table
// row: label, which must contain exactly one capture group for the
// region name, followed by cols in order. Submatch 1 is the region
// and submatch i+2 is the value of cols[i].
func AssembleRowPattern(label string, cols []Column) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	b.WriteString(label)
	for _, c := range cols {
		b.WriteString(c.pattern())
	}
	b.WriteString(`\s*$`)
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, err
	}
	if re.NumSubexp() != len(cols)+1 {
		return nil, fmt.Errorf("row pattern %q has %d groups, want %d", re, re.NumSubexp(), len(cols)+1)
	}
	return re, nil
}

// A table parses the rows of a fixed-layout text table.
type table struct {
	cols []Column
	row  *regexp.Regexp
}

func newTable(label string, cols []Column) *table {
	re, err := AssembleRowPattern(label, cols)
	if err != nil {
		panic(err)
	}
	return &table{cols, re}
}

func (t *table) metrics() []*profunit.Metric {
	ms := make([]*profunit.Metric, len(t.cols))
	for i, c := range t.cols {
		ms[i] = c.Metric
	}
	return ms
}

// parse matches each line of section against the row pattern and
// returns the matched rows along with the number of non-blank lines
// in section.
func (t *table) parse(section string) (p *proffmt.Profile, lines int) {
	p = proffmt.NewProfile(t.metrics())
	for _, line := range splitLines(section) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines++
		m := t.row.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		row := make([]proffmt.Value, len(t.cols))
		for i := range t.cols {
			row[i] = proffmt.ParseValue(m[i+2])
		}
		p.AppendRow(m[1], row)
	}
	return p, lines
}

// splitLines splits text into lines, dropping line terminators. A
// final line terminator does not start a new line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
