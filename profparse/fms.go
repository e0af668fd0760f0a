// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package profparse

import (
	"regexp"
	"strings"

	"github.com/access-nri/profiling/proffmt"
	"github.com/access-nri/profiling/profunit"
	"github.com/go-logr/logr"
)

// fmsColumns lists the columns of an FMS mpp_clock table in order,
// keyed by their header name.
var fmsColumns = []struct {
	header string
	metric *profunit.Metric
}{
	{"hits", profunit.Count},
	{"tmin", profunit.TMin},
	{"tmax", profunit.TMax},
	{"tavg", profunit.TAvg},
	{"tstd", profunit.TStd},
	{"tfrac", profunit.TFrac},
	{"grain", profunit.Grain},
	{"pemin", profunit.PEMin},
	{"pemax", profunit.PEMax},
}

var fmsFooter = regexp.MustCompile(` MPP_STACK high water mark=\s*\d*`)

// fmsLabel matches an FMS region name: letters, white space, and
// the punctuation ":()_/-*&", ending in a non-space.
const fmsLabel = `\s*([a-zA-Z:()_/\-*&\s]*[a-zA-Z:()_/\-*&])`

// An FMSParser parses the mpp_clock timing table that FMS-based
// ocean models (MOM5, MOM6) write at the end of a run:
//
//	                                   hits          tmin          tmax          tavg          tstd  tfrac grain pemin pemax
//	Total runtime                         1    100.641190    100.641190    100.641190      0.000000  1.000     0     0     0
//	Ocean                                24     98.279247     98.279247     98.279247      0.000000  0.977     1     0     0
//	 MPP_STACK high water mark=          0
//
// Older versions omit the hits column.
type FMSParser struct {
	Logger logr.Logger

	hasHits bool
	header  *regexp.Regexp
	table   *table
}

// NewFMSParser returns a parser for FMS tables with or without the
// hits column.
func NewFMSParser(hasHits bool) *FMSParser {
	cols := fmsColumns
	if !hasHits {
		cols = cols[1:]
	}
	names := make([]string, len(cols))
	tcols := make([]Column, len(cols))
	for i, c := range cols {
		names[i] = c.header
		tcols[i] = Column{Metric: c.metric}
	}
	return &FMSParser{
		hasHits: hasHits,
		header:  regexp.MustCompile(strings.Join(names, `\s*`)),
		table:   newTable(fmsLabel, tcols),
	}
}

// HasHits reports whether the parser expects a hits column.
func (p *FMSParser) HasHits() bool { return p.hasHits }

func (p *FMSParser) Metrics() []*profunit.Metric { return p.table.metrics() }

func (p *FMSParser) Parse(path string) (*proffmt.Profile, error) {
	return proffmt.ParseFile(path, p.Read)
}

func (p *FMSParser) Read(text string) (*proffmt.Profile, error) {
	h := p.header.FindStringIndex(text)
	if h == nil {
		return nil, proffmt.Errorf("FMS", proffmt.ErrNoData, "no profiling data found")
	}
	f := fmsFooter.FindStringIndex(text[h[1]:])
	if f == nil {
		return nil, proffmt.Errorf("FMS", proffmt.ErrNoData, "no profiling data found")
	}
	section := text[h[1] : h[1]+f[0]]
	p.Logger.V(1).Info("located timing table", "start", h[1], "end", h[1]+f[0])

	prof, _ := p.table.parse(section)
	if prof.Len() == 0 {
		return nil, proffmt.Errorf("FMS", proffmt.ErrNoData, "timing table has no rows")
	}
	fracs := prof.Values[profunit.TFrac]
	for i, v := range fracs {
		fracs[i] = v.Scale(100)
	}
	return prof, nil
}
