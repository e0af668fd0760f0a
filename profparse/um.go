// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package profparse

import (
	"regexp"
	"strconv"

	"github.com/access-nri/profiling/proffmt"
	"github.com/access-nri/profiling/profunit"
	"github.com/go-logr/logr"
)

// umColumns are the columns kept from the wallclock section of the UM
// inclusive timer summary. The row index and the "% of mean" column
// are dropped.
var umColumns = []Column{
	{profunit.TAvg, Plain},
	{profunit.TMed, Plain},
	{profunit.TStd, DiscardTrailing},
	{profunit.TMax, Plain},
	{profunit.PEMax, Parenthesized},
	{profunit.TMin, Plain},
	{profunit.PEMin, Parenthesized},
}

var (
	// umHeader accepts any run of column names before ROUTINE. UM
	// 13 adds an "N" column for the row index that UM 7 omits.
	umHeader = regexp.MustCompile(`MPP : Inclusive timer summary\s+WALLCLOCK  TIMES\s*(?:\S+[ \t]+)*` +
		`ROUTINE\s*MEAN\s*MEDIAN\s*SD\s*% of mean\s*MAX\s*\(PE\)\s*MIN\s*\(PE\)[ \t]*`)
	umFooter = regexp.MustCompile(`CPU TIMES \(sorted by wallclock times\)`)

	umTable = newTable(`\s*[\d\s]+\s+([a-zA-Z][a-zA-Z:()_/\-*&0-9\s.]*[a-zA-Z:()_/\-*&0-9.])`, umColumns)
)

// A UMParser parses the wallclock section of the inclusive timer
// summary in a Unified Model log (atm.fort6.pe0 for UM 7):
//
//	 MPP : Inclusive timer summary
//
//	 WALLCLOCK  TIMES
//	    ROUTINE                   MEAN   MEDIAN       SD   % of mean      MAX   (PE)      MIN   (PE)
//	  1 AS3 Atmos_Phys2        1308.30  1308.30     0.02       0.00%  1308.33 ( 118)  1308.26 ( 221)
//	  2 AP2 Boundary Layer      956.50   956.14     3.26       0.34%   981.28 ( 136)   953.28 (  43)
//
//	 CPU TIMES (sorted by wallclock times)
//
// Any leading columns before ROUTINE must hold integers. Every
// non-blank line between the header and the footer must be a
// well-formed row, otherwise Read fails with ErrIntegrity.
type UMParser struct {
	Logger logr.Logger
}

func (p *UMParser) Metrics() []*profunit.Metric { return umTable.metrics() }

func (p *UMParser) Parse(path string) (*proffmt.Profile, error) {
	return proffmt.ParseFile(path, p.Read)
}

func (p *UMParser) Read(text string) (*proffmt.Profile, error) {
	h := umHeader.FindStringIndex(text)
	if h == nil {
		return nil, proffmt.Errorf("UM", proffmt.ErrNoData, "no matching header found")
	}
	p.Logger.V(1).Info("found header", "header", text[h[0]:h[1]])
	f := umFooter.FindStringIndex(text[h[1]:])
	if f == nil {
		return nil, proffmt.Errorf("UM", proffmt.ErrNoData, "no matching footer found")
	}
	section := text[h[1] : h[1]+f[0]]
	p.Logger.V(1).Info("found section", "bytes", len(section))

	prof, lines := umTable.parse(section)
	if prof.Len() == 0 {
		return nil, proffmt.Errorf("UM", proffmt.ErrIntegrity, "timer summary has no rows")
	}
	if prof.Len() != lines {
		return nil, proffmt.Errorf("UM", proffmt.ErrIntegrity, "expected %d regions, found %d", lines, prof.Len())
	}
	p.Logger.Info("parsed timer summary", "regions", prof.Len())
	return prof, nil
}

var umTotal = regexp.MustCompile(`(?i)Maximum\s+Elapsed\s+Wallclock\s+Time\s*:\s*([0-9.]+)`)

// A UMTotalRuntimeParser extracts the total wallclock time from the
// end-of-run timer output of a Unified Model log:
//
//	 Maximum Elapsed Wallclock Time:    3944.07699399998
//
// The result has a single region, um_total_walltime.
type UMTotalRuntimeParser struct {
	Logger logr.Logger
}

func (p *UMTotalRuntimeParser) Metrics() []*profunit.Metric {
	return []*profunit.Metric{profunit.TMax}
}

func (p *UMTotalRuntimeParser) Parse(path string) (*proffmt.Profile, error) {
	return proffmt.ParseFile(path, p.Read)
}

func (p *UMTotalRuntimeParser) Read(text string) (*proffmt.Profile, error) {
	m := umTotal.FindStringSubmatch(text)
	if m == nil {
		return nil, proffmt.Errorf("UM total runtime", proffmt.ErrNoData, "no matching total runtime line found")
	}
	total, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil, proffmt.Errorf("UM total runtime", proffmt.ErrNoData, "bad total runtime %q", m[1])
	}
	p.Logger.V(1).Info("found total runtime", "seconds", total)
	prof := proffmt.NewProfile(p.Metrics())
	prof.AppendRow("um_total_walltime", []proffmt.Value{proffmt.FloatValue(total)})
	return prof, nil
}
