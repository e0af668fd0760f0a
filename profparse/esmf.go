// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package profparse

import (
	"errors"
	"strconv"
	"strings"
	"unicode"

	"github.com/access-nri/profiling/proffmt"
	"github.com/access-nri/profiling/profunit"
	"github.com/aclements/go-moremath/stats"
	"github.com/go-logr/logr"
)

// Metrics specific to the ESMF profiling summary.
var (
	PETs = profunit.MustMetric("PETs", profunit.Dimensionless, "ESMF Virtual Machine Persistent Execution Threads")
	PEs  = profunit.MustMetric("PEs", profunit.Dimensionless, "Processing Elements")
)

// esmfMetrics are the trailing fields of a summary row, in order.
var esmfMetrics = []*profunit.Metric{
	PETs, PEs, profunit.Count, profunit.TAvg, profunit.TMin, profunit.PEMin, profunit.TMax, profunit.PEMax,
}

// An ESMFSummaryParser parses the text profiling summary written by
// ESMF/NUOPC coupled models (ESMF_Profile.summary):
//
//	Region                         PETs   PEs    Count    Mean (s)    Min (s)     Min PET Max (s)     Max PET
//	  [ESMF]                       1664   1664   1        2558.5684   2555.1450   279     2559.5801   817
//	    [ICE] RunPhase1            364    364    960      155.8202    154.7637    94      160.2443    0
//	      cice_run_total           364    364    960      155.4648    154.3687    94      159.8980    0
//
// Indentation gives the depth of a region in the call stack, two
// spaces per level. Lines that do not end in the eight numeric
// fields are skipped.
//
// By default the result is flat: each region appears once, and
// repeated regions are merged. If Hierarchical is set, the result
// also carries the call tree in Root, and its flat part lists only
// the outermost regions.
type ESMFSummaryParser struct {
	Hierarchical bool
	Logger       logr.Logger
}

// An esmfRow is one parsed summary line.
type esmfRow struct {
	pets, pes, count int64
	avg, min         float64
	pemin            int64
	max              float64
	pemax            int64
}

func (r *esmfRow) values() []proffmt.Value {
	return []proffmt.Value{
		proffmt.IntValue(r.pets),
		proffmt.IntValue(r.pes),
		proffmt.IntValue(r.count),
		proffmt.FloatValue(r.avg),
		proffmt.FloatValue(r.min),
		proffmt.IntValue(r.pemin),
		proffmt.FloatValue(r.max),
		proffmt.IntValue(r.pemax),
	}
}

// parseESMFLine splits line into a region name and its statistics.
// It reports false if line is not a summary row.
func parseESMFLine(line string) (region string, r esmfRow, ok bool) {
	f := strings.Fields(line)
	if len(f) < len(esmfMetrics)+1 {
		return "", r, false
	}
	n := len(f) - len(esmfMetrics)
	region = strings.Join(f[:n], " ")
	s := f[n:]

	ints := []*int64{&r.pets, &r.pes, &r.count, nil, nil, &r.pemin, nil, &r.pemax}
	floats := []*float64{nil, nil, nil, &r.avg, &r.min, nil, &r.max, nil}
	for i, field := range s {
		if p := ints[i]; p != nil {
			v, err := strconv.ParseInt(field, 10, 64)
			if err != nil {
				return "", r, false
			}
			*p = v
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return "", r, false
		}
		*floats[i] = v
	}
	return region, r, true
}

// merge folds a repeated occurrence o of the same region into r. Both
// occurrences must have been measured on the same set of PETs, with
// one PE per PET.
func (r *esmfRow) merge(o esmfRow) bool {
	if r.pets != o.pets || r.pes != o.pes || o.pets != o.pes {
		return false
	}
	var s stats.Sample
	for _, x := range []esmfRow{*r, o} {
		if x.count != 0 {
			s.Xs = append(s.Xs, x.avg)
			s.Weights = append(s.Weights, float64(x.count))
		}
	}
	if len(s.Xs) == 0 {
		// Neither side was called; fall back to the plain mean.
		s = stats.Sample{Xs: []float64{r.avg, o.avg}}
	}
	r.avg = s.Mean()
	r.count += o.count
	if o.min < r.min {
		r.min, r.pemin = o.min, o.pemin
	}
	if o.max > r.max {
		r.max, r.pemax = o.max, o.pemax
	}
	return true
}

func (p *ESMFSummaryParser) Metrics() []*profunit.Metric {
	return append([]*profunit.Metric(nil), esmfMetrics...)
}

func (p *ESMFSummaryParser) Parse(path string) (*proffmt.Profile, error) {
	return proffmt.ParseFile(path, p.Read)
}

func (p *ESMFSummaryParser) Read(text string) (*proffmt.Profile, error) {
	if p.Hierarchical {
		return p.readTree(text)
	}
	return p.readFlat(text)
}

func (p *ESMFSummaryParser) readFlat(text string) (*proffmt.Profile, error) {
	var (
		regions []string
		rows    []esmfRow
		index   = make(map[string]int)
	)
	for _, line := range splitLines(text) {
		region, r, ok := parseESMFLine(line)
		if !ok {
			continue
		}
		i, seen := index[region]
		if !seen {
			index[region] = len(rows)
			regions = append(regions, region)
			rows = append(rows, r)
			continue
		}
		if !rows[i].merge(r) {
			return nil, proffmt.Errorf("ESMF summary", proffmt.ErrUnsupported,
				"region %q repeated with different PETs/PEs (%d/%d and %d/%d)",
				region, rows[i].pets, rows[i].pes, r.pets, r.pes)
		}
		p.Logger.V(1).Info("merged repeated region", "region", region, "count", rows[i].count)
	}
	if len(rows) == 0 {
		return nil, proffmt.Errorf("ESMF summary", proffmt.ErrNoData, "no ESMF summary profiling data found")
	}

	prof := proffmt.NewProfile(p.Metrics())
	for i := range rows {
		prof.AppendRow(regions[i], rows[i].values())
	}
	return prof, nil
}

func (p *ESMFSummaryParser) readTree(text string) (*proffmt.Profile, error) {
	type frame struct {
		node  *proffmt.Node
		depth int
	}
	root := proffmt.NewNode("")
	stack := []frame{{root, -1}}
	found := 0
	for _, line := range splitLines(text) {
		region, r, ok := parseESMFLine(line)
		if !ok {
			continue
		}
		found++
		indent := len(line) - len(strings.TrimLeftFunc(line, unicode.IsSpace))
		depth := indent / 2
		for stack[len(stack)-1].depth >= depth {
			stack = stack[:len(stack)-1]
		}
		n := stack[len(stack)-1].node.Lookup(region)
		for i, v := range r.values() {
			n.Values[esmfMetrics[i]] = v
		}
		stack = append(stack, frame{n, depth})
	}
	if found == 0 {
		return nil, proffmt.Errorf("ESMF summary", proffmt.ErrNoData, "no ESMF summary profiling data found")
	}

	prof := proffmt.NewProfile(p.Metrics())
	for _, n := range root.Children {
		row := make([]proffmt.Value, len(esmfMetrics))
		for i, m := range esmfMetrics {
			row[i] = n.Values[m]
		}
		prof.AppendRow(n.Name, row)
	}
	prof.Root = root
	p.Logger.V(1).Info("parsed call tree", "outermost", len(root.Children), "rows", found)
	return prof, nil
}
