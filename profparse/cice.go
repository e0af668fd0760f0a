// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package profparse

import (
	"regexp"
	"strconv"

	"github.com/access-nri/profiling/proffmt"
	"github.com/access-nri/profiling/profunit"
)

// ciceTimer matches one timer stanza and captures the region and the
// node-level minimum, maximum, and mean. Block-level statistics are
// not captured.
var ciceTimer = regexp.MustCompile(`Timer\s+\d+:\s+(\w+)\s+[\d.]+\s+seconds\s+` +
	`Timer stats \(node\): min =\s+([\d.]+) seconds\s+` +
	`max =\s+([\d.]+) seconds\s+` +
	`mean=\s+([\d.]+) seconds`)

var ciceMetrics = []*profunit.Metric{profunit.TMin, profunit.TMax, profunit.TAvg}

// A CICE5Parser parses the timer stanzas printed at the end of a
// CICE5 sea-ice diagnostic log:
//
//	Timer   1:     Total    8133.37 seconds
//	  Timer stats (node): min =     8133.36 seconds
//	                      max =     8133.37 seconds
//	                      mean=     8133.36 seconds
//	  Timer stats(block): min =        0.00 seconds
//	                      max =        0.00 seconds
//	                      mean=        0.00 seconds
type CICE5Parser struct{}

func (CICE5Parser) Metrics() []*profunit.Metric {
	return append([]*profunit.Metric(nil), ciceMetrics...)
}

func (p CICE5Parser) Parse(path string) (*proffmt.Profile, error) {
	return proffmt.ParseFile(path, p.Read)
}

func (CICE5Parser) Read(text string) (*proffmt.Profile, error) {
	matches := ciceTimer.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil, proffmt.Errorf("CICE5", proffmt.ErrNoData, "no timer statistics found")
	}
	prof := proffmt.NewProfile(CICE5Parser{}.Metrics())
	for _, m := range matches {
		row := make([]proffmt.Value, len(ciceMetrics))
		for i, s := range m[2:] {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, proffmt.Errorf("CICE5", proffmt.ErrNoData, "timer %s: bad value %q", m[1], s)
			}
			row[i] = proffmt.FloatValue(f)
		}
		prof.AppendRow(m[1], row)
	}
	return prof, nil
}
