// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package profparse

import (
	"fmt"
	"strings"
	"time"

	"github.com/access-nri/profiling/proffmt"
	"github.com/access-nri/profiling/profunit"
)

// isoLayouts are the ISO 8601 forms accepted for Cylc timestamps.
// Layouts without a zone offset are read as UTC.
var isoLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
	"20060102T150405Z07:00",
	"20060102T1504Z07:00",
	"20060102T150405",
}

// parseTimestamp parses an ISO 8601 timestamp as written by Cylc.
func parseTimestamp(s string) (time.Time, error) {
	if strings.HasSuffix(s, "Z") {
		s = strings.TrimSuffix(s, "Z") + "+00:00"
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// lineTimestamp parses the timestamp at the start of line.
func lineTimestamp(line string) (time.Time, error) {
	f := strings.Fields(line)
	if len(f) == 0 {
		return time.Time{}, fmt.Errorf("missing timestamp")
	}
	return parseTimestamp(f[0])
}

// wholeSeconds returns d in seconds, truncated toward zero.
func wholeSeconds(d time.Duration) int64 {
	return int64(d / time.Second)
}

// A CylcParser reports the elapsed time of a Cylc workflow from its
// scheduler log:
//
//	2025-10-17T00:51:12Z INFO - Suite server: url=... pid=152868
//	...
//	2025-10-17T01:36:30Z INFO - DONE
//
// The result has a single region, pipeline_elapsed_time, holding the
// whole seconds between the first and last timestamps.
type CylcParser struct{}

func (CylcParser) Metrics() []*profunit.Metric {
	return []*profunit.Metric{profunit.TMax}
}

func (p CylcParser) Parse(path string) (*proffmt.Profile, error) {
	return proffmt.ParseFile(path, p.Read)
}

func (p CylcParser) Read(text string) (*proffmt.Profile, error) {
	lines := splitLines(text)
	if len(lines) == 0 {
		return nil, proffmt.Errorf("Cylc log", proffmt.ErrNoData, "log is empty")
	}
	first, last := lines[0], lines[len(lines)-1]
	if !strings.Contains(last, "DONE") {
		return nil, proffmt.Errorf("Cylc log", proffmt.ErrNoData, "log is incomplete")
	}
	start, err := lineTimestamp(first)
	if err != nil {
		return nil, proffmt.Errorf("Cylc log", proffmt.ErrNoData, "first line of log doesn't contain a valid timestamp: %v", err)
	}
	end, err := lineTimestamp(last)
	if err != nil {
		return nil, proffmt.Errorf("Cylc log", proffmt.ErrNoData, "last line of log doesn't contain a valid timestamp: %v", err)
	}
	prof := proffmt.NewProfile(p.Metrics())
	prof.AppendRow("pipeline_elapsed_time", []proffmt.Value{proffmt.IntValue(wholeSeconds(end.Sub(start)))})
	return prof, nil
}
