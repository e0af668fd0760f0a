// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package profunit defines the metrics reported by profiling logs,
// their units, and how values in those units are formatted.
//
// A Metric is compared by identity: parsed profiles are keyed by
// *Metric, so two metrics that happen to share a display name never
// collide.
package profunit

import (
	"errors"
	"strings"
)

// A Metric describes one statistic measured per profiling region.
// Metrics are immutable once created and are always handled by
// pointer.
type Metric struct {
	name        string
	unit        Unit
	description string
}

// NewMetric returns a new Metric. It returns an error if any of name,
// unit, or description is empty or consists only of white space.
func NewMetric(name string, unit Unit, description string) (*Metric, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("metric name cannot be empty")
	}
	if strings.TrimSpace(string(unit)) == "" {
		return nil, errors.New("metric unit cannot be empty")
	}
	if strings.TrimSpace(description) == "" {
		return nil, errors.New("metric description cannot be empty")
	}
	return &Metric{name, unit, description}, nil
}

// MustMetric is like NewMetric but panics on error. It is intended
// for package-level metric declarations.
func MustMetric(name string, unit Unit, description string) *Metric {
	m, err := NewMetric(name, unit, description)
	if err != nil {
		panic(err)
	}
	return m
}

// Name returns the display name of m.
func (m *Metric) Name() string { return m.name }

// Unit returns the unit tag of m.
func (m *Metric) Unit() Unit { return m.unit }

// Description returns the human-readable description of m.
func (m *Metric) Description() string { return m.description }

func (m *Metric) String() string { return m.name }

// Common metrics shared by several log formats.
var (
	Count = MustMetric("count", Dimensionless, "Number of calls to region")
	TMin  = MustMetric("time_minimum", Second, "Minimum time spent in region")
	TMax  = MustMetric("time_maximum", Second, "Maximum time spent in region")
	TAvg  = MustMetric("time_average", Second, "Average time spent in region")
	TMed  = MustMetric("time_median", Second, "Median time spent in region")
	TStd  = MustMetric("time_std", Second, "Standard deviation of time spent in region")
	TFrac = MustMetric("time_fraction", Percent, "Fraction of total time spent in region")
	PEMin = MustMetric("pe_minimum", Dimensionless, "Processing element where minimum time was recorded")
	PEMax = MustMetric("pe_maximum", Dimensionless, "Processing element where maximum time was recorded")
	Grain = MustMetric("grain", Dimensionless, "Clock granularity level of region")
)

// Catalogue returns the common metrics in a stable order.
func Catalogue() []*Metric {
	return []*Metric{Count, TMin, TMax, TAvg, TMed, TStd, TFrac, PEMin, PEMax, Grain}
}
