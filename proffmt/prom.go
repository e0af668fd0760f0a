// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proffmt

import (
	"io"
	"strings"

	"github.com/access-nri/profiling/profunit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// PromName returns the Prometheus metric name for m, without a
// namespace. Characters that are not valid in metric names become
// underscores, and time and percentage units add a unit suffix.
func PromName(m *profunit.Metric) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case 'a' <= r && r <= 'z', '0' <= r && r <= '9', r == '_':
			return r
		case 'A' <= r && r <= 'Z':
			return r - 'A' + 'a'
		}
		return '_'
	}, m.Name())
	switch m.Unit().Class() {
	case profunit.Time:
		name += "_seconds"
	case profunit.Fraction:
		name += "_percent"
	}
	return name
}

// WritePrometheus writes the profiles in the Prometheus text
// exposition format. Each metric becomes a gauge family labeled by
// log and region. String values are skipped.
func WritePrometheus(w io.Writer, namespace string, profiles []Labeled) error {
	reg := prometheus.NewPedanticRegistry()
	gauges := make(map[string]*prometheus.GaugeVec)
	for _, lp := range profiles {
		rs := csvRows(lp.Profile)
		for _, m := range lp.Metrics {
			name := PromName(m)
			g, ok := gauges[name]
			if !ok {
				g = prometheus.NewGaugeVec(prometheus.GaugeOpts{
					Namespace: namespace,
					Name:      name,
					Help:      m.Description(),
				}, []string{"log", "region"})
				if err := reg.Register(g); err != nil {
					return err
				}
				gauges[name] = g
			}
			for _, r := range rs {
				v, ok := r.values[m]
				if !ok {
					continue
				}
				if f, ok := v.Float64(); ok {
					g.WithLabelValues(lp.Label, r.name).Set(f)
				}
			}
		}
	}

	mfs, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
