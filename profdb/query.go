// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package profdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/access-nri/profiling/proffmt"
	"github.com/access-nri/profiling/profunit"
)

// RunInfo describes an archived run.
type RunInfo struct {
	ID       int64
	Label    string
	Created  int64 // Unix seconds
	Profiles []string
}

// QueryRun returns the run with the given ID and the labels of its
// profiles in insertion order.
func (db *DB) QueryRun(ctx context.Context, runID int64) (*RunInfo, error) {
	info := &RunInfo{ID: runID}
	err := db.sql.QueryRowContext(ctx, "SELECT Label, Created FROM Runs WHERE RunID = ?", runID).Scan(&info.Label, &info.Created)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d: %w", runID, ErrNotFound)
	} else if err != nil {
		return nil, err
	}
	rows, err := db.sql.QueryContext(ctx, "SELECT Label FROM Profiles WHERE RunID = ? ORDER BY ProfileID", runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, err
		}
		info.Profiles = append(info.Profiles, label)
	}
	return info, rows.Err()
}

// QueryProfile reads back the profile stored under label in run
// runID. Stored metrics that match a metric of the common catalogue
// or of known by name and unit are mapped back to that metric, so
// callers can index the result with their own metric values. Other
// metrics are recreated.
func (db *DB) QueryProfile(ctx context.Context, runID int64, label string, known ...*profunit.Metric) (*proffmt.Profile, error) {
	var profileID int64
	err := db.sql.QueryRowContext(ctx, "SELECT ProfileID FROM Profiles WHERE RunID = ? AND Label = ? ORDER BY ProfileID LIMIT 1", runID, label).Scan(&profileID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d: profile %q: %w", runID, label, ErrNotFound)
	} else if err != nil {
		return nil, err
	}

	metrics, err := db.queryMetrics(ctx, runID, profileID, append(profunit.Catalogue(), known...))
	if err != nil {
		return nil, err
	}
	p := proffmt.NewProfile(metrics)

	type region struct {
		parent sql.NullInt64
		name   string
		values []proffmt.Value
		set    []bool
	}
	var regions []*region
	byID := make(map[int64]*region)
	var ids []int64
	rows, err := db.sql.QueryContext(ctx, "SELECT RegionID, Parent, Name FROM Regions WHERE RunID = ? AND ProfileID = ? ORDER BY RegionID", runID, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		r := &region{values: make([]proffmt.Value, len(metrics)), set: make([]bool, len(metrics))}
		if err := rows.Scan(&id, &r.parent, &r.name); err != nil {
			return nil, err
		}
		regions = append(regions, r)
		byID[id] = r
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	vrows, err := db.sql.QueryContext(ctx, "SELECT RegionID, Position, Kind, IntVal, FloatVal, StrVal FROM RegionValues WHERE RunID = ? AND ProfileID = ?", runID, profileID)
	if err != nil {
		return nil, err
	}
	defer vrows.Close()
	for vrows.Next() {
		var (
			id, iv int64
			pos    int
			kind   int
			fv     float64
			sv     string
		)
		if err := vrows.Scan(&id, &pos, &kind, &iv, &fv, &sv); err != nil {
			return nil, err
		}
		r := byID[id]
		if r == nil || pos < 0 || pos >= len(metrics) {
			return nil, fmt.Errorf("run %d: profile %q: value for unknown region %d column %d", runID, label, id, pos)
		}
		v, err := decodeValue(kind, iv, fv, sv)
		if err != nil {
			return nil, fmt.Errorf("run %d: profile %q: %v", runID, label, err)
		}
		r.values[pos], r.set[pos] = v, true
	}
	if err := vrows.Err(); err != nil {
		return nil, err
	}

	nodes := make(map[int64]*proffmt.Node)
	for i, r := range regions {
		if !r.parent.Valid {
			for j, ok := range r.set {
				if !ok {
					return nil, fmt.Errorf("run %d: profile %q: region %q has no %s", runID, label, r.name, metrics[j])
				}
			}
			p.AppendRow(r.name, r.values)
			continue
		}
		if p.Root == nil {
			p.Root = proffmt.NewNode("")
		}
		parent := p.Root
		if r.parent.Int64 >= 0 {
			parent = nodes[r.parent.Int64]
			if parent == nil {
				return nil, fmt.Errorf("run %d: profile %q: region %q has unknown parent %d", runID, label, r.name, r.parent.Int64)
			}
		}
		n := proffmt.NewNode(r.name)
		for j, ok := range r.set {
			if ok {
				n.Values[metrics[j]] = r.values[j]
			}
		}
		parent.Children = append(parent.Children, n)
		nodes[ids[i]] = n
	}
	return p, nil
}

// queryMetrics returns the metric columns of a stored profile.
func (db *DB) queryMetrics(ctx context.Context, runID, profileID int64, known []*profunit.Metric) ([]*profunit.Metric, error) {
	rows, err := db.sql.QueryContext(ctx, "SELECT Name, Unit, Description FROM ProfileMetrics WHERE RunID = ? AND ProfileID = ? ORDER BY Position", runID, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var metrics []*profunit.Metric
	for rows.Next() {
		var name, unit, desc string
		if err := rows.Scan(&name, &unit, &desc); err != nil {
			return nil, err
		}
		m := lookupMetric(known, name, profunit.Unit(unit))
		if m == nil {
			if m, err = profunit.NewMetric(name, profunit.Unit(unit), desc); err != nil {
				return nil, err
			}
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

func lookupMetric(known []*profunit.Metric, name string, unit profunit.Unit) *profunit.Metric {
	for _, m := range known {
		if m.Name() == name && m.Unit() == unit {
			return m
		}
	}
	return nil
}
