// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package profparse

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/access-nri/profiling/proffmt"
	"github.com/access-nri/profiling/profunit"
	"github.com/go-logr/logr"
	_ "github.com/mattn/go-sqlite3"
)

const cylcTable = "task_jobs"

// cylcColumns are the task_jobs columns read by CylcDBReader.
var cylcColumns = []string{"cycle", "name", "time_run", "time_run_exit", "run_status"}

// sqliteURIEscaper escapes the characters that end or quote the path
// part of an SQLite URI filename.
var sqliteURIEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// A CylcDBReader reports the run time of each succeeded task job in a
// Cylc workflow database (log/db). Each job becomes a region named
// <task>_cycle<cycle point>.
type CylcDBReader struct {
	Logger logr.Logger
}

func (r *CylcDBReader) Metrics() []*profunit.Metric {
	return []*profunit.Metric{profunit.TMax}
}

func (r *CylcDBReader) Parse(path string) (*proffmt.Profile, error) {
	return r.ParseContext(context.Background(), path)
}

// ParseContext is like Parse but runs the database queries with ctx.
func (r *CylcDBReader) ParseContext(ctx context.Context, path string) (*proffmt.Profile, error) {
	if path == "" {
		return nil, fmt.Errorf("open: %w: empty path", proffmt.ErrInvalidPath)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fmt.Errorf("not a regular file: %w", fs.ErrNotExist)}
	}

	db, err := sql.Open("sqlite3", "file:"+sqliteURIEscaper.Replace(path)+"?mode=ro")
	if err != nil {
		return nil, err
	}
	defer db.Close()

	prof, err := r.read(ctx, db)
	if perr, ok := err.(*proffmt.ParseError); ok {
		perr.File = path
	}
	return prof, err
}

func (r *CylcDBReader) read(ctx context.Context, db *sql.DB) (*proffmt.Profile, error) {
	if err := checkCylcSchema(ctx, db); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, "SELECT "+strings.Join(cylcColumns, ", ")+" FROM "+cylcTable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prof := proffmt.NewProfile(r.Metrics())
	skipped := 0
	for rows.Next() {
		var (
			cycle, name, started, exited sql.NullString
			status                       sql.NullInt64
		)
		if err := rows.Scan(&cycle, &name, &started, &exited, &status); err != nil {
			return nil, err
		}
		if !status.Valid || status.Int64 != 0 {
			skipped++
			continue
		}
		region := name.String + "_cycle" + cycle.String
		start, err := parseTimestamp(started.String)
		if err != nil {
			return nil, proffmt.Errorf("Cylc database", proffmt.ErrIntegrity, "job %s: time_run: %v", region, err)
		}
		end, err := parseTimestamp(exited.String)
		if err != nil {
			return nil, proffmt.Errorf("Cylc database", proffmt.ErrIntegrity, "job %s: time_run_exit: %v", region, err)
		}
		prof.AppendRow(region, []proffmt.Value{proffmt.IntValue(wholeSeconds(end.Sub(start)))})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	r.Logger.V(1).Info("read task jobs", "succeeded", prof.Len(), "skipped", skipped)
	if prof.Len() == 0 {
		return nil, proffmt.Errorf("Cylc database", proffmt.ErrNoData, "no succeeded task jobs")
	}
	return prof, nil
}

// checkCylcSchema verifies that db has the task_jobs table with the
// columns read by CylcDBReader.
func checkCylcSchema(ctx context.Context, db *sql.DB) error {
	var n int
	err := db.QueryRowContext(ctx, "SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?", cylcTable).Scan(&n)
	if err != nil {
		return err
	}
	if n == 0 {
		return proffmt.Errorf("Cylc database", proffmt.ErrSchema, "table %q not found", cylcTable)
	}

	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+cylcTable+")")
	if err != nil {
		return err
	}
	defer rows.Close()
	have := make(map[string]bool)
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, typ        string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return err
		}
		have[name] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}
	var missing []string
	for _, c := range cylcColumns {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return proffmt.Errorf("Cylc database", proffmt.ErrSchema, "table %q is missing columns %s", cylcTable, strings.Join(missing, ", "))
	}
	return nil
}
