// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package profparse

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/access-nri/profiling/proffmt"
	"github.com/access-nri/profiling/profunit"
	"github.com/go-logr/logr/testr"
)

func TestCylc(t *testing.T) {
	prof, err := CylcParser{}.Parse(filepath.Join("testdata", "cylc.log"))
	if err != nil {
		t.Fatal(err)
	}
	checkColumn(t, "regions", prof.Regions, []string{"pipeline_elapsed_time"})
	checkColumn(t, "tmax", ints(t, prof, profunit.TMax), []int64{976632499})
}

func TestCylcInvalid(t *testing.T) {
	log := readTestdata(t, "cylc.log")
	for _, test := range []struct {
		name string
		text string
		msg  string
	}{
		{"empty", "", "empty"},
		{"incomplete", strings.Replace(log, "DONE", "potato", 1), "incomplete"},
		{"no first timestamp", "Invalid start to log\n" + log, "first line"},
		{"bad last timestamp", log + "1234-56-78T90:12:34Z INFO - DONE", "last line"},
		{"blank last line", log + "\n \n", "incomplete"},
	} {
		t.Run(test.name, func(t *testing.T) {
			_, err := CylcParser{}.Read(test.text)
			if !errors.Is(err, proffmt.ErrNoData) {
				t.Fatalf("error = %v, want ErrNoData", err)
			}
			if !strings.Contains(err.Error(), test.msg) {
				t.Errorf("error = %q, want mention of %q", err, test.msg)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	utc := func(y int, mo time.Month, d, h, mi, s int) time.Time {
		return time.Date(y, mo, d, h, mi, s, 0, time.UTC)
	}
	for _, test := range []struct {
		in   string
		want time.Time
	}{
		{"2025-10-17T14:18:20Z", utc(2025, 10, 17, 14, 18, 20)},
		{"2025-10-17T14:18:20+00:00", utc(2025, 10, 17, 14, 18, 20)},
		{"2025-10-17T16:18:20+02:00", utc(2025, 10, 17, 14, 18, 20)},
		{"2025-10-17T14:18:20", utc(2025, 10, 17, 14, 18, 20)},
		{"2025-10-17T14:18:20.5Z", utc(2025, 10, 17, 14, 18, 20).Add(500 * time.Millisecond)},
		{"2025-10-17T14:18Z", utc(2025, 10, 17, 14, 18, 0)},
		{"2025-10-17", utc(2025, 10, 17, 0, 0, 0)},
		{"20250101T0000Z", utc(2025, 1, 1, 0, 0, 0)},
	} {
		got, err := parseTimestamp(test.in)
		if err != nil || !got.Equal(test.want) {
			t.Errorf("parseTimestamp(%q) = %v, %v, want %v", test.in, got, err, test.want)
		}
	}
	for _, bad := range []string{"", "Invalid", "1234-56-78T90:12:34Z", "2025-13-01T00:00:00Z"} {
		if _, err := parseTimestamp(bad); err == nil {
			t.Errorf("parseTimestamp(%q) succeeded", bad)
		}
	}
}

type taskJob struct {
	cycle, name, run, exit string
	status                 int
}

// createCylcDB creates an SQLite database at path with one table of
// five columns holding jobs.
func createCylcDB(t *testing.T, path, table string, columns []string, jobs []taskJob) {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	create := fmt.Sprintf("CREATE TABLE %s (%s TEXT, %s TEXT, %s TEXT, %s TEXT, %s INTEGER)",
		table, columns[0], columns[1], columns[2], columns[3], columns[4])
	if _, err := db.Exec(create); err != nil {
		t.Fatal(err)
	}
	for _, j := range jobs {
		if _, err := db.Exec("INSERT INTO "+table+" VALUES (?, ?, ?, ?, ?)", j.cycle, j.name, j.run, j.exit, j.status); err != nil {
			t.Fatal(err)
		}
	}
}

var sampleJobs = []taskJob{
	{"20250101T0000Z", "task1", "2025-01-01T00:00:00Z", "2025-01-02T00:00:00Z", 0},
	{"20250101T0000Z", "test2", "2025-01-01T00:00:00Z", "2025-01-01T00:00:10Z", 0},
}

func TestCylcDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cylc.db")
	createCylcDB(t, path, cylcTable, cylcColumns, sampleJobs)

	r := &CylcDBReader{Logger: testr.New(t)}
	prof, err := r.Parse(path)
	if err != nil {
		t.Fatal(err)
	}
	checkColumn(t, "regions", prof.Regions, []string{"task1_cycle20250101T0000Z", "test2_cycle20250101T0000Z"})
	checkColumn(t, "tmax", ints(t, prof, profunit.TMax), []int64{86400, 10})
}

func TestCylcDBFailedJobs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cylc.db")
	jobs := append([]taskJob(nil), sampleJobs...)
	jobs[0].status = 1
	createCylcDB(t, path, cylcTable, cylcColumns, jobs)

	prof, err := (&CylcDBReader{}).Parse(path)
	if err != nil {
		t.Fatal(err)
	}
	checkColumn(t, "regions", prof.Regions, []string{"test2_cycle20250101T0000Z"})

	path = filepath.Join(t.TempDir(), "failed.db")
	createCylcDB(t, path, cylcTable, cylcColumns, jobs[:1])
	if _, err := (&CylcDBReader{}).Parse(path); !errors.Is(err, proffmt.ErrNoData) {
		t.Errorf("all jobs failed: error = %v, want ErrNoData", err)
	}
}

func TestCylcDBErrors(t *testing.T) {
	dir := t.TempDir()
	wrongTable := filepath.Join(dir, "table.db")
	createCylcDB(t, wrongTable, "wrongtable", cylcColumns, sampleJobs)
	wrongCols := filepath.Join(dir, "cols.db")
	createCylcDB(t, wrongCols, cylcTable, []string{"col0", "col1", "time_run", "col3", "col4"}, sampleJobs)

	for _, test := range []struct {
		path string
		want error
		msg  string
	}{
		{"", proffmt.ErrInvalidPath, ""},
		{filepath.Join(dir, "missing.db"), fs.ErrNotExist, ""},
		{dir, fs.ErrNotExist, ""},
		{wrongTable, proffmt.ErrSchema, "task_jobs"},
		{wrongCols, proffmt.ErrSchema, "cycle, name, time_run_exit, run_status"},
	} {
		_, err := (&CylcDBReader{}).Parse(test.path)
		if !errors.Is(err, test.want) {
			t.Errorf("Parse(%q) error = %v, want %v", test.path, err, test.want)
			continue
		}
		if !strings.Contains(err.Error(), test.msg) {
			t.Errorf("Parse(%q) error = %q, want mention of %q", test.path, err, test.msg)
		}
	}
}
