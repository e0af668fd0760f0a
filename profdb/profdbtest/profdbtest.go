// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package profdbtest provides an empty profile archive for tests.
package profdbtest

import (
	"testing"

	"github.com/access-nri/profiling/profdb"
)

// NewDB opens an empty in-memory sqlite3 archive. The archive is
// closed when the test finishes.
func NewDB(t testing.TB) *profdb.DB {
	t.Helper()
	d, err := profdb.OpenSQL("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	// Make sure the database really is empty.
	runs, err := d.CountRuns()
	if err != nil {
		t.Fatal(err)
	}
	if runs != 0 {
		t.Fatalf("found %d row(s) in Runs, want 0", runs)
	}
	return d
}
