// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package profdb_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	. "github.com/access-nri/profiling/profdb"
	"github.com/access-nri/profiling/profdb/profdbtest"
	"github.com/access-nri/profiling/proffmt"
	"github.com/access-nri/profiling/profunit"
	"github.com/google/go-cmp/cmp"
)

var profileCmp = []cmp.Option{
	cmp.Comparer(func(a, b *profunit.Metric) bool { return a == b }),
	cmp.Comparer(func(a, b proffmt.Value) bool {
		return a.Kind() == b.Kind() && a.String() == b.String()
	}),
}

var petCount = profunit.MustMetric("pet_count", profunit.Dimensionless, "Number of threads")

func flatProfile() *proffmt.Profile {
	p := proffmt.NewProfile([]*profunit.Metric{profunit.Count, profunit.TMax, petCount, profunit.Grain})
	p.AppendRow("Total runtime", []proffmt.Value{
		proffmt.IntValue(1), proffmt.FloatValue(16282.906978), proffmt.IntValue(96), proffmt.IntValue(0),
	})
	p.AppendRow("Ocean", []proffmt.Value{
		proffmt.IntValue(24), proffmt.FloatValue(math.Inf(1)), proffmt.IntValue(-1), proffmt.StringValue("n/a"),
	})
	return p
}

func treeProfile() *proffmt.Profile {
	p := proffmt.NewProfile([]*profunit.Metric{profunit.Count, profunit.TAvg})
	root := proffmt.NewNode("")
	run := root.Lookup("[ESMF]")
	run.Values[profunit.Count] = proffmt.IntValue(1)
	run.Values[profunit.TAvg] = proffmt.FloatValue(12.5)
	ocn := run.Lookup("[OCN] RunPhase1")
	ocn.Values[profunit.Count] = proffmt.IntValue(12)
	ocn.Values[profunit.TAvg] = proffmt.FloatValue(8.25)
	ocn.Lookup("[OCN] ocean step").Values[profunit.TAvg] = proffmt.FloatValue(7)
	atm := run.Lookup("[ATM] RunPhase1")
	atm.Values[profunit.Count] = proffmt.IntValue(12)
	p.AppendRow("[ESMF]", []proffmt.Value{proffmt.IntValue(1), proffmt.FloatValue(12.5)})
	p.Root = root
	return p
}

// TestRunIDs verifies that NewRun generates increasing run IDs and
// records the creation time.
func TestRunIDs(t *testing.T) {
	ctx := context.Background()
	db := profdbtest.NewDB(t)

	SetNow(time.Unix(86400, 0))
	defer SetNow(time.Time{})

	for want := int64(1); want <= 3; want++ {
		r, err := db.NewRun(ctx, "run")
		if err != nil {
			t.Fatalf("NewRun: %v", err)
		}
		if err := r.Commit(); err != nil {
			t.Fatalf("Commit: %v", err)
		}
		if r.ID != want {
			t.Fatalf("r.ID = %d, want %d", r.ID, want)
		}
	}
	info, err := db.QueryRun(ctx, 2)
	if err != nil {
		t.Fatalf("QueryRun: %v", err)
	}
	if info.Label != "run" || info.Created != 86400 || len(info.Profiles) != 0 {
		t.Errorf("QueryRun(2) = %+v, want label run created 86400 with no profiles", info)
	}
	if n, err := db.CountRuns(); err != nil || n != 3 {
		t.Errorf("CountRuns() = %d, %v, want 3", n, err)
	}
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := profdbtest.NewDB(t)

	r, err := db.NewRun(ctx, "ACCESS-OM2 1deg")
	if err != nil {
		t.Fatalf("NewRun: %v", err)
	}
	flat, tree := flatProfile(), treeProfile()
	if err := r.InsertProfile("MOM", flat); err != nil {
		t.Fatalf("InsertProfile: %v", err)
	}
	if err := r.InsertProfile("ESMF", tree); err != nil {
		t.Fatalf("InsertProfile: %v", err)
	}
	if err := r.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	info, err := db.QueryRun(ctx, r.ID)
	if err != nil {
		t.Fatalf("QueryRun: %v", err)
	}
	if diff := cmp.Diff([]string{"MOM", "ESMF"}, info.Profiles); diff != "" {
		t.Errorf("wrong profiles: (-want +got)\n%s", diff)
	}

	for _, test := range []struct {
		label string
		want  *proffmt.Profile
	}{
		{"MOM", flat},
		{"ESMF", tree},
	} {
		got, err := db.QueryProfile(ctx, r.ID, test.label, petCount)
		if err != nil {
			t.Errorf("QueryProfile(%q): %v", test.label, err)
			continue
		}
		if diff := cmp.Diff(test.want, got, profileCmp...); diff != "" {
			t.Errorf("QueryProfile(%q): (-want +got)\n%s", test.label, diff)
		}
	}
}

func TestQueryUnknownMetric(t *testing.T) {
	ctx := context.Background()
	db := profdbtest.NewDB(t)

	r, err := db.NewRun(ctx, "")
	if err != nil {
		t.Fatalf("NewRun: %v", err)
	}
	if err := r.InsertProfile("MOM", flatProfile()); err != nil {
		t.Fatalf("InsertProfile: %v", err)
	}
	if err := r.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	got, err := db.QueryProfile(ctx, r.ID, "MOM")
	if err != nil {
		t.Fatalf("QueryProfile: %v", err)
	}
	if got.Metrics[0] != profunit.Count || got.Metrics[1] != profunit.TMax {
		t.Errorf("catalogue metrics not restored: %v", got.Metrics)
	}
	m := got.Metrics[2]
	if m == petCount {
		t.Errorf("unregistered metric %v restored to caller's value", m)
	}
	if m.Name() != petCount.Name() || m.Unit() != petCount.Unit() || m.Description() != petCount.Description() {
		t.Errorf("metric = %q %q %q, want %q %q %q", m.Name(), m.Unit(), m.Description(), petCount.Name(), petCount.Unit(), petCount.Description())
	}
	if v, _ := got.Value(0, m).Int(); v != 96 {
		t.Errorf("pet_count of %s = %d, want 96", got.Regions[0], v)
	}
}

func TestQueryNotFound(t *testing.T) {
	ctx := context.Background()
	db := profdbtest.NewDB(t)

	r, err := db.NewRun(ctx, "")
	if err != nil {
		t.Fatalf("NewRun: %v", err)
	}
	if err := r.InsertProfile("MOM", flatProfile()); err != nil {
		t.Fatalf("InsertProfile: %v", err)
	}
	if err := r.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if _, err := db.QueryRun(ctx, r.ID+1); !errors.Is(err, ErrNotFound) {
		t.Errorf("QueryRun(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := db.QueryProfile(ctx, r.ID, "CICE"); !errors.Is(err, ErrNotFound) {
		t.Errorf("QueryProfile(missing label) error = %v, want ErrNotFound", err)
	}
	if _, err := db.QueryProfile(ctx, r.ID+1, "MOM"); !errors.Is(err, ErrNotFound) {
		t.Errorf("QueryProfile(missing run) error = %v, want ErrNotFound", err)
	}
}

// TestAbort verifies that an aborted run leaves no rows behind.
func TestAbort(t *testing.T) {
	ctx := context.Background()
	db := profdbtest.NewDB(t)

	r, err := db.NewRun(ctx, "")
	if err != nil {
		t.Fatalf("NewRun: %v", err)
	}
	if err := r.InsertProfile("MOM", flatProfile()); err != nil {
		t.Fatalf("InsertProfile: %v", err)
	}
	if err := r.Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	for _, table := range []string{"Runs", "Profiles", "Regions", "RegionValues"} {
		var n int
		if err := DBSQL(db).QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			t.Fatal(err)
		}
		if n != 0 {
			t.Errorf("found %d row(s) in %s, want 0", n, table)
		}
	}
}

func TestInsertMisaligned(t *testing.T) {
	ctx := context.Background()
	db := profdbtest.NewDB(t)

	r, err := db.NewRun(ctx, "")
	if err != nil {
		t.Fatalf("NewRun: %v", err)
	}
	defer r.Abort()
	p := flatProfile()
	p.Values[profunit.TMax] = p.Values[profunit.TMax][:1]
	if err := r.InsertProfile("MOM", p); err == nil {
		t.Error("InsertProfile of misaligned profile succeeded")
	}
}
