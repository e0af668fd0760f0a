// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proffmt

import (
	"reflect"
	"strings"
	"testing"

	"github.com/access-nri/profiling/profunit"
)

func TestProfileAppendRow(t *testing.T) {
	p := NewProfile([]*profunit.Metric{profunit.TMin, profunit.TMax})
	if err := p.Check(); err != nil {
		t.Fatalf("empty profile: %v", err)
	}
	p.AppendRow("Total", []Value{FloatValue(1), FloatValue(2)})
	p.AppendRow("Ocean", []Value{FloatValue(3), FloatValue(4)})
	if err := p.Check(); err != nil {
		t.Fatal(err)
	}
	if p.Len() != 2 {
		t.Errorf("Len() = %d, want 2", p.Len())
	}
	if got := p.Value(1, profunit.TMax); got != FloatValue(4) {
		t.Errorf("Value(1, TMax) = %v, want 4", got)
	}
	if i := p.Index("Ocean"); i != 1 {
		t.Errorf("Index(Ocean) = %d, want 1", i)
	}
	if i := p.Index("Ice"); i != -1 {
		t.Errorf("Index(Ice) = %d, want -1", i)
	}
	p.Set(0, profunit.TMin, IntValue(0))
	want := []Value{IntValue(0), FloatValue(3)}
	if got := p.Column(profunit.TMin); !reflect.DeepEqual(got, want) {
		t.Errorf("Column(TMin) = %v, want %v", got, want)
	}
}

func TestProfileAppendRowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("short row did not panic")
		}
	}()
	p := NewProfile([]*profunit.Metric{profunit.TMin, profunit.TMax})
	p.AppendRow("Total", []Value{FloatValue(1)})
}

func TestProfileCheck(t *testing.T) {
	p := NewProfile([]*profunit.Metric{profunit.TMin})
	p.Regions = append(p.Regions, "dangling")
	err := p.Check()
	if err == nil || !strings.Contains(err.Error(), "time_minimum") {
		t.Errorf("Check() = %v, want misaligned column error", err)
	}

	p = NewProfile([]*profunit.Metric{profunit.TMin})
	delete(p.Values, profunit.TMin)
	p.Values[profunit.TMax] = nil
	if err := p.Check(); err == nil {
		t.Error("Check() = nil for missing column")
	}
}

func TestNodeTree(t *testing.T) {
	root := NewNode("")
	a := root.Lookup("a")
	a.Lookup("a1").Values[profunit.Count] = IntValue(1)
	a.Lookup("a2")
	root.Lookup("b")
	if again := root.Lookup("a"); again != a {
		t.Error("Lookup created a duplicate child")
	}
	if root.Child("c") != nil {
		t.Error("Child(c) != nil")
	}

	var got []string
	root.Walk(func(n *Node, depth int) error {
		got = append(got, strings.Repeat(".", depth)+n.Name)
		return nil
	})
	want := []string{"a", ".a1", ".a2", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Walk visited %q, want %q", got, want)
	}
}
