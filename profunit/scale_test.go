// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package profunit

import (
	"math"
	"testing"
)

func TestScale(t *testing.T) {
	var cls Class
	test := func(num float64, want string) {
		t.Helper()
		got := Scale(num, cls)
		if got != want {
			t.Errorf("for %v (%v), got %s, want %s", num, cls, got, want)
		}
	}

	cls = Decimal
	test(0, "0.000")
	test(1, "1.000")
	test(-1, "-1.000")
	test(2880, "2.880k")
	test(99995, "100.0k")
	test(9999.5, "10.00k")

	cls = Time
	test(0, "0.000s")
	test(1.5, "1.500s")
	test(16282.797785, "16282.8s")
	test(12.5, "12.50s")
	test(0.0125, "12.50ms")
	test(0.0005, "500.0µs")

	cls = Fraction
	test(98.2, "98.2%")
	test(0, "0.0%")
}

func TestCommonScaleIgnoresNonFinite(t *testing.T) {
	s := CommonScale([]float64{math.Inf(1), 0.5, math.NaN()}, Time)
	if got, want := s.Format(0.5), "500.0ms"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestNoOpScaler(t *testing.T) {
	if got, want := NoOpScaler.Format(1308.3), "1308.3"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestClassOf(t *testing.T) {
	test := func(unit string, cls Class) {
		t.Helper()
		got := ClassOf(unit)
		if got != cls {
			t.Errorf("for %s, want %s, got %s", unit, cls, got)
		}
	}
	test("second", Time)
	test("s", Time)
	test("sec/op", Time)
	test("%", Fraction)
	test("percent", Fraction)
	test("dimensionless", Decimal)
	test("calls/second", Decimal)
	test("", Decimal)

	if got := Second.Class(); got != Time {
		t.Errorf("Second.Class() = %v, want Time", got)
	}
	if got := Percent.Class(); got != Fraction {
		t.Errorf("Percent.Class() = %v, want Fraction", got)
	}
}
