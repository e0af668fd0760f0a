// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package profunit

import (
	"fmt"
	"math"
	"strconv"
)

// A Scaler represents a scaling factor for a number and the suffix
// that names the scaled unit.
type Scaler struct {
	Prec   int     // Digits after the decimal point
	Factor float64 // Unscaled value of 1 Suffix (e.g., 1 ms => 0.001)
	Suffix string  // Unit suffix ("k", "ms", "%", etc)
}

// Format formats val and appends the unit suffix according to the
// given scale. For example, with a Time scale chosen for 0.0123,
// Format(0.0123) returns "12.30ms".
func (s Scaler) Format(val float64) string {
	buf := make([]byte, 0, 20)
	buf = strconv.AppendFloat(buf, val/s.Factor, 'f', s.Prec, 64)
	buf = append(buf, s.Suffix...)
	return string(buf)
}

// NoOpScaler is a Scaler that formats numbers with the smallest
// number of digits necessary to capture the exact value, and no
// suffix. This is intended for output consumed by another program,
// such as CSV.
var NoOpScaler = Scaler{-1, 1, ""}

type factor struct {
	factor float64
	suffix string
	// Thresholds for 100.0, 10.00, 1.000.
	t100, t10, t1 float64
}

var (
	siFactors   = mkFactors(12, []string{"T", "G", "M", "k", "", "m", "µ", "n"})
	timeFactors = mkFactors(0, []string{"s", "ms", "µs", "ns"})
)

var sigfigs, sigfigsBase = mkSigfigs()

// mkFactors returns factors for the given suffixes, starting at
// 10^exp and stepping down by 1000.
func mkFactors(exp int, suffixes []string) []factor {
	// Thresholds are built by parsing the printed representation
	// so they match how printing itself rounds.
	var factors []factor
	for _, s := range suffixes {
		t100, _ := strconv.ParseFloat(fmt.Sprintf("99.995e%d", exp), 64)
		t10, _ := strconv.ParseFloat(fmt.Sprintf("9.9995e%d", exp), 64)
		t1, _ := strconv.ParseFloat(fmt.Sprintf(".99995e%d", exp), 64)
		factors = append(factors, factor{math.Pow(10, float64(exp)), s, t100, t10, t1})
		exp -= 3
	}
	return factors
}

func mkSigfigs() ([]float64, int) {
	var sigfigs []float64
	for exp := -1; exp > -9; exp-- {
		thresh, _ := strconv.ParseFloat(fmt.Sprintf("9.9995e%d", exp), 64)
		sigfigs = append(sigfigs, thresh)
	}
	// sigfigs[0] is the threshold for 3 digits after the decimal.
	return sigfigs, 3
}

// Scale formats val using at least three significant digits and the
// suffix appropriate to cls. See Scaler.Format.
func Scale(val float64, cls Class) string {
	return CommonScale([]float64{val}, cls).Format(val)
}

// CommonScale returns a common Scaler to apply to all values in vals.
// This scale will show at least three significant digits for every
// value.
func CommonScale(vals []float64, cls Class) Scaler {
	var factors []factor
	switch cls {
	default:
		panic(fmt.Sprintf("bad Class %v", cls))
	case Fraction:
		return Scaler{1, 1, "%"}
	case Decimal:
		factors = siFactors
	case Time:
		factors = timeFactors
	}

	// The common scale is determined by the non-zero value
	// closest to zero.
	var min float64
	for _, v := range vals {
		v = math.Abs(v)
		if v != 0 && !math.IsInf(v, 0) && !math.IsNaN(v) && (min == 0 || v < min) {
			min = v
		}
	}
	if min == 0 {
		if cls == Time {
			return Scaler{3, 1, "s"}
		}
		return Scaler{3, 1, ""}
	}

	for _, factor := range factors {
		switch {
		case min >= factor.t100:
			return Scaler{1, factor.factor, factor.suffix}
		case min >= factor.t10:
			return Scaler{2, factor.factor, factor.suffix}
		case min >= factor.t1:
			return Scaler{3, factor.factor, factor.suffix}
		}
	}

	// The value is less than the smallest factor. Print it using
	// the smallest factor and more precision.
	factor := factors[len(factors)-1]
	val := min / factor.factor
	for i, thresh := range sigfigs {
		if val >= thresh || i == len(sigfigs)-1 {
			return Scaler{i + sigfigsBase, factor.factor, factor.suffix}
		}
	}

	panic("not reachable")
}
