// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proffmt

import (
	"errors"
	"math"
	"strconv"
)

// A Kind is the type of a Value.
type Kind int

const (
	Int Kind = iota
	Float
	String
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// A Value is a single measurement. It is an integer, a floating-point
// number, or, when the source text is not numeric, the raw string.
//
// The zero Value is the integer 0.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

// IntValue returns an integer Value.
func IntValue(v int64) Value { return Value{kind: Int, i: v} }

// FloatValue returns a floating-point Value.
func FloatValue(v float64) Value { return Value{kind: Float, f: v} }

// StringValue returns a string Value.
func StringValue(v string) Value { return Value{kind: String, s: v} }

// ParseValue converts s to the most specific Value it represents:
// an integer if s parses as one, otherwise a float if s parses as
// one, otherwise the string itself.
//
// Floats that overflow become ±Inf rather than falling back to a
// string, so "1e500" is +Inf.
func ParseValue(s string) Value {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntValue(i)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err == nil {
		return FloatValue(f)
	}
	var numErr *strconv.NumError
	if errors.As(err, &numErr) && numErr.Err == strconv.ErrRange {
		return FloatValue(f)
	}
	return StringValue(s)
}

// Kind returns the kind of v.
func (v Value) Kind() Kind { return v.kind }

// Int returns v as an integer. ok is false if v is not an Int.
func (v Value) Int() (i int64, ok bool) {
	return v.i, v.kind == Int
}

// Float64 returns v as a float64, converting integers. ok is false
// if v is a String.
func (v Value) Float64() (f float64, ok bool) {
	switch v.kind {
	case Int:
		return float64(v.i), true
	case Float:
		return v.f, true
	}
	return math.NaN(), false
}

// Scale returns v multiplied by factor. Integers become floats.
// Strings are returned unchanged.
func (v Value) Scale(factor float64) Value {
	if f, ok := v.Float64(); ok {
		return FloatValue(f * factor)
	}
	return v
}

// String formats v with the minimal number of digits needed to
// represent it exactly.
func (v Value) String() string {
	switch v.kind {
	case Float:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case String:
		return v.s
	}
	return strconv.FormatInt(v.i, 10)
}

// MarshalJSON encodes numbers as JSON numbers. Non-finite floats and
// strings are encoded as JSON strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case Int:
		return strconv.AppendInt(nil, v.i, 10), nil
	case Float:
		if !math.IsInf(v.f, 0) && !math.IsNaN(v.f) {
			return strconv.AppendFloat(nil, v.f, 'g', -1, 64), nil
		}
	}
	return strconv.AppendQuote(nil, v.String()), nil
}
