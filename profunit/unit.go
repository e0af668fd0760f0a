// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package profunit

import (
	"fmt"
	"unicode"
)

// A Unit is a declarative physical-unit tag such as "second".
// Values are never converted between units.
type Unit string

const (
	Second        Unit = "second"
	Dimensionless Unit = "dimensionless"
	Percent       Unit = "%"
)

// A Class specifies how values of a unit are scaled for display.
type Class int

const (
	// Decimal values are scaled by powers of 1000 using SI
	// prefixes such as "k" and "M".
	Decimal Class = iota
	// Time values are in seconds and are scaled down to "ms",
	// "µs", and "ns" when small.
	Time
	// Fraction values are percentages and are never scaled.
	Fraction
)

func (c Class) String() string {
	switch c {
	case Decimal:
		return "Decimal"
	case Time:
		return "Time"
	case Fraction:
		return "Fraction"
	}
	return fmt.Sprintf("Class(%d)", int(c))
}

// Class returns the display class of u. See ClassOf.
func (u Unit) Class() Class { return ClassOf(string(u)) }

// ClassOf returns the Class of unit. If the numerator of unit is a
// measure of seconds, this is Time. If it is a percentage, this is
// Fraction. Otherwise, it is Decimal.
func ClassOf(unit string) Class {
	p := newParser(unit)
	for p.next() {
		if p.denom {
			continue
		}
		switch p.tok {
		case "s", "sec", "second", "seconds":
			return Time
		case "%", "percent":
			return Fraction
		}
	}
	return Decimal
}

type parser struct {
	rest string // unparsed unit

	// Current token
	tok   string
	denom bool // current token is in denominator
}

func newParser(unit string) *parser {
	return &parser{rest: unit}
}

func (p *parser) next() bool {
	// Consume separators.
	for i, r := range p.rest {
		if r == '*' {
			p.denom = false
		} else if r == '/' {
			p.denom = true
		} else if !(r == '-' || unicode.IsSpace(r)) {
			p.rest = p.rest[i:]
			goto tok
		}
	}
	p.rest = ""
	return false

tok:
	end := len(p.rest)
	for i, r := range p.rest {
		if r == '*' || r == '/' || r == '-' || unicode.IsSpace(r) {
			end = i
			break
		}
	}
	p.tok = p.rest[:end]
	p.rest = p.rest[end:]
	return true
}
