// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proffmt

import (
	"fmt"

	"github.com/access-nri/profiling/profunit"
)

// A Profile is the parsed content of one profiling log: an ordered
// list of regions and, for each metric, one value per region.
//
// For every metric m in Metrics, len(Values[m]) == len(Regions), and
// index i of every column describes Regions[i].
type Profile struct {
	// Metrics lists the columns of this profile in order.
	Metrics []*profunit.Metric

	// Regions lists the region names in the order they were
	// found.
	Regions []string

	// Values maps each metric to its column of values.
	Values map[*profunit.Metric][]Value

	// Root is the call tree of the profile, for parsers that
	// recover nesting. Root itself is unnamed; its children are
	// the outermost regions. Root is nil for flat profiles.
	Root *Node
}

// NewProfile returns an empty Profile with the given metric columns.
func NewProfile(metrics []*profunit.Metric) *Profile {
	p := &Profile{
		Metrics: metrics,
		Values:  make(map[*profunit.Metric][]Value, len(metrics)),
	}
	for _, m := range metrics {
		p.Values[m] = []Value{}
	}
	return p
}

// Len returns the number of regions in p.
func (p *Profile) Len() int { return len(p.Regions) }

// AppendRow appends a region with one value per metric, in the order
// of p.Metrics.
func (p *Profile) AppendRow(region string, row []Value) {
	if len(row) != len(p.Metrics) {
		panic(fmt.Sprintf("row for %q has %d values, want %d", region, len(row), len(p.Metrics)))
	}
	p.Regions = append(p.Regions, region)
	for i, m := range p.Metrics {
		p.Values[m] = append(p.Values[m], row[i])
	}
}

// Index returns the index of the first region named region, or -1.
func (p *Profile) Index(region string) int {
	for i, r := range p.Regions {
		if r == region {
			return i
		}
	}
	return -1
}

// Column returns the values of metric m, or nil if p has no such
// metric.
func (p *Profile) Column(m *profunit.Metric) []Value {
	return p.Values[m]
}

// Value returns the value of metric m for region i.
func (p *Profile) Value(i int, m *profunit.Metric) Value {
	return p.Values[m][i]
}

// Set replaces the value of metric m for region i.
func (p *Profile) Set(i int, m *profunit.Metric, v Value) {
	p.Values[m][i] = v
}

// Check reports whether every metric column is aligned with Regions.
func (p *Profile) Check() error {
	if len(p.Values) != len(p.Metrics) {
		return fmt.Errorf("profile has %d value columns for %d metrics", len(p.Values), len(p.Metrics))
	}
	for _, m := range p.Metrics {
		col, ok := p.Values[m]
		if !ok {
			return fmt.Errorf("profile is missing column %s", m)
		}
		if len(col) != len(p.Regions) {
			return fmt.Errorf("column %s has %d values for %d regions", m, len(col), len(p.Regions))
		}
	}
	return nil
}

// A Node is one region in a call tree.
type Node struct {
	Name     string
	Values   map[*profunit.Metric]Value
	Children []*Node
}

// NewNode returns an empty node named name.
func NewNode(name string) *Node {
	return &Node{Name: name, Values: make(map[*profunit.Metric]Value)}
}

// Child returns the child of n named name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Lookup returns the child of n named name, creating it at the end of
// n.Children if it does not exist.
func (n *Node) Lookup(name string) *Node {
	if c := n.Child(name); c != nil {
		return c
	}
	c := NewNode(name)
	n.Children = append(n.Children, c)
	return c
}

// Walk calls fn for every descendant of n in depth-first order. depth
// is 0 for the children of n. If fn returns an error, Walk stops and
// returns it.
func (n *Node) Walk(fn func(node *Node, depth int) error) error {
	var walk func(node *Node, depth int) error
	walk = func(node *Node, depth int) error {
		for _, c := range node.Children {
			if err := fn(c, depth); err != nil {
				return err
			}
			if err := walk(c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(n, 0)
}
