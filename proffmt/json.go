// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proffmt

import (
	"io"

	"github.com/goccy/go-json"
)

type jsonProfile struct {
	Label   string       `json:"label"`
	Metrics []jsonMetric `json:"metrics"`
	Regions []jsonRegion `json:"regions"`
	Tree    []*jsonNode  `json:"tree,omitempty"`
}

type jsonMetric struct {
	Name        string `json:"name"`
	Unit        string `json:"unit"`
	Description string `json:"description"`
}

type jsonRegion struct {
	Name   string           `json:"name"`
	Values map[string]Value `json:"values"`
}

type jsonNode struct {
	Name     string           `json:"name"`
	Values   map[string]Value `json:"values"`
	Children []*jsonNode      `json:"children,omitempty"`
}

func toJSONNode(n *Node) *jsonNode {
	jn := &jsonNode{Name: n.Name, Values: make(map[string]Value, len(n.Values))}
	for m, v := range n.Values {
		jn.Values[m.Name()] = v
	}
	for _, c := range n.Children {
		jn.Children = append(jn.Children, toJSONNode(c))
	}
	return jn
}

// WriteJSON writes the profiles as an indented JSON array. Each
// region's values are keyed by metric name. Profiles with a call tree
// also carry the tree.
func WriteJSON(w io.Writer, profiles []Labeled) error {
	out := make([]jsonProfile, 0, len(profiles))
	for _, lp := range profiles {
		jp := jsonProfile{Label: lp.Label, Metrics: []jsonMetric{}, Regions: []jsonRegion{}}
		for _, m := range lp.Metrics {
			jp.Metrics = append(jp.Metrics, jsonMetric{m.Name(), string(m.Unit()), m.Description()})
		}
		for i, r := range lp.Regions {
			jr := jsonRegion{Name: r, Values: make(map[string]Value, len(lp.Metrics))}
			for _, m := range lp.Metrics {
				jr.Values[m.Name()] = lp.Values[m][i]
			}
			jp.Regions = append(jp.Regions, jr)
		}
		if lp.Root != nil {
			for _, c := range lp.Root.Children {
				jp.Tree = append(jp.Tree, toJSONNode(c))
			}
		}
		out = append(out, jp)
	}
	data, err := json.MarshalIndent(out, "", "\t")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
