// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proffmt

import (
	"io"

	"github.com/google/safehtml/template"
)

var htmlTemplate = template.Must(template.New("").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>Profiling Summary</title>
<style>
.profile { border-collapse: collapse; margin-bottom: 2em; }
.profile th { border-bottom: 1px solid #666; padding: 0em 1em; }
.profile td { text-align: right; padding: 0em 1em; }
.profile td.region { text-align: left; white-space: pre; }
</style>
</head>
<body>
{{- range .}}
<table class="profile">
<caption>{{.Label}}</caption>
<tr><th>region{{range .Metrics}}<th title="{{.Description}}">{{.Name}}{{end}}
{{range .Rows -}}
<tr><td class="region">{{.Name}}{{range .Cells}}<td>{{.}}{{end}}
{{end -}}
</table>
{{- end}}
</body>
</html>
`))

type htmlTable struct {
	Label   string
	Metrics []htmlMetric
	Rows    []htmlRow
}

type htmlMetric struct {
	Name, Description string
}

type htmlRow struct {
	Name  string
	Cells []string
}

// WriteHTML writes the profiles as a standalone HTML page with one
// table per profile.
func WriteHTML(w io.Writer, profiles []Labeled) error {
	var tables []htmlTable
	for _, lp := range profiles {
		t := htmlTable{Label: lp.Label}
		rs := rows(lp.Profile)
		fmts := make([]func(Value) string, len(lp.Metrics))
		for i, m := range lp.Metrics {
			t.Metrics = append(t.Metrics, htmlMetric{m.Name(), m.Description()})
			fmts[i] = formatter(m, rs)
		}
		for _, r := range rs {
			hr := htmlRow{Name: r.name}
			for i, m := range lp.Metrics {
				if v, ok := r.values[m]; ok {
					hr.Cells = append(hr.Cells, fmts[i](v))
				} else {
					hr.Cells = append(hr.Cells, "-")
				}
			}
			t.Rows = append(t.Rows, hr)
		}
		tables = append(tables, t)
	}
	return htmlTemplate.Execute(w, tables)
}
