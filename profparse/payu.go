// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package profparse

import (
	"bytes"

	"github.com/access-nri/profiling/proffmt"
	"github.com/access-nri/profiling/profunit"
	"github.com/goccy/go-json"
)

// A PayuJSONParser parses the job summary that the Payu run driver
// writes after each run:
//
//	{
//	    "scheduler_job_id": "149764665.gadi-pbs",
//	    "timings": {
//	        "payu_start_time": "2025-09-16T08:52:50.748807",
//	        "payu_setup_duration_seconds": 47.73822930175811,
//	        "payu_model_run_duration_seconds": 6776.044810215011,
//	        ...
//	    },
//	    ...
//	}
//
// Each numeric entry of "timings" becomes a region, in document
// order. Other entries, such as start and finish times, are ignored.
type PayuJSONParser struct{}

func (PayuJSONParser) Metrics() []*profunit.Metric {
	return []*profunit.Metric{profunit.TMax}
}

func (p PayuJSONParser) Parse(path string) (*proffmt.Profile, error) {
	return proffmt.ParseFile(path, p.Read)
}

func (p PayuJSONParser) Read(text string) (*proffmt.Profile, error) {
	data := []byte(text)
	if !json.Valid(data) {
		return nil, proffmt.Errorf("Payu JSON", proffmt.ErrNoData, "invalid JSON")
	}
	var doc struct {
		Timings json.RawMessage `json:"timings"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, proffmt.Errorf("Payu JSON", proffmt.ErrNoData, "not a job summary: %v", err)
	}
	if len(doc.Timings) == 0 {
		return nil, proffmt.Errorf("Payu JSON", proffmt.ErrNoData, "no timings found")
	}

	// Walk the timings object token by token to keep key order.
	dec := json.NewDecoder(bytes.NewReader(doc.Timings))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, proffmt.Errorf("Payu JSON", proffmt.ErrNoData, "timings is not an object")
	}
	prof := proffmt.NewProfile(p.Metrics())
	for dec.More() {
		key, err := dec.Token()
		if err != nil {
			return nil, proffmt.Errorf("Payu JSON", proffmt.ErrNoData, "reading timings: %v", err)
		}
		val, err := dec.Token()
		if err != nil {
			return nil, proffmt.Errorf("Payu JSON", proffmt.ErrNoData, "reading timings: %v", err)
		}
		switch v := val.(type) {
		case float64:
			name, _ := key.(string)
			prof.AppendRow(name, []proffmt.Value{proffmt.FloatValue(v)})
		case json.Delim:
			if err := skipValue(dec); err != nil {
				return nil, proffmt.Errorf("Payu JSON", proffmt.ErrNoData, "reading timings: %v", err)
			}
		}
	}
	if prof.Len() == 0 {
		return nil, proffmt.Errorf("Payu JSON", proffmt.ErrNoData, "no numeric timings found")
	}
	return prof, nil
}

// skipValue consumes the rest of an object or array whose opening
// delimiter has just been read.
func skipValue(dec *json.Decoder) error {
	for depth := 1; depth > 0; {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch tok {
		case json.Delim('{'), json.Delim('['):
			depth++
		case json.Delim('}'), json.Delim(']'):
			depth--
		}
	}
	return nil
}
