// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config reads job files that name the logs to parse and the
// parser to use for each:
//
//	logs:
//	  - name: MOM
//	    parser: fms
//	    path: output000/ocean.out
//	    options: {hits: true}
//	  - name: ESMF
//	    parser: esmf
//	    path: output000/ESMF_Profile.summary
//	    options: {hierarchical: false}
//
// Relative paths are relative to the directory of the job file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/access-nri/profiling/profparse"
	"github.com/go-logr/logr"
	"gopkg.in/yaml.v3"
)

// A File is a parsed job file.
type File struct {
	Logs []Log `yaml:"logs"`
}

// A Log is one log to parse.
type Log struct {
	// Name labels the profile. It defaults to the base name of
	// Path.
	Name    string  `yaml:"name"`
	Parser  string  `yaml:"parser"`
	Path    string  `yaml:"path"`
	Options Options `yaml:"options"`
}

// Options are the parser options of a Log.
type Options struct {
	// Hits defaults to true.
	Hits         *bool `yaml:"hits"`
	Hierarchical bool  `yaml:"hierarchical"`
}

// ParserOptions converts o to the options of profparse.New.
func (o Options) ParserOptions(logger logr.Logger) profparse.Options {
	hits := true
	if o.Hits != nil {
		hits = *o.Hits
	}
	return profparse.Options{Hits: hits, Hierarchical: o.Hierarchical, Logger: logger}
}

// Read parses a job file from r. Unknown fields are an error.
func Read(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, errors.New("job file is empty")
		}
		return nil, err
	}
	for i := range f.Logs {
		l := &f.Logs[i]
		if l.Name == "" && l.Path != "" {
			l.Name = filepath.Base(l.Path)
		}
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Load reads the job file at path and makes relative log paths
// relative to its directory.
func Load(path string) (*File, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	f, err := Read(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for i := range f.Logs {
		if p := f.Logs[i].Path; !filepath.IsAbs(p) {
			f.Logs[i].Path = filepath.Join(dir, p)
		}
	}
	return f, nil
}

// Validate reports every problem with f.
func (f *File) Validate() error {
	if len(f.Logs) == 0 {
		return errors.New("no logs listed")
	}
	known := profparse.Names()
	isKnown := make(map[string]bool, len(known))
	for _, name := range known {
		isKnown[name] = true
	}
	var errs []error
	seen := make(map[string]int)
	for i, l := range f.Logs {
		if l.Path == "" {
			errs = append(errs, fmt.Errorf("log %d: missing path", i+1))
		}
		if l.Parser == "" {
			errs = append(errs, fmt.Errorf("log %d: missing parser", i+1))
		} else if !isKnown[l.Parser] {
			errs = append(errs, fmt.Errorf("log %d: unknown parser %q (want one of %s)", i+1, l.Parser, strings.Join(known, ", ")))
		}
		if l.Name == "" {
			continue
		}
		if j, ok := seen[l.Name]; ok {
			errs = append(errs, fmt.Errorf("log %d: name %q already used by log %d", i+1, l.Name, j+1))
			continue
		}
		seen[l.Name] = i
	}
	return errors.Join(errs...)
}
