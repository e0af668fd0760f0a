// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proffmt

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/access-nri/profiling/profunit"
)

func TestReadTextFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.log")
	if err := os.WriteFile(good, []byte("Total runtime 1.0\n"), 0666); err != nil {
		t.Fatal(err)
	}
	binary := filepath.Join(dir, "binary.log")
	if err := os.WriteFile(binary, []byte{0xff, 0xfe, 0x00, 0x80}, 0666); err != nil {
		t.Fatal(err)
	}

	text, err := ReadTextFile(good)
	if err != nil || text != "Total runtime 1.0\n" {
		t.Errorf("ReadTextFile(good) = %q, %v", text, err)
	}

	for _, test := range []struct {
		path string
		want error
	}{
		{"", ErrInvalidPath},
		{filepath.Join(dir, "missing.log"), fs.ErrNotExist},
		{dir, fs.ErrNotExist},
		{binary, ErrNotText},
	} {
		_, err := ReadTextFile(test.path)
		if !errors.Is(err, test.want) {
			t.Errorf("ReadTextFile(%q) error = %v, want %v", test.path, err, test.want)
		}
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.log")
	if err := os.WriteFile(path, []byte("nothing here"), 0666); err != nil {
		t.Fatal(err)
	}

	_, err := ParseFile(path, func(text string) (*Profile, error) {
		return nil, Errorf("FMS", ErrNoData, "no timing table")
	})
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("error = %v, want ErrNoData", err)
	}
	var perr *ParseError
	if !errors.As(err, &perr) || perr.File != path {
		t.Errorf("error = %#v, want ParseError with File %q", err, path)
	}
	if !strings.HasPrefix(err.Error(), path+": FMS: ") {
		t.Errorf("error text = %q", err.Error())
	}

	p, err := ParseFile(path, func(text string) (*Profile, error) {
		p := NewProfile([]*profunit.Metric{profunit.TMax})
		p.AppendRow(text, []Value{IntValue(1)})
		return p, nil
	})
	if err != nil || p.Regions[0] != "nothing here" {
		t.Errorf("ParseFile = %v, %v", p, err)
	}
}

func TestFilesInputs(t *testing.T) {
	for _, test := range []struct {
		paths  []string
		labels bool
		want   []Input
	}{
		{
			[]string{"a.log", "b.log"}, false,
			[]Input{{"a.log", "a.log"}, {"b.log", "b.log"}},
		},
		{
			[]string{"a.log", "a.log", "b.log"}, false,
			[]Input{{"a.log#0", "a.log"}, {"a.log#1", "a.log"}, {"b.log", "b.log"}},
		},
		{
			[]string{"MOM=ocean.out", "CICE=ice.log", "ocean.out"}, true,
			[]Input{{"MOM", "ocean.out"}, {"CICE", "ice.log"}, {"ocean.out", "ocean.out"}},
		},
		{
			[]string{"x=y.log"}, false,
			[]Input{{"x=y.log", "x=y.log"}},
		},
	} {
		f := &Files{Paths: test.paths, AllowLabels: test.labels}
		got := f.Inputs()
		if len(got) != len(test.want) {
			t.Errorf("Inputs(%q) = %v, want %v", test.paths, got, test.want)
			continue
		}
		for i := range got {
			if got[i] != test.want[i] {
				t.Errorf("Inputs(%q)[%d] = %v, want %v", test.paths, i, got[i], test.want[i])
			}
		}
	}
}
