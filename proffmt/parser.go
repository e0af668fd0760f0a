// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package proffmt defines the common shape of parsed profiling logs
// and the contract implemented by every log parser.
//
// A parser either returns a complete Profile or an error. It never
// returns an empty or partial Profile: callers may try several
// parsers on the same file and treat ErrNoData as "not this format".
package proffmt

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"unicode/utf8"

	"github.com/access-nri/profiling/profunit"
)

// A Parser reads one kind of profiling log.
//
// Implementations carry only construction-time configuration and are
// safe for concurrent use.
type Parser interface {
	// Metrics returns the metrics the parser produces, in column
	// order.
	Metrics() []*profunit.Metric

	// Parse parses the file at path.
	Parse(path string) (*Profile, error)
}

// A TextParser is a Parser that can also parse text already in
// memory.
type TextParser interface {
	Parser
	Read(text string) (*Profile, error)
}

// Error kinds reported by parsers. Errors returned by parsers wrap
// one of these and should be tested with errors.Is.
//
// A file that does not exist is reported with an error wrapping
// fs.ErrNotExist.
var (
	// ErrNoData means the expected markers were not found: the
	// input is not in the parser's format.
	ErrNoData = errors.New("no profiling data found")

	// ErrIntegrity means data was found but the number of parsed
	// rows disagrees with the input, so the table is suspect.
	ErrIntegrity = errors.New("profiling data failed integrity check")

	// ErrUnsupported means the input is ambiguous in a way the
	// parser refuses to resolve.
	ErrUnsupported = errors.New("unsupported profiling data")

	// ErrSchema means a database is missing an expected table or
	// column.
	ErrSchema = errors.New("unexpected database schema")

	// ErrNotText means a file's contents are not valid UTF-8.
	ErrNotText = errors.New("file is not text")

	// ErrInvalidPath means a path argument cannot be used as a
	// path.
	ErrInvalidPath = errors.New("invalid path")
)

// A ParseError reports a failure to parse a profiling log.
type ParseError struct {
	Format string // log format, such as "FMS"
	File   string // file name, if known
	Msg    string
	Err    error // one of the error kinds above
}

// Errorf returns a *ParseError of the given kind for format.
func Errorf(format string, kind error, msg string, args ...interface{}) *ParseError {
	return &ParseError{Format: format, Msg: fmt.Sprintf(msg, args...), Err: kind}
}

func (e *ParseError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%s: %s", e.Format, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.File, e.Format, e.Msg)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ReadTextFile returns the contents of the regular file at path.
//
// It fails with ErrInvalidPath if path is empty, with an error
// wrapping fs.ErrNotExist if path does not name a regular file, and
// with ErrNotText if the contents are not valid UTF-8.
func ReadTextFile(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("read: %w: empty path", ErrInvalidPath)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", &fs.PathError{Op: "read", Path: path, Err: fmt.Errorf("not a regular file: %w", fs.ErrNotExist)}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", &fs.PathError{Op: "read", Path: path, Err: ErrNotText}
	}
	return string(data), nil
}

// ParseFile reads the text file at path and parses it with read.
// A *ParseError returned by read is annotated with path.
func ParseFile(path string, read func(text string) (*Profile, error)) (*Profile, error) {
	text, err := ReadTextFile(path)
	if err != nil {
		return nil, err
	}
	p, err := read(text)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) && perr.File == "" {
			perr.File = path
		}
		return nil, err
	}
	return p, nil
}
