// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package diff reports differences between expected and actual test
// output.
package diff

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Diff returns a human-readable description of the differences
// between want and got, or "" if they are equal. If the "diff" command
// is available, the result is a unified diff from want to got.
func Diff(want, got []byte) string {
	if bytes.Equal(want, got) {
		return ""
	}
	if _, err := exec.LookPath("diff"); err != nil {
		return fmt.Sprintf("diff command unavailable\nwant:\n%s\ngot:\n%s", want, got)
	}
	d, err := os.MkdirTemp("", "profdiff")
	if err != nil {
		return err.Error()
	}
	defer os.RemoveAll(d)
	for name, data := range map[string][]byte{"want": want, "got": got} {
		if err := os.WriteFile(filepath.Join(d, name), data, 0o666); err != nil {
			return err.Error()
		}
	}

	cmd := exec.Command("diff", "-Nu", "want", "got")
	cmd.Dir = d
	data, err := cmd.CombinedOutput()
	if len(data) > 0 {
		// diff exits with a non-zero status when the files don't match.
		// Ignore that failure as long as we get output.
		return string(data)
	}
	if err != nil {
		return err.Error()
	}
	return fmt.Sprintf("want:\n%s\ngot:\n%s", want, got)
}
