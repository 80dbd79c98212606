// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package slsqp

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf8"
)

// The kernel comments carry mathematical notation; a file decoded with the
// wrong code page shows up as these byte sequences.
func TestSourceEncoding(t *testing.T) {
	files, err := filepath.Glob("*.go")
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			t.Fatal(err)
		}
		if !utf8.Valid(b) {
			t.Fatalf("%s is not valid UTF-8", f)
		}
		for _, bad := range []string{"\u011f\u0161", "\u00e2\u20ac", "\u00c3\u2014"} {
			if bytes.Contains(b, []byte(bad)) {
				t.Fatalf("%s contains double-encoded text %q", f, bad)
			}
		}
	}
}
