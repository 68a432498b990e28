// Copyright © 2023-2024 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package util

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
)

func TestWrapByteSlice(t *testing.T) {
	tests := []struct {
		s        string
		width    int
		expected string
	}{
		{"", 3, ""},
		{"ACGT", 0, "ACGT"},
		{"ACGT", 4, "ACGT"},
		{"ACGTA", 4, "ACGT\nA"},
		{"ACGTACGT", 4, "ACGT\nACGT"},
		{"ACGTACGTAC", 3, "ACG\nTAC\nGTA\nC"},
	}

	var text []byte
	var buf *bytes.Buffer
	for _, test := range tests {
		text, buf = WrapByteSlice([]byte(test.s), test.width, buf)
		if string(text) != test.expected {
			t.Errorf("%s (width %d): expected %q, returned %q", test.s, test.width, test.expected, text)
		}
	}
}

func TestExpandPath(t *testing.T) {
	home, err := homedir.Dir()
	if err != nil {
		t.Skip(err)
	}
	if p := ExpandPath("~/a.fasta"); p != filepath.Join(home, "a.fasta") {
		t.Errorf("expected %s, returned %s", filepath.Join(home, "a.fasta"), p)
	}
	if p := ExpandPath("a.fasta"); p != "a.fasta" {
		t.Errorf("expected %s, returned %s", "a.fasta", p)
	}
}
