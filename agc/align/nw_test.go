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

package align

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
)

func TestGlobalIdentical(t *testing.T) {
	alg := NewAligner(&DefaultAlignOptions)

	s := []byte("ACGTTGCAACGTAGGCTA")
	r := alg.Global(s, s)
	defer RecycleAlignResult(r)

	if r.Len != len(s) || r.Matches != len(s) || r.Gaps != 0 {
		t.Errorf("unexpected alignment: len %d, matches %d, gaps %d", r.Len, r.Matches, r.Gaps)
	}
	if r.Score != 5*len(s) {
		t.Errorf("score error: expected %d, returned %d", 5*len(s), r.Score)
	}
	if !bytes.Equal(r.AlignA, s) || !bytes.Equal(r.AlignB, s) {
		t.Errorf("alignment strings error: %s vs %s", r.AlignA, r.AlignB)
	}
	if ident := Identity(r.AlignA, r.AlignB); ident != 100 {
		t.Errorf("identity error: expected 100, returned %f", ident)
	}
}

func TestGlobalCheapGaps(t *testing.T) {
	// with NUC.4.4 and -1 gap costs, a mismatch (-4) loses to two gaps (-2)
	alg := NewAligner(&DefaultAlignOptions)

	a := []byte("ACGTACGTAC")
	b := []byte("ACGTTCGTAC")
	r := alg.Global(a, b)
	defer RecycleAlignResult(r)

	if r.Len != 11 || r.Matches != 9 || r.Gaps != 2 {
		t.Errorf("unexpected alignment: len %d, matches %d, gaps %d", r.Len, r.Matches, r.Gaps)
	}
	if r.Score != 9*5-2 {
		t.Errorf("score error: expected %d, returned %d", 9*5-2, r.Score)
	}
	if len(r.AlignA) != len(r.AlignB) || len(r.AlignA) != len(r.AlignM) {
		t.Errorf("alignment strings of unequal lengths: %d, %d, %d", len(r.AlignA), len(r.AlignB), len(r.AlignM))
	}
	expected := float64(9) / 11 * 100
	if ident := Identity(r.AlignA, r.AlignB); math.Abs(ident-expected) > 1e-9 {
		t.Errorf("identity error: expected %f, returned %f", expected, ident)
	}
}

func TestGlobalMismatch(t *testing.T) {
	alg := NewAligner(&AlignOptions{
		MatchScore:     1,
		MisMatchScore:  -1,
		GapOpen:        -10,
		GapExtend:      -10,
		SaveAlignments: true,
	})

	a := []byte("ACGTACGTAC")
	b := []byte("ACGTTCGTAC")
	r := alg.Global(a, b)
	defer RecycleAlignResult(r)

	if r.Len != 10 || r.Matches != 9 || r.Gaps != 0 {
		t.Errorf("unexpected alignment: len %d, matches %d, gaps %d", r.Len, r.Matches, r.Gaps)
	}
	if string(r.AlignM) != "|||| |||||" {
		t.Errorf("matching symbols error: %q", r.AlignM)
	}
	if r.Identity() != 90 {
		t.Errorf("identity error: expected 90, returned %f", r.Identity())
	}
}

func TestGlobalAffineGap(t *testing.T) {
	alg := NewAligner(&AlignOptions{
		MatchScore:     1,
		MisMatchScore:  -1,
		GapOpen:        -5,
		GapExtend:      -1,
		SaveAlignments: true,
	})

	a := []byte("AAAATTTT")
	b := []byte("AAAATT")
	r := alg.Global(a, b)
	defer RecycleAlignResult(r)

	if r.Len != 8 || r.Gaps != 2 || r.Matches != 6 {
		t.Errorf("unexpected alignment: len %d, matches %d, gaps %d", r.Len, r.Matches, r.Gaps)
	}
	if r.Score != 0 {
		t.Errorf("score error: expected %d, returned %d", 0, r.Score)
	}
	if !bytes.Contains(r.AlignB, []byte("--")) {
		t.Errorf("gaps should be merged into one block: %s", r.AlignB)
	}
}

func TestGlobalEmpty(t *testing.T) {
	alg := NewAligner(&DefaultAlignOptions)

	r := alg.Global(nil, []byte("ACG"))
	if r.Len != 3 || r.Gaps != 3 || r.Score != -3 || string(r.AlignA) != "---" {
		t.Errorf("unexpected alignment: len %d, gaps %d, score %d, %s", r.Len, r.Gaps, r.Score, r.AlignA)
	}
	RecycleAlignResult(r)

	r = alg.Global(nil, nil)
	if r.Len != 0 || r.Score != 0 || r.Identity() != 0 {
		t.Errorf("unexpected alignment of empty sequences: len %d, score %d", r.Len, r.Score)
	}
	RecycleAlignResult(r)
}

func TestPercentIdentity(t *testing.T) {
	alg := NewAligner(&DefaultAlignOptions)
	a := []byte("ACGTACGTACGTACGTACGT")
	if ident := PercentIdentity(alg, a, a); ident != 100 {
		t.Errorf("identity error: expected 100, returned %f", ident)
	}

	// reused matrices of a bigger alignment must not leak into a smaller one
	b := []byte("TTTTGGGGCCCCAAAATTTTGGGG")
	PercentIdentity(alg, a, b)
	if ident := PercentIdentity(alg, a[:8], a[:8]); ident != 100 {
		t.Errorf("identity error after reusing aligner: expected 100, returned %f", ident)
	}
}

func TestParseMatrix(t *testing.T) {
	m, err := ParseMatrix(strings.NewReader(`
# a tiny matrix
   A  C
A  2 -3
C -3  2
`))
	if err != nil {
		t.Error(err)
		return
	}

	tests := []struct {
		a, b     byte
		expected int
	}{
		{'A', 'A', 2},
		{'a', 'A', 2},
		{'c', 'a', -3},
		{'C', 'C', 2},
		{'N', 'A', -3},
	}
	for _, test := range tests {
		if s := m.Score(test.a, test.b); s != test.expected {
			t.Errorf("score of %c-%c: expected %d, returned %d", test.a, test.b, test.expected, s)
		}
	}

	_, err = ParseMatrix(strings.NewReader("   A  C\nA 1\n"))
	if !errors.Is(err, ErrInvalidMatrix) {
		t.Errorf("expected ErrInvalidMatrix, returned %v", err)
	}
}

func TestNUC44(t *testing.T) {
	if len(NUC44.Letters()) != 15 {
		t.Errorf("NUC.4.4 letters: expected 15, returned %d", len(NUC44.Letters()))
	}
	if NUC44.Score('A', 'A') != 5 || NUC44.Score('a', 't') != -4 || NUC44.Score('N', 'G') != -2 {
		t.Errorf("unexpected NUC.4.4 scores")
	}
}
