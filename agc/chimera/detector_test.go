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

package chimera

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/otutools/agc/agc/align"
	"github.com/otutools/agc/agc/index"
)

func randSeq(r *rand.Rand, n int) []byte {
	s := make([]byte, n)
	for i := range s {
		s[i] = "ACGT"[r.Intn(4)]
	}
	return s
}

// mutate substitutes one base in every step bases.
func mutate(s []byte, step int) []byte {
	m := make([]byte, len(s))
	copy(m, s)
	for i := step / 2; i < len(m); i += step {
		switch m[i] {
		case 'A':
			m[i] = 'C'
		default:
			m[i] = 'A'
		}
	}
	return m
}

func newDetector(t *testing.T, opt *Options) *Detector {
	idx, err := index.NewIndex(4)
	if err != nil {
		t.Fatal(err)
	}
	d, err := NewDetector(idx, align.NewAligner(&align.DefaultAlignOptions), opt)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestDetector(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	a := randSeq(r, 520)
	b := randSeq(r, 520)

	chimera := make([]byte, 0, 520)
	chimera = append(chimera, a[:260]...)
	chimera = append(chimera, b[260:]...)

	d := newDetector(t, &DefaultOptions)

	tests := []struct {
		name    string
		seq     []byte
		verdict Verdict
	}{
		{"parent A", a, Parent},
		{"parent B", b, Parent},
		{"chimera of A and B", chimera, Chimera},
		{"variant of A", mutate(a, 50), Parent},
	}

	for i, test := range tests {
		res, err := d.Process(test.seq)
		if err != nil {
			t.Errorf("%s: %s", test.name, err)
			return
		}
		if res.Verdict != test.verdict {
			t.Errorf("%s: expected %s, returned %s, matrix: %v", test.name, test.verdict, res.Verdict, res.Matrix)
		}

		switch i {
		case 0, 1:
			if res.Candidates >= 2 || res.Matrix != nil {
				t.Errorf("%s: less than two parents should skip the test", test.name)
			}
		case 2:
			if res.Parents != [2]uint32{0, 1} {
				t.Errorf("%s: unexpected parents: %v", test.name, res.Parents)
			}
			if len(res.Matrix) != 5 {
				t.Errorf("%s: expected 5 rows, returned %d", test.name, len(res.Matrix))
			}
			if res.Indexed {
				t.Errorf("%s: chimeras should not be indexed", test.name)
			}
		}
	}

	if d.Index().NumRefSeqs() != 3 {
		t.Errorf("expected 3 reference sequences, returned %d", d.Index().NumRefSeqs())
	}
}

func TestDetectorCheckReadOnly(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	d := newDetector(t, &DefaultOptions)

	res, err := d.Check(randSeq(r, 600))
	if err != nil {
		t.Error(err)
		return
	}
	if res.Verdict != Parent || res.Indexed {
		t.Errorf("unexpected result: %s, indexed: %v", res.Verdict, res.Indexed)
	}
	if d.Index().NumRefSeqs() != 0 || d.Index().NumKmers() != 0 {
		t.Errorf("Check should not modify the index")
	}

	if _, err = d.Process(randSeq(r, 300)); !errors.Is(err, ErrTooFewChunks) {
		t.Errorf("expected ErrTooFewChunks, returned %v", err)
	}
	if d.Index().NumRefSeqs() != 0 {
		t.Errorf("rejected sequences should not be indexed")
	}
}

func TestDetectorMaxRefs(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	d := newDetector(t, &Options{ChunkSize: 100, MaxStdDev: 5, MaxRefs: 1})

	for i := 0; i < 3; i++ {
		res, err := d.Process(randSeq(r, 500))
		if err != nil {
			t.Error(err)
			return
		}
		if res.Verdict != Parent {
			t.Errorf("#%d: expected %s, returned %s", i, Parent, res.Verdict)
		}
		if res.Indexed != (i == 0) {
			t.Errorf("#%d: unexpected indexing status: %v", i, res.Indexed)
		}
	}
	if d.Index().NumRefSeqs() != 1 {
		t.Errorf("expected 1 reference sequence, returned %d", d.Index().NumRefSeqs())
	}

	if _, err := NewDetector(d.Index(), nil, &Options{ChunkSize: 0}); !errors.Is(err, ErrInvalidChunkSize) {
		t.Errorf("expected ErrInvalidChunkSize, returned %v", err)
	}
}
