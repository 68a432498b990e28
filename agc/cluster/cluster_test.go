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

package cluster

import (
	"testing"

	"github.com/otutools/agc/agc/align"
)

// fixedOracle returns alignments with a given identity for every pair.
type fixedOracle struct {
	matches, length int
}

func (o fixedOracle) Global(a, b []byte) *align.AlignResult {
	return &align.AlignResult{Len: o.length, Matches: o.matches}
}

func TestClustererBoundary(t *testing.T) {
	// 97 / 100 = exactly 97%, not a match
	c := NewClusterer(fixedOracle{matches: 97, length: 100}, DefaultMinIdentity)

	c.Add([]byte("ACGT"), 10)
	i, created := c.Add([]byte("ACGA"), 3)
	if !created || i != 1 {
		t.Errorf("identity equal to the threshold should create a new OTU, returned %d, %v", i, created)
	}

	c = NewClusterer(fixedOracle{matches: 971, length: 1000}, DefaultMinIdentity)
	c.Add([]byte("ACGT"), 10)
	i, created = c.Add([]byte("ACGA"), 3)
	if created || i != 0 {
		t.Errorf("identity above the threshold should join the OTU, returned %d, %v", i, created)
	}
	if otus := c.OTUs(); len(otus) != 1 || otus[0].Count != 13 || otus[0].Size != 2 || string(otus[0].Seq) != "ACGT" {
		t.Errorf("unexpected OTU: %+v", otus[0])
	}
}

func TestClusterer(t *testing.T) {
	alg := align.NewAligner(&align.DefaultAlignOptions)
	c := NewClusterer(alg, DefaultMinIdentity)

	s1 := []byte("TGGGGAATATTGCACAATGGGCGAAAGCCTGATGCAGCGACGCCGCGTGAGGGATGACGGCCTTCGGGTTGTAAACCTCTTTCAGCAGGGAAGAAGCGAAAGTGACGGTACCTGCAGAAGAAGCACCGGCTAACTACGTG")
	s2 := []byte("AACGTAGGTCACAAGCGTTGTCCGGAATTACTGGGCGTAAAGGGCGCGTAGGCGGCTTGTTAAGTCAGATGTGAAAGCCCTCGGCTCAACCGAGGAACTGCATCTGAAACTGGCAAGCTTGAGTACAGGAGAGGAAAGCG")
	// one substitution in 140 bp, identity > 97% even with two gaps
	s1v := []byte(string(s1))
	s1v[70] = 'T'

	tests := []struct {
		seq     []byte
		count   int
		otu     int
		created bool
	}{
		{s1, 100, 0, true},
		{s2, 50, 1, true},
		{s1v, 5, 0, false},
		{s2, 2, 1, false},
	}
	for i, test := range tests {
		otu, created := c.Add(test.seq, test.count)
		if otu != test.otu || created != test.created {
			t.Errorf("#%d: expected (%d, %v), returned (%d, %v)", i, test.otu, test.created, otu, created)
		}
	}

	otus := c.OTUs()
	if len(otus) != 2 {
		t.Errorf("expected 2 OTUs, returned %d", len(otus))
		return
	}
	if string(otus[0].Seq) != string(s1) || otus[0].Count != 105 {
		t.Errorf("unexpected OTU #1: %s (%d)", otus[0].Seq, otus[0].Count)
	}
	if string(otus[1].Seq) != string(s2) || otus[1].Count != 52 {
		t.Errorf("unexpected OTU #2: %s (%d)", otus[1].Seq, otus[1].Count)
	}
}
