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

package index

import (
	"errors"
	"slices"
	"testing"
)

func TestNewIndex(t *testing.T) {
	for _, k := range []int{0, -1, 33} {
		if _, err := NewIndex(k); !errors.Is(err, ErrInvalidK) {
			t.Errorf("k=%d: expected ErrInvalidK, returned %v", k, err)
		}
	}

	idx, err := NewIndex(8)
	if err != nil {
		t.Error(err)
		return
	}
	if idx.K() != 8 || idx.NumKmers() != 0 || idx.NumRefSeqs() != 0 {
		t.Errorf("unexpected new index: k %d, kmers %d, refs %d", idx.K(), idx.NumKmers(), idx.NumRefSeqs())
	}

	if err = idx.SetSearchingOptions(&SearchOptions{TopN: 0}); !errors.Is(err, ErrInvalidTopN) {
		t.Errorf("expected ErrInvalidTopN, returned %v", err)
	}
}

func TestSearchTruncation(t *testing.T) {
	s := []byte("TGGGGAATATTGCACAATGGGCGAAAGCCTGATGCAGCGACGCCGCGTGAGGGATGACGGCCTTCGGGTTGTAAACCTCTTTCAGCAGGGA")
	others := [][]byte{
		[]byte("AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"),
		[]byte("CCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCC"),
	}

	for k := 3; k <= 32; k++ {
		idx, err := NewIndex(k)
		if err != nil {
			t.Error(err)
			return
		}
		idx.Add(others[0])
		id := idx.Add(s)
		idx.Add(others[1])

		for _, end := range []int{k, len(s) / 2, len(s)} {
			ids := idx.Search(s[:end])
			if !slices.Contains(ids, id) {
				t.Errorf("k=%d, query s[:%d]: id %d not found in %v", k, end, id, ids)
			}
		}
	}
}

func TestSearchRanking(t *testing.T) {
	idx, err := NewIndex(4)
	if err != nil {
		t.Error(err)
		return
	}

	idx.Add([]byte("ACGTACGTAA"))           // 0
	idx.Add([]byte("TTTTGGGGCCCCAAAAGGTC")) // 1
	idx.Add([]byte("ACGTACGTAATTTTGGGG"))   // 2

	ids := idx.Search([]byte("ACGTACGTAATTTTGGGG"))
	if len(ids) != 3 || ids[0] != 2 {
		t.Errorf("the most similar sequence should be ranked first: %v", ids)
	}
	// 0 shares the ACGTACGTAA part, 1 only the TTTTGGGG part
	if ids[1] != 0 || ids[2] != 1 {
		t.Errorf("unexpected ranking: %v", ids)
	}

	if ids = idx.Search([]byte("GAGAGAGAGA")); len(ids) != 0 {
		t.Errorf("no shared k-mers, expected no ids, returned %v", ids)
	}
}

func TestSearchTopN(t *testing.T) {
	idx, err := NewIndex(5)
	if err != nil {
		t.Error(err)
		return
	}

	s := []byte("ACGGTCAGTTGCA")
	for i := 0; i < 10; i++ {
		idx.Add(s)
	}
	ids := idx.Search(s)
	expected := []uint32{0, 1, 2, 3, 4, 5, 6, 7}
	if !slices.Equal(ids, expected) {
		t.Errorf("ties should be broken by the first encounter, expected %v, returned %v", expected, ids)
	}

	idx.SetSearchingOptions(&SearchOptions{TopN: 3})
	if ids = idx.Search(s); len(ids) != 3 {
		t.Errorf("expected 3 ids, returned %d", len(ids))
	}
}

func TestInsertSkipsNonACGT(t *testing.T) {
	idx, err := NewIndex(3)
	if err != nil {
		t.Error(err)
		return
	}
	idx.Insert([]byte("ACGNACG"), 7)

	m := idx.Kmers()
	if len(m) != 1 {
		t.Errorf("expected 1 k-mer, returned %d: %v", len(m), m)
	}
	if ids := m["ACG"]; !slices.Equal(ids, []uint32{7, 7}) {
		t.Errorf("an id should be added once per k-mer occurrence, returned %v", ids)
	}
	if idx.NumRefSeqs() != 0 {
		t.Errorf("Insert should not touch the reference pool")
	}
}
