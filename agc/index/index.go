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
	"fmt"
	"slices"

	"github.com/shenwei356/kmers"
)

// ErrInvalidK means the k-mer size is out of range.
var ErrInvalidK = errors.New("index: invalid k-mer size")

// ErrInvalidTopN means the number of candidates to return is invalid.
var ErrInvalidTopN = errors.New("index: invalid number of candidates")

// Index is an inverted index mapping k-mers to the reference sequences
// containing them, plus the pool of reference sequences.
//
// K-mers are 2-bit encoded, so k is limited to 32, and k-mers containing
// bases other than A/C/G/T are ignored.
// The index only grows, a reference id is never reused.
type Index struct {
	k uint8

	// k-mer -> ids of reference sequences, in insertion order.
	// An id is appended once per occurrence of the k-mer in the sequence.
	kmers map[uint64][]uint32

	// reference pool, the index of a sequence is its id.
	RefSeqs [][]byte
	i       uint32 // curent index, for inserting a new ref seq

	searchOptions *SearchOptions

	// reusable variables for searching
	hitIdx map[uint32]int // id -> position in hits
	hits   []hit
}

// SearchOptions defines options for searching.
type SearchOptions struct {
	TopN int // the number of most frequent reference ids to return
}

// DefaultSearchOptions is the default searching options.
var DefaultSearchOptions = SearchOptions{
	TopN: 8,
}

// NewIndex ceates a new Index with k-mer size k.
func NewIndex(k int) (*Index, error) {
	if k < 1 || k > 32 {
		return nil, fmt.Errorf("%w: %d, valid range: [1, 32]", ErrInvalidK, k)
	}

	idx := &Index{
		k:       uint8(k),
		kmers:   make(map[uint64][]uint32, 1<<10),
		RefSeqs: make([][]byte, 0, 128),
		hitIdx:  make(map[uint32]int, 64),
		hits:    make([]hit, 0, 64),
	}
	idx.searchOptions = &DefaultSearchOptions

	return idx, nil
}

// SetSearchingOptions sets the searching options.
func (idx *Index) SetSearchingOptions(opt *SearchOptions) error {
	if opt.TopN < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidTopN, opt.TopN)
	}
	idx.searchOptions = opt
	return nil
}

// K returns the K value
func (idx *Index) K() int {
	return int(idx.k)
}

// NumKmers returns the number of distinct k-mers in the index.
func (idx *Index) NumKmers() int {
	return len(idx.kmers)
}

// NumRefSeqs returns the number of reference sequences in the pool.
func (idx *Index) NumRefSeqs() int {
	return len(idx.RefSeqs)
}

// RefSeq returns the reference sequence of the given id.
func (idx *Index) RefSeq(id uint32) []byte {
	return idx.RefSeqs[id]
}

// Add appends a sequence to the reference pool, indexes its k-mers,
// and returns its id.
func (idx *Index) Add(s []byte) uint32 {
	id := idx.i
	idx.RefSeqs = append(idx.RefSeqs, s)
	idx.i++

	idx.Insert(s, id)
	return id
}

// Insert appends id to the list of every k-mer of s.
// It does not touch the reference pool.
func (idx *Index) Insert(s []byte, id uint32) {
	idx.eachKmer(s, func(code uint64) {
		idx.kmers[code] = append(idx.kmers[code], id)
	})
}

// eachKmer calls fn for every k-mer of s (sliding window, step 1)
// consisting of only A, C, G and T.
func (idx *Index) eachKmer(s []byte, fn func(code uint64)) {
	k := int(idx.k)
	lastBad := -1
	var i int
	var code uint64
	var err error
	for j := 0; j < len(s); j++ {
		if !isACGT[s[j]] {
			lastBad = j
		}
		i = j - k + 1 // start of the k-mer ending at j
		if i < 0 || lastBad >= i {
			continue
		}

		code, err = kmers.Encode(s[i : j+1])
		if err != nil {
			continue
		}
		fn(code)
	}
}

var isACGT = [256]bool{
	'A': true, 'C': true, 'G': true, 'T': true,
	'a': true, 'c': true, 'g': true, 't': true,
}

type hit struct {
	id    uint32
	count int
	order int // order of the first encounter
}

// Search collects ids of all reference sequences sharing k-mers with s,
// counted with multiplicity, and returns the TopN most frequent ones.
// Ties are broken by the order of the first encounter.
// The returned slice is newly allocated.
func (idx *Index) Search(s []byte) []uint32 {
	clear(idx.hitIdx)
	hits := idx.hits[:0]

	var j int
	var ok bool
	idx.eachKmer(s, func(code uint64) {
		for _, id := range idx.kmers[code] {
			if j, ok = idx.hitIdx[id]; !ok {
				idx.hitIdx[id] = len(hits)
				hits = append(hits, hit{id: id, count: 1, order: len(hits)})
				continue
			}
			hits[j].count++
		}
	})
	idx.hits = hits

	slices.SortFunc(hits, func(a, b hit) int {
		if a.count != b.count {
			return b.count - a.count
		}
		return a.order - b.order
	})

	n := min(idx.searchOptions.TopN, len(hits))
	result := make([]uint32, n)
	for i := 0; i < n; i++ {
		result[i] = hits[i].id
	}
	return result
}

// Kmers returns the decoded k-mers in the index with their id lists, for debugging.
func (idx *Index) Kmers() map[string][]uint32 {
	m := make(map[string][]uint32, len(idx.kmers))
	for code, ids := range idx.kmers {
		m[string(kmers.MustDecode(code, int(idx.k)))] = ids
	}
	return m
}
