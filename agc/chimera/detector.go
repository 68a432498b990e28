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
	"fmt"
	"slices"

	"github.com/otutools/agc/agc/align"
	"github.com/otutools/agc/agc/index"
)

// Verdict is the state of a sequence in chimera detection.
type Verdict uint8

const (
	Candidate Verdict = iota // not checked yet
	Chimera                  // confirmed chimera
	Parent                   // confirmed non-chimeric, a candidate parent for later sequences
)

func (v Verdict) String() string {
	switch v {
	case Candidate:
		return "candidate"
	case Chimera:
		return "chimera"
	case Parent:
		return "parent"
	}
	return "unknown"
}

// Options contains options of chimera detection.
type Options struct {
	ChunkSize int     // size of chunks
	MaxStdDev float64 // threshold of the mean standard deviation of identity rows

	// Maximum number of sequences in the reference pool, 0 for no limit.
	// Non-chimeric sequences beyond the limit are not indexed.
	MaxRefs int
}

// DefaultOptions is the default chimera detection options.
var DefaultOptions = Options{
	ChunkSize: 100,
	MaxStdDev: 5.0,
}

// Result is the result of checking one sequence.
type Result struct {
	Verdict Verdict

	Candidates int       // number of candidate parents common to all chunks
	Parents    [2]uint32 // ids of the two putative parents, valid when Candidates >= 2
	Matrix     IdentityMatrix

	ID      uint32 // id in the reference pool, valid when Indexed is true
	Indexed bool
}

// Detector detects chimeras against previously accepted sequences.
// The index is owned by the caller and only grows via Process.
type Detector struct {
	opt *Options
	idx *index.Index
	alg align.Oracle
}

// NewDetector creates a Detector with an index and an alignment oracle.
func NewDetector(idx *index.Index, alg align.Oracle, opt *Options) (*Detector, error) {
	if opt.ChunkSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChunkSize, opt.ChunkSize)
	}
	if opt.MaxRefs < 0 {
		return nil, fmt.Errorf("chimera: invalid maximum number of references: %d", opt.MaxRefs)
	}
	return &Detector{opt: opt, idx: idx, alg: alg}, nil
}

// Index returns the index of accepted sequences.
func (d *Detector) Index() *index.Index {
	return d.idx
}

// Check decides whether s is a chimera without modifying the index.
// ErrTooFewChunks is returned for sequences too short to be checked.
func (d *Detector) Check(s []byte) (*Result, error) {
	chunks, err := Chunks(s, d.opt.ChunkSize)
	if err != nil {
		return nil, err
	}

	r := &Result{Verdict: Parent}

	common := d.commonCandidates(chunks)
	r.Candidates = len(common)
	if len(common) < 2 { // not enough evidence
		return r, nil
	}
	r.Parents = [2]uint32{common[0], common[1]}

	chunksA, err := Chunks(d.idx.RefSeq(common[0]), d.opt.ChunkSize)
	if err != nil {
		return r, nil
	}
	chunksB, err := Chunks(d.idx.RefSeq(common[1]), d.opt.ChunkSize)
	if err != nil {
		return r, nil
	}

	n := min(len(chunks), len(chunksA), len(chunksB))
	m := make(IdentityMatrix, n)
	for j := 0; j < n; j++ {
		m[j][0] = align.PercentIdentity(d.alg, chunks[j], chunksA[j])
		m[j][1] = align.PercentIdentity(d.alg, chunks[j], chunksB[j])
	}
	r.Matrix = m

	if m.IsChimera(d.opt.MaxStdDev) {
		r.Verdict = Chimera
	}
	return r, nil
}

// Process checks s, and adds it to the index if it is not a chimera.
func (d *Detector) Process(s []byte) (*Result, error) {
	r, err := d.Check(s)
	if err != nil {
		return nil, err
	}
	if r.Verdict == Parent && (d.opt.MaxRefs == 0 || d.idx.NumRefSeqs() < d.opt.MaxRefs) {
		r.ID = d.idx.Add(s)
		r.Indexed = true
	}
	return r, nil
}

// commonCandidates returns reference ids found among the top hits of every chunk,
// in the ranking order of the first chunk.
func (d *Detector) commonCandidates(chunks [][]byte) []uint32 {
	common := d.idx.Search(chunks[0])
	var ids []uint32
	for _, chunk := range chunks[1:] {
		if len(common) == 0 {
			break
		}
		ids = d.idx.Search(chunk)
		common = slices.DeleteFunc(common, func(id uint32) bool {
			return !slices.Contains(ids, id)
		})
	}
	return common
}
