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
	"math"
	"sync"
)

// states of the three dynamic programming matrices.
const (
	stateM uint8 = iota // aligned pair
	stateX              // gap in B
	stateY              // gap in A
)

// a very small score that still leaves room for additions without overflow.
const negInf = math.MinInt32 / 2

// Aligner implements the Needleman-Wunsch algorithm with affine gap costs (Gotoh).
// An Aligner reuses its matrices, so it is not safe for concurrent use.
type Aligner struct {
	Options *AlignOptions

	// reusable variables
	m, x, y    []int   // score matrices
	pm, px, py []uint8 // state each cell of a matrix comes from
}

// AlignOptions contains all alignment options.
type AlignOptions struct {
	// Substitution scores. MatchScore and MisMatchScore are only used
	// when Matrix is nil.
	Matrix        *SubstitutionMatrix
	MatchScore    int
	MisMatchScore int

	// A gap of length L scores GapOpen + (L-1)*GapExtend.
	GapOpen   int
	GapExtend int

	// save alignment strings
	// AT-GTTAT
	// || | ||
	// ATCG-TAC
	SaveAlignments bool
}

// DefaultAlignOptions is the default AlignOptions: NUC.4.4 scores,
// and -1 for opening or extending a gap.
var DefaultAlignOptions = AlignOptions{
	Matrix:    NUC44,
	GapOpen:   -1,
	GapExtend: -1,

	SaveAlignments: true,
}

// AlignResult holds the details of the alignment.
type AlignResult struct {
	Score   int // simply the score
	Len     int // length of alignment
	Matches int // number of matches
	Gaps    int // number of gaps

	AlignA []byte // Alignment string for seq A
	AlignM []byte // Matching symbols, "|" for match, " " for mismatch
	AlignB []byte // Alignment string for seq B
}

// Reset resets all the values.
func (r *AlignResult) Reset() {
	r.Score = 0
	r.Len = 0
	r.Matches = 0
	r.Gaps = 0

	if r.AlignA != nil {
		r.AlignA = r.AlignA[:0]
	}
	if r.AlignM != nil {
		r.AlignM = r.AlignM[:0]
	}
	if r.AlignB != nil {
		r.AlignB = r.AlignB[:0]
	}
}

// Identity returns the percentage of aligned positions with identical bases.
func (r *AlignResult) Identity() float64 {
	if r.Len == 0 {
		return 0
	}
	return float64(r.Matches) / float64(r.Len) * 100
}

var poolAlignResult = &sync.Pool{New: func() interface{} {
	r := &AlignResult{}
	r.AlignA = make([]byte, 0, 1024)
	r.AlignB = make([]byte, 0, 1024)
	r.AlignM = make([]byte, 0, 1024)
	return r
}}

// NewAligner returns an aligner.
func NewAligner(options *AlignOptions) *Aligner {
	return &Aligner{
		Options: options,
	}
}

// RecycleAlignResult recycles an alignment result.
func RecycleAlignResult(r *AlignResult) {
	poolAlignResult.Put(r)
}

func (alg *Aligner) grow(n int) {
	if n <= len(alg.m) {
		return
	}
	alg.m = make([]int, n)
	alg.x = make([]int, n)
	alg.y = make([]int, n)
	alg.pm = make([]uint8, n)
	alg.px = make([]uint8, n)
	alg.py = make([]uint8, n)
}

func (alg *Aligner) score(a, b byte) int {
	if alg.Options.Matrix != nil {
		return alg.Options.Matrix.Score(a, b)
	}
	if a == b {
		return alg.Options.MatchScore
	}
	return alg.Options.MisMatchScore
}

// Global aligns two sequences with global alignment.
// Please remember to recycle the result after using
// by calling RecycleAlignResult.
func (alg *Aligner) Global(a, b []byte) *AlignResult {
	h := len(a) + 1 // height of the matrix
	w := len(b) + 1 // width of the matrix

	// ---------------------------------------------------
	// initialize

	alg.grow(h * w)
	m, x, y := alg.m, alg.x, alg.y
	pm, px, py := alg.pm, alg.px, alg.py

	open := alg.Options.GapOpen
	ext := alg.Options.GapExtend

	var i, j, k int

	m[0], x[0], y[0] = 0, negInf, negInf
	// the first column
	for i = 1; i < h; i++ {
		k = idx(i, 0, w)
		m[k], y[k] = negInf, negInf
		x[k] = open + (i-1)*ext
		px[k] = stateX
	}
	// the first row
	for j = 1; j < w; j++ {
		k = idx(0, j, w)
		m[k], x[k] = negInf, negInf
		y[k] = open + (j-1)*ext
		py[k] = stateY
	}

	// ---------------------------------------------------
	// compute

	var best, s int
	var from uint8
	for i = 1; i < h; i++ {
		for j = 1; j < w; j++ {
			k = idx(i, j, w)

			// aligned pair, from the diagonal cell
			d := idx(i-1, j-1, w)
			best, from = m[d], stateM
			if x[d] > best {
				best, from = x[d], stateX
			}
			if y[d] > best {
				best, from = y[d], stateY
			}
			m[k] = best + alg.score(a[i-1], b[j-1])
			pm[k] = from

			// gap in B, from the top cell
			t := idx(i-1, j, w)
			best, from = m[t]+open, stateM
			if s = x[t] + ext; s > best {
				best, from = s, stateX
			}
			if s = y[t] + open; s > best {
				best, from = s, stateY
			}
			x[k] = best
			px[k] = from

			// gap in A, from the left cell
			l := idx(i, j-1, w)
			best, from = m[l]+open, stateM
			if s = y[l] + ext; s > best {
				best, from = s, stateY
			}
			if s = x[l] + open; s > best {
				best, from = s, stateX
			}
			y[k] = best
			py[k] = from
		}
	}

	// ---------------------------------------------------
	// traceback

	r := poolAlignResult.Get().(*AlignResult)
	r.Reset()

	i = h - 1
	j = w - 1
	k = idx(i, j, w)

	var state uint8
	r.Score, state = m[k], stateM
	if x[k] > r.Score {
		r.Score, state = x[k], stateX
	}
	if y[k] > r.Score {
		r.Score, state = y[k], stateY
	}

	save := alg.Options.SaveAlignments
	for i > 0 || j > 0 {
		k = idx(i, j, w)
		r.Len++

		switch state {
		case stateM:
			if a[i-1] == b[j-1] {
				r.Matches++
				if save {
					r.AlignM = append(r.AlignM, '|')
				}
			} else if save {
				r.AlignM = append(r.AlignM, ' ')
			}
			if save {
				r.AlignA = append(r.AlignA, a[i-1])
				r.AlignB = append(r.AlignB, b[j-1])
			}
			state = pm[k]
			i--
			j--
		case stateX:
			r.Gaps++
			if save {
				r.AlignA = append(r.AlignA, a[i-1])
				r.AlignB = append(r.AlignB, '-')
				r.AlignM = append(r.AlignM, ' ')
			}
			state = px[k]
			i--
		case stateY:
			r.Gaps++
			if save {
				r.AlignA = append(r.AlignA, '-')
				r.AlignB = append(r.AlignB, b[j-1])
				r.AlignM = append(r.AlignM, ' ')
			}
			state = py[k]
			j--
		}
	}

	if save {
		reverse(r.AlignA)
		reverse(r.AlignB)
		reverse(r.AlignM)
	}

	return r
}

// Oracle returns one optimal global alignment of two sequences.
type Oracle interface {
	Global(a, b []byte) *AlignResult
}

// Identity computes the percent identity of two aligned sequences of equal length,
// i.e., matching positions / aligned length * 100.
func Identity(alignA, alignB []byte) float64 {
	if len(alignA) == 0 {
		return 0
	}
	var n int
	for i, c := range alignA {
		if c == alignB[i] {
			n++
		}
	}
	return float64(n) / float64(len(alignA)) * 100
}

// PercentIdentity aligns two sequences and returns their percent identity.
func PercentIdentity(o Oracle, a, b []byte) float64 {
	r := o.Global(a, b)
	var ident float64
	if len(r.AlignA) == r.Len {
		ident = Identity(r.AlignA, r.AlignB)
	} else { // alignment strings not saved
		ident = r.Identity()
	}
	RecycleAlignResult(r)
	return ident
}

func idx(i, j, w int) int {
	return (i * w) + j
}

func reverse(s []byte) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
