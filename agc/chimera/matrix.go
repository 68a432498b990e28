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
	"math"

	"gonum.org/v1/gonum/stat"
)

// IdentityMatrix stores percent identities of each chunk (row)
// against the two putative parents (columns).
type IdentityMatrix [][2]float64

// StdDev returns the sample standard deviation of values.
// It returns 0 for fewer than two values.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sd := stat.StdDev(values, nil)
	if math.IsNaN(sd) {
		return 0
	}
	return sd
}

// MeanStdDev returns the mean of standard deviations of all rows.
func (m IdentityMatrix) MeanStdDev() float64 {
	if len(m) == 0 {
		return 0
	}
	var sum float64
	for _, row := range m {
		sum += StdDev(row[:])
	}
	return sum / float64(len(m))
}

// Switches tells whether at least one row favors parent A and
// at least one row favors parent B.
func (m IdentityMatrix) Switches() bool {
	var favorA, favorB bool
	for _, row := range m {
		if row[0] > row[1] {
			favorA = true
		} else if row[1] > row[0] {
			favorB = true
		}
	}
	return favorA && favorB
}

// IsChimera tells whether the identity profile looks like a recombination
// of the two parents: the best matching parent switches along the sequence,
// and the mean standard deviation of rows exceeds maxStdDev.
func (m IdentityMatrix) IsChimera(maxStdDev float64) bool {
	return m.MeanStdDev() > maxStdDev && m.Switches()
}
