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
	"github.com/otutools/agc/agc/align"
)

// DefaultMinIdentity is the default identity threshold (percentage).
const DefaultMinIdentity = 97.0

// OTU is an operational taxonomic unit, i.e., a cluster of sequences
// represented by its first sequence.
type OTU struct {
	Seq   []byte // representative sequence, never replaced
	Count int    // total abundance of all members
	Size  int    // number of unique sequences assigned
}

// Clusterer assigns sequences to OTUs greedily: a sequence joins the first OTU
// whose representative it shares more than MinIdentity percent identity with,
// or founds a new OTU. Sequences should be fed in descending order of abundance,
// so that dominant sequences become representatives.
type Clusterer struct {
	MinIdentity float64

	alg  align.Oracle
	otus []*OTU
}

// NewClusterer returns a Clusterer using the alignment oracle.
func NewClusterer(alg align.Oracle, minIdentity float64) *Clusterer {
	return &Clusterer{
		MinIdentity: minIdentity,
		alg:         alg,
		otus:        make([]*OTU, 0, 1024),
	}
}

// Add assigns a sequence with its abundance to an OTU, and returns
// the index of the OTU and whether the OTU is newly created.
func (c *Clusterer) Add(s []byte, count int) (int, bool) {
	for i, otu := range c.otus {
		if align.PercentIdentity(c.alg, s, otu.Seq) > c.MinIdentity {
			otu.Count += count
			otu.Size++
			return i, false
		}
	}

	c.otus = append(c.otus, &OTU{Seq: s, Count: count, Size: 1})
	return len(c.otus) - 1, true
}

// OTUs returns OTUs in the order of creation.
func (c *Clusterer) OTUs() []*OTU {
	return c.otus
}
