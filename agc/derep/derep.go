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

package derep

import (
	"io"

	"github.com/twotwotwo/sorts"
)

// Amplicon is a unique sequence with its abundance.
type Amplicon struct {
	Seq   []byte
	Count int

	order int // order of the first occurrence
}

// Counter collapses identical sequences and counts their occurrences.
type Counter struct {
	m         map[string]int // sequence -> index in amplicons
	amplicons []*Amplicon
	n         int
}

// NewCounter returns a new Counter.
func NewCounter() *Counter {
	return &Counter{
		m:         make(map[string]int, 1<<16),
		amplicons: make([]*Amplicon, 0, 1<<16),
	}
}

// Add counts one occurrence of s. s should not be modified after that.
func (c *Counter) Add(s []byte) {
	c.n++
	if i, ok := c.m[string(s)]; ok {
		c.amplicons[i].Count++
		return
	}
	c.m[string(s)] = len(c.amplicons)
	c.amplicons = append(c.amplicons, &Amplicon{Seq: s, Count: 1, order: len(c.amplicons)})
}

// NumSeqs returns the number of added sequences.
func (c *Counter) NumSeqs() int { return c.n }

// NumUniques returns the number of distinct sequences.
func (c *Counter) NumUniques() int { return len(c.amplicons) }

// Amplicons returns distinct sequences occurring at least minCount times,
// sorted by count in descending order. Ties are in the order of first occurrence.
func (c *Counter) Amplicons(minCount int) []*Amplicon {
	list := make(amplicons, 0, len(c.amplicons))
	for _, a := range c.amplicons {
		if a.Count >= minCount {
			list = append(list, a)
		}
	}
	sorts.Quicksort(list)
	return list
}

// Dereplicate reads all sequences from the source and returns the amplicons
// occurring at least minCount times, sorted by count in descending order.
func Dereplicate(src Source, minCount int) ([]*Amplicon, error) {
	c := NewCounter()
	if err := c.AddAll(src); err != nil {
		return nil, err
	}
	return c.Amplicons(minCount), nil
}

// AddAll counts all sequences of a source.
func (c *Counter) AddAll(src Source) error {
	for {
		s, err := src.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		c.Add(s)
	}
}

type amplicons []*Amplicon

func (s amplicons) Len() int { return len(s) }
func (s amplicons) Less(i, j int) bool {
	if s[i].Count == s[j].Count {
		return s[i].order < s[j].order
	}
	return s[i].Count > s[j].Count
}
func (s amplicons) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
