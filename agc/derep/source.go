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
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/util/pathutil"
	"github.com/shenwei356/xopen"
)

// ErrInvalidInput means an input file is missing or unreadable.
var ErrInvalidInput = errors.New("derep: invalid input")

// ErrMalformedInput means an input file could not be parsed as FASTA/Q.
var ErrMalformedInput = errors.New("derep: malformed input")

// Source is a lazy, finite and non-restartable stream of sequences.
// Next returns io.EOF when the stream is exhausted.
type Source interface {
	Next() ([]byte, error)
}

// FastxSource streams uppercased sequences no shorter than a minimum length
// from one or more plain or compressed FASTA/Q files. "-" is for stdin.
type FastxSource struct {
	files  []string
	minLen int

	i      int // index of current file
	reader *fastx.Reader

	NumReads int // all records read
	NumShort int // records shorter than the minimum length
}

// NewFastxSource checks the input files and creates a FastxSource.
// Files are opened one by one during reading.
func NewFastxSource(files []string, minLen int) (*FastxSource, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no input files", ErrInvalidInput)
	}
	for _, file := range files {
		if file == "-" {
			continue
		}
		ok, err := pathutil.Exists(file)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %s", ErrInvalidInput, file, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: file not found: %s", ErrInvalidInput, file)
		}
		isDir, err := pathutil.IsDir(file)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %s", ErrInvalidInput, file, err)
		}
		if isDir {
			return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidInput, file)
		}
	}

	return &FastxSource{files: files, minLen: minLen}, nil
}

// Next returns the next sequence. The returned slice is owned by the caller.
func (s *FastxSource) Next() ([]byte, error) {
	var record *fastx.Record
	var err error
	for s.i < len(s.files) {
		if s.reader == nil {
			s.reader, err = fastx.NewReader(nil, s.files[s.i], "")
			if err != nil {
				if errors.Is(err, xopen.ErrNoContent) { // empty file
					s.reader = nil
					s.i++
					continue
				}
				return nil, fmt.Errorf("%w: %s: %s", ErrInvalidInput, s.files[s.i], err)
			}
		}

		record, err = s.reader.Read()
		if err != nil {
			s.reader.Close()
			s.reader = nil
			if err == io.EOF {
				s.i++
				continue
			}
			return nil, fmt.Errorf("%w: %s: %s", ErrMalformedInput, s.files[s.i], err)
		}

		s.NumReads++
		if len(record.Seq.Seq) < s.minLen {
			s.NumShort++
			continue
		}
		return bytes.ToUpper(record.Seq.Seq), nil
	}
	return nil, io.EOF
}

// Close closes the file being read.
func (s *FastxSource) Close() error {
	if s.reader != nil {
		s.reader.Close()
		s.reader = nil
	}
	return nil
}

// SliceSource is a Source of in-memory sequences.
type SliceSource struct {
	seqs   [][]byte
	minLen int
	i      int
}

// NewSliceSource returns a Source emitting sequences no shorter than minLen.
func NewSliceSource(seqs [][]byte, minLen int) *SliceSource {
	return &SliceSource{seqs: seqs, minLen: minLen}
}

// Next returns the next sequence.
func (s *SliceSource) Next() ([]byte, error) {
	for s.i < len(s.seqs) {
		seq := s.seqs[s.i]
		s.i++
		if len(seq) >= s.minLen {
			return seq, nil
		}
	}
	return nil, io.EOF
}
