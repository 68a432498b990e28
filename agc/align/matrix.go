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
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shenwei356/xopen"
)

// ErrInvalidMatrix means the substitution matrix text is not in NCBI format.
var ErrInvalidMatrix = errors.New("align: invalid substitution matrix")

// SubstitutionMatrix stores scores of aligning two residues.
// Letters are case-insensitive. Pairs involving a letter absent from
// the matrix get the lowest score of the matrix.
type SubstitutionMatrix struct {
	scores  [256][256]int
	letters []byte
	lowest  int
}

// Score returns the score of aligning a and b.
func (m *SubstitutionMatrix) Score(a, b byte) int {
	return m.scores[a][b]
}

// Letters returns the letters in the header of the matrix.
func (m *SubstitutionMatrix) Letters() []byte {
	return m.letters
}

// ParseMatrix parses a substitution matrix in NCBI format, e.g.,
//
//	# comments
//	   A  T  G  C
//	A  5 -4 -4 -4
//	T -4  5 -4 -4
//	...
func ParseMatrix(r io.Reader) (*SubstitutionMatrix, error) {
	scanner := bufio.NewScanner(r)

	var letters []byte
	rows := make(map[byte][]int, 16)
	var line string
	var fields []string
	for scanner.Scan() {
		line = strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields = strings.Fields(line)

		if letters == nil {
			letters = make([]byte, 0, len(fields))
			for _, f := range fields {
				if len(f) != 1 {
					return nil, fmt.Errorf("%w: bad letter in header: %s", ErrInvalidMatrix, f)
				}
				letters = append(letters, upper(f[0]))
			}
			continue
		}

		if len(fields) != len(letters)+1 || len(fields[0]) != 1 {
			return nil, fmt.Errorf("%w: bad row: %s", ErrInvalidMatrix, line)
		}
		vals := make([]int, len(letters))
		for i, f := range fields[1:] {
			v, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("%w: bad score: %s", ErrInvalidMatrix, f)
			}
			vals[i] = v
		}
		rows[upper(fields[0][0])] = vals
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(letters) == 0 || len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty matrix", ErrInvalidMatrix)
	}

	m := &SubstitutionMatrix{letters: letters}
	first := true
	for _, vals := range rows {
		for _, v := range vals {
			if first || v < m.lowest {
				m.lowest = v
				first = false
			}
		}
	}
	for i := range m.scores {
		for j := range m.scores[i] {
			m.scores[i][j] = m.lowest
		}
	}
	for a, vals := range rows {
		for j, v := range vals {
			m.set(a, letters[j], v)
		}
	}
	return m, nil
}

func (m *SubstitutionMatrix) set(a, b byte, v int) {
	la, lb := lower(a), lower(b)
	m.scores[a][b] = v
	m.scores[la][lb] = v
	m.scores[a][lb] = v
	m.scores[la][b] = v
}

// ReadMatrix reads a substitution matrix file, which could be compressed.
func ReadMatrix(file string) (*SubstitutionMatrix, error) {
	fh, err := xopen.Ropen(file)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	return ParseMatrix(fh)
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 32
	}
	return c
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 32
	}
	return c
}

// NUC44 is the NUC.4.4 (EDNAFULL) nucleotide substitution matrix.
var NUC44 = mustParseMatrix(nuc44)

func mustParseMatrix(s string) *SubstitutionMatrix {
	m, err := ParseMatrix(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return m
}

const nuc44 = `
#  NUC.4.4
    A   T   G   C   S   W   R   Y   K   M   B   V   H   D   N
A   5  -4  -4  -4  -4   1   1  -4  -4   1  -4  -1  -1  -1  -2
T  -4   5  -4  -4  -4   1  -4   1   1  -4  -1  -4  -1  -1  -2
G  -4  -4   5  -4   1  -4   1  -4   1  -4  -1  -1  -4  -1  -2
C  -4  -4  -4   5   1  -4  -4   1  -4   1  -1  -1  -1  -4  -2
S  -4  -4   1   1  -1  -4  -2  -2  -2  -2  -1  -1  -3  -3  -1
W   1   1  -4  -4  -4  -1  -2  -2  -2  -2  -3  -3  -1  -1  -1
R   1  -4   1  -4  -2  -2  -1  -4  -2  -2  -3  -1  -3  -1  -1
Y  -4   1  -4   1  -2  -2  -4  -1  -2  -2  -1  -3  -1  -3  -1
K  -4   1   1  -4  -2  -2  -2  -2  -1  -4  -1  -3  -3  -1  -1
M   1  -4  -4   1  -2  -2  -2  -2  -4  -1  -3  -1  -1  -3  -1
B  -4  -1  -1  -1  -1  -3  -3  -1  -1  -3  -1  -2  -2  -2  -1
V  -1  -4  -1  -1  -1  -3  -1  -3  -3  -1  -2  -1  -2  -2  -1
H  -1  -1  -4  -1  -3  -1  -3  -1  -3  -1  -2  -2  -1  -2  -1
D  -1  -1  -1  -4  -3  -1  -1  -3  -1  -3  -2  -2  -2  -1  -1
N  -2  -2  -2  -2  -1  -1  -1  -1  -1  -1  -1  -1  -1  -1  -1
`
