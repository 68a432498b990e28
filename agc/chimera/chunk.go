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
	"errors"
	"fmt"
)

// MinChunks is the minimum number of chunks required for chimera detection.
const MinChunks = 4

// ErrTooFewChunks means a sequence is too short to be split into MinChunks chunks.
var ErrTooFewChunks = errors.New("chimera: too few chunks")

// ErrInvalidChunkSize means the chunk size is not positive.
var ErrInvalidChunkSize = errors.New("chimera: invalid chunk size")

// Chunks splits s into non-overlapping chunks of the given size, starting
// from the first base. Only chunks ending strictly before the end of s are
// kept, so a final chunk reaching the last base is dropped too.
// The chunks share the underlying array of s.
func Chunks(s []byte, size int) ([][]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChunkSize, size)
	}

	chunks := make([][]byte, 0, len(s)/size)
	for i := 0; i+size < len(s); i += size {
		chunks = append(chunks, s[i:i+size])
	}

	if len(chunks) < MinChunks {
		return nil, fmt.Errorf("%w: %d chunks of %d bp from a %d-bp sequence",
			ErrTooFewChunks, len(chunks), size, len(s))
	}
	return chunks, nil
}
