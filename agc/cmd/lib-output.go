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

package cmd

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/otutools/agc/agc/util"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var _mark_fasta = []byte{'>'}
var _mark_newline = []byte{'\n'}

// fastaWriter writes FASTA records with sequences wrapped.
type fastaWriter struct {
	w     *bufio.Writer
	width int
	buf   *bytes.Buffer
}

func newFastaWriter(w *bufio.Writer, width int) *fastaWriter {
	return &fastaWriter{w: w, width: width}
}

func (fw *fastaWriter) Write(name string, s []byte) {
	var text []byte
	text, fw.buf = util.WrapByteSlice(s, fw.width, fw.buf)

	fw.w.Write(_mark_fasta)
	fw.w.WriteString(name)
	fw.w.Write(_mark_newline)
	fw.w.Write(text)
	fw.w.Write(_mark_newline)
}

// writeFastaFile writes records to a file, with gzip compression
// for files ending with ".gz".
func writeFastaFile(file string, width int, level int, write func(fw *fastaWriter)) error {
	if !isStdin(file) {
		file = util.ExpandPath(file)
	}
	outfh, gw, w, err := outStream(file, isGzipped(file), level)
	if err != nil {
		return err
	}

	write(newFastaWriter(outfh, width))

	if err = outfh.Flush(); err != nil {
		return err
	}
	if gw != nil {
		if err = gw.Close(); err != nil {
			return err
		}
	}
	if w != os.Stdout {
		return w.Close()
	}
	return nil
}

func isGzipped(file string) bool {
	return strings.HasSuffix(strings.ToLower(file), ".gz")
}

// plotRankAbundance plots abundances of OTUs against their ranks, with the
// y axis in log scale. The format is decided by the file extension.
func plotRankAbundance(counts []int, file string, title string) error {
	if len(counts) == 0 {
		return fmt.Errorf("no data to plot")
	}

	counts = slices.Clone(counts)
	slices.SortFunc(counts, func(a, b int) int { return b - a })

	pts := make(plotter.XYs, len(counts))
	for i, c := range counts {
		pts[i].X = float64(i + 1)
		pts[i].Y = float64(c)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "OTU rank"
	p.Y.Label.Text = "Abundance"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return err
	}
	points.GlyphStyle.Radius = vg.Points(2)

	p.Add(plotter.NewGrid(), line, points)

	return p.Save(6*vg.Inch, 4*vg.Inch, file)
}

// newProgressBar returns a progress bar of processed sequences on stderr.
func newProgressBar(total int, name string) (*mpb.Progress, *mpb.Bar) {
	pbs := mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
	bar := pbs.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name), C: decor.DindentRight}),
			decor.Name("", decor.WCSyncSpaceR),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.Name("ETA: ", decor.WC{W: len("ETA: ")}),
			decor.AverageETA(decor.ET_STYLE_GO),
			decor.OnComplete(decor.Name(""), ". done"),
		),
	)
	return pbs, bar
}
