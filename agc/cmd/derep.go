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
	"fmt"

	"github.com/otutools/agc/agc/derep"
	"github.com/spf13/cobra"
)

var derepCmd = &cobra.Command{
	Use:   "derep",
	Short: "Dereplicate sequences and count their abundances",
	Long: `Dereplicate sequences and count their abundances

Identical sequences (case ignored) are collapsed into one unique sequence.
Uniques with an abundance below -m/--min-count are discarded, and the rest
are written in descending order of abundance, ties in order of first
appearance:

    >Uniq_<rank> size=<abundance>

Input:
  1. Sequence files in FASTA/Q format, plain or compressed (gzip, xz, zstd, bzip2).
  2. Input files can be given as positional arguments, a file list via
     -X/--infile-list, or a directory via -I/--in-dir.
  3. Sequences shorter than -s/--min-seq-len are ignored.

`,
	Run: func(cmd *cobra.Command, args []string) {
		j := newJob(cmd, args, stageDerep)
		defer j.close()

		outFile := getFlagString(cmd, "out-file")
		lineWidth := getFlagNonNegativeInt(cmd, "line-width")
		summaryFile := getFlagString(cmd, "summary")

		amplicons := j.dereplicate()

		checkError(writeFastaFile(outFile, lineWidth, j.opt.CompressionLevel, func(fw *fastaWriter) {
			writeAmplicons(fw, amplicons, nil)
		}))
		if j.outputLog {
			log.Infof("amplicons saved to %s", outFile)
		}

		j.summary(summaryFile, outFile)
	},
}

// writeAmplicons writes amplicons with their ranks given by the map,
// or by the order in the list when the map is nil.
func writeAmplicons(fw *fastaWriter, amplicons []*derep.Amplicon, ranks map[*derep.Amplicon]int) {
	var rank int
	for i, a := range amplicons {
		if ranks != nil {
			rank = ranks[a]
		} else {
			rank = i + 1
		}
		fw.Write(fmt.Sprintf("Uniq_%d size=%d", rank, a.Count), a.Seq)
	}
}

func addOutputFlags(cmd *cobra.Command, defaultOut string) {
	cmd.Flags().StringP("out-file", "o", defaultOut,
		formatFlagUsage(`Out file, supports a ".gz" suffix ("-" for stdout).`))

	cmd.Flags().IntP("line-width", "w", 80,
		formatFlagUsage("Line width of sequences (0 for no wrap)."))

	cmd.Flags().StringP("summary", "", "",
		formatFlagUsage("Save a run summary with options and statistics to a TOML file."))
}

func init() {
	RootCmd.AddCommand(derepCmd)

	addInputFlags(derepCmd)
	addPipelineFlags(derepCmd, stageDerep)
	addOutputFlags(derepCmd, "-")

	derepCmd.SetUsageTemplate(usageTemplate("[flags] {<seq files> | -X <file list> | -I <seqs dir>} [-o uniques.fasta.gz]"))
}
