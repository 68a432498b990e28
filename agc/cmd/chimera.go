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

	"github.com/otutools/agc/agc/chimera"
	"github.com/otutools/agc/agc/derep"
	"github.com/otutools/agc/agc/pipeline"
	"github.com/spf13/cobra"
)

var chimeraCmd = &cobra.Command{
	Use:   "chimera",
	Short: "Remove chimeric sequences",
	Long: `Remove chimeric sequences

Sequences are dereplicated first, then checked in descending order of
abundance against previously accepted non-chimeric sequences:

  1. A sequence is split into non-overlapping chunks of -c/--chunk-size bp,
     sequences with less than 4 chunks are discarded.
  2. Each chunk is searched in a k-mer index of accepted sequences, and
     the top -n/--top-n sequences sharing most k-mers are its candidates.
  3. With at least two candidates common to all chunks, the first two
     are the putative parents. Chunks of the sequence are globally
     aligned to the corresponding chunks of both parents.
  4. The sequence is a chimera if the mean standard deviation of the
     two identities over chunks is above --max-stdev, and some chunks
     are closer to one parent while some to the other.

Non-chimeric sequences are written as:

    >Uniq_<rank> size=<abundance>

where the rank is the one among all dereplicated amplicons.
Chimeras can be saved with --chimeras, with ranks of their parents.

`,
	Run: func(cmd *cobra.Command, args []string) {
		j := newJob(cmd, args, stageChimera)
		defer j.close()

		outFile := getFlagString(cmd, "out-file")
		lineWidth := getFlagNonNegativeInt(cmd, "line-width")
		summaryFile := getFlagString(cmd, "summary")
		chimeraFile := getFlagString(cmd, "chimeras")

		amplicons := j.dereplicate()
		ranks := rankAmplicons(amplicons)
		chimeras := collectChimeras(j.p, amplicons, ranks)

		if j.outputLog {
			log.Info()
			log.Infof("removing chimeras ...")
		}
		wait := j.progress(len(amplicons))
		kept, err := j.p.NonChimeric(amplicons)
		checkError(err)
		wait()
		j.logChimeraStats()

		checkError(writeFastaFile(outFile, lineWidth, j.opt.CompressionLevel, func(fw *fastaWriter) {
			writeAmplicons(fw, kept, ranks)
		}))
		if j.outputLog {
			log.Infof("non-chimeric amplicons saved to %s", outFile)
		}

		if chimeraFile != "" {
			checkError(chimeras.save(chimeraFile, lineWidth, j.opt.CompressionLevel))
			if j.outputLog {
				log.Infof("chimeras saved to %s", chimeraFile)
			}
		}

		j.summary(summaryFile, outFile)
	},
}

func rankAmplicons(amplicons []*derep.Amplicon) map[*derep.Amplicon]int {
	ranks := make(map[*derep.Amplicon]int, len(amplicons))
	for i, a := range amplicons {
		ranks[a] = i + 1
	}
	return ranks
}

type chimeraRecord struct {
	rank    int
	count   int
	parents [2]int
	seq     []byte
}

type chimeraRecords []chimeraRecord

// collectChimeras records chimeras discarded by the pipeline,
// with parents given by ranks of the amplicons.
func collectChimeras(p *pipeline.Pipeline, amplicons []*derep.Amplicon, ranks map[*derep.Amplicon]int) *chimeraRecords {
	seq2rank := make(map[string]int, len(amplicons))
	for _, a := range amplicons {
		seq2rank[string(a.Seq)] = ranks[a]
	}

	records := make(chimeraRecords, 0, 1024)
	idx := p.Index()
	p.OnChimera = func(a *derep.Amplicon, res *chimera.Result) {
		records = append(records, chimeraRecord{
			rank:  ranks[a],
			count: a.Count,
			parents: [2]int{
				seq2rank[string(idx.RefSeq(res.Parents[0]))],
				seq2rank[string(idx.RefSeq(res.Parents[1]))],
			},
			seq: a.Seq,
		})
	}
	return &records
}

func (records *chimeraRecords) save(file string, width int, level int) error {
	return writeFastaFile(file, width, level, func(fw *fastaWriter) {
		for _, r := range *records {
			fw.Write(fmt.Sprintf("Uniq_%d size=%d parents=Uniq_%d,Uniq_%d",
				r.rank, r.count, r.parents[0], r.parents[1]), r.seq)
		}
	})
}

func init() {
	RootCmd.AddCommand(chimeraCmd)

	addInputFlags(chimeraCmd)
	addPipelineFlags(chimeraCmd, stageChimera)
	addOutputFlags(chimeraCmd, "-")

	chimeraCmd.Flags().StringP("chimeras", "", "",
		formatFlagUsage(`Save chimeras to a file, supports a ".gz" suffix.`))

	chimeraCmd.SetUsageTemplate(usageTemplate("[flags] {<seq files> | -X <file list> | -I <seqs dir>} [-o non-chimeric.fasta.gz]"))
}
