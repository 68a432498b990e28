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

	"github.com/dustin/go-humanize"
	"github.com/otutools/agc/agc/cluster"
	"github.com/otutools/agc/agc/util"
	"github.com/spf13/cobra"
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Cluster amplicons into OTUs",
	Long: `Cluster amplicons into OTUs

This is the whole pipeline of agc:

  1. Dereplication. Identical sequences are counted, uniques with an
     abundance below -m/--min-count are discarded.
  2. Chimera removal, in descending order of abundance. See "agc chimera -h".
  3. Greedy clustering, in descending order of abundance. An amplicon joins
     the first OTU with a representative sharing more than -i/--min-identity
     percent of identity, or founds a new OTU. Representatives never change.

Identity is the number of matched positions divided by the length of the
global alignment (gaps included), computed with affine gap penalties and
a substitution matrix (NUC.4.4 by default).

OTUs are written in the order of creation:

    >OTU_<rank> occurrence:<abundance>

Optional outputs:
  --chimeras   chimeras, with ranks of their parents among dereplicated amplicons.
  --summary    a run summary with options and statistics, in TOML format.
  --plot       a rank-abundance curve of OTUs, in PNG, SVG or PDF format.

`,
	Run: func(cmd *cobra.Command, args []string) {
		j := newJob(cmd, args, stageCluster)
		defer j.close()

		outFile := getFlagString(cmd, "out-file")
		lineWidth := getFlagNonNegativeInt(cmd, "line-width")
		summaryFile := getFlagString(cmd, "summary")
		chimeraFile := getFlagString(cmd, "chimeras")
		plotFile := getFlagString(cmd, "plot")
		if plotFile != "" {
			plotFile = util.ExpandPath(plotFile)
		}

		amplicons := j.dereplicate()
		ranks := rankAmplicons(amplicons)
		chimeras := collectChimeras(j.p, amplicons, ranks)

		if j.outputLog {
			log.Info()
			log.Infof("removing chimeras and clustering ...")
		}
		wait := j.progress(len(amplicons))
		otus, err := j.p.Cluster(amplicons)
		checkError(err)
		wait()
		j.logChimeraStats()
		if j.outputLog {
			log.Infof("  %s OTUs", humanize.Comma(int64(len(otus))))
		}

		checkError(writeFastaFile(outFile, lineWidth, j.opt.CompressionLevel, func(fw *fastaWriter) {
			writeOTUs(fw, otus)
		}))
		if j.outputLog {
			log.Infof("OTUs saved to %s", outFile)
		}

		if chimeraFile != "" {
			checkError(chimeras.save(chimeraFile, lineWidth, j.opt.CompressionLevel))
			if j.outputLog {
				log.Infof("chimeras saved to %s", chimeraFile)
			}
		}

		if plotFile != "" {
			if len(otus) == 0 {
				log.Warningf("no OTUs, skip plotting")
			} else {
				counts := make([]int, len(otus))
				for i, otu := range otus {
					counts[i] = otu.Count
				}
				checkError(plotRankAbundance(counts, plotFile, fmt.Sprintf("%d OTUs", len(otus))))
				if j.outputLog {
					log.Infof("rank-abundance plot saved to %s", plotFile)
				}
			}
		}

		j.summary(summaryFile, outFile)
	},
}

func writeOTUs(fw *fastaWriter, otus []*cluster.OTU) {
	for i, otu := range otus {
		fw.Write(fmt.Sprintf("OTU_%d occurrence:%d", i+1, otu.Count), otu.Seq)
	}
}

func init() {
	RootCmd.AddCommand(clusterCmd)

	addInputFlags(clusterCmd)
	addPipelineFlags(clusterCmd, stageCluster)
	addOutputFlags(clusterCmd, "OTU.fasta")

	clusterCmd.Flags().StringP("chimeras", "", "",
		formatFlagUsage(`Save chimeras to a file, supports a ".gz" suffix.`))

	clusterCmd.Flags().StringP("plot", "", "",
		formatFlagUsage(`Save a rank-abundance plot of OTUs, the format is decided by the suffix (".png", ".svg", ".pdf").`))

	clusterCmd.SetUsageTemplate(usageTemplate("[flags] {<seq files> | -X <file list> | -I <seqs dir>} [-o OTU.fasta]"))
}
