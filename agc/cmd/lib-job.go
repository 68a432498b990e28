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
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/otutools/agc/agc/align"
	"github.com/otutools/agc/agc/derep"
	"github.com/otutools/agc/agc/pipeline"
	"github.com/otutools/agc/agc/util"
	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seq"
	"github.com/spf13/cobra"
)

// job holds what a command needs for one run of the pipeline.
type job struct {
	name string

	opt  *Options
	popt *pipeline.Options

	files []string
	src   *derep.FastxSource
	p     *pipeline.Pipeline

	matrix string

	outputLog bool
	fhLog     *os.File
	timeStart time.Time
}

func newJob(cmd *cobra.Command, args []string, stage int) *job {
	opt := getOptions(cmd)
	seq.ValidateSeq = false

	j := &job{name: cmd.Name(), opt: opt, timeStart: time.Now()}
	if opt.Log2File {
		j.fhLog = addLog(opt.LogFile, opt.Verbose)
	}
	j.outputLog = opt.Verbose || opt.Log2File

	j.popt = getPipelineOptions(cmd)

	var m *align.SubstitutionMatrix
	if stage >= stageChimera {
		m = getMatrix(cmd)
		j.matrix = getFlagString(cmd, "matrix")
	}

	j.files = getInputFiles(cmd, args, opt)

	var err error
	j.src, err = derep.NewFastxSource(j.files, j.popt.MinSeqLen)
	checkError(err)

	j.p, err = pipeline.New(j.popt, pipeline.NewAligner(j.popt, m))
	checkError(err)

	if j.outputLog {
		log.Infof("agc v%s", VERSION)
		log.Info("  https://github.com/otutools/agc")
		log.Info()
		log.Infof("checking input files ...")
		log.Infof("  %s input file(s) given", humanize.Comma(int64(len(j.files))))
		log.Info()
		log.Infof("main parameters:")
		log.Infof("  minimum sequence length: %d", j.popt.MinSeqLen)
		log.Infof("  minimum abundance: %d", j.popt.MinCount)
		if stage >= stageChimera {
			log.Infof("  chunk size: %d, k-mer size: %d, candidates per chunk: %d",
				j.popt.ChunkSize, j.popt.KmerSize, j.popt.TopN)
			log.Infof("  maximum mean standard deviation: %.2f", j.popt.MaxStdDev)
			if j.popt.MaxRefs > 0 {
				log.Infof("  maximum indexed sequences: %d", j.popt.MaxRefs)
			}
			if j.matrix != "" {
				log.Infof("  substitution matrix: %s", j.matrix)
			}
			log.Infof("  gap open: %d, gap extend: %d", j.popt.GapOpen, j.popt.GapExtend)
		}
		if stage >= stageCluster {
			log.Infof("  minimum identity: %.2f%%", j.popt.MinIdentity)
		}
		log.Info()
	}

	return j
}

// dereplicate reads all sequences and returns amplicons sorted by abundance.
func (j *job) dereplicate() []*derep.Amplicon {
	if j.outputLog {
		log.Infof("dereplicating sequences ...")
	}
	amplicons, err := j.p.Dereplicate(j.src)
	checkError(err)
	checkError(j.src.Close())

	if j.p.Stats.Malformed {
		log.Warningf("malformed input, no sequences are processed")
		return amplicons
	}

	if j.outputLog {
		log.Infof("  %s records read, %s shorter than %d bp",
			humanize.Comma(int64(j.src.NumReads)), humanize.Comma(int64(j.src.NumShort)), j.popt.MinSeqLen)
		log.Infof("  %s unique sequences out of %s",
			humanize.Comma(int64(j.p.Stats.Uniques)), humanize.Comma(int64(j.p.Stats.Seqs)))
		log.Infof("  %s amplicons with abundance >= %d",
			humanize.Comma(int64(len(amplicons))), j.popt.MinCount)
	}
	return amplicons
}

func (j *job) logChimeraStats() {
	if !j.outputLog {
		return
	}
	s := &j.p.Stats
	log.Infof("  %s chimeras, %s non-chimeric, %s too short to check",
		humanize.Comma(int64(s.Chimeras)), humanize.Comma(int64(s.NonChimeric)), humanize.Comma(int64(s.Unchunkable)))
	log.Infof("  index: %s sequences, %s distinct k-mers",
		humanize.Comma(int64(j.p.Index().NumRefSeqs())), humanize.Comma(int64(j.p.Index().NumKmers())))
}

func (j *job) summary(file string, output string) {
	if file == "" {
		return
	}
	s := &Summary{
		Program: "agc",
		Version: VERSION,
		Command: j.name,
		Date:    time.Now(),
		Inputs:  j.files,
		Output:  output,
		Matrix:  j.matrix,
		Elapsed: time.Since(j.timeStart).String(),
		Options: j.popt,
		Stats:   &j.p.Stats,
	}
	checkError(errors.Wrap(writeSummary(util.ExpandPath(file), s), file))
	if j.outputLog {
		log.Infof("run summary saved to %s", file)
	}
}

// progress shows a progress bar over n amplicons, and returns a function
// to wait for its completion.
func (j *job) progress(n int) func() {
	if !j.opt.Verbose || n == 0 {
		j.p.Progress = nil
		return func() {}
	}
	pbs, bar := newProgressBar(n, "processed amplicons: ")
	j.p.Progress = func() { bar.Increment() }
	return pbs.Wait
}

func (j *job) close() {
	if j.outputLog {
		log.Info()
		log.Infof("elapsed time: %s", time.Since(j.timeStart))
		log.Info()
	}
	if j.opt.Log2File {
		j.fhLog.Close()
	}
}
