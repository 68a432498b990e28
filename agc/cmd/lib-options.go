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
	"os"
	"time"

	"github.com/otutools/agc/agc/align"
	"github.com/otutools/agc/agc/pipeline"
	"github.com/otutools/agc/agc/util"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"
	"github.com/spf13/cobra"
)

// stages of the pipeline, deciding which flags a command has
const (
	stageDerep = iota
	stageChimera
	stageCluster
)

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("infile-list", "X", "",
		formatFlagUsage("File of input file list (one file per line). If given, they are appended to files from CLI arguments."))

	cmd.Flags().StringP("in-dir", "I", "",
		formatFlagUsage("Directory containing FASTA/Q files. Directory symlinks are followed."))

	cmd.Flags().StringP("file-regexp", "r", `\.(f[aq](st[aq])?|fna)(\.gz|\.xz|\.zst|\.bz2)?$`,
		formatFlagUsage("Regular expression for matching sequence files in -I/--in-dir, case ignored."))
}

func addPipelineFlags(cmd *cobra.Command, stage int) {
	d := &pipeline.DefaultOptions

	cmd.Flags().StringP("config", "C", "",
		formatFlagUsage("TOML file of pipeline options. Flags given explicitly override values in it."))

	cmd.Flags().IntP("min-seq-len", "s", d.MinSeqLen,
		formatFlagUsage("Minimum sequence length."))

	cmd.Flags().IntP("min-count", "m", d.MinCount,
		formatFlagUsage("Minimum abundance of dereplicated sequences."))

	if stage < stageChimera {
		return
	}

	cmd.Flags().IntP("chunk-size", "c", d.ChunkSize,
		formatFlagUsage("Chunk size for chimera detection. Sequences with less than 4 chunks are discarded."))

	cmd.Flags().IntP("kmer-size", "k", d.KmerSize,
		formatFlagUsage("K-mer size of the index of candidate parents, <= 32."))

	cmd.Flags().IntP("top-n", "n", d.TopN,
		formatFlagUsage("Number of candidate parents returned for every chunk."))

	cmd.Flags().Float64P("max-stdev", "", d.MaxStdDev,
		formatFlagUsage("A sequence is chimeric if the mean standard deviation of chunk identities is above this value and chunks favor both parents."))

	cmd.Flags().IntP("max-refs", "", d.MaxRefs,
		formatFlagUsage("Maximum number of non-chimeric sequences indexed as candidate parents (0 for no limit)."))

	cmd.Flags().IntP("gap-open", "", d.GapOpen,
		formatFlagUsage("Score of opening a gap, <= 0."))

	cmd.Flags().IntP("gap-extend", "", d.GapExtend,
		formatFlagUsage("Score of extending a gap, <= 0."))

	cmd.Flags().StringP("matrix", "", "",
		formatFlagUsage("Substitution matrix file in NCBI format. The built-in NUC.4.4 is used by default."))

	if stage < stageCluster {
		return
	}

	cmd.Flags().Float64P("min-identity", "i", d.MinIdentity,
		formatFlagUsage("Minimum percentage of identity (exclusive) for a sequence to join an OTU."))
}

// getPipelineOptions returns the default options, overridden by the config file
// and then by flags given explicitly.
func getPipelineOptions(cmd *cobra.Command) *pipeline.Options {
	opt := pipeline.DefaultOptions

	file := getFlagString(cmd, "config")
	if file != "" {
		checkError(errors.Wrap(readConfig(util.ExpandPath(file), &opt), file))
	}

	changed := func(flag string) bool {
		return cmd.Flags().Lookup(flag) != nil && cmd.Flags().Changed(flag)
	}

	if changed("min-seq-len") {
		opt.MinSeqLen = getFlagPositiveInt(cmd, "min-seq-len")
	}
	if changed("min-count") {
		opt.MinCount = getFlagPositiveInt(cmd, "min-count")
	}
	if changed("chunk-size") {
		opt.ChunkSize = getFlagPositiveInt(cmd, "chunk-size")
	}
	if changed("kmer-size") {
		opt.KmerSize = getFlagPositiveInt(cmd, "kmer-size")
	}
	if changed("top-n") {
		opt.TopN = getFlagPositiveInt(cmd, "top-n")
	}
	if changed("max-stdev") {
		opt.MaxStdDev = getFlagFloat64(cmd, "max-stdev")
	}
	if changed("max-refs") {
		opt.MaxRefs = getFlagNonNegativeInt(cmd, "max-refs")
	}
	if changed("gap-open") {
		opt.GapOpen = getFlagInt(cmd, "gap-open")
	}
	if changed("gap-extend") {
		opt.GapExtend = getFlagInt(cmd, "gap-extend")
	}
	if changed("min-identity") {
		opt.MinIdentity = getFlagFloat64(cmd, "min-identity")
	}

	checkError(pipeline.CheckOptions(&opt))
	return &opt
}

// readConfig reads pipeline options from a TOML file. Unknown keys are rejected.
func readConfig(file string, opt *pipeline.Options) error {
	fh, err := xopen.Ropen(file)
	if err != nil {
		return err
	}
	defer fh.Close()

	err = toml.NewDecoder(fh).DisallowUnknownFields().Decode(opt)
	if err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return fmt.Errorf("line %d, column %d: %s", row, col, derr.Error())
		}
		return err
	}
	return nil
}

// getMatrix reads the substitution matrix of --matrix, nil for the default one.
func getMatrix(cmd *cobra.Command) *align.SubstitutionMatrix {
	file := getFlagString(cmd, "matrix")
	if file == "" {
		return nil
	}
	m, err := align.ReadMatrix(util.ExpandPath(file))
	checkError(errors.Wrap(err, file))
	return m
}

// Summary is the run summary written by --summary.
type Summary struct {
	Program string    `toml:"program"`
	Version string    `toml:"version"`
	Command string    `toml:"command"`
	Date    time.Time `toml:"date"`

	Inputs  []string `toml:"inputs"`
	Output  string   `toml:"output"`
	Matrix  string   `toml:"matrix,omitempty"`
	Elapsed string   `toml:"elapsed"`

	Options *pipeline.Options `toml:"options"`
	Stats   *pipeline.Stats   `toml:"stats"`
}

func writeSummary(file string, s *Summary) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(file, data, 0644)
}
