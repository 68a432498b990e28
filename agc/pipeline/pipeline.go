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

package pipeline

import (
	"errors"
	"fmt"

	"github.com/otutools/agc/agc/align"
	"github.com/otutools/agc/agc/chimera"
	"github.com/otutools/agc/agc/cluster"
	"github.com/otutools/agc/agc/derep"
	"github.com/otutools/agc/agc/index"
)

// ErrInvalidOptions means some options are out of range.
var ErrInvalidOptions = errors.New("pipeline: invalid options")

// Options contains all parameters of the pipeline.
type Options struct {
	MinSeqLen int `toml:"min-seq-len" comment:"minimum sequence length"`
	MinCount  int `toml:"min-count" comment:"minimum abundance of dereplicated sequences"`

	ChunkSize int     `toml:"chunk-size" comment:"chunk size for chimera detection"`
	KmerSize  int     `toml:"kmer-size" comment:"k-mer size of the index of candidate parents"`
	TopN      int     `toml:"top-n" comment:"number of candidate parents returned for a chunk"`
	MaxStdDev float64 `toml:"max-stdev" comment:"threshold of the mean standard deviation of chunk identities"`
	MaxRefs   int     `toml:"max-refs" comment:"maximum number of indexed non-chimeric sequences, 0 for no limit"`

	MinIdentity float64 `toml:"min-identity" comment:"an amplicon joins an OTU with identity above this percentage"`

	GapOpen   int `toml:"gap-open" comment:"score of opening a gap"`
	GapExtend int `toml:"gap-extend" comment:"score of extending a gap"`
}

// DefaultOptions is the default options.
var DefaultOptions = Options{
	MinSeqLen: 400,
	MinCount:  10,

	ChunkSize: chimera.DefaultOptions.ChunkSize,
	KmerSize:  8,
	TopN:      index.DefaultSearchOptions.TopN,
	MaxStdDev: chimera.DefaultOptions.MaxStdDev,

	MinIdentity: cluster.DefaultMinIdentity,

	GapOpen:   align.DefaultAlignOptions.GapOpen,
	GapExtend: align.DefaultAlignOptions.GapExtend,
}

// CheckOptions checks the options.
func CheckOptions(opt *Options) error {
	if opt.MinSeqLen < 1 {
		return fmt.Errorf("%w: minimum sequence length should be positive: %d", ErrInvalidOptions, opt.MinSeqLen)
	}
	if opt.MinCount < 1 {
		return fmt.Errorf("%w: minimum count should be positive: %d", ErrInvalidOptions, opt.MinCount)
	}
	if opt.ChunkSize < 1 {
		return fmt.Errorf("%w: chunk size should be positive: %d", ErrInvalidOptions, opt.ChunkSize)
	}
	if opt.KmerSize < 1 || opt.KmerSize > 32 {
		return fmt.Errorf("%w: k-mer size should be in range of [1, 32]: %d", ErrInvalidOptions, opt.KmerSize)
	}
	if opt.KmerSize > opt.ChunkSize {
		return fmt.Errorf("%w: k-mer size (%d) should not be greater than chunk size (%d)", ErrInvalidOptions, opt.KmerSize, opt.ChunkSize)
	}
	if opt.TopN < 2 {
		return fmt.Errorf("%w: number of candidate parents should be >= 2: %d", ErrInvalidOptions, opt.TopN)
	}
	if opt.MaxStdDev < 0 {
		return fmt.Errorf("%w: standard deviation threshold should be non-negative: %f", ErrInvalidOptions, opt.MaxStdDev)
	}
	if opt.MaxRefs < 0 {
		return fmt.Errorf("%w: maximum number of references should be non-negative: %d", ErrInvalidOptions, opt.MaxRefs)
	}
	if opt.MinIdentity < 0 || opt.MinIdentity > 100 {
		return fmt.Errorf("%w: identity threshold should be in range of [0, 100]: %f", ErrInvalidOptions, opt.MinIdentity)
	}
	if opt.GapOpen > 0 || opt.GapExtend > 0 {
		return fmt.Errorf("%w: gap scores should not be positive: %d, %d", ErrInvalidOptions, opt.GapOpen, opt.GapExtend)
	}
	return nil
}

// NewAligner returns an aligner with the gap scores of the options
// and a substitution matrix, nil for NUC.4.4.
func NewAligner(opt *Options, m *align.SubstitutionMatrix) *align.Aligner {
	if m == nil {
		m = align.NUC44
	}
	return align.NewAligner(&align.AlignOptions{
		Matrix:         m,
		GapOpen:        opt.GapOpen,
		GapExtend:      opt.GapExtend,
		SaveAlignments: true,
	})
}

// Stats records numbers of sequences going through the pipeline.
type Stats struct {
	Seqs      int  `toml:"seqs" comment:"sequences passing the length filter"`
	Uniques   int  `toml:"uniques"`
	Amplicons int  `toml:"amplicons" comment:"unique sequences passing the abundance filter"`
	Malformed bool `toml:"malformed-input"`

	Unchunkable int `toml:"unchunkable" comment:"amplicons too short for chimera detection"`
	Chimeras    int `toml:"chimeras"`
	NonChimeric int `toml:"non-chimeric"`

	RefSeqs int `toml:"ref-seqs" comment:"sequences in the reference pool"`
	Kmers   int `toml:"kmers" comment:"distinct k-mers in the index"`

	OTUs int `toml:"otus"`
}

// Pipeline runs dereplication, chimera removal and greedy clustering.
// It owns the k-mer index, the reference pool and the OTUs of one run,
// and is not safe for concurrent use.
type Pipeline struct {
	opt *Options

	idx       *index.Index
	detector  *chimera.Detector
	clusterer *cluster.Clusterer

	Stats Stats

	// optional callbacks
	Progress  func()                                       // after each amplicon is processed
	OnChimera func(a *derep.Amplicon, res *chimera.Result) // for each discarded chimera
}

// New creates a pipeline. The alignment oracle is used in both chimera
// detection and clustering; nil for an aligner built from the options.
func New(opt *Options, alg align.Oracle) (*Pipeline, error) {
	if err := CheckOptions(opt); err != nil {
		return nil, err
	}
	if alg == nil {
		alg = NewAligner(opt, nil)
	}

	idx, err := index.NewIndex(opt.KmerSize)
	if err != nil {
		return nil, err
	}
	if err = idx.SetSearchingOptions(&index.SearchOptions{TopN: opt.TopN}); err != nil {
		return nil, err
	}

	detector, err := chimera.NewDetector(idx, alg, &chimera.Options{
		ChunkSize: opt.ChunkSize,
		MaxStdDev: opt.MaxStdDev,
		MaxRefs:   opt.MaxRefs,
	})
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		opt:       opt,
		idx:       idx,
		detector:  detector,
		clusterer: cluster.NewClusterer(alg, opt.MinIdentity),
	}, nil
}

// Index returns the k-mer index of non-chimeric sequences.
func (p *Pipeline) Index() *index.Index {
	return p.idx
}

// Dereplicate counts all sequences of the source and returns amplicons
// passing the abundance filter, sorted by abundance in descending order.
// A malformed source yields no amplicons, with Stats.Malformed set.
func (p *Pipeline) Dereplicate(src derep.Source) ([]*derep.Amplicon, error) {
	c := derep.NewCounter()
	err := c.AddAll(src)
	if err != nil {
		if errors.Is(err, derep.ErrMalformedInput) {
			p.Stats.Malformed = true
			return nil, nil
		}
		return nil, err
	}

	amplicons := c.Amplicons(p.opt.MinCount)

	p.Stats.Seqs = c.NumSeqs()
	p.Stats.Uniques = c.NumUniques()
	p.Stats.Amplicons = len(amplicons)
	return amplicons, nil
}

// Deplete runs chimera detection on an amplicon and tells whether it is kept.
// Amplicons too short to be checked are dropped without a verdict.
func (p *Pipeline) Deplete(a *derep.Amplicon) (bool, error) {
	res, err := p.detector.Process(a.Seq)
	if err != nil {
		if errors.Is(err, chimera.ErrTooFewChunks) {
			p.Stats.Unchunkable++
			return false, nil
		}
		return false, err
	}

	if res.Verdict == chimera.Chimera {
		p.Stats.Chimeras++
		if p.OnChimera != nil {
			p.OnChimera(a, res)
		}
		return false, nil
	}

	p.Stats.NonChimeric++
	p.Stats.RefSeqs = p.idx.NumRefSeqs()
	p.Stats.Kmers = p.idx.NumKmers()
	return true, nil
}

// NonChimeric returns amplicons which are not chimeras, in the input order.
func (p *Pipeline) NonChimeric(amplicons []*derep.Amplicon) ([]*derep.Amplicon, error) {
	kept := make([]*derep.Amplicon, 0, len(amplicons))
	for _, a := range amplicons {
		ok, err := p.Deplete(a)
		if err != nil {
			return nil, err
		}
		if ok {
			kept = append(kept, a)
		}
		if p.Progress != nil {
			p.Progress()
		}
	}
	return kept, nil
}

// Run dereplicates sequences of the source, removes chimeras and clusters
// the remaining amplicons into OTUs, in the order of creation.
func (p *Pipeline) Run(src derep.Source) ([]*cluster.OTU, error) {
	amplicons, err := p.Dereplicate(src)
	if err != nil {
		return nil, err
	}
	return p.Cluster(amplicons)
}

// Cluster removes chimeras of the amplicons, which should be sorted
// by abundance in descending order, and clusters the rest greedily.
func (p *Pipeline) Cluster(amplicons []*derep.Amplicon) ([]*cluster.OTU, error) {
	var ok bool
	var err error
	for _, a := range amplicons {
		ok, err = p.Deplete(a)
		if err != nil {
			return nil, err
		}
		if ok {
			p.clusterer.Add(a.Seq, a.Count)
		}
		if p.Progress != nil {
			p.Progress()
		}
	}

	otus := p.clusterer.OTUs()
	p.Stats.OTUs = len(otus)
	return otus, nil
}
