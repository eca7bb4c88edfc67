// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package search

import (
	"context"

	"github.com/pkg/errors"

	"github.com/grailbio/gemgo/align/bpm"
	"github.com/grailbio/gemgo/align/swg"
	"github.com/grailbio/gemgo/candidates"
	"github.com/grailbio/gemgo/dna"
	"github.com/grailbio/gemgo/fmindex"
	"github.com/grailbio/gemgo/gpu"
	"github.com/grailbio/gemgo/matches"
	"github.com/grailbio/gemgo/seeding"
	"github.com/grailbio/gemgo/worker"
)

// Opts configures one Search call: the region-profile model, how many
// candidates a single region is allowed to spend its budget decoding,
// and the SWG penalties/thresholds the curation pass applies.
type Opts struct {
	Seeding         seeding.Model
	MaxRegions      uint64
	CandidateBudget candidates.Budget
	SWG             swg.Options
	// GenomeLength bounds candidate windows; 0 means "use idx.Length()".
	GenomeLength uint64
}

// DefaultOpts match common short-read defaults: a region profile that
// gives up on shrinking a region once its interval holds 50 or fewer
// candidates, a budget of 2000 decoded candidates per strand, and SWG
// penalties scored identically to align/swg.DefaultPenalties.
var DefaultOpts = Opts{
	Seeding: seeding.Model{
		RegionTh:     50,
		MaxSteps:     4,
		DecFactor:    2,
		RegionTypeTh: 1,
	},
	MaxRegions:      5,
	CandidateBudget: candidates.Budget{MaxCandidates: 2000},
	SWG: swg.Options{
		Penalties:        swg.DefaultPenalties,
		Mode:             swg.ModeFreeBoth,
		LeftGapAlignment: true,
		MinIdentity:      0.8,
	},
}

func allowedEnc(enc uint8) bool { return dna.IsCanonical(enc) }

// Search runs the full two-strand alignment pipeline for one compiled
// read against idx/text, appending every accepted alignment into ts's
// match-trace vector and returning it. The caller (package worker) owns
// resetting ts between reads; Search only ever appends.
func Search(ctx context.Context, idx *fmindex.Index, text *dna.PackedText, pattern *Pattern, opts Opts, ts *worker.ThreadState) ([]matches.MatchTrace, error) {
	genomeLength := opts.GenomeLength
	if genomeLength == 0 {
		genomeLength = idx.Length()
	}

	if err := searchStrand(ctx, idx, text, pattern, opts, genomeLength, ts, matches.Forward); err != nil {
		return nil, err
	}
	rc := pattern.ReverseComplement()
	if err := searchStrand(ctx, idx, text, rc, opts, genomeLength, ts, matches.Reverse); err != nil {
		return nil, err
	}
	return ts.Traces.All(), nil
}

func searchStrand(ctx context.Context, idx *fmindex.Index, text *dna.PackedText, p *Pattern, opts Opts, genomeLength uint64, ts *worker.ThreadState, strand matches.Strand) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	profile := seeding.BuildAdaptive(idx, p.Key, allowedEnc, opts.Seeding, opts.MaxRegions, true)
	ts.Candidates = candidates.Generate(idx, profile, 0, uint64(p.MaxEffectiveError), genomeLength, opts.CandidateBudget)
	if len(ts.Candidates) == 0 {
		return nil
	}

	if gpu.Enabled() {
		return searchStrandGPU(ctx, text, p, opts, ts, strand)
	}
	searchStrandCPU(text, p, opts, ts, strand)
	return nil
}

// searchStrandCPU verifies every candidate window with the k-mer
// prefilter and a direct bpm.Verify call, the region-profile and
// candidate-generation stages staying CPU-only regardless of gpu.Enabled:
// both take an *fmindex.Index directly, and routing them through
// gpu.FMStaticSearchBuffer/gpu.DecodeSABuffer would mean reworking their
// signatures around a GPU-or-CPU strategy, a larger change than this
// verify-stage offload.
func searchStrandCPU(text *dna.PackedText, p *Pattern, opts Opts, ts *worker.ThreadState, strand matches.Strand) {
	for _, cand := range ts.Candidates {
		window := decodeWindow(text, ts.TextCache, cand.Begin, cand.End)

		if p.Kmer.Enabled() {
			if dist, decided := p.Kmer.Filter(window, uint64(p.MaxEffectiveError)); decided && dist > uint64(p.MaxEffectiveError) {
				continue
			}
		}

		res := bpm.Verify(p.BPM, window, p.MaxEffectiveError)
		if res.Distance > p.MaxEffectiveError {
			continue
		}
		alignCandidate(p, opts, ts, strand, cand.Begin, window, res)
	}
}

// searchStrandGPU batches every candidate's BPM verification into one
// gpu.AlignBPMBuffer round-trip, skipping the k-mer prefilter entirely:
// the offloaded batch already pays for every candidate's verification in
// one call, so there is no cheaper pre-check left to run first.
func searchStrandGPU(ctx context.Context, text *dna.PackedText, p *Pattern, opts Opts, ts *worker.ThreadState, strand matches.Strand) error {
	buf := gpu.NewAlignBPMBuffer()
	windows := make([][]uint8, len(ts.Candidates))
	for i, cand := range ts.Candidates {
		window := decodeWindow(text, ts.TextCache, cand.Begin, cand.End)
		windows[i] = window
		buf.Add(p.BPM, p.Key, window, p.MaxEffectiveError)
	}

	if err := buf.Copy(ctx); err != nil {
		return errors.Wrap(err, "search: staging BPM batch")
	}
	if err := buf.Retrieve(ctx); err != nil {
		return errors.Wrap(err, "search: retrieving BPM batch")
	}

	for i, cand := range ts.Candidates {
		r := buf.Result(i)
		if r.Distance > p.MaxEffectiveError {
			continue
		}
		res := bpm.Result{Distance: r.Distance, TextBeginOffset: r.TextBeginOffset, TextEndOffset: r.TextEndOffset}
		alignCandidate(p, opts, ts, strand, cand.Begin, windows[i], res)
	}
	return nil
}

// decodeWindow fetches a candidate's reference window from ts's
// per-read cache, decoding and caching it on first use. The cache is
// keyed only by text offset, not strand, which is correct: the window's
// bytes are the same reference text regardless of which strand's
// pattern is being verified against it.
func decodeWindow(text *dna.PackedText, cache *worker.TextCache, begin, end uint64) []uint8 {
	if w, ok := cache.Get(begin); ok {
		return w
	}
	w := text.DecodeEncoded(int(begin), int(end-begin))
	cache.Put(begin, w)
	return w
}

// alignCandidate scaffolds a band around the BPM verifier's best infix
// match, runs SWG over that narrower window, and appends a curated trace
// if the alignment clears opts.SWG's quality bars. A fresh CIGAR is
// allocated per candidate rather than reused from a scratch struct: since
// matches.Vector.Append zeroes a trace's memory in place (not merely
// truncating it), a scratch CIGAR copied by value into one accepted trace
// would still share its backing array with whatever the next candidate's
// CIGAR.Add calls write, silently corrupting the earlier trace.
//
// Align's returned score is discarded on purpose: Curate trims edge
// indels out of the traced CIGAR, so the only score worth keeping is the
// one Curate recomputes from that trimmed CIGAR.
func alignCandidate(p *Pattern, opts Opts, ts *worker.ThreadState, strand matches.Strand, windowBegin uint64, window []uint8, res bpm.Result) {
	lo := res.TextBeginOffset - p.MaxBandwidth
	if lo < 0 {
		lo = 0
	}
	hi := res.TextEndOffset + p.MaxBandwidth
	if hi > len(window) {
		hi = len(window)
	}
	if lo >= hi {
		return
	}
	scaffold := window[lo:hi]

	swgOpts := opts.SWG
	swgOpts.MaxBandwidth = p.MaxBandwidth

	var cigar matches.CIGAR
	if _, ok := swg.Align(p.Key, scaffold, swgOpts, &cigar); !ok {
		return
	}
	score, ok := swg.Curate(&cigar, swgOpts)
	if !ok {
		return
	}

	trace := ts.Traces.Append()
	trace.TextPosition = windowBegin + uint64(lo)
	trace.Strand = strand
	trace.CIGAR = cigar
	trace.EditDistance = cigar.EditDistance()
	trace.MatchingBases = cigar.MatchingBases()
	trace.EffectiveRefLen = cigar.EffectiveReferenceLength()
	trace.Score = score
	if trace.EffectiveRefLen > 0 {
		trace.Identity = float64(trace.MatchingBases) / float64(trace.EffectiveRefLen)
	}
}
