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
	"github.com/grailbio/gemgo/align/swg"
	"github.com/grailbio/gemgo/dna"
	"github.com/grailbio/gemgo/matches"
)

// ExtendLocal aligns pattern directly against [windowBegin, windowEnd) of
// text via SWG, skipping the region-profile/candidate-generation/BPM
// stages a from-scratch Search runs. It is for callers that already know
// the read should land inside a specific, already-narrow reference
// window -- the paired-end controller's insert-window extension -- where
// running the full index search would repeat work a direct alignment
// already makes cheap.
func ExtendLocal(text *dna.PackedText, windowBegin, windowEnd uint64, pattern *Pattern, opts Opts) []matches.MatchTrace {
	if windowEnd > uint64(text.Len()) {
		windowEnd = uint64(text.Len())
	}
	if windowBegin >= windowEnd {
		return nil
	}
	window := text.DecodeEncoded(int(windowBegin), int(windowEnd-windowBegin))

	var out []matches.MatchTrace
	extendAgainstWindow(window, windowBegin, pattern, opts, matches.Forward, &out)
	extendAgainstWindow(window, windowBegin, pattern.ReverseComplement(), opts, matches.Reverse, &out)
	return out
}

func extendAgainstWindow(window []uint8, windowBegin uint64, p *Pattern, opts Opts, strand matches.Strand, out *[]matches.MatchTrace) {
	swgOpts := opts.SWG
	swgOpts.MaxBandwidth = p.MaxBandwidth
	swgOpts.Mode = swg.ModeFreeBoth

	var cigar matches.CIGAR
	if _, ok := swg.Align(p.Key, window, swgOpts, &cigar); !ok {
		return
	}
	score, ok := swg.Curate(&cigar, swgOpts)
	if !ok {
		return
	}

	trace := matches.MatchTrace{
		TextPosition:    windowBegin,
		Strand:          strand,
		CIGAR:           cigar,
		EditDistance:    cigar.EditDistance(),
		MatchingBases:   cigar.MatchingBases(),
		EffectiveRefLen: cigar.EffectiveReferenceLength(),
		Score:           score,
	}
	if trace.EffectiveRefLen > 0 {
		trace.Identity = float64(trace.MatchingBases) / float64(trace.EffectiveRefLen)
	}
	*out = append(*out, trace)
}
