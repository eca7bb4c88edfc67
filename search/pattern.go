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

// Package search orchestrates one read's alignment: compiling it into a
// Pattern, then running it through region-profile generation, candidate
// decoding, BPM verification, and SWG-based curation against an FM-index
// and its reference text.
package search

import (
	"math"

	"github.com/grailbio/gemgo/align/bpm"
	"github.com/grailbio/gemgo/candidates"
	"github.com/grailbio/gemgo/dna"
)

// PatternOpts configures how CompilePattern derives a read's error budget
// and alignment bandwidth from its length.
type PatternOpts struct {
	// ErrorRate is the fraction of EffectiveLength allowed as edit
	// distance (GEM3's "max-error" expressed as a read-length fraction
	// rather than an absolute count, so short and long reads get
	// proportionally scaled budgets).
	ErrorRate float64
	// BandwidthFactor scales MaxEffectiveError into a SWG band half-width.
	BandwidthFactor float64
}

// DefaultPatternOpts match common short-read defaults: 8% error budget, a
// band 1.5x that budget wide on each side.
var DefaultPatternOpts = PatternOpts{ErrorRate: 0.08, BandwidthFactor: 1.5}

// Pattern is a read compiled once and reused across every candidate
// window verification attempt: its encoded key, its BPM tile table, and
// its (possibly disabled) k-mer histogram.
type Pattern struct {
	Key             []uint8
	EffectiveLength int
	NumNonCanonical int

	BPM  *bpm.Pattern
	Kmer *candidates.KmerFilter

	MaxEffectiveError int
	MaxBandwidth      int
}

// CompilePattern encodes read and builds every derived structure Search
// needs to verify candidates against it.
func CompilePattern(read []byte, opts PatternOpts) *Pattern {
	key := make([]uint8, len(read))
	var numNonCanonical int
	for i, ch := range read {
		enc := dna.Encode(ch)
		key[i] = enc
		if enc >= dna.RangeDNA {
			numNonCanonical++
		}
	}
	effectiveLength := len(read) - numNonCanonical

	maxError := int(math.Ceil(float64(effectiveLength) * opts.ErrorRate))
	if maxError < 1 {
		maxError = 1
	}
	bandwidth := int(math.Ceil(float64(maxError) * opts.BandwidthFactor))
	if bandwidth < 1 {
		bandwidth = 1
	}

	return &Pattern{
		Key:               key,
		EffectiveLength:   effectiveLength,
		NumNonCanonical:   numNonCanonical,
		BPM:               bpm.Compile(key),
		Kmer:              candidates.Compile(key, uint64(numNonCanonical), uint64(maxError)),
		MaxEffectiveError: maxError,
		MaxBandwidth:      bandwidth,
	}
}

// ReverseComplement returns the Pattern for the opposite strand, reusing
// the forward pattern's error budget and bandwidth (masking a reverse
// complement changes which individual bases are N, never how many).
func (p *Pattern) ReverseComplement() *Pattern {
	revKey := make([]uint8, len(p.Key))
	dna.ReverseComplementEncoded(revKey, p.Key)
	return &Pattern{
		Key:               revKey,
		EffectiveLength:   p.EffectiveLength,
		NumNonCanonical:   p.NumNonCanonical,
		BPM:               bpm.Compile(revKey),
		Kmer:              candidates.Compile(revKey, uint64(p.NumNonCanonical), uint64(p.MaxEffectiveError)),
		MaxEffectiveError: p.MaxEffectiveError,
		MaxBandwidth:      p.MaxBandwidth,
	}
}
