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

// Package swg implements the affine-gap Smith-Waterman-Gotoh aligner used
// to turn a verified candidate window into a curated CIGAR: the final
// alignment stage after package align/bpm has already decided the window
// is worth the extra cost.
package swg

// Penalties are signed, reward-based alignment scores: Match is added for
// each matching column, the rest are subtracted. This is the opposite
// convention from a pure edit-distance-style cost table (every field
// non-negative, minimized): SWG scores are maximized, so Match must carry
// a sign distinct from the penalty terms.
type Penalties struct {
	Match      int32
	Mismatch   int32
	GapOpen    int32
	GapExtend  int32
}

// DefaultPenalties match GEM3-style defaults scaled to a reward-based
// convention: a match is worth +1, the rest cost roughly what BWA-style
// aligners charge.
var DefaultPenalties = Penalties{
	Match:     1,
	Mismatch:  -4,
	GapOpen:   -6,
	GapExtend: -2,
}

// Mode selects which ends of the alignment are free (no penalty for
// unmatched prefix/suffix): global, free begin (an unaligned text prefix
// costs nothing), free end (an unaligned text suffix costs nothing), or
// free on both.
type Mode int

const (
	ModeGlobal Mode = iota
	ModeFreeBegin
	ModeFreeEnd
	ModeFreeBoth
)

// Options configures one SWG call.
type Options struct {
	Penalties         Penalties
	Mode              Mode
	MaxBandwidth      int  // 0 means unbanded (full DP matrix)
	LeftGapAlignment  bool // tie-break: place indels as far left as possible
	MinIdentity       float64
	SWGThreshold      int32
}
