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

package swg

import "github.com/grailbio/gemgo/matches"

// ScoreCIGAR recomputes the SWG score a CIGAR represents under penalties,
// independent of whatever score the DP traceback that produced it
// reported. A run of length n costs n*Match or n*Mismatch for an aligned
// column, or GapOpen+n*GapExtend for an indel run -- the same affine
// accounting Align's recurrence applies one column at a time, just
// summed per run instead.
func ScoreCIGAR(cigar *matches.CIGAR, p Penalties) int32 {
	var score int32
	for _, op := range cigar.Ops {
		switch op.Op {
		case matches.OpMatch:
			score += p.Match * int32(op.N)
		case matches.OpMismatch:
			score += p.Mismatch * int32(op.N)
		case matches.OpInsert, matches.OpDelete:
			score += p.GapOpen + p.GapExtend*int32(op.N)
		}
	}
	return score
}

// Curate normalizes a freshly-traced CIGAR and recomputes every derived
// statistic -- edit distance, matching-base count, effective reference
// length, and SWG score -- over the curated CIGAR rather than trusting
// incremental bookkeeping from the DP, returning the recomputed score and
// rejecting the alignment (ok false) if it falls below the configured
// quality bars. This is the post-alignment cleanup pass: trim
// leading/trailing indel noise (Align already merges adjacent same-type
// runs via CIGAR.Add, so this mostly handles trimming), then rescore.
func Curate(cigar *matches.CIGAR, opts Options) (score int32, ok bool) {
	trimEndRuns(cigar)

	score = ScoreCIGAR(cigar, opts.Penalties)
	matching := cigar.MatchingBases()
	effLen := cigar.EffectiveReferenceLength()

	var identity float64
	if effLen > 0 {
		identity = float64(matching) / float64(effLen)
	}

	if opts.SWGThreshold != 0 && score < opts.SWGThreshold {
		return score, false
	}
	if opts.MinIdentity > 0 && identity < opts.MinIdentity {
		return score, false
	}
	return score, true
}

// trimEndRuns drops indel runs sitting at either edge of the alignment --
// an inserted or deleted run with nothing but sequence past it is an
// artifact of free-end DP, not a real event, since a genuine indel is
// only evidenced by matching sequence flanking it on both sides.
//
// Align appends traceback operations starting from the alignment's
// reference-end column, so cigar.Ops[0] is the trailing (reference-end)
// edge and cigar.Ops[len-1] is the leading (reference-begin) edge; both
// are trimmed here, before CIGAR.String ever reverses the slice into
// forward order.
func trimEndRuns(cigar *matches.CIGAR) {
	for len(cigar.Ops) > 0 {
		op := cigar.Ops[0].Op
		if op != matches.OpInsert && op != matches.OpDelete {
			break
		}
		cigar.Ops = cigar.Ops[1:]
	}
	for len(cigar.Ops) > 0 {
		op := cigar.Ops[len(cigar.Ops)-1].Op
		if op != matches.OpInsert && op != matches.OpDelete {
			break
		}
		cigar.Ops = cigar.Ops[:len(cigar.Ops)-1]
	}
}
