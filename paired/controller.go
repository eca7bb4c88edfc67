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

package paired

import "github.com/grailbio/gemgo/matches"

// SearchFunc runs the single-end search pipeline (package search's
// Search, in production) for one read's bytes, returning every match it
// found.
type SearchFunc func(read []byte) []matches.MatchTrace

// ExtendFunc aligns one read directly against a window of reference
// sequence (package search's ExtendLocal, in production), without
// running a from-scratch single-end search. The controller uses this for
// its insert-window shortcut and recovery extension: both already know
// roughly where the other end should land, so a direct local alignment
// is cheaper than repeating region-profile generation and candidate
// decoding over the whole index.
type ExtendFunc func(read []byte, windowBegin, windowEnd uint64) []matches.MatchTrace

// Orientation names a permitted relative strand/order arrangement between
// an end-1 and end-2 placement, the samtools FR/RF/FF convention.
type Orientation int

const (
	// OrientationFR is the standard Illumina paired-end layout: the
	// leftmost end on the forward strand, the rightmost on the reverse.
	OrientationFR Orientation = iota
	// OrientationRF is the mate-pair layout: the leftmost end on the
	// reverse strand, the rightmost on the forward.
	OrientationRF
	// OrientationFF requires both ends on the same strand.
	OrientationFF
)

func (o Orientation) String() string {
	switch o {
	case OrientationFR:
		return "fr"
	case OrientationRF:
		return "rf"
	case OrientationFF:
		return "ff"
	default:
		return "unknown"
	}
}

// concordant reports whether a (end 1) and b (end 2) satisfy o's strand
// and relative-order requirement. FR/RF require the forward-strand end to
// sit at or before the reverse-strand end; FF requires matching strands
// with no order constraint.
func concordant(o Orientation, a, b matches.MatchTrace) bool {
	switch o {
	case OrientationFR:
		if a.Strand == matches.Forward && b.Strand == matches.Reverse {
			return a.TextPosition <= b.TextPosition
		}
		if a.Strand == matches.Reverse && b.Strand == matches.Forward {
			return b.TextPosition <= a.TextPosition
		}
		return false
	case OrientationRF:
		if a.Strand == matches.Reverse && b.Strand == matches.Forward {
			return a.TextPosition <= b.TextPosition
		}
		if a.Strand == matches.Forward && b.Strand == matches.Reverse {
			return b.TextPosition <= a.TextPosition
		}
		return false
	case OrientationFF:
		return a.Strand == b.Strand
	default:
		return false
	}
}

// EndClass classifies how decisively one end of a pair placed: Unique
// (exactly one placement), Tie (two or more placements sharing the best
// score), Multi (two or more placements with a clear best), or Unmapped.
type EndClass int

const (
	EndUnmapped EndClass = iota
	EndUnique
	EndTie
	EndMulti
)

func (c EndClass) String() string {
	switch c {
	case EndUnmapped:
		return "unmapped"
	case EndUnique:
		return "unique"
	case EndTie:
		return "tie"
	case EndMulti:
		return "multi"
	default:
		return "unknown"
	}
}

// classifyEnd classifies one end's match set and returns a MAPQ-style
// separation predictor: the score gap between the best and second-best
// placement, 0 when there is no second placement to separate from (a
// unique or unmapped end) or when the top two tie.
func classifyEnd(ms []matches.MatchTrace) (EndClass, int32) {
	switch len(ms) {
	case 0:
		return EndUnmapped, 0
	case 1:
		return EndUnique, 0
	}
	best, second := ms[0].Score, ms[1].Score
	if second > best {
		best, second = second, best
	}
	for _, m := range ms[2:] {
		switch {
		case m.Score > best:
			second = best
			best = m.Score
		case m.Score > second:
			second = m.Score
		}
	}
	if best == second {
		return EndTie, 0
	}
	return EndMulti, best - second
}

// Opts configures pairing behavior.
type Opts struct {
	MinInsert, MaxInsert uint64
	// ExtendWindow bounds how far past end1's match the shortcut search
	// for end2 is allowed to look before giving up and falling back to a
	// full independent search.
	ExtendWindow uint64
	// Orientation is the relative strand/order arrangement runFindPairs
	// requires between a candidate end-1/end-2 placement.
	Orientation Orientation
}

// Controller runs the paired-end state machine for one read pair.
type Controller struct {
	Opts   Opts
	Search SearchFunc
	Extend ExtendFunc

	Read1, Read2 []byte

	matchesE1, matchesE2 []matches.MatchTrace
	classE1, classE2     EndClass
	predictorE1          int32
	predictorE2          int32
	pairs                []Pair
	insertSizes          *InsertSizeModel
	recovered            bool
}

// Pair is one consistent placement of both ends.
type Pair struct {
	End1, End2 matches.MatchTrace
	Insert     int64
}

// NewController builds a controller for one read pair, sharing the
// insert-size convergence model across many read pairs (it accumulates
// observed template lengths call to call). extend may be nil, in which
// case the shortcut and recovery states always fall back to a full
// Search.
func NewController(opts Opts, search SearchFunc, extend ExtendFunc, read1, read2 []byte, insertSizes *InsertSizeModel) *Controller {
	return &Controller{Opts: opts, Search: search, Extend: extend, Read1: read1, Read2: read2, insertSizes: insertSizes}
}

// Pairs returns the consistent pairs found once Run has reached StateEnd.
func (c *Controller) Pairs() []Pair { return c.pairs }

// EndClassification reports each end's classification and MAPQ-style
// separation predictor, once Run has advanced far enough to have
// searched both ends.
func (c *Controller) EndClassification() (classE1, classE2 EndClass, predictorE1, predictorE2 int32) {
	return c.classE1, c.classE2, c.predictorE1, c.predictorE2
}

func (c *Controller) runBegin() State {
	return StateSearchE1
}

func (c *Controller) runSearchE1() State {
	c.matchesE1 = c.Search(c.Read1)
	c.classE1, c.predictorE1 = classifyEnd(c.matchesE1)
	if c.classE1 == EndUnique && c.insertSizes.Converged() {
		return StateExtendE1Shortcut
	}
	return StateSearchE2
}

// insertWindow returns the reference window around anchor's position
// that end 2 is expected to land in, given the insert-size bounds.
func (c *Controller) insertWindow(anchor matches.MatchTrace) (lo, hi uint64) {
	window := c.Opts.ExtendWindow
	if window == 0 {
		window = c.Opts.MaxInsert
	}
	if anchor.TextPosition > window {
		lo = anchor.TextPosition - window
	}
	hi = anchor.TextPosition + window
	return lo, hi
}

// runExtendE1Shortcut handles the common, cheap case: end 1 found exactly
// one placement and the insert-size distribution has already converged,
// so end 2 is placed by a direct local-SWG alignment inside the expected
// insert window around end 1's position, instead of a from-scratch
// single-end search over the whole index. A full search still runs if
// the windowed extension finds nothing.
func (c *Controller) runExtendE1Shortcut() State {
	anchor := c.matchesE1[0]
	lo, hi := c.insertWindow(anchor)

	if c.Extend != nil {
		c.matchesE2 = c.Extend(c.Read2, lo, hi)
	}
	if len(c.matchesE2) > 0 {
		c.classE2, c.predictorE2 = classifyEnd(c.matchesE2)
		return StateFindPairs
	}
	return StateSearchE2
}

func (c *Controller) runSearchE2() State {
	if c.matchesE2 == nil {
		c.matchesE2 = c.Search(c.Read2)
	}
	c.classE2, c.predictorE2 = classifyEnd(c.matchesE2)
	return StateFindPairs
}

// runFindPairs combines every end1/end2 placement whose implied template
// length falls within [MinInsert, MaxInsert] and whose relative strand
// and order satisfy Opts.Orientation, recording each accepted pair's
// insert into the convergence model.
func (c *Controller) runFindPairs() State {
	for _, a := range c.matchesE1 {
		for _, b := range c.matchesE2 {
			if !concordant(c.Opts.Orientation, a, b) {
				continue
			}
			insert := templateLength(a, b)
			if insert < 0 {
				insert = -insert
			}
			if uint64(insert) < c.Opts.MinInsert || uint64(insert) > c.Opts.MaxInsert {
				continue
			}
			c.pairs = append(c.pairs, Pair{End1: a, End2: b, Insert: insert})
			c.insertSizes.Observe(float64(insert))
		}
	}
	if len(c.pairs) == 0 && len(c.matchesE1) > 0 && len(c.matchesE2) == 0 && !c.recovered {
		return StateRecovery
	}
	return StateEnd
}

// runRecovery is the last resort when end 1 has placements but nothing
// was found for end 2: if end 1 placed uniquely, it retries with a
// direct local-SWG extension over the full insert-size window (wider
// than the shortcut's window, since there is no tighter anchor to trust
// yet) before falling back to a from-scratch search. Runs at most once
// per pair to guarantee the state machine terminates.
func (c *Controller) runRecovery() State {
	c.recovered = true
	if c.Extend != nil && c.classE1 == EndUnique {
		lo, hi := c.insertWindow(c.matchesE1[0])
		if windowed := c.Extend(c.Read2, lo, hi); len(windowed) > 0 {
			c.matchesE2 = windowed
			c.classE2, c.predictorE2 = classifyEnd(c.matchesE2)
			return StateFindPairs
		}
	}
	c.matchesE2 = c.Search(c.Read2)
	c.classE2, c.predictorE2 = classifyEnd(c.matchesE2)
	return StateFindPairs
}

func templateLength(a, b matches.MatchTrace) int64 {
	return int64(b.TextPosition) - int64(a.TextPosition)
}
