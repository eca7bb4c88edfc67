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

package fmindex

// MaxRankMTableDepth is the number of characters that can be answered
// directly from the rank memoization table before the caller must fall
// back to BWT ranks.
const MaxRankMTableDepth = 11

// mmdThreshold is the cardinality below which a level is considered to have
// reached its "minimum matching depth" -- the shallowest level whose
// intervals are usefully small.
const mmdThreshold = 20

// rankRange is a half-open BWT interval [Lo, Hi).
type rankRange struct {
	Lo, Hi uint64
}

// RankMTable is a multi-level table indexed by the last up-to-11 encoded
// characters of a query (added right-to-left), each entry storing the BWT
// interval that backward-searching those characters would produce from the
// full range. Only the four canonical bases (A,C,G,T) are indexed; the
// table is not consulted for queries involving N/SEP/JMP.
type RankMTable struct {
	numLevels        uint64
	levelSkip        []uint64 // levelSkip[L] = flat offset of level L's entries
	ranges           []rankRange
	minMatchingDepth uint64
}

// Query accumulates encoded characters against a RankMTable, right-to-left
// over an ongoing backward search.
type Query struct {
	hiPosition uint64
	level      uint64
}

// NewQuery returns a freshly reset query, matching level 0 (the full BWT
// range, a "fake" zero-hi level).
func NewQuery() *Query { return &Query{} }

// AddChar folds one more encoded character (must be 0..3) into the query.
// Calling AddChar past MaxRankMTableDepth times is a no-op; callers should
// check IsExhausted first.
func (q *Query) AddChar(enc uint8) {
	if q.level >= MaxRankMTableDepth {
		return
	}
	q.level++
	q.hiPosition = q.hiPosition*4 + uint64(enc&3)
}

// Level returns the number of characters folded into the query so far.
func (q *Query) Level() uint64 { return q.level }

// IsExhausted reports whether the query has reached the table's maximum
// depth; the caller must continue with BWT.Rank from here.
func (q *Query) IsExhausted(t *RankMTable) bool { return q.level >= t.numLevels }

// buildLevelSkip computes the flat offset of each level's entries: level 0
// has 1 entry (the fake zero-hi level), level k>0 has 4^k entries.
func buildLevelSkip(numLevels uint64) []uint64 {
	skip := make([]uint64, numLevels+2)
	skip[0] = 0
	count := uint64(1)
	for l := uint64(0); l <= numLevels; l++ {
		skip[l+1] = skip[l] + count
		count *= 4
	}
	return skip
}

// BuildRankMTable constructs the full table by backward-search extension
// from the BWT's full range, down to maxDepth levels (callers pass
// MaxRankMTableDepth for a production table; tests may pass less).
func BuildRankMTable(b *BWT, maxDepth uint64) *RankMTable {
	if maxDepth > MaxRankMTableDepth {
		maxDepth = MaxRankMTableDepth
	}
	skip := buildLevelSkip(maxDepth)
	total := skip[maxDepth+1]
	t := &RankMTable{
		numLevels: maxDepth,
		levelSkip: skip,
		ranges:    make([]rankRange, total),
	}
	t.ranges[0] = rankRange{0, uint64(b.Len())}

	minDepth := maxDepth
	foundMMD := false
	prevLevelStart := uint64(0)
	prevLevelCount := uint64(1)
	for level := uint64(1); level <= maxDepth; level++ {
		levelStart := skip[level]
		maxCard := uint64(0)
		for idx := uint64(0); idx < prevLevelCount; idx++ {
			parent := t.ranges[prevLevelStart+idx]
			for c := uint8(0); c < 4; c++ {
				lo := b.CArray[c] + b.Rank(c, parent.Lo)
				hi := b.CArray[c] + b.Rank(c, parent.Hi)
				t.ranges[levelStart+idx*4+uint64(c)] = rankRange{lo, hi}
				if hi-lo > maxCard {
					maxCard = hi - lo
				}
			}
		}
		if !foundMMD && maxCard <= mmdThreshold {
			minDepth = level
			foundMMD = true
		}
		prevLevelStart = levelStart
		prevLevelCount *= 4
	}
	if !foundMMD {
		minDepth = maxDepth
	}
	t.minMatchingDepth = minDepth
	return t
}

// Fetch returns the interval that backward-searching query's accumulated
// characters would produce from the full BWT range.
func (t *RankMTable) Fetch(q *Query) (lo, hi uint64) {
	idx := t.levelSkip[q.level] + q.hiPosition
	r := t.ranges[idx]
	return r.Lo, r.Hi
}

// MinMatchingDepth is the shallowest level at which every interval falls at
// or under the table's cardinality threshold.
func (t *RankMTable) MinMatchingDepth() uint64 { return t.minMatchingDepth }

// NumLevels is the table's maximum search depth.
func (t *RankMTable) NumLevels() uint64 { return t.numLevels }

// Size returns an approximate serialized size in bytes, for archive
// header accounting.
func (t *RankMTable) Size() uint64 { return uint64(len(t.ranges)) * 16 }
