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

import "math"

// Index is the FM-index facade: it wraps the BWT, the rank memoization
// table, and the sampled suffix array, and provides the two operations
// every search stage needs -- backward-search and locate.
type Index struct {
	TextLength   uint64
	ProperLen    uint64 // floor(log2(n)/2), a region-length reference for extension heuristics
	BWT          *BWT
	RankTable    *RankMTable
	SampledSA    *SampledSA
}

// ProperLength computes floor(log2(n)/2) for a text length n.
func ProperLength(n uint64) uint64 {
	if n < 2 {
		return 0
	}
	return uint64(math.Log2(float64(n))) / 2
}

// Length returns the length of the indexed text (excluding the sentinel).
func (idx *Index) Length() uint64 { return idx.TextLength }

// GetProperLength returns the precomputed region-length reference.
func (idx *Index) GetProperLength() uint64 { return idx.ProperLen }

// Locate maps a BWT row to a text position.
func (idx *Index) Locate(bwtRow uint64) uint64 {
	return idx.SampledSA.Locate(bwtRow, idx.BWT.LF)
}

// LocateInterval decodes every SA sample in [lo, hi) into out, which must
// have capacity hi-lo.
func (idx *Index) LocateInterval(lo, hi uint64, out []uint64) []uint64 {
	for i := lo; i < hi; i++ {
		out = append(out, idx.Locate(i))
	}
	return out
}

// BackwardSearch finds the BWT interval of every occurrence of key (a
// sequence of encoded symbols), consulting the rank memoization table
// while its depth is not exhausted and falling back to BWT ranks
// afterward. Characters are consumed right-to-left, the FM-index
// convention.
func (idx *Index) BackwardSearch(key []uint8) (lo, hi uint64) {
	lo, hi = 0, idx.BWT.Len()
	var q *Query
	if idx.RankTable != nil {
		q = NewQuery()
	}
	for i := len(key) - 1; i >= 0; i-- {
		c := key[i]
		if q != nil && c < 4 && !q.IsExhausted(idx.RankTable) {
			q.AddChar(c)
			lo, hi = idx.RankTable.Fetch(q)
			if lo >= hi {
				return lo, hi
			}
			continue
		}
		lo = idx.BWT.CArray[c] + idx.BWT.Rank(c, lo)
		hi = idx.BWT.CArray[c] + idx.BWT.Rank(c, hi)
		if lo >= hi {
			return lo, hi
		}
	}
	return lo, hi
}

// Extend performs one step of backward search from an existing interval,
// consuming key[begin:end] right-to-left, stopping at the first character
// not satisfying allowed (e.g. outside the canonical alphabet) or when the
// interval empties. It returns the resulting interval and the index (within
// [begin,end)) at which it stopped.
//
// q is an optional rank-table query, mirroring BackwardSearch's
// consult-or-fallback loop: pass one only when lastLo/lastHi is itself the
// full BWT range (or the exact continuation of a query that started
// there), since the table's entries are only valid relative to a
// depth-0-rooted backward search. Callers that extend from an arbitrary
// mid-search interval (e.g. continuing a different region's cut point)
// must pass nil.
func (idx *Index) Extend(lastLo, lastHi uint64, key []uint8, begin, end int, allowed func(uint8) bool, q *Query) (lo, hi uint64, endIdx int) {
	lo, hi = lastLo, lastHi
	for i := end - 1; i >= begin; i-- {
		c := key[i]
		if allowed != nil && !allowed(c) {
			return lo, hi, i + 1
		}
		if q != nil && idx.RankTable != nil && c < 4 && !q.IsExhausted(idx.RankTable) {
			q.AddChar(c)
			lo, hi = idx.RankTable.Fetch(q)
			if lo >= hi {
				return lo, hi, i
			}
			continue
		}
		lo = idx.BWT.CArray[c] + idx.BWT.Rank(c, lo)
		hi = idx.BWT.CArray[c] + idx.BWT.Rank(c, hi)
		if lo >= hi {
			return lo, hi, i
		}
	}
	return lo, hi, begin
}
