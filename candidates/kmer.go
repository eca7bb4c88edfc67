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

// Package candidates turns a seeding.Profile into concrete text windows
// worth aligning, and provides a cheap k-mer-counting filter to discard
// windows that cannot possibly match within the allowed error budget
// before paying for a full verification pass.
package candidates

import "math"

const (
	// kmerLength is fixed at 5, matching the effective/selectivity
	// tradeoff chosen upstream (shorter k-mers saturate too easily on a
	// 4-letter alphabet; longer ones need more memory per pattern).
	kmerLength = 5
	kmerMask   = 1<<(2*kmerLength) - 1
	numKmers   = 1 << (2 * kmerLength)

	// kmerFilterEffectiveThreshold is the minimum pattern-length/max-error
	// ratio below which the filter is not worth running.
	kmerFilterEffectiveThreshold = 12
)

// KmerFilter counts k-mers of a pattern once, then can be reused across
// many candidate text windows of that same pattern to cheaply upper-bound
// whether each window could possibly align within maxError edits.
type KmerFilter struct {
	enabled       bool
	patternLength uint64
	countPattern  []uint16
	countText     []uint16 // scratch, reused across Filter calls
}

// Compile builds the per-pattern k-mer histogram, disabling the filter
// when it wouldn't help: patterns with non-canonical bases (the sliding
// index can't represent N), patterns shorter than the k-mer length, or
// patterns whose length/maxError ratio is too low to prune much.
func Compile(pattern []uint8, numNonCanonicalBases uint64, effectiveMaxError uint64) *KmerFilter {
	f := &KmerFilter{patternLength: uint64(len(pattern))}
	if numNonCanonicalBases > 0 ||
		uint64(len(pattern)) < kmerLength ||
		effectiveMaxError == 0 ||
		uint64(len(pattern))/effectiveMaxError < kmerFilterEffectiveThreshold {
		return f
	}
	f.enabled = true
	f.countPattern = make([]uint16, numKmers)
	f.countText = make([]uint16, numKmers)

	var idx uint64
	for pos := 0; pos < kmerLength-1 && pos < len(pattern); pos++ {
		idx = (idx<<2 | uint64(pattern[pos])) & kmerMask
	}
	for pos := kmerLength - 1; pos < len(pattern); pos++ {
		idx = (idx<<2 | uint64(pattern[pos])) & kmerMask
		f.countPattern[idx]++
	}
	return f
}

// Enabled reports whether Compile judged the filter worth running.
func (f *KmerFilter) Enabled() bool { return f.enabled }

// infDistance is the sentinel Filter returns for a window it can prove
// cannot align within maxError edits.
const infDistance = math.MaxUint64

// Filter reports whether a candidate text window can be ruled out without
// full verification: it returns (0, true) when the window must still be
// verified normally, and (infDistance, true) when the window is provably
// unalignable within maxError edits and can be dropped outright. The
// second return is false only when the filter is disabled or otherwise
// declines to make a call, in which case the caller must verify the
// window unconditionally.
//
// The decision is a sliding k-mer-count comparison against the pattern's
// histogram: each k-mer that appears at least as often in the window as
// in the pattern is "covered"; an edit can invalidate at most kmerLength
// k-mers, so if kmers_required more covered k-mers are needed than the
// remaining window length could ever supply, the window is unalignable.
func (f *KmerFilter) Filter(text []uint8, maxError uint64) (distance uint64, decided bool) {
	if !f.enabled {
		return 0, false
	}
	kmersError := uint64(kmerLength) * maxError
	kmersMax := f.patternLength - (kmerLength - 1)
	if kmersError >= kmersMax {
		return 0, false
	}
	kmersRequired := f.patternLength - (kmerLength - 1) - kmersError

	for i := range f.countText {
		f.countText[i] = 0
	}

	textLength := uint64(len(text))
	totalKmersText := f.patternLength
	if textLength > totalKmersText {
		totalKmersText = textLength
	}
	kmersLeft := totalKmersText
	var kmersInText uint64

	initChunk := f.patternLength
	if textLength < initChunk {
		initChunk = textLength
	}

	var idxEnd uint64
	var endPos uint64
	for ; endPos < kmerLength-1 && endPos < textLength; endPos++ {
		idxEnd = (idxEnd<<2 | uint64(text[endPos])) & kmerMask
		kmersLeft--
	}
	for ; endPos < initChunk; endPos++ {
		idxEnd = (idxEnd<<2 | uint64(text[endPos])) & kmerMask
		kmersLeft--
		countPattern := f.countPattern[idxEnd]
		if countPattern > 0 {
			if f.countText[idxEnd] < countPattern {
				kmersInText++
			}
			f.countText[idxEnd]++
		}
		if kmersInText >= kmersRequired {
			return 0, true
		}
		if kmersRequired-kmersInText > kmersLeft {
			return infDistance, true
		}
	}
	if kmersInText >= kmersRequired {
		return 0, true
	}
	if initChunk == textLength {
		return infDistance, true
	}

	var idxBegin uint64
	var beginPos uint64
	for ; beginPos < kmerLength-1; beginPos++ {
		idxBegin = idxBegin<<2 | uint64(text[beginPos])
	}
	for ; endPos < textLength; endPos, beginPos, kmersLeft = endPos+1, beginPos+1, kmersLeft-1 {
		idxBegin = (idxBegin<<2 | uint64(text[beginPos])) & kmerMask
		countPatternBegin := f.countPattern[idxBegin]
		if countPatternBegin > 0 {
			if f.countText[idxBegin] <= countPatternBegin {
				kmersInText--
			}
			f.countText[idxBegin]--
		}

		idxEnd = (idxEnd<<2 | uint64(text[endPos])) & kmerMask
		countPatternEnd := f.countPattern[idxEnd]
		if countPatternEnd > 0 {
			if f.countText[idxEnd] < countPatternEnd {
				kmersInText++
			}
			f.countText[idxEnd]++
		}

		if kmersInText >= kmersRequired {
			return 0, true
		}
		if kmersRequired-kmersInText > kmersLeft {
			return infDistance, true
		}
	}
	return infDistance, true
}
