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

// This file exposes the raw component arrays of BWT, RankMTable, and
// SampledSA, plus constructors that rebuild them from those arrays. It
// exists solely so package archive can serialize/deserialize an Index's
// internal data without this package's field layout becoming part of any
// other package's business logic -- archive still owns the on-disk byte
// format; this is just the seam between the two.

// BWTRaw is the exported form of a BWT's bit-layer words and running
// counters.
type BWTRaw struct {
	Length   int
	Lo       []uint64
	Hi       []uint64
	Ext      []uint64
	Counters [][7]uint64
	CArray   [8]uint64
}

// Raw returns b's internal arrays for serialization.
func (b *BWT) Raw() BWTRaw {
	return BWTRaw{Length: b.length, Lo: b.lo, Hi: b.hi, Ext: b.ext, Counters: b.counters, CArray: b.CArray}
}

// NewBWTFromRaw rebuilds a BWT from arrays previously obtained via Raw,
// without recomputing counters or the C-array.
func NewBWTFromRaw(r BWTRaw) *BWT {
	return &BWT{length: r.Length, lo: r.Lo, hi: r.Hi, ext: r.Ext, counters: r.Counters, CArray: r.CArray}
}

// PackedArrayRaw is the exported form of a packedIntArray.
type PackedArrayRaw struct {
	BitWidth uint
	Length   int
	Words    []uint64
}

func (a *packedIntArray) raw() PackedArrayRaw {
	return PackedArrayRaw{BitWidth: a.bitWidth, Length: a.length, Words: a.words}
}

func newPackedIntArrayFromRaw(r PackedArrayRaw) *packedIntArray {
	return &packedIntArray{bitWidth: r.BitWidth, length: r.Length, words: r.Words}
}

// SampledSARaw is the exported form of a SampledSA.
type SampledSARaw struct {
	IndexLength  uint64
	SamplingRate uint64
	Array        PackedArrayRaw
}

// Raw returns s's internal state for serialization.
func (s *SampledSA) Raw() SampledSARaw {
	return SampledSARaw{IndexLength: s.indexLength, SamplingRate: s.samplingRate, Array: s.array.raw()}
}

// NewSampledSAFromRaw rebuilds a SampledSA from a SampledSARaw previously
// obtained via Raw.
func NewSampledSAFromRaw(r SampledSARaw) *SampledSA {
	return &SampledSA{indexLength: r.IndexLength, samplingRate: r.SamplingRate, array: newPackedIntArrayFromRaw(r.Array)}
}

// RankMTableRaw is the exported form of a RankMTable. Ranges is a flat
// [Lo0, Hi0, Lo1, Hi1, ...] encoding of the table's rankRange entries, the
// "sa_ranks packed" array named in the archive file layout.
type RankMTableRaw struct {
	NumLevels        uint64
	LevelSkip        []uint64
	Ranges           []uint64
	MinMatchingDepth uint64
}

// Raw returns t's internal state for serialization.
func (t *RankMTable) Raw() RankMTableRaw {
	flat := make([]uint64, 0, len(t.ranges)*2)
	for _, r := range t.ranges {
		flat = append(flat, r.Lo, r.Hi)
	}
	return RankMTableRaw{NumLevels: t.numLevels, LevelSkip: t.levelSkip, Ranges: flat, MinMatchingDepth: t.minMatchingDepth}
}

// NewRankMTableFromRaw rebuilds a RankMTable from a RankMTableRaw
// previously obtained via Raw.
func NewRankMTableFromRaw(r RankMTableRaw) *RankMTable {
	ranges := make([]rankRange, len(r.Ranges)/2)
	for i := range ranges {
		ranges[i] = rankRange{Lo: r.Ranges[2*i], Hi: r.Ranges[2*i+1]}
	}
	return &RankMTable{numLevels: r.NumLevels, levelSkip: r.LevelSkip, ranges: ranges, minMatchingDepth: r.MinMatchingDepth}
}
