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

package seeding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/gemgo/dna"
	"github.com/grailbio/gemgo/fmindex"
)

func encodeRead(s string) []uint8 {
	out := make([]uint8, len(s))
	for i, ch := range s {
		out[i] = dna.Encode(byte(ch))
	}
	return out
}

var canonical = func(enc uint8) bool { return enc < 4 }

func buildIndex(t *testing.T, text string) *fmindex.Index {
	t.Helper()
	idx, err := fmindex.Build([]byte(text), fmindex.Rate4)
	require.NoError(t, err)
	return idx
}

func TestBuildFixedCoversWholeRead(t *testing.T) {
	idx := buildIndex(t, "ACGTACGTACGTACGTACGTACGT")
	key := encodeRead("ACGTACGTACGTACGTACGT")
	model := Model{RegionTh: 2, MaxSteps: 4, DecFactor: 2, RegionTypeTh: 1}

	p := BuildFixed(idx, key, canonical, model, 4)
	require.NotEmpty(t, p.Regions)

	var covered uint64
	for i, r := range p.Regions {
		covered += r.End - r.Begin
		if i > 0 {
			assert.Equal(t, p.Regions[i-1].End, r.Begin, "regions must be contiguous")
		}
	}
	assert.Equal(t, uint64(len(key)), covered)
	assert.Equal(t, uint64(0), p.Regions[0].Begin)
	assert.Equal(t, uint64(len(key)), p.Regions[len(p.Regions)-1].End)
}

func TestBuildAdaptiveRegionsStayUnderThreshold(t *testing.T) {
	idx := buildIndex(t, "ACGTTGCAACGTTGCAACGTTGCAACGTTGCA")
	key := encodeRead("ACGTTGCAACGTTGCA")
	model := Model{RegionTh: 4, MaxSteps: 3, DecFactor: 2, RegionTypeTh: 1}

	p := BuildAdaptive(idx, key, canonical, model, 16, true)
	require.NotEmpty(t, p.Regions)
	for _, r := range p.Regions {
		assert.LessOrEqual(t, r.Begin, r.End)
		assert.True(t, r.Lo <= r.Hi)
	}
	assert.Equal(t, uint64(0), p.Regions[len(p.Regions)-1].Begin,
		"the last region produced must reach the start of the read")
}

func TestBuildAdaptiveExactMatchIsSingleRegion(t *testing.T) {
	idx := buildIndex(t, "ACGTACGTACGT")
	key := encodeRead("ACGTACGTACGT")
	model := Model{RegionTh: 0, MaxSteps: 1, DecFactor: 2, RegionTypeTh: 1000}

	p := BuildAdaptive(idx, key, canonical, model, 16, false)
	require.Len(t, p.Regions, 1)
	assert.True(t, p.HasExactMatches())
}

func TestBuildLimitedProducesAtLeastMinRegions(t *testing.T) {
	idx := buildIndex(t, "ACGTACGTACGTACGTACGTACGTACGTACGT")
	key := encodeRead("ACGTACGTACGTACGTACGTACGT")
	model := Model{RegionTh: 1, MaxSteps: 4, DecFactor: 2, RegionTypeTh: 1}

	p := BuildLimited(idx, key, canonical, model, 4)
	assert.GreaterOrEqual(t, len(p.Regions), 4)
}

func TestSortByCandidatesAscending(t *testing.T) {
	p := &Profile{Regions: []Region{
		{Lo: 0, Hi: 5},
		{Lo: 0, Hi: 1},
		{Lo: 0, Hi: 3},
	}}
	SortByCandidates(p)
	for i := 1; i < len(p.Regions); i++ {
		assert.LessOrEqual(t, p.Regions[i-1].NumCandidates(), p.Regions[i].NumCandidates())
	}
}

func TestSortByEstimatedMappabilityDescending(t *testing.T) {
	p := &Profile{Regions: []Region{
		{Begin: 0, End: 2, Lo: 0, Hi: 1},  // length 2, 1 candidate -> mappability 2
		{Begin: 0, End: 10, Lo: 0, Hi: 1}, // length 10, 1 candidate -> mappability 10
		{Begin: 0, End: 4, Lo: 0, Hi: 4},  // length 4, 4 candidates -> mappability 1
	}}
	SortByEstimatedMappability(p)
	assert.Equal(t, uint64(10), p.Regions[0].End-p.Regions[0].Begin)
}
