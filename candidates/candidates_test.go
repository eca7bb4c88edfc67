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

package candidates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/gemgo/dna"
	"github.com/grailbio/gemgo/fmindex"
	"github.com/grailbio/gemgo/seeding"
)

func encode(s string) []uint8 {
	out := make([]uint8, len(s))
	for i, ch := range s {
		out[i] = dna.Encode(byte(ch))
	}
	return out
}

func TestKmerFilterDisabledOnShortPattern(t *testing.T) {
	f := Compile(encode("ACGT"), 0, 1)
	assert.False(t, f.Enabled())
}

func TestKmerFilterDisabledWithNonCanonicalBases(t *testing.T) {
	f := Compile(encode("ACGTACGTACGTACGT"), 2, 1)
	assert.False(t, f.Enabled())
}

func TestKmerFilterPassesExactMatch(t *testing.T) {
	pattern := encode("ACGTACGTACGTACGTACGTACGT")
	f := Compile(pattern, 0, 2)
	require.True(t, f.Enabled())
	dist, decided := f.Filter(pattern, 2)
	assert.True(t, decided)
	assert.Equal(t, uint64(0), dist)
}

func TestKmerFilterRejectsUnrelatedText(t *testing.T) {
	pattern := encode("ACGTACGTACGTACGTACGTACGT")
	unrelated := encode("TTTTTTTTTTTTTTTTTTTTTTTT")
	f := Compile(pattern, 0, 2)
	require.True(t, f.Enabled())
	dist, decided := f.Filter(unrelated, 2)
	assert.True(t, decided)
	assert.Equal(t, infDistance, dist)
}

func TestGenerateMergesOverlappingCandidates(t *testing.T) {
	text := "ACGTACGTACGTACGTACGTACGTACGT"
	idx, err := fmindex.Build([]byte(text), fmindex.Rate4)
	require.NoError(t, err)

	profile := &seeding.Profile{
		PatternLength: 8,
		Regions: []seeding.Region{
			{Begin: 0, End: 4, Lo: 0, Hi: idx.Length()},
		},
	}
	// Restrict to the "ACGT" region's real interval via BackwardSearch so
	// Lo/Hi reflect actual occurrences rather than the placeholder above.
	key := encode("ACGT")
	lo, hi := idx.BackwardSearch(key)
	profile.Regions[0].Lo, profile.Regions[0].Hi = lo, hi

	regions := Generate(idx, profile, 0, 1, uint64(len(text)), Budget{})
	require.NotEmpty(t, regions)
	for i := 1; i < len(regions); i++ {
		assert.Greater(t, regions[i].Begin, regions[i-1].End,
			"merged candidates must not overlap or touch")
	}
}

func TestGenerateClampsToGenomeBounds(t *testing.T) {
	text := "ACGTACGT"
	idx, err := fmindex.Build([]byte(text), fmindex.Rate4)
	require.NoError(t, err)

	key := encode("ACGT")
	lo, hi := idx.BackwardSearch(key)
	profile := &seeding.Profile{
		PatternLength: 4,
		Regions:       []seeding.Region{{Begin: 0, End: 4, Lo: lo, Hi: hi}},
	}

	regions := Generate(idx, profile, 0, 2, uint64(len(text)), Budget{})
	for _, r := range regions {
		assert.GreaterOrEqual(t, r.Begin, uint64(0))
		assert.LessOrEqual(t, r.End, uint64(len(text)))
	}
}
