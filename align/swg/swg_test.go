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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/gemgo/dna"
	"github.com/grailbio/gemgo/matches"
)

func encode(s string) []uint8 {
	out := make([]uint8, len(s))
	for i, ch := range s {
		out[i] = dna.Encode(byte(ch))
	}
	return out
}

func TestAlignExactMatchAllMatchOps(t *testing.T) {
	query := encode("ACGTACGT")
	text := encode("ACGTACGT")
	opts := Options{Penalties: DefaultPenalties, Mode: ModeGlobal}
	var cigar matches.CIGAR
	score, ok := Align(query, text, opts, &cigar)
	require.True(t, ok)
	assert.Equal(t, int32(8), score)
	assert.Equal(t, "8M", cigar.String())
}

func TestAlignFreeBothFindsEmbeddedMatch(t *testing.T) {
	query := encode("ACGTACGT")
	text := encode("TTTTACGTACGTTTTT")
	opts := Options{Penalties: DefaultPenalties, Mode: ModeFreeBoth}
	var cigar matches.CIGAR
	score, ok := Align(query, text, opts, &cigar)
	require.True(t, ok)
	assert.Equal(t, int32(8), score)
	assert.Equal(t, "8M", cigar.String())
}

func TestAlignDetectsMismatch(t *testing.T) {
	query := encode("ACGTACGT")
	text := encode("ACGAACGT")
	opts := Options{Penalties: DefaultPenalties, Mode: ModeGlobal}
	var cigar matches.CIGAR
	_, ok := Align(query, text, opts, &cigar)
	require.True(t, ok)
	assert.Equal(t, 1, cigar.EditDistance())
}

func TestAlignDetectsDeletionInText(t *testing.T) {
	query := encode("ACGTACGT") // 8 bases
	text := encode("ACGTTACGT") // reference has one extra base -> deletion relative to query
	opts := Options{Penalties: DefaultPenalties, Mode: ModeGlobal}
	var cigar matches.CIGAR
	score, ok := Align(query, text, opts, &cigar)
	require.True(t, ok)
	assert.Contains(t, cigar.String(), "D")
	assert.True(t, score < 8)
}

func TestCurateRejectsBelowMinIdentity(t *testing.T) {
	var cigar matches.CIGAR
	cigar.Ops = []matches.CIGAROp{{N: 2, Op: matches.OpMatch}, {N: 8, Op: matches.OpMismatch}}
	opts := Options{Penalties: DefaultPenalties, MinIdentity: 0.9}
	_, ok := Curate(&cigar, opts)
	assert.False(t, ok)
}

func TestCurateTrimsEdgeIndels(t *testing.T) {
	var cigar matches.CIGAR
	// Backtrace order: trailing edge first.
	cigar.Ops = []matches.CIGAROp{
		{N: 1, Op: matches.OpDelete},
		{N: 6, Op: matches.OpMatch},
		{N: 1, Op: matches.OpInsert},
	}
	score, ok := Curate(&cigar, Options{Penalties: DefaultPenalties})
	assert.True(t, ok)
	assert.Equal(t, []matches.CIGAROp{{N: 6, Op: matches.OpMatch}}, cigar.Ops)
	// Recomputed from the trimmed CIGAR alone: the trailing/leading indel
	// runs trimEndRuns drops never contribute to the rescored value.
	assert.Equal(t, DefaultPenalties.Match*6, score)
}

func TestCurateRescoresFromCuratedCIGARNotStaleDPScore(t *testing.T) {
	var cigar matches.CIGAR
	cigar.Ops = []matches.CIGAROp{
		{N: 2, Op: matches.OpMatch},
		{N: 1, Op: matches.OpMismatch},
		{N: 3, Op: matches.OpMatch},
	}
	want := ScoreCIGAR(&cigar, DefaultPenalties)
	score, ok := Curate(&cigar, Options{Penalties: DefaultPenalties})
	assert.True(t, ok)
	assert.Equal(t, want, score)
	assert.NotEqual(t, int32(0), score)
}
