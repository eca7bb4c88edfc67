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

package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/gemgo/arena"
	"github.com/grailbio/gemgo/dna"
	"github.com/grailbio/gemgo/fmindex"
	"github.com/grailbio/gemgo/matches"
	"github.com/grailbio/gemgo/worker"
)

const refText = "ACGTTGGACCATGGCAGGTTACCGATCATGGTAGCATTAGGCCATGGAACGTTAGGCATTACGGTAGGCA"

// newThreadStateForTest builds a ThreadState the way worker.NewPool does
// internally, without spinning up a whole pool: every ThreadState field
// is exported, so a test in another package can assemble one directly.
func newThreadStateForTest(t *testing.T) *worker.ThreadState {
	t.Helper()
	pool := arena.NewSlabPool(1 << 20)
	return &worker.ThreadState{
		Arena:     arena.New(pool),
		TextCache: &worker.TextCache{},
	}
}

func TestCompilePatternEncodesAndBudgetsError(t *testing.T) {
	p := CompilePattern([]byte("ACGTACGTNNACGTACGT"), DefaultPatternOpts)
	assert.Equal(t, 18, len(p.Key))
	assert.Equal(t, 2, p.NumNonCanonical)
	assert.Equal(t, 16, p.EffectiveLength)
	assert.True(t, p.MaxEffectiveError >= 1)
	assert.True(t, p.MaxBandwidth >= p.MaxEffectiveError)
}

func TestReverseComplementPreservesBudget(t *testing.T) {
	p := CompilePattern([]byte("ACGTACGTACGT"), DefaultPatternOpts)
	rc := p.ReverseComplement()
	require.Equal(t, len(p.Key), len(rc.Key))
	assert.Equal(t, p.MaxEffectiveError, rc.MaxEffectiveError)
	assert.Equal(t, p.MaxBandwidth, rc.MaxBandwidth)

	// Reverse-complementing twice (by encoding the already-complemented
	// key through the same helper the package uses) returns the original.
	want := make([]uint8, len(p.Key))
	dna.ReverseComplementEncoded(want, rc.Key)
	assert.Equal(t, p.Key, want)
}

func TestSearchFindsExactForwardMatch(t *testing.T) {
	idx, err := fmindex.Build([]byte(refText), fmindex.Rate4)
	require.NoError(t, err)
	text := dna.EncodeInto([]byte(refText))

	const readLen = 20
	const wantPos = 10
	read := refText[wantPos : wantPos+readLen]
	pattern := CompilePattern([]byte(read), DefaultPatternOpts)

	ts := newThreadStateForTest(t)
	defer ts.Close()

	traces, err := Search(context.Background(), idx, text, pattern, DefaultOpts, ts)
	require.NoError(t, err)
	require.NotEmpty(t, traces)

	found := false
	for _, tr := range traces {
		if tr.Strand == matches.Forward && tr.TextPosition == uint64(wantPos) {
			found = true
			assert.Equal(t, 0, tr.EditDistance)
			assert.InDelta(t, 1.0, tr.Identity, 1e-9)
		}
	}
	assert.True(t, found, "expected an exact forward match at position %d, got %+v", wantPos, traces)
}

func TestSearchFindsReverseComplementMatch(t *testing.T) {
	idx, err := fmindex.Build([]byte(refText), fmindex.Rate4)
	require.NoError(t, err)
	text := dna.EncodeInto([]byte(refText))

	const readLen = 20
	const wantPos = 30
	fwd := []byte(refText[wantPos : wantPos+readLen])
	rc := make([]byte, readLen)
	for i, ch := range fwd {
		rc[readLen-1-i] = dna.Decode(dna.EncodedComplement(dna.Encode(ch)))
	}

	pattern := CompilePattern(rc, DefaultPatternOpts)

	ts := newThreadStateForTest(t)
	defer ts.Close()

	traces, err := Search(context.Background(), idx, text, pattern, DefaultOpts, ts)
	require.NoError(t, err)

	found := false
	for _, tr := range traces {
		if tr.Strand == matches.Reverse && tr.TextPosition == uint64(wantPos) {
			found = true
			assert.Equal(t, 0, tr.EditDistance)
		}
	}
	assert.True(t, found, "expected an exact reverse-complement match at position %d, got %+v", wantPos, traces)
}

func TestSearchToleratesOneMismatch(t *testing.T) {
	idx, err := fmindex.Build([]byte(refText), fmindex.Rate4)
	require.NoError(t, err)
	text := dna.EncodeInto([]byte(refText))

	const readLen = 24
	const wantPos = 5
	read := []byte(refText[wantPos : wantPos+readLen])
	mid := readLen / 2
	if read[mid] == 'A' {
		read[mid] = 'C'
	} else {
		read[mid] = 'A'
	}

	pattern := CompilePattern(read, DefaultPatternOpts)

	ts := newThreadStateForTest(t)
	defer ts.Close()

	traces, err := Search(context.Background(), idx, text, pattern, DefaultOpts, ts)
	require.NoError(t, err)

	found := false
	for _, tr := range traces {
		if tr.Strand == matches.Forward && tr.TextPosition == uint64(wantPos) {
			found = true
			assert.True(t, tr.EditDistance >= 1)
			assert.True(t, tr.Identity > 0.9)
		}
	}
	assert.True(t, found, "expected a one-mismatch forward match at position %d, got %+v", wantPos, traces)
}
