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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/gemgo/dna"
	"github.com/grailbio/gemgo/matches"
)

func TestExtendLocalFindsForwardMatchInWindow(t *testing.T) {
	text := dna.EncodeInto([]byte(refText))

	const readLen = 20
	const wantPos = 10
	read := []byte(refText[wantPos : wantPos+readLen])
	pattern := CompilePattern(read, DefaultPatternOpts)

	traces := ExtendLocal(text, 0, uint64(len(refText)), pattern, DefaultOpts)
	require.NotEmpty(t, traces)

	found := false
	for _, tr := range traces {
		if tr.Strand == matches.Forward {
			found = true
			assert.Equal(t, 0, tr.EditDistance)
		}
	}
	assert.True(t, found, "expected an exact forward match in window, got %+v", traces)
}

func TestExtendLocalFindsReverseComplementMatch(t *testing.T) {
	text := dna.EncodeInto([]byte(refText))

	const readLen = 20
	const wantPos = 30
	fwd := []byte(refText[wantPos : wantPos+readLen])
	rc := make([]byte, readLen)
	for i, ch := range fwd {
		rc[readLen-1-i] = dna.Decode(dna.EncodedComplement(dna.Encode(ch)))
	}
	pattern := CompilePattern(rc, DefaultPatternOpts)

	traces := ExtendLocal(text, 0, uint64(len(refText)), pattern, DefaultOpts)

	found := false
	for _, tr := range traces {
		if tr.Strand == matches.Reverse {
			found = true
			assert.Equal(t, 0, tr.EditDistance)
		}
	}
	assert.True(t, found, "expected an exact reverse-complement match in window, got %+v", traces)
}

func TestExtendLocalClampsWindowPastTextLength(t *testing.T) {
	text := dna.EncodeInto([]byte(refText))
	pattern := CompilePattern([]byte("ACGTACGT"), DefaultPatternOpts)

	traces := ExtendLocal(text, uint64(len(refText)-4), uint64(len(refText))+1000, pattern, DefaultOpts)
	assert.NotPanics(t, func() {
		ExtendLocal(text, uint64(len(refText)-4), uint64(len(refText))+1000, pattern, DefaultOpts)
	})
	_ = traces
}

func TestExtendLocalEmptyWindowReturnsNil(t *testing.T) {
	text := dna.EncodeInto([]byte(refText))
	pattern := CompilePattern([]byte("ACGTACGT"), DefaultPatternOpts)

	traces := ExtendLocal(text, 20, 20, pattern, DefaultOpts)
	assert.Nil(t, traces)
}
