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

package gpu

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/gemgo/align/bpm"
	"github.com/grailbio/gemgo/dna"
	"github.com/grailbio/gemgo/fmindex"
)

func buildTestIndex(t *testing.T, text string) *fmindex.Index {
	idx, err := fmindex.Build([]byte(text), fmindex.Rate4)
	require.NoError(t, err)
	return idx
}

func encode(s string) []uint8 {
	out := make([]uint8, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = dna.Encode(s[i])
	}
	return out
}

func TestFMStaticSearchBufferMatchesBackwardSearch(t *testing.T) {
	idx := buildTestIndex(t, "GATTACAGATTACA")
	want0, want1 := idx.BackwardSearch(encode("A"))

	buf := NewFMStaticSearchBuffer(idx)
	buf.Add(0, uint64(idx.BWT.Len()), dna.Encode('A'))
	require.NoError(t, buf.Copy(context.Background()))
	require.NoError(t, buf.Retrieve(context.Background()))
	got := buf.Result(0)
	assert.Equal(t, want0, got.Lo)
	assert.Equal(t, want1, got.Hi)
}

func TestDecodeSABufferMatchesLocate(t *testing.T) {
	idx := buildTestIndex(t, "GATTACAGATTACA")
	buf := NewDecodeSABuffer(idx)
	for i := uint64(0); i < uint64(idx.BWT.Len()); i++ {
		buf.Add(i)
	}
	require.NoError(t, buf.Copy(context.Background()))
	require.NoError(t, buf.Retrieve(context.Background()))
	for i := uint64(0); i < uint64(idx.BWT.Len()); i++ {
		assert.Equal(t, idx.Locate(i), buf.Result(int(i)).TextPosition)
	}
}

func TestAlignBPMBufferMatchesDirectVerify(t *testing.T) {
	pattern := encode("GATTACA")
	text := encode("XXGATTACAXX")
	p := bpm.Compile(pattern)
	want := bpm.Verify(p, text, 2)

	buf := NewAlignBPMBuffer()
	buf.Add(p, pattern, text, 2)
	require.NoError(t, buf.Copy(context.Background()))
	require.NoError(t, buf.Retrieve(context.Background()))
	got := buf.Result(0)
	assert.Equal(t, want.Distance, got.Distance)
	assert.Equal(t, want.TextEndOffset, got.TextEndOffset)
}

func TestEnabledDefaultsFalse(t *testing.T) {
	assert.False(t, Enabled())
	SetEnabled(true)
	assert.True(t, Enabled())
	SetEnabled(false)
}

func TestResultPanicsBeforeRetrieve(t *testing.T) {
	idx := buildTestIndex(t, "GATTACA")
	buf := NewFMStaticSearchBuffer(idx)
	buf.Add(0, 1, dna.Encode('A'))
	assert.Panics(t, func() { buf.Result(0) })
}
