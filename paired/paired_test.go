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

package paired

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/gemgo/matches"
)

func TestInsertSizeModelConverges(t *testing.T) {
	m := NewInsertSizeModel(10, 1.96, 0.05)
	assert.False(t, m.Converged())
	for i := 0; i < 200; i++ {
		m.Observe(300)
	}
	assert.True(t, m.Converged())
	mean, stddev := m.Stats()
	assert.InDelta(t, 300, mean, 0.001)
	assert.InDelta(t, 0, stddev, 0.001)
}

func TestControllerFindsConsistentPair(t *testing.T) {
	search := func(read []byte) []matches.MatchTrace {
		if string(read) == "R1" {
			return []matches.MatchTrace{{TextPosition: 1000, Strand: matches.Forward}}
		}
		return []matches.MatchTrace{{TextPosition: 1300, Strand: matches.Reverse}}
	}
	model := NewInsertSizeModel(10, 1.96, 0.05)
	c := NewController(Opts{MinInsert: 100, MaxInsert: 500, ExtendWindow: 50}, search, nil, []byte("R1"), []byte("R2"), model)
	c.Run()
	require.Len(t, c.Pairs(), 1)
	assert.Equal(t, int64(300), c.Pairs()[0].Insert)
}

func TestControllerRejectsOutOfRangeInsert(t *testing.T) {
	search := func(read []byte) []matches.MatchTrace {
		if string(read) == "R1" {
			return []matches.MatchTrace{{TextPosition: 1000, Strand: matches.Forward}}
		}
		return []matches.MatchTrace{{TextPosition: 5000, Strand: matches.Reverse}}
	}
	model := NewInsertSizeModel(10, 1.96, 0.05)
	c := NewController(Opts{MinInsert: 100, MaxInsert: 500}, search, nil, []byte("R1"), []byte("R2"), model)
	c.Run()
	assert.Empty(t, c.Pairs())
}

func TestControllerRejectsDiscordantOrientation(t *testing.T) {
	// Both ends land on the forward strand: not a valid FR pair no matter
	// how close together they fall.
	search := func(read []byte) []matches.MatchTrace {
		if string(read) == "R1" {
			return []matches.MatchTrace{{TextPosition: 1000, Strand: matches.Forward}}
		}
		return []matches.MatchTrace{{TextPosition: 1300, Strand: matches.Forward}}
	}
	model := NewInsertSizeModel(10, 1.96, 0.05)
	c := NewController(Opts{MinInsert: 100, MaxInsert: 500, Orientation: OrientationFR}, search, nil, []byte("R1"), []byte("R2"), model)
	c.Run()
	assert.Empty(t, c.Pairs())
}

func TestControllerRecoversWhenEnd2EmptyOnFirstPass(t *testing.T) {
	calls := 0
	search := func(read []byte) []matches.MatchTrace {
		if string(read) == "R1" {
			return []matches.MatchTrace{{TextPosition: 1000, Strand: matches.Forward}}
		}
		calls++
		if calls == 1 {
			return nil
		}
		return []matches.MatchTrace{{TextPosition: 1200, Strand: matches.Reverse}}
	}
	model := NewInsertSizeModel(10, 1.96, 0.05)
	c := NewController(Opts{MinInsert: 100, MaxInsert: 500}, search, nil, []byte("R1"), []byte("R2"), model)
	c.Run()
	require.Len(t, c.Pairs(), 1)
}

func TestControllerExtendShortcutUsesWindowedExtension(t *testing.T) {
	search := func(read []byte) []matches.MatchTrace {
		require.Equal(t, "R1", string(read), "extend shortcut must not fall back to a full Search for end 2")
		return []matches.MatchTrace{{TextPosition: 1000, Strand: matches.Forward}}
	}
	var extendCalls int
	var gotLo, gotHi uint64
	extend := func(read []byte, lo, hi uint64) []matches.MatchTrace {
		extendCalls++
		gotLo, gotHi = lo, hi
		return []matches.MatchTrace{{TextPosition: 1300, Strand: matches.Reverse}}
	}
	model := NewInsertSizeModel(10, 1.96, 0.05)
	for i := 0; i < 20; i++ {
		model.Observe(300)
	}
	require.True(t, model.Converged())

	c := NewController(Opts{MinInsert: 100, MaxInsert: 500, ExtendWindow: 50, Orientation: OrientationFR}, search, extend, []byte("R1"), []byte("R2"), model)
	c.Run()
	require.Len(t, c.Pairs(), 1)
	assert.Equal(t, int64(300), c.Pairs()[0].Insert)
	assert.Equal(t, 1, extendCalls)
	assert.Equal(t, uint64(950), gotLo)
	assert.Equal(t, uint64(1050), gotHi)
}

func TestClassifyEndReportsUniqueMultiAndTie(t *testing.T) {
	class, predictor := classifyEnd(nil)
	assert.Equal(t, EndUnmapped, class)
	assert.Equal(t, int32(0), predictor)

	class, predictor = classifyEnd([]matches.MatchTrace{{Score: 10}})
	assert.Equal(t, EndUnique, class)
	assert.Equal(t, int32(0), predictor)

	class, predictor = classifyEnd([]matches.MatchTrace{{Score: 10}, {Score: 4}})
	assert.Equal(t, EndMulti, class)
	assert.Equal(t, int32(6), predictor)

	class, predictor = classifyEnd([]matches.MatchTrace{{Score: 10}, {Score: 10}})
	assert.Equal(t, EndTie, class)
	assert.Equal(t, int32(0), predictor)
}
