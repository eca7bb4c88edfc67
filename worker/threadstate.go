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

package worker

import (
	"github.com/grailbio/gemgo/arena"
	"github.com/grailbio/gemgo/candidates"
	"github.com/grailbio/gemgo/matches"
)

// ThreadState holds everything one worker goroutine needs for the
// duration of a single read's search: an arena, the candidate-window
// vector, a compressed cache of decoded text windows, BPM scratch
// storage, and a match-trace vector. It is created once at worker
// start, Reset between reads, and Close'd once at worker shutdown --
// never per-read allocation.
type ThreadState struct {
	Arena      *arena.Arena
	Candidates []candidates.FilteringRegion
	TextCache  *TextCache
	BPMScratch []uint64
	Traces     matches.Vector
}

func newThreadState(pool *arena.SlabPool) *ThreadState {
	return &ThreadState{
		Arena:     arena.New(pool),
		TextCache: newTextCache(),
	}
}

// Reset prepares the state for the next read. The arena rewinds to the
// high-water mark it had when this ThreadState was created -- nothing
// from one read's search is visible to the next -- and every scratch
// slice truncates to zero length without releasing its backing array.
func (ts *ThreadState) Reset() {
	ts.Arena.Reset()
	ts.Candidates = ts.Candidates[:0]
	ts.TextCache.reset()
	ts.BPMScratch = ts.BPMScratch[:0]
	ts.Traces.Reset()
}

// Close releases the arena's segments back to its shared pool. Called
// once, at worker shutdown.
func (ts *ThreadState) Close() {
	ts.Arena.Close()
}
