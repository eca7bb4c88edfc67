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

package arena

import "github.com/pkg/errors"

// align is the allocation alignment guaranteed by Alloc.
const align = 16

// ErrAllocTooLarge is returned when a single allocation would not fit in one
// slab segment; the arena never allocates across segment boundaries for a
// single request.
var ErrAllocTooLarge = errors.New("arena: allocation larger than one slab segment")

// ErrUnbalancedPop is returned by Pop when there is no matching Push.
var ErrUnbalancedPop = errors.New("arena: Pop without matching Push")

// mark is a saved high-water mark captured by Push.
type mark struct {
	segIdx    int // index into Arena.segments current at Push time
	used      int // bytes used in segments[segIdx] at Push time
	numExtra  int // len(segments) at Push time (segments beyond this are released on Pop)
}

// Arena is a per-thread scoped stack allocator. It is not safe for
// concurrent use: exactly one worker goroutine owns an Arena for the
// duration of one read (see the worker package).
type Arena struct {
	pool     *SlabPool
	segments [][]byte // segments[0] is the arena's permanent first segment
	used     []int    // used[i] is the number of bytes bumped in segments[i]
	cur      int      // index of the segment currently being allocated from
	marks    []mark
}

// New creates an Arena backed by pool, with one initial segment already
// checked out.
func New(pool *SlabPool) *Arena {
	a := &Arena{pool: pool}
	a.segments = append(a.segments, pool.get())
	a.used = append(a.used, 0)
	return a
}

// Close returns all of the arena's segments to its pool. The Arena must not
// be used afterward.
func (a *Arena) Close() {
	a.pool.putAll(a.segments)
	a.segments = nil
	a.used = nil
}

func roundUp(n, to int) int {
	return (n + to - 1) &^ (to - 1)
}

// Alloc returns n bytes aligned to 16, optionally zeroed. The returned slice
// is invalidated by the next Pop/Reset that unwinds past this allocation;
// there is no individual free.
func (a *Arena) Alloc(n int, zero bool) ([]byte, error) {
	seg := a.segments[a.cur]
	used := roundUp(a.used[a.cur], align)
	if used+n > cap(seg) {
		if n > a.pool.segmentSize {
			return nil, ErrAllocTooLarge
		}
		// Grow: request a fresh segment from the shared pool.
		a.segments = append(a.segments, a.pool.get())
		a.used = append(a.used, 0)
		a.cur++
		seg = a.segments[a.cur]
		used = 0
	}
	b := seg[used : used+n : used+n]
	a.used[a.cur] = used + n
	if zero {
		for i := range b {
			b[i] = 0
		}
	}
	return b, nil
}

// MustAlloc is Alloc, panicking on error. Used in inner loops where the
// caller has already validated the request fits a segment.
func (a *Arena) MustAlloc(n int, zero bool) []byte {
	b, err := a.Alloc(n, zero)
	if err != nil {
		panic(err)
	}
	return b
}

// Push captures the current high-water mark. A matching Pop restores it,
// invalidating every allocation made since.
func (a *Arena) Push() {
	a.marks = append(a.marks, mark{
		segIdx:   a.cur,
		used:     a.used[a.cur],
		numExtra: len(a.segments),
	})
}

// Pop restores the arena to the state captured by the matching Push,
// returning any segments acquired since back to the shared pool.
func (a *Arena) Pop() error {
	n := len(a.marks)
	if n == 0 {
		return ErrUnbalancedPop
	}
	m := a.marks[n-1]
	a.marks = a.marks[:n-1]

	if len(a.segments) > m.numExtra {
		released := a.segments[m.numExtra:]
		segs := make([][]byte, len(released))
		copy(segs, released)
		a.pool.putAll(segs)
		a.segments = a.segments[:m.numExtra]
		a.used = a.used[:m.numExtra]
	}
	a.cur = m.segIdx
	a.used[a.cur] = m.used
	return nil
}

// Reset is equivalent to popping all the way to the arena's initial state:
// every segment beyond the first is returned to the pool, and the first
// segment's cursor is rewound to zero. Called once per read.
func (a *Arena) Reset() {
	a.marks = a.marks[:0]
	if len(a.segments) > 1 {
		released := a.segments[1:]
		segs := make([][]byte, len(released))
		copy(segs, released)
		a.pool.putAll(segs)
		a.segments = a.segments[:1]
		a.used = a.used[:1]
	}
	a.cur = 0
	a.used[0] = 0
}

// HighWaterMark reports the total bytes currently bumped across all
// segments; useful for scratch-sizing tests and instrumentation.
func (a *Arena) HighWaterMark() int {
	total := 0
	for _, u := range a.used {
		total += u
	}
	return total
}
