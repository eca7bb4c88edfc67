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

// Package arena implements the per-thread scoped stack allocator described
// by the search pipeline's memory model: a bump allocator of variable-size
// scratch memory, with scoped push/pop restoring the high-water mark.  No
// individual allocation is ever freed; the whole arena is reset between
// reads.
//
// Segments come from a shared, mutex-protected SlabPool so that concurrent
// workers balance memory consumption without contending on every
// allocation, only on segment growth and shrinkage.
package arena

import (
	"sync"

	"github.com/pkg/errors"
)

// SlabSize is the default size, in bytes, of a slab segment handed out by a
// SlabPool. It is sized generously relative to one read's scratch
// requirements (BPM bit-vectors, filtering-candidate vectors, SWG banded
// matrices) so that the common read needs only one segment.
const SlabSize = 1 << 20 // 1 MiB

// SlabPool hands out fixed-size memory segments to Arenas and reclaims them
// on Arena.Reset. A single SlabPool is shared by every worker thread; all
// growth/shrink operations briefly lock it and release segments in bulk,
// per the concurrency model's "mutex-protected; grow/shrink lock briefly
// and release segments in bulk" rule.
type SlabPool struct {
	segmentSize int

	mu   sync.Mutex
	free [][]byte
}

// NewSlabPool returns a SlabPool whose segments are segmentSize bytes.
func NewSlabPool(segmentSize int) *SlabPool {
	if segmentSize <= 0 {
		segmentSize = SlabSize
	}
	return &SlabPool{segmentSize: segmentSize}
}

// get returns a segment from the free list, allocating a fresh one if the
// free list is empty.
func (p *SlabPool) get() []byte {
	p.mu.Lock()
	n := len(p.free)
	if n == 0 {
		p.mu.Unlock()
		return make([]byte, 0, p.segmentSize)
	}
	seg := p.free[n-1]
	p.free = p.free[:n-1]
	p.mu.Unlock()
	return seg[:0]
}

// putAll returns segments to the free list in bulk.
func (p *SlabPool) putAll(segs [][]byte) {
	p.mu.Lock()
	p.free = append(p.free, segs...)
	p.mu.Unlock()
}
