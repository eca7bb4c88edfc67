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
	"encoding/binary"

	"github.com/grailbio/gemgo/fmindex"
	"github.com/grailbio/gemgo/gpu/gpupb"
)

// FMStaticSearchBuffer batches single-character LF-mapping steps (the
// inner loop of backward search) against one fixed index.
type FMStaticSearchBuffer struct {
	index *fmindex.Index
	batch gpupb.FMStaticSearchBatch
	ready bool
}

// NewFMStaticSearchBuffer returns a buffer of backward-search steps
// against idx, reused across many Add/Copy/Retrieve rounds by calling
// Reset between batches.
func NewFMStaticSearchBuffer(idx *fmindex.Index) *FMStaticSearchBuffer {
	return &FMStaticSearchBuffer{index: idx}
}

// Reset empties the buffer for reuse, keeping its backing arrays.
func (b *FMStaticSearchBuffer) Reset() {
	b.batch.Requests = b.batch.Requests[:0]
	b.batch.Responses = nil
	b.ready = false
}

// Add appends one LF-mapping request: extend interval [lo,hi) by the
// encoded character c.
func (b *FMStaticSearchBuffer) Add(lo, hi uint64, c uint8) {
	b.batch.Requests = append(b.batch.Requests, &gpupb.FMStaticSearchQuery{Lo: lo, Hi: hi, Char: uint32(c)})
}

// NumCandidates returns the number of queued requests.
func (b *FMStaticSearchBuffer) NumCandidates() int { return len(b.batch.Requests) }

// Copy stages the batch. In the CPU fallback this only assigns a
// deterministic batch ID; a device-backed implementation would transfer
// b.batch to the device here.
func (b *FMStaticSearchBuffer) Copy(ctx context.Context) error {
	b.batch.Header = newHeader(fmStaticSeed(b.batch.Requests), len(b.batch.Requests))
	b.ready = false
	return nil
}

// Retrieve runs every queued LF step synchronously on the CPU, whether or
// not the facade is enabled.
func (b *FMStaticSearchBuffer) Retrieve(ctx context.Context) error {
	b.batch.Responses = make([]*gpupb.FMStaticSearchResult, len(b.batch.Requests))
	for i, req := range b.batch.Requests {
		lo := b.index.BWT.CArray[req.Char] + b.index.BWT.Rank(uint8(req.Char), req.Lo)
		hi := b.index.BWT.CArray[req.Char] + b.index.BWT.Rank(uint8(req.Char), req.Hi)
		b.batch.Responses[i] = &gpupb.FMStaticSearchResult{Lo: lo, Hi: hi}
	}
	b.ready = true
	return nil
}

// Result returns item i's resulting interval. It panics if Retrieve has
// not yet populated it, the same contract a device round-trip would have.
func (b *FMStaticSearchBuffer) Result(i int) Result {
	if !b.ready {
		panic("gpu: FMStaticSearchBuffer.Result called before Retrieve")
	}
	r := b.batch.Responses[i]
	return Result{Lo: r.Lo, Hi: r.Hi}
}

func fmStaticSeed(reqs []*gpupb.FMStaticSearchQuery) []byte {
	if len(reqs) == 0 {
		return nil
	}
	var buf [17]byte
	binary.LittleEndian.PutUint64(buf[0:8], reqs[0].Lo)
	binary.LittleEndian.PutUint64(buf[8:16], reqs[0].Hi)
	buf[16] = byte(reqs[0].Char)
	return buf[:]
}
