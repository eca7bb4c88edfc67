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

	"github.com/grailbio/gemgo/align/bpm"
	"github.com/grailbio/gemgo/gpu/gpupb"
)

// AlignBPMBuffer batches Myers bit-parallel verifications: each request
// pairs an encoded pattern with an encoded candidate text window and a
// maximum error threshold.
type AlignBPMBuffer struct {
	batch   gpupb.AlignBPMBatch
	ready   bool
	queries []bpmQuery
}

type bpmQuery struct {
	pattern  *bpm.Pattern
	maxError int
}

// NewAlignBPMBuffer returns an empty BPM verification buffer.
func NewAlignBPMBuffer() *AlignBPMBuffer {
	return &AlignBPMBuffer{}
}

// Reset empties the buffer for reuse.
func (b *AlignBPMBuffer) Reset() {
	b.batch.Requests = b.batch.Requests[:0]
	b.batch.Responses = nil
	b.queries = b.queries[:0]
	b.ready = false
}

// Add queues a verification of pattern (already tile-compiled) against an
// encoded text window, accepting distances up to maxError.
func (b *AlignBPMBuffer) Add(pattern *bpm.Pattern, patternBytes, text []uint8, maxError int) {
	b.batch.Requests = append(b.batch.Requests, &gpupb.AlignBPMQuery{
		Pattern:  append([]byte(nil), patternBytes...),
		Text:     append([]byte(nil), text...),
		MaxError: int32(maxError),
	})
	b.queries = append(b.queries, bpmQuery{pattern: pattern, maxError: maxError})
}

// NumCandidates returns the number of queued verifications.
func (b *AlignBPMBuffer) NumCandidates() int { return len(b.batch.Requests) }

// Copy stages the batch.
func (b *AlignBPMBuffer) Copy(ctx context.Context) error {
	var seed []byte
	if len(b.batch.Requests) > 0 {
		seed = b.batch.Requests[0].Pattern
	}
	b.batch.Header = newHeader(seed, len(b.batch.Requests))
	b.ready = false
	return nil
}

// Retrieve runs every queued verification through align/bpm.Verify.
func (b *AlignBPMBuffer) Retrieve(ctx context.Context) error {
	b.batch.Responses = make([]*gpupb.AlignBPMResult, len(b.batch.Requests))
	for i, req := range b.batch.Requests {
		res := bpm.Verify(b.queries[i].pattern, req.Text, int(req.MaxError))
		b.batch.Responses[i] = &gpupb.AlignBPMResult{
			Distance:        int32(res.Distance),
			TextBeginOffset: int32(res.TextBeginOffset),
			TextEndOffset:   int32(res.TextEndOffset),
		}
	}
	b.ready = true
	return nil
}

// Result returns item i's verification outcome.
func (b *AlignBPMBuffer) Result(i int) Result {
	if !b.ready {
		panic("gpu: AlignBPMBuffer.Result called before Retrieve")
	}
	r := b.batch.Responses[i]
	return Result{
		Distance:        int(r.Distance),
		TextBeginOffset: int(r.TextBeginOffset),
		TextEndOffset:   int(r.TextEndOffset),
	}
}
