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

// DecodeSABuffer batches sampled-suffix-array decodes: each request is a
// BWT row, each response the text position it maps to. Decoding walks LF
// until a sampled row is hit, the same cost whichever device runs it,
// which is why it is worth offloading in bulk rather than one row at a
// time.
type DecodeSABuffer struct {
	index *fmindex.Index
	batch gpupb.DecodeSABatch
	ready bool
}

// NewDecodeSABuffer returns a buffer of suffix-array decode requests
// against idx.
func NewDecodeSABuffer(idx *fmindex.Index) *DecodeSABuffer {
	return &DecodeSABuffer{index: idx}
}

// Reset empties the buffer for reuse.
func (b *DecodeSABuffer) Reset() {
	b.batch.Requests = b.batch.Requests[:0]
	b.batch.Responses = nil
	b.ready = false
}

// Add queues a decode request for BWT row.
func (b *DecodeSABuffer) Add(bwtRow uint64) {
	b.batch.Requests = append(b.batch.Requests, &gpupb.DecodeSAQuery{BwtRow: bwtRow})
}

// NumCandidates returns the number of queued requests.
func (b *DecodeSABuffer) NumCandidates() int { return len(b.batch.Requests) }

// Copy stages the batch.
func (b *DecodeSABuffer) Copy(ctx context.Context) error {
	b.batch.Header = newHeader(decodeSASeed(b.batch.Requests), len(b.batch.Requests))
	b.ready = false
	return nil
}

// Retrieve decodes every queued row.
func (b *DecodeSABuffer) Retrieve(ctx context.Context) error {
	b.batch.Responses = make([]*gpupb.DecodeSAResult, len(b.batch.Requests))
	for i, req := range b.batch.Requests {
		b.batch.Responses[i] = &gpupb.DecodeSAResult{TextPosition: b.index.Locate(req.BwtRow)}
	}
	b.ready = true
	return nil
}

// Result returns item i's decoded text position.
func (b *DecodeSABuffer) Result(i int) Result {
	if !b.ready {
		panic("gpu: DecodeSABuffer.Result called before Retrieve")
	}
	return Result{TextPosition: b.batch.Responses[i].TextPosition}
}

func decodeSASeed(reqs []*gpupb.DecodeSAQuery) []byte {
	if len(reqs) == 0 {
		return nil
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], reqs[0].BwtRow)
	return buf[:]
}
