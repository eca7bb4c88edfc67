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

// Package gpu is the offload facade: it batches the three hottest inner
// loops (FM-index LF steps, suffix-array decoding, and BPM verification)
// behind a copy/retrieve contract so a real GPU process could eventually
// sit behind a socket and exchange gpupb-encoded batches. Until then,
// Retrieve runs the same work synchronously on the CPU.
package gpu

import (
	"context"

	farm "github.com/dgryski/go-farm"

	"github.com/grailbio/gemgo/gpu/gpupb"
)

// Result is one item's outcome, returned by Buffer.Result after Retrieve.
// Which fields are meaningful depends on the buffer's kind.
type Result struct {
	Lo, Hi       uint64 // FMStaticSearchBuffer
	TextPosition uint64 // DecodeSABuffer

	Distance        int // AlignBPMBuffer
	TextBeginOffset int
	TextEndOffset   int
}

// Buffer batches one kind of offloadable work. Add appends items until the
// buffer's capacity is reached; Copy stages the batch (a no-op in the CPU
// fallback, a host-to-device transfer on real hardware); Retrieve runs the
// batch and makes results available; Result reads back item i's outcome.
type Buffer interface {
	NumCandidates() int
	Copy(ctx context.Context) error
	Retrieve(ctx context.Context) error
	Result(i int) Result
}

// enabled selects whether package search routes BPM verification through
// an AlignBPMBuffer. It defaults to false because no GPU backend ships
// with this module; SetEnabled flips it for cmd/gemgo-map's --gpu flag
// and for tests exercising the offload bookkeeping itself.
var enabled = false

// Enabled reports whether the offload path is selected. The buffers
// themselves do not consult it: every Retrieve runs its batch
// synchronously on the CPU whatever this reports.
func Enabled() bool { return enabled }

// SetEnabled flips the facade's execution mode. Exposed for tests and for
// a future device-backed Retrieve implementation; cmd/gemgo-map's --gpu
// flag calls this once at startup.
func SetEnabled(v bool) { enabled = v }

// nextBatchID seeds a gpupb.BatchHeader's BatchId deterministically from
// the first request a batch carries, so a batch can be replayed bit for
// bit given the same input -- useful for diffing CPU-fallback output
// against a real device's once one exists.
func nextBatchID(seed []byte) uint64 {
	return farm.Hash64(seed)
}

func newHeader(seed []byte, count int) *gpupb.BatchHeader {
	return &gpupb.BatchHeader{BatchId: nextBatchID(seed), Count: uint32(count)}
}
