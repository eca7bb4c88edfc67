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

// Package matches holds the CIGAR vector and match-trace records that
// package align/swg's curation pass produces and package worker appends
// into per-thread, arena-scoped storage.
package matches

import (
	"bytes"
	"strconv"
)

// CIGAR operation codes, the usual SAM alphabet.
const (
	OpMatch    byte = 'M'
	OpInsert   byte = 'I'
	OpDelete   byte = 'D'
	OpMismatch byte = 'X'
)

// CIGAROp is one run-length-encoded CIGAR operation.
type CIGAROp struct {
	N  uint32
	Op byte
}

// CIGAR is a sequence of CIGAR operations built back-to-front during
// traceback (the natural direction for both BPM and SWG backtraces) and
// reversed once when first read in forward order.
//
// A CIGAR is owned by the match trace it is stored in. Reset truncates
// its op list for reuse, keeping the backing array; package search does
// not reuse one, it allocates a fresh CIGAR for every candidate it aligns.
type CIGAR struct {
	Ops      []CIGAROp
	reversed bool
}

// Reset truncates the CIGAR's op list for reuse, keeping its backing
// array.
func (c *CIGAR) Reset() {
	c.Ops = c.Ops[:0]
	c.reversed = false
}

// Add appends one more unit of op, merging into the last record if it has
// the same op code (traceback produces one call per aligned column).
func (c *CIGAR) Add(op byte) {
	if n := len(c.Ops); n > 0 && c.Ops[n-1].Op == op {
		c.Ops[n-1].N++
		return
	}
	c.Ops = append(c.Ops, CIGAROp{N: 1, Op: op})
}

// reverse flips operation order once, turning a backtrace (built from the
// alignment's end) into forward (reference-increasing) order.
func (c *CIGAR) reverse() {
	if c.reversed {
		return
	}
	s := c.Ops
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
	c.reversed = true
}

// String renders the CIGAR in SAM's compact text form, e.g. "12M1D4M".
func (c *CIGAR) String() string {
	c.reverse()
	var buf bytes.Buffer
	for _, op := range c.Ops {
		buf.WriteString(strconv.Itoa(int(op.N)))
		buf.WriteByte(op.Op)
	}
	return buf.String()
}

// EditDistance sums the mismatch, insertion, and deletion run lengths.
func (c *CIGAR) EditDistance() int {
	var d int
	for _, op := range c.Ops {
		if op.Op != OpMatch {
			d += int(op.N)
		}
	}
	return d
}

// MatchingBases sums the match run lengths.
func (c *CIGAR) MatchingBases() int {
	var n int
	for _, op := range c.Ops {
		if op.Op == OpMatch {
			n += int(op.N)
		}
	}
	return n
}

// EffectiveReferenceLength is the number of reference bases the CIGAR
// consumes (match, mismatch, and deletion runs; insertions consume none).
func (c *CIGAR) EffectiveReferenceLength() int {
	var n int
	for _, op := range c.Ops {
		switch op.Op {
		case OpMatch, OpMismatch, OpDelete:
			n += int(op.N)
		}
	}
	return n
}
