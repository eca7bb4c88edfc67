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

// Package fmindex implements the Burrows-Wheeler Transform with a rank
// accelerator, a memoized top-k rank table, and a sampled suffix array --
// the three data structures the FM-index facade wraps to answer
// backward-search and locate queries.
package fmindex

import "math/bits"

// blockBits is the number of BWT symbols covered by one rank block. Each
// block's three bit-layers plus its running counters fit comfortably within
// two cache lines, satisfying the "≤2 cache-line loads per rank" budget:
// one load for the counters row, one for the block's packed bits.
const blockBits = 64

// BWT is a block-compressed Burrows-Wheeler Transform of the packed
// reference text, with a trailing sentinel appended as JMP. Each block
// stores its symbols packed across three bit-layers (mirroring
// dna.PackedText) alongside the running per-symbol occurrence counters up
// to the block's start, so rank(c,i) costs one block load plus a popcount.
type BWT struct {
	length int // number of symbols, including the sentinel

	lo  []uint64 // one word per block: bit 0 of each symbol
	hi  []uint64 // one word per block: bit 1 of each symbol
	ext []uint64 // one word per block: bit 2 of each symbol

	// counters[w][c] = rank(c, w*blockBits), for w in [0, numBlocks].
	counters [][7]uint64

	// CArray[c] = number of BWT symbols lexicographically less than c;
	// CArray[7] = total length, so CArray[c+1]-CArray[c] = total count of c.
	CArray [8]uint64
}

// matchWord returns a bitmask with a 1 in every position whose packed
// 3-bit symbol equals c.
func matchWord(lo, hi, ext uint64, c uint8) uint64 {
	var m0, m1, m2 uint64
	if c&1 != 0 {
		m0 = lo
	} else {
		m0 = ^lo
	}
	if c&2 != 0 {
		m1 = hi
	} else {
		m1 = ^hi
	}
	if c&4 != 0 {
		m2 = ext
	} else {
		m2 = ^ext
	}
	return m0 & m1 & m2
}

// lowMask returns a mask with the low k bits set (k in [0,64]).
func lowMask(k uint) uint64 {
	if k == 0 {
		return 0
	}
	if k == 64 {
		return ^uint64(0)
	}
	return (uint64(1) << k) - 1
}

// BuildBWT constructs a BWT from an already-encoded symbol sequence (values
// 0..6), typically produced by the offline suffix-sort step (out of core
// scope; see package archive for reading a prebuilt BWT, and Build in this
// package for an in-process builder used by tests).
func BuildBWT(symbols []uint8) *BWT {
	n := len(symbols)
	numBlocks := (n + blockBits - 1) / blockBits
	b := &BWT{
		length:   n,
		lo:       make([]uint64, numBlocks),
		hi:       make([]uint64, numBlocks),
		ext:      make([]uint64, numBlocks),
		counters: make([][7]uint64, numBlocks+1),
	}
	for i, enc := range symbols {
		word := i / blockBits
		bit := uint(i % blockBits)
		mask := uint64(1) << bit
		if enc&1 != 0 {
			b.lo[word] |= mask
		}
		if enc&2 != 0 {
			b.hi[word] |= mask
		}
		if enc&4 != 0 {
			b.ext[word] |= mask
		}
	}
	var running [7]uint64
	for w := 0; w < numBlocks; w++ {
		b.counters[w] = running
		valid := lowMask(blockBits)
		if w == numBlocks-1 && n%blockBits != 0 {
			valid = lowMask(uint(n % blockBits))
		}
		for c := uint8(0); c < 7; c++ {
			running[c] += uint64(bits.OnesCount64(matchWord(b.lo[w], b.hi[w], b.ext[w], c) & valid))
		}
	}
	b.counters[numBlocks] = running

	var cum uint64
	for c := 0; c < 7; c++ {
		b.CArray[c] = cum
		cum += running[c]
	}
	b.CArray[7] = cum
	return b
}

// Len returns the number of symbols in the BWT, including the sentinel.
func (b *BWT) Len() int { return b.length }

// CharAt returns the encoded BWT symbol at position i.
func (b *BWT) CharAt(i uint64) uint8 {
	word := i / blockBits
	bit := uint(i % blockBits)
	lo := (b.lo[word] >> bit) & 1
	hi := (b.hi[word] >> bit) & 1
	ext := (b.ext[word] >> bit) & 1
	return uint8(lo) | uint8(hi)<<1 | uint8(ext)<<2
}

// Rank returns |{ j < i : BWT[j] = c }|, the exclusive-right ("erank")
// count the region-profile stage assumes. Rank(c, Len()) equals the total
// occurrence count of c in the BWT, i.e. CArray[c+1]-CArray[c].
func (b *BWT) Rank(c uint8, i uint64) uint64 {
	word := i / blockBits
	off := uint(i % blockBits)
	base := b.counters[word][c]
	if off == 0 {
		return base
	}
	m := matchWord(b.lo[word], b.hi[word], b.ext[word], c) & lowMask(off)
	return base + uint64(bits.OnesCount64(m))
}

// LF computes the LF-mapping at position i: LF(i) = C[BWT[i]] + rank(BWT[i], i).
func (b *BWT) LF(i uint64) uint64 {
	c := b.CharAt(i)
	return b.CArray[c] + b.Rank(c, i)
}
