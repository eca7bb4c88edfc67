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

// Package bpm implements Myers' bit-parallel edit-distance algorithm
// (BPM), used as the fast pre-alignment verifier that decides whether a
// candidate text window is worth the more expensive affine-gap alignment
// in package align/swg.
package bpm

import "github.com/grailbio/gemgo/dna"

const wordSize = 64

// tile holds one 64-character chunk of the compiled pattern's Peq table:
// peq[c] has bit i set iff this tile's i-th pattern character equals
// symbol c.
type tile struct {
	peq    [dna.RangeExtDNA]uint64
	length int // number of valid pattern characters in this tile (64 except possibly the last)
}

// Pattern is a compiled query ready for bit-parallel verification against
// arbitrarily long text windows. Patterns longer than one machine word are
// split into multiple tiles chained via horizontal carry bits, following
// the standard multi-word extension of Myers' algorithm.
type Pattern struct {
	length int
	tiles  []tile
}

// Compile builds the Peq bit table for key, an encoded pattern (values
// 0..6). Symbols outside the canonical alphabet still get a Peq entry
// (bit pattern of where they occur) so verification degrades gracefully
// rather than panicking on N bases.
func Compile(key []uint8) *Pattern {
	p := &Pattern{length: len(key)}
	numTiles := (len(key) + wordSize - 1) / wordSize
	if numTiles == 0 {
		numTiles = 1
	}
	p.tiles = make([]tile, numTiles)
	for i, enc := range key {
		tIdx := i / wordSize
		bit := uint(i % wordSize)
		p.tiles[tIdx].peq[enc] |= uint64(1) << bit
		p.tiles[tIdx].length++
	}
	return p
}

// Length returns the compiled pattern's length.
func (p *Pattern) Length() int { return p.length }
