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

package dna

import "github.com/pkg/errors"

// PackedText is a 3-bit-per-symbol encoding of a sequence over the extended
// DNA alphabet, packed across three parallel 64-bit layers: two dense
// layers carrying the low two bits of every symbol, and one layer carrying
// the high bit, which is set only for N/SEP/JMP and so is sparse in
// practice on real genomic text (biosimd's packed 4-bit-per-base NibbleLookupTable
// inspired the bit-parallel layout, generalized here from 2 packed layers to
// 3 to make room for the extended alphabet). Length is fixed once built;
// PackedText offers no resizing.
type PackedText struct {
	length int
	lo     []uint64 // bit 0 of each symbol
	hi     []uint64 // bit 1 of each symbol
	ext    []uint64 // bit 2 of each symbol; nonzero only for N/SEP/JMP
}

// NewPackedText allocates a PackedText able to hold length symbols, all
// initialized to A (encoded 0).
func NewPackedText(length int) *PackedText {
	words := (length + 63) / 64
	return &PackedText{
		length: length,
		lo:     make([]uint64, words),
		hi:     make([]uint64, words),
		ext:    make([]uint64, words),
	}
}

// Len returns the number of symbols in the text.
func (t *PackedText) Len() int { return t.length }

// At returns the encoded symbol at position i.
func (t *PackedText) At(i int) uint8 {
	word := i >> 6
	bit := uint(i & 63)
	lo := (t.lo[word] >> bit) & 1
	hi := (t.hi[word] >> bit) & 1
	ext := (t.ext[word] >> bit) & 1
	return uint8(lo) | uint8(hi)<<1 | uint8(ext)<<2
}

// Set writes the encoded symbol enc (0..6) at position i.
func (t *PackedText) Set(i int, enc uint8) {
	word := i >> 6
	mask := uint64(1) << uint(i&63)
	setBit(&t.lo[word], mask, enc&1 != 0)
	setBit(&t.hi[word], mask, enc&2 != 0)
	setBit(&t.ext[word], mask, enc&4 != 0)
}

func setBit(w *uint64, mask uint64, v bool) {
	if v {
		*w |= mask
	} else {
		*w &^= mask
	}
}

// Decode writes length symbols starting at position begin into dst (ASCII),
// which must have capacity length.
func (t *PackedText) Decode(begin, length int) []byte {
	out := make([]byte, length)
	for i := 0; i < length; i++ {
		out[i] = Decode(t.At(begin + i))
	}
	return out
}

// DecodeEncoded writes length encoded symbols (0..6) starting at position
// begin into a freshly allocated slice, for callers (package search's
// candidate-window verification) that work directly in encoded space
// rather than ASCII.
func (t *PackedText) DecodeEncoded(begin, length int) []uint8 {
	out := make([]uint8, length)
	for i := range out {
		out[i] = t.At(begin + i)
	}
	return out
}

// EncodeInto builds a PackedText from an ASCII byte slice over
// {A,C,G,T,N,SEP,JMP} (case-insensitive for the canonical bases).
func EncodeInto(text []byte) *PackedText {
	pt := NewPackedText(len(text))
	for i, ch := range text {
		pt.Set(i, Encode(ch))
	}
	return pt
}

// ErrWrongModel is returned by readers of the packed-DNA-text file format
// when the header's declared text_size does not match its text_length, the
// distinctive rejection the archive format specifies for a wrong-model
// file.
var ErrWrongModel = errors.New("dna: packed text header declares an inconsistent size for its length")
