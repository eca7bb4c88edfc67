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

// PackedTextRaw is the exported form of a PackedText's three bit-layers,
// the seam package archive's packed-DNA-text file codec serializes
// through without this package's field layout becoming archive's
// business.
type PackedTextRaw struct {
	Length int
	Lo     []uint64
	Hi     []uint64
	Ext    []uint64
}

// Raw returns t's internal layers for serialization.
func (t *PackedText) Raw() PackedTextRaw {
	return PackedTextRaw{Length: t.length, Lo: t.lo, Hi: t.hi, Ext: t.ext}
}

// NewPackedTextFromRaw rebuilds a PackedText from layers previously
// obtained via Raw.
func NewPackedTextFromRaw(r PackedTextRaw) *PackedText {
	return &PackedText{length: r.Length, lo: r.Lo, hi: r.Hi, ext: r.Ext}
}
