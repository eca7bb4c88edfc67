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

// Package dna implements the fixed, 7-symbol extended DNA alphabet shared by
// every stage of the search pipeline: {A,C,G,T,N,SEP,JMP}, encoded in 3 bits.
// This is deliberately not a general-purpose alphabet package; the symbol
// set and its encoding are frozen by the wire format in package archive.
package dna

// Encoded symbols. N, SEP, and JMP are distinguishable from A/C/G/T so the
// BWT and region profile can treat them specially (disallowed runs, read
// separators within a packed multi-sequence text, explicit jump markers).
const (
	A uint8 = iota
	C
	G
	T
	N
	SEP
	JMP

	RangeDNA    = 4 // |{A,C,G,T}|
	RangeDNAN   = 5 // |{A,C,G,T,N}|
	RangeExtDNA = 7 // |{A,C,G,T,N,SEP,JMP}|
)

const (
	CharA   = 'A'
	CharC   = 'C'
	CharG   = 'G'
	CharT   = 'T'
	CharN   = 'N'
	CharSep = '|'
	CharJmp = 'J'
)

// EncodeTable maps an ASCII byte to its encoded symbol. '|' encodes to SEP
// and 'J' to JMP; anything else not in {A,C,G,T,N} (case-insensitive)
// encodes to N; callers that must reject
// IUPAC ambiguity codes do so before calling Encode (see ioformat).
var EncodeTable [256]uint8

// DecodeTable maps an encoded symbol back to its canonical uppercase ASCII
// byte.
var DecodeTable [RangeExtDNA]byte

// IsDNATable reports whether a raw ASCII byte is one of A/C/G/T (upper or
// lower case).
var IsDNATable [256]bool

// IsExtendedDNATable reports whether a raw ASCII byte is one of
// A/C/G/T/N/SEP/JMP.
var IsExtendedDNATable [256]bool

// ComplementTable maps an ASCII DNA base to its Watson-Crick complement.
var ComplementTable [256]byte

// EncodedComplementTable maps an encoded symbol to the encoded complement of
// that symbol; N/SEP/JMP complement to themselves.
var EncodedComplementTable [RangeExtDNA]uint8

func init() {
	for i := range EncodeTable {
		EncodeTable[i] = N
	}
	for i := range DecodeTable {
		DecodeTable[i] = CharN
	}
	for i := range ComplementTable {
		ComplementTable[i] = byte(i)
	}

	pairs := []struct {
		ch  byte
		enc uint8
		cpl byte
	}{
		{CharA, A, CharT},
		{CharC, C, CharG},
		{CharG, G, CharC},
		{CharT, T, CharA},
	}
	for _, p := range pairs {
		EncodeTable[p.ch] = p.enc
		EncodeTable[p.ch+('a'-'A')] = p.enc
		DecodeTable[p.enc] = p.ch
		ComplementTable[p.ch] = p.cpl
		ComplementTable[p.ch+('a'-'A')] = p.cpl + ('a' - 'A')
		IsDNATable[p.ch] = true
		IsDNATable[p.ch+('a'-'A')] = true
		IsExtendedDNATable[p.ch] = true
		IsExtendedDNATable[p.ch+('a'-'A')] = true
	}

	EncodeTable[CharN] = N
	EncodeTable[CharN+('a'-'A')] = N
	DecodeTable[N] = CharN
	IsExtendedDNATable[CharN] = true
	IsExtendedDNATable[CharN+('a'-'A')] = true

	EncodeTable[CharSep] = SEP
	DecodeTable[SEP] = CharSep
	IsExtendedDNATable[CharSep] = true

	EncodeTable[CharJmp] = JMP
	DecodeTable[JMP] = CharJmp
	IsExtendedDNATable[CharJmp] = true

	for enc := uint8(0); enc < RangeExtDNA; enc++ {
		EncodedComplementTable[enc] = enc
	}
	EncodedComplementTable[A] = T
	EncodedComplementTable[T] = A
	EncodedComplementTable[C] = G
	EncodedComplementTable[G] = C
}

// Encode returns the encoded symbol for an ASCII DNA character.
func Encode(ch byte) uint8 { return EncodeTable[ch] }

// Decode returns the canonical ASCII character for an encoded symbol.
func Decode(enc uint8) byte { return DecodeTable[enc] }

// Complement returns the ASCII complement of an ASCII DNA character.
func Complement(ch byte) byte { return ComplementTable[ch] }

// EncodedComplement returns the encoded complement of an encoded symbol.
func EncodedComplement(enc uint8) uint8 { return EncodedComplementTable[enc] }

// IsCanonical reports whether enc is one of A/C/G/T (i.e. not N/SEP/JMP).
func IsCanonical(enc uint8) bool { return enc < RangeDNA }

// ReverseComplement writes the reverse complement of src (ASCII bytes) into
// dst, which must have the same length as src. dst and src may overlap only
// if they are identical slices.
func ReverseComplement(dst, src []byte) {
	for i, j := 0, len(src)-1; i <= j; i, j = i+1, j-1 {
		a, b := src[i], src[j]
		dst[i], dst[j] = ComplementTable[b], ComplementTable[a]
	}
}

// ReverseComplementEncoded is ReverseComplement over encoded symbols.
func ReverseComplementEncoded(dst, src []uint8) {
	for i, j := 0, len(src)-1; i <= j; i, j = i+1, j-1 {
		a, b := src[i], src[j]
		dst[i], dst[j] = EncodedComplementTable[b], EncodedComplementTable[a]
	}
}
