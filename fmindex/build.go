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

package fmindex

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/grailbio/gemgo/dna"
)

// ErrSentinelInText is returned by Build when the input text contains the
// reserved JMP symbol, which Build uses as the unique BWT terminator.
var ErrSentinelInText = errors.New("fmindex: input text contains the reserved sentinel symbol (JMP)")

// Build constructs a complete FM-index -- BWT, rank memoization table, and
// sampled suffix array -- from a raw ASCII reference text via an
// in-process suffix sort.
//
// The full offline archive build (suffix sorting at genome scale, disk
// staging) is explicitly out of core scope; Build exists so the core
// package is self-contained for tests and so package archive has a
// reference implementation to check its on-disk codec against. It is not
// intended to scale to whole-genome references.
func Build(text []byte, rate SamplingRate) (*Index, error) {
	n := len(text)
	encoded := make([]uint8, n+1)
	for i, ch := range text {
		enc := dna.Encode(ch)
		if enc == dna.JMP {
			return nil, ErrSentinelInText
		}
		encoded[i] = enc
	}
	encoded[n] = dna.JMP // unique terminator, the largest encoded symbol value

	n1 := n + 1
	sa := make([]uint64, n1)
	for i := range sa {
		sa[i] = uint64(i)
	}
	sort.Slice(sa, func(a, b int) bool {
		return suffixLess(encoded, int(sa[a]), int(sa[b]))
	})

	bwtSymbols := make([]uint8, n1)
	for row, pos := range sa {
		pred := (int(pos) - 1 + n1) % n1
		bwtSymbols[row] = encoded[pred]
	}

	bwt := BuildBWT(bwtSymbols)
	rankTable := BuildRankMTable(bwt, MaxRankMTableDepth)
	sampledSA := BuildSampledSA(sa, rate)

	return &Index{
		TextLength: uint64(n),
		ProperLen:  ProperLength(uint64(n)),
		BWT:        bwt,
		RankTable:  rankTable,
		SampledSA:  sampledSA,
	}, nil
}

// suffixLess compares the suffixes of t starting at ia and ib. Because t
// ends in a single occurrence of the globally largest encoded symbol
// (JMP), every pair of distinct suffixes differs at some position at or
// before the shorter suffix's last character, so the loop below always
// terminates with a definite answer.
func suffixLess(t []uint8, ia, ib int) bool {
	n := len(t)
	for k := 0; ia+k < n && ib+k < n; k++ {
		if t[ia+k] != t[ib+k] {
			return t[ia+k] < t[ib+k]
		}
	}
	return (n - ia) < (n - ib)
}
