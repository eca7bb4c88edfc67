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

package bpm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grailbio/gemgo/dna"
)

func encode(s string) []uint8 {
	out := make([]uint8, len(s))
	for i, ch := range s {
		out[i] = dna.Encode(byte(ch))
	}
	return out
}

// bestInfixDistance is a brute-force O(m*n) reference: the minimum edit
// distance of pattern against any substring of text, used to check
// Verify's Distance field independent of bit-vector bookkeeping.
func bestInfixDistance(pattern, text []uint8) int {
	m, n := len(pattern), len(text)
	prev := make([]int, n+1)
	for j := range prev {
		prev[j] = 0 // free start anywhere in text
	}
	for i := 1; i <= m; i++ {
		cur := make([]int, n+1)
		cur[0] = i
		for j := 1; j <= n; j++ {
			cost := 1
			if pattern[i-1] == text[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			min := del
			if ins < min {
				min = ins
			}
			if sub < min {
				min = sub
			}
			cur[j] = min
		}
		prev = cur
	}
	best := prev[0]
	for _, v := range prev {
		if v < best {
			best = v
		}
	}
	return best
}

func TestVerifyExactMatchIsZeroDistance(t *testing.T) {
	pattern := Compile(encode("ACGTACGT"))
	text := encode("TTTTACGTACGTTTTT")
	res := Verify(pattern, text, 2)
	assert.Equal(t, 0, res.Distance)
}

func TestVerifyMatchesBruteForceOverRandomishCases(t *testing.T) {
	cases := []struct{ pattern, text string }{
		{"ACGTACGT", "ACGTACGT"},
		{"ACGTACGT", "ACGAACGT"},
		{"ACGTACGTACGT", "TTACGTCCGTACGTTT"},
		{"GGGGCCCC", "AAAAAAAAAA"},
		{"AAAA", "CCCCAAAACCCC"},
	}
	for _, c := range cases {
		p := Compile(encode(c.pattern))
		text := encode(c.text)
		res := Verify(p, text, len(c.pattern))
		want := bestInfixDistance(encode(c.pattern), text)
		assert.Equal(t, want, res.Distance, "pattern=%q text=%q", c.pattern, c.text)
	}
}

func TestVerifyReturnsInfDistanceWhenUnreachable(t *testing.T) {
	pattern := Compile(encode("ACGTACGTACGTACGT"))
	text := encode("TTTTTTTTTTTTTTTT")
	res := Verify(pattern, text, 2)
	assert.Equal(t, InfDistance, res.Distance)
}

func TestVerifyMultiTilePatternLongerThan64(t *testing.T) {
	long := ""
	for i := 0; i < 10; i++ {
		long += "ACGTACGTAC"
	}
	pattern := Compile(encode(long))
	text := encode("TT" + long + "TT")
	res := Verify(pattern, text, 0)
	assert.Equal(t, 0, res.Distance)
	assert.Equal(t, 2, res.TextBeginOffset)
	assert.Equal(t, 2+len(long), res.TextEndOffset)
}
