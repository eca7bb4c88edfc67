package fmindex

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/gemgo/dna"
)

func buildTestIndex(t *testing.T, text string) *Index {
	t.Helper()
	idx, err := Build([]byte(text), Rate4)
	require.NoError(t, err)
	return idx
}

// linearRank is the naive reference implementation of rank(c,i), used to
// check BWT.Rank against a full scan per the invariant in spec §8.
func linearRank(bwt *BWT, c uint8, i uint64) uint64 {
	var count uint64
	for j := uint64(0); j < i; j++ {
		if bwt.CharAt(j) == c {
			count++
		}
	}
	return count
}

func TestRankMatchesLinearScan(t *testing.T) {
	idx := buildTestIndex(t, "ACGTACGTACGT")
	n := uint64(idx.BWT.Len())
	for c := uint8(0); c < 7; c++ {
		for i := uint64(0); i <= n; i++ {
			assert.Equal(t, linearRank(idx.BWT, c, i), idx.BWT.Rank(c, i),
				"rank(%d,%d) mismatch", c, i)
		}
	}
}

func TestRankAtFullLengthMatchesCArrayDelta(t *testing.T) {
	idx := buildTestIndex(t, "ACGTACGTACGT")
	n := uint64(idx.BWT.Len())
	for c := uint8(0); c < 7; c++ {
		want := idx.BWT.CArray[c+1] - idx.BWT.CArray[c]
		assert.Equal(t, want, idx.BWT.Rank(c, n))
	}
}

func TestLocateRoundTrip(t *testing.T) {
	text := "ACGTACGTACGT"
	idx := buildTestIndex(t, text)
	n := idx.BWT.Len()

	seen := make(map[uint64]bool, n)
	for row := uint64(0); row < uint64(n); row++ {
		pos := idx.Locate(row)
		assert.False(t, seen[pos], "position %d located twice", pos)
		seen[pos] = true
	}
	assert.Len(t, seen, n)
}

func TestBackwardSearchCardinalityMatchesOccurrences(t *testing.T) {
	text := "ACGTACGTACGT"
	idx := buildTestIndex(t, text)

	cases := []string{"ACGT", "CGTA", "T", "ACGTACGTACGT", "GTAC"}
	for _, s := range cases {
		key := make([]uint8, len(s))
		for i, ch := range s {
			key[i] = dna.Encode(byte(ch))
		}
		lo, hi := idx.BackwardSearch(key)
		want := strings.Count(overlappingCount(text, s), "1")
		assert.Equal(t, uint64(want), hi-lo, "substring %q", s)
	}
}

// overlappingCount returns a string with a '1' for every (possibly
// overlapping) occurrence start of needle in haystack, and '0' elsewhere,
// so its Count is the number of occurrences.
func overlappingCount(haystack, needle string) string {
	var b strings.Builder
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

func TestBackwardSearchEmptyForAbsentSubstring(t *testing.T) {
	idx := buildTestIndex(t, "ACGTACGTACGT")
	key := []uint8{dna.Encode('G'), dna.Encode('G'), dna.Encode('G')}
	lo, hi := idx.BackwardSearch(key)
	assert.Equal(t, lo, hi)
}

func TestRankMTableAgreesWithBWTRank(t *testing.T) {
	idx := buildTestIndex(t, "ACGTACGTACGTACGTACGT")
	q := NewQuery()
	lo, hi := uint64(0), uint64(idx.BWT.Len())
	seq := []uint8{dna.Encode('A'), dna.Encode('C'), dna.Encode('G')}
	for i := len(seq) - 1; i >= 0; i-- {
		c := seq[i]
		lo = idx.BWT.CArray[c] + idx.BWT.Rank(c, lo)
		hi = idx.BWT.CArray[c] + idx.BWT.Rank(c, hi)
		q.AddChar(c)
		tlo, thi := idx.RankTable.Fetch(q)
		assert.Equal(t, lo, tlo)
		assert.Equal(t, hi, thi)
	}
}

func TestPackedIntArrayGetSet(t *testing.T) {
	arr := newPackedIntArray(100, 13)
	for i := 0; i < 100; i++ {
		arr.Set(i, uint64(i*37)%(1<<13))
	}
	for i := 0; i < 100; i++ {
		assert.Equal(t, uint64(i*37)%(1<<13), arr.Get(i))
	}
}

func TestBuildRejectsSentinelInText(t *testing.T) {
	_, err := Build([]byte("ACGJT"), Rate4)
	assert.Equal(t, ErrSentinelInText, err)
}
