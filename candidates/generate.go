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

package candidates

import (
	"sort"

	"github.com/biogo/store/interval"

	"github.com/grailbio/gemgo/fmindex"
	"github.com/grailbio/gemgo/seeding"
)

// Budget bounds how many candidate text positions Generate will decode out
// of a single region profile, protecting against regions whose BWT
// interval is unexpectedly large.
type Budget struct {
	MaxCandidates int
}

// FilteringRegion is one candidate alignment window: a text range the
// verifier should try to align the whole pattern against.
type FilteringRegion struct {
	Begin, End uint64 // reference-coordinate window, inclusive of pattern-length padding
	RegionLo   uint64 // the seeding.Region this candidate was decoded from
	RegionHi   uint64
}

// candInterval adapts a FilteringRegion into biogo/store/interval's
// required shape so overlapping/adjacent candidates can be merged with a
// single sweep of its interval tree instead of hand-rolled interval
// bookkeeping.
type candInterval struct {
	begin, end int
	id         uintptr
	region     FilteringRegion
}

func (c *candInterval) Overlap(b interval.IntRange) bool {
	return c.begin < b.End && b.Start < c.end
}
func (c *candInterval) ID() uintptr             { return c.id }
func (c *candInterval) Range() interval.IntRange { return interval.IntRange{Start: c.begin, End: c.end} }
func (c *candInterval) String() string           { return "" }

// Generate decodes every region in profile into one or more candidate text
// windows (offset by keySourceOffset, the position of the region's anchor
// within the full pattern, and padded by maxError on both sides so an
// indel-shifted alignment still lands inside the window), clamps windows
// to [0, genomeLength), and merges overlapping or touching windows so the
// verifier never redoes the same reference span twice.
func Generate(index *fmindex.Index, profile *seeding.Profile, keySourceOffset uint64, maxError uint64, genomeLength uint64, budget Budget) []FilteringRegion {
	t := &interval.IntTree{}
	var nextID uintptr
	var total int

	for _, region := range profile.Regions {
		if region.NumCandidates() == 0 {
			continue
		}
		n := int(region.NumCandidates())
		if budget.MaxCandidates > 0 && total+n > budget.MaxCandidates {
			n = budget.MaxCandidates - total
			if n <= 0 {
				break
			}
		}
		positions := make([]uint64, 0, n)
		positions = index.LocateInterval(region.Lo, region.Lo+uint64(n), positions)
		for _, textPos := range positions {
			anchorOffset := keySourceOffset + region.Begin
			begin := int64(textPos) - int64(anchorOffset) - int64(maxError)
			end := int64(textPos) - int64(anchorOffset) + int64(profile.PatternLength) + int64(maxError)
			if begin < 0 {
				begin = 0
			}
			if uint64(end) > genomeLength {
				end = int64(genomeLength)
			}
			if begin >= end {
				continue
			}
			t.Insert(&candInterval{
				begin: int(begin), end: int(end), id: nextID,
				region: FilteringRegion{Begin: uint64(begin), End: uint64(end), RegionLo: region.Lo, RegionHi: region.Hi},
			}, false)
			nextID++
		}
		total += n
	}

	var merged []FilteringRegion
	t.Do(func(iv interval.IntInterface) bool {
		merged = append(merged, iv.(*candInterval).region)
		return false
	})
	sort.Slice(merged, func(i, j int) bool { return merged[i].Begin < merged[j].Begin })

	out := merged[:0]
	for _, r := range merged {
		if len(out) > 0 && r.Begin <= out[len(out)-1].End {
			if r.End > out[len(out)-1].End {
				out[len(out)-1].End = r.End
			}
			continue
		}
		out = append(out, r)
	}
	return out
}
