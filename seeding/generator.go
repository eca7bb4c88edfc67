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

package seeding

import "github.com/grailbio/gemgo/fmindex"

// generator walks a read right-to-left, extending a running BWT interval
// one character at a time and deciding where to cut off each region. It is
// the Go analog of region_profile_generator_t: the field names below
// mirror its C counterpart closely enough that the three builders below
// read like transliterations of the adaptive/fixed/limited C generators.
type generator struct {
	index *fmindex.Index
	key   []uint8

	keyPosition int // next (right-to-left) character to consume
	lo, hi      uint64
	query       *fmindex.Query // tracks depth since the last restart, for RankTable lookups

	lastCut     int
	loCut, hiCut uint64

	expectedCount uint64
	maxSteps      uint64

	allowZeroRegions bool
	allowedEnc       func(uint8) bool

	profile *Profile
}

func newGenerator(index *fmindex.Index, key []uint8, allowedEnc func(uint8) bool, allowZeroRegions bool) *generator {
	g := &generator{
		index:            index,
		key:              key,
		keyPosition:      len(key),
		allowedEnc:       allowedEnc,
		allowZeroRegions: allowZeroRegions,
		profile:          &Profile{PatternLength: uint64(len(key))},
	}
	g.restart()
	return g
}

// restart resets the running BWT interval to the full range, the state
// region_profile_generator_restart resets between regions.
func (g *generator) restart() {
	g.lastCut = 0
	g.lo, g.hi = 0, g.index.Length()
	g.query = fmindex.NewQuery()
}

func (g *generator) saveCutPoint() {
	g.lastCut = g.keyPosition
	g.loCut, g.hiCut = g.lo, g.hi
}

// closeRegion appends a finished region with interval [lo,hi) spanning
// [keyPosition, end) of the key, classifying it by candidate count.
func (g *generator) closeRegion(model Model, end int, lo, hi uint64) {
	p := g.profile
	regionLen := uint64(end - g.keyPosition)
	if regionLen > p.MaxRegionLength {
		p.MaxRegionLength = regionLen
	}
	r := Region{Begin: uint64(g.keyPosition), End: uint64(end), Lo: lo, Hi: hi}
	candidates := hi - lo
	if candidates <= model.RegionTypeTh {
		r.Type = RegionUnique
		if candidates == 0 {
			p.NumZeroRegions++
		} else {
			p.NumUniqueRegions++
		}
	} else {
		r.Type = RegionStandard
		p.NumStandardRegions++
	}
	p.TotalCandidates += candidates
	p.Regions = append(p.Regions, r)
}

// queryCharacter extends the running interval by one character. g.query
// tracks how many characters have accumulated since the last restart, so
// this reaches the rank memoization table the same way BackwardSearch
// does, and falls back to plain BWT ranks once the query exhausts the
// table's depth.
func (g *generator) queryCharacter(enc uint8) {
	key := []uint8{enc}
	lo, hi, _ := g.index.Extend(g.lo, g.hi, key, 0, 1, nil, g.query)
	g.lo, g.hi = lo, hi
}

// addCharacter implements region_profile_generator_add_character: decides
// whether the region just extended should close here, keep growing, or
// abandon the extension and fall back to the last saved cut point.
func (g *generator) addCharacter(model Model) bool {
	lo, hi := g.lo, g.hi
	numCandidates := hi - lo
	if numCandidates > model.RegionTh {
		return false
	}
	if numCandidates > 0 {
		if g.keyPosition == 0 {
			g.closeRegion(model, g.keyPosition, lo, hi)
			g.restart()
			return true
		}
		if g.lastCut == 0 {
			g.saveCutPoint()
			g.expectedCount = numCandidates
			g.maxSteps = model.MaxSteps
			return false
		}
		g.expectedCount /= model.DecFactor
		if numCandidates <= g.expectedCount || numCandidates <= model.RegionTypeTh {
			g.saveCutPoint()
		}
		g.maxSteps--
		if g.maxSteps == 0 {
			g.keyPosition = g.lastCut
			g.closeRegion(model, g.lastCut, g.loCut, g.hiCut)
			g.restart()
			return true
		}
		return false
	}
	// numCandidates == 0
	if g.allowZeroRegions || g.lastCut == 0 {
		g.closeRegion(model, g.keyPosition, lo, hi)
		g.restart()
		return true
	}
	g.keyPosition = g.lastCut
	g.closeRegion(model, g.lastCut, g.loCut, g.hiCut)
	g.restart()
	return true
}

// disallowCharacter handles a wildcard character: it closes any
// in-progress region (if a cut point exists) and skips over the run of
// disallowed characters.
func (g *generator) disallowCharacter(model Model) bool {
	newRegion := false
	if g.lastCut != 0 {
		g.keyPosition++
		g.closeRegion(model, g.keyPosition, g.lo, g.hi)
		g.keyPosition--
		newRegion = true
	}
	for g.keyPosition > 0 && !g.allowedEnc(g.key[g.keyPosition-1]) {
		g.keyPosition--
	}
	g.restart()
	return newRegion
}

// closeProfile finalizes the profile once the whole key has been consumed:
// an exact-match read (no regions cut at all, full interval still live)
// becomes a single region; otherwise the last region is extended if the
// caller allows zero-candidate regions.
func (g *generator) closeProfile(model Model) {
	p := g.profile
	if len(p.Regions) == 0 {
		if g.keyPosition == 0 && g.lo < g.hi {
			p.Regions = []Region{{Begin: 0, End: p.PatternLength, Lo: g.lo, Hi: g.hi, Type: RegionStandard}}
			p.NumStandardRegions = 1
		}
		return
	}
	last := &p.Regions[len(p.Regions)-1]
	if last.Begin > p.MaxRegionLength {
		p.MaxRegionLength = last.Begin
	}
}
