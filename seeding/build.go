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

// BuildAdaptive partitions key into up to maxRegions filtering regions by
// repeatedly extending a backward search until the live interval's
// candidate count drops at or under model.RegionTh (optionally continuing
// a few more characters per model.MaxSteps/DecFactor to shrink it
// further), then cutting a region there. allowedEnc reports whether an
// encoded character participates in FM-index queries (false for
// wildcards/N).
func BuildAdaptive(index *fmindex.Index, key []uint8, allowedEnc func(uint8) bool, model Model, maxRegions uint64, allowZeroRegions bool) *Profile {
	g := newGenerator(index, key, allowedEnc, allowZeroRegions)
	for g.keyPosition > 0 {
		if uint64(len(g.profile.Regions)) >= maxRegions {
			break
		}
		g.keyPosition--
		enc := key[g.keyPosition]
		if !allowedEnc(enc) {
			g.disallowCharacter(model)
		} else {
			g.queryCharacter(enc)
			g.addCharacter(model)
		}
	}
	g.closeProfile(model)
	return g.profile
}

// BuildLimited behaves like BuildAdaptive but guarantees at least
// minRegions regions by capping each region's length at
// len(key)/minRegions, closing a region early if it would otherwise grow
// past that cap.
func BuildLimited(index *fmindex.Index, key []uint8, allowedEnc func(uint8) bool, model Model, minRegions uint64) *Profile {
	g := newGenerator(index, key, allowedEnc, true)
	maxRegionLength := uint64(len(key))
	if minRegions > 0 {
		maxRegionLength = uint64(len(key)) / minRegions
	}
	var regionLength uint64
	for g.keyPosition > 0 {
		g.keyPosition--
		enc := key[g.keyPosition]
		if !allowedEnc(enc) {
			g.disallowCharacter(model)
			regionLength = 0
			continue
		}
		g.queryCharacter(enc)
		regionLength++
		numCandidates := g.hi - g.lo
		if numCandidates <= model.RegionTh || regionLength >= maxRegionLength {
			g.closeRegion(model, g.keyPosition, g.lo, g.hi)
			g.restart()
			regionLength = 0
		}
	}
	g.closeProfile(model)
	return g.profile
}

// BuildFixed partitions key into minRegions equal-length regions of
// len(key)/minRegions characters, cut from the end of the read; any
// remainder becomes one extra, shorter region at the start of the read.
// Each region is resolved to a BWT
// interval by an independent backward search -- no adaptive cutoff, no
// candidate-count feedback.
func BuildFixed(index *fmindex.Index, key []uint8, allowedEnc func(uint8) bool, model Model, minRegions uint64) *Profile {
	p := &Profile{PatternLength: uint64(len(key))}
	if minRegions == 0 {
		minRegions = 1
	}
	regionLength := uint64(len(key)) / minRegions
	if regionLength == 0 {
		regionLength = 1
	}
	end := uint64(len(key))
	for end > 0 {
		begin := end - regionLength
		if regionLength > end {
			begin = 0
		}
		lo, hi := uint64(0), index.Length()
		allAllowed := true
		for i := int(end) - 1; i >= int(begin); i-- {
			if !allowedEnc(key[i]) {
				allAllowed = false
				break
			}
		}
		if allAllowed {
			lo, hi, _ = index.Extend(0, index.Length(), key, int(begin), int(end), nil, fmindex.NewQuery())
		} else {
			lo, hi = 0, 0
		}
		r := Region{Begin: begin, End: end, Lo: lo, Hi: hi}
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
		if end-begin > p.MaxRegionLength {
			p.MaxRegionLength = end - begin
		}
		p.Regions = append(p.Regions, r)
		end = begin
	}
	// Regions were appended right-to-left (as in BuildAdaptive); reverse so
	// callers see them in left-to-right read order. BuildAdaptive does not
	// reverse: its regions stay in right-to-left order.
	for i, j := 0, len(p.Regions)-1; i < j; i, j = i+1, j-1 {
		p.Regions[i], p.Regions[j] = p.Regions[j], p.Regions[i]
	}
	return p
}

// BuildFullProgressive extends an existing (typically adaptive) profile
// to cover the entire read: any gap left uncovered between regions --
// most commonly the prefix left over after region extraction stops early
// -- is filled in as additional regions derived from baseRegion's
// interval, continuing the same backward search baseRegion left off at.
func BuildFullProgressive(index *fmindex.Index, key []uint8, profile *Profile, startRegion int, totalRegions int) {
	if startRegion >= len(profile.Regions) {
		return
	}
	base := profile.Regions[startRegion]
	if base.Begin == 0 {
		return
	}
	lo, hi := base.Lo, base.Hi
	step := base.Begin / uint64(totalRegions)
	if step == 0 {
		step = 1
	}
	end := base.Begin
	for end > 0 {
		begin := end - step
		if step > end {
			begin = 0
		}
		// base.Lo/Hi is itself a continuation of some earlier region's
		// interval, not a full-range restart, so no rank-table query applies
		// here -- only BWT ranks can legally extend from this midpoint.
		lo, hi, _ = index.Extend(lo, hi, key, int(begin), int(end), nil, nil)
		r := Region{Begin: begin, End: end, Lo: lo, Hi: hi, Type: RegionGap}
		profile.Regions = append(profile.Regions, r)
		profile.TotalCandidates += hi - lo
		end = begin
	}
}
