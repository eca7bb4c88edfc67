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

// Package seeding extracts a region profile from a read: a partition of
// the read into filtering regions whose BWT intervals are cheap to
// decode into candidates.
package seeding

// Model holds the adaptive region-profile generation thresholds.
type Model struct {
	RegionTh     uint64 // max candidates allowed before a region is considered "found"
	MaxSteps     uint64 // max extra characters explored trying to shrink a region further
	DecFactor    uint64 // required shrink factor per step to keep exploring
	RegionTypeTh uint64 // candidate-count threshold separating unique from standard regions
}

// RegionType classifies a region by how many candidates its interval has.
type RegionType int

const (
	RegionUnique RegionType = iota
	RegionStandard
	RegionGap
)

// Region is one filtering region of the profile: a half-open range [Begin,
// End) over the read (backward-search order, so End > Begin is populated
// right-to-left) together with the BWT interval the region's substring
// maps to.
type Region struct {
	Begin, End uint64
	Type       RegionType
	Lo, Hi     uint64
}

// NumCandidates returns the region's BWT interval cardinality.
func (r Region) NumCandidates() uint64 { return r.Hi - r.Lo }

// Profile is the full region partition of a read.
type Profile struct {
	PatternLength      uint64
	Regions            []Region
	NumStandardRegions int
	NumUniqueRegions   int
	NumZeroRegions     int
	TotalCandidates    uint64
	MaxRegionLength     uint64
}

// HasExactMatches reports whether the profile is a single region spanning
// the whole read, i.e. the read matched the index without partitioning.
func (p *Profile) HasExactMatches() bool {
	return len(p.Regions) == 1 && p.Regions[0].Begin == 0 && p.Regions[0].End == p.PatternLength
}
