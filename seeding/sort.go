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

import "sort"

// SortByCandidates orders regions by ascending candidate count, so the
// candidate generator processes the most selective (cheapest, most
// specific) regions first.
func SortByCandidates(p *Profile) {
	sort.SliceStable(p.Regions, func(i, j int) bool {
		return p.Regions[i].NumCandidates() < p.Regions[j].NumCandidates()
	})
}

// estimatedMappability scores a region by how much it is expected to
// narrow the search: wide regions with few candidates are the most
// mappable. This mirrors GEM3's heuristic of weighting candidate count
// against region length, without needing a second FM-index query.
func estimatedMappability(r Region) float64 {
	length := float64(r.End - r.Begin)
	if length == 0 {
		return 0
	}
	candidates := float64(r.NumCandidates())
	if candidates == 0 {
		candidates = 1
	}
	return length / candidates
}

// SortByEstimatedMappability orders regions by descending estimated
// mappability, so the most informative regions (longest relative to their
// candidate count) are tried first.
func SortByEstimatedMappability(p *Profile) {
	sort.SliceStable(p.Regions, func(i, j int) bool {
		return estimatedMappability(p.Regions[i]) > estimatedMappability(p.Regions[j])
	})
}
