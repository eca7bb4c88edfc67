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

package matches

// MatchTrace is one candidate's curated alignment: where it lands in the
// reference, its CIGAR, and the scores the curation pass in align/swg
// computed from that CIGAR.
type MatchTrace struct {
	TextPosition uint64
	Strand       Strand
	CIGAR        CIGAR

	EditDistance      int
	MatchingBases     int
	EffectiveRefLen   int
	Score             int32
	Identity          float64
}

// Strand records which strand of the reference a match was found on.
type Strand bool

const (
	Forward Strand = false
	Reverse Strand = true
)

// Vector is an arena-scoped, append-only store of MatchTrace records for
// one read, reused across reads via Reset rather than individually
// recycled -- see the package doc comment on CIGAR for why this diverges
// from a sync.Pool-based scheme.
type Vector struct {
	traces []MatchTrace
}

// Reset truncates the vector for the next read, keeping its backing
// array.
func (v *Vector) Reset() { v.traces = v.traces[:0] }

// Append adds a new, zeroed MatchTrace and returns a pointer to it so the
// caller can fill in its CIGAR without a second allocation.
func (v *Vector) Append() *MatchTrace {
	v.traces = append(v.traces, MatchTrace{})
	return &v.traces[len(v.traces)-1]
}

// Len returns the number of traces currently held.
func (v *Vector) Len() int { return len(v.traces) }

// All returns the traces accumulated so far.
func (v *Vector) All() []MatchTrace { return v.traces }
