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

import "github.com/pkg/errors"

// SamplingRate enumerates the sampling rates the sampled SA supports; all
// are powers of two so Locate's modulus check is a mask operation.
type SamplingRate uint8

// Sampling rate codes, matching the archive file's encoding.
const (
	Rate1 SamplingRate = iota
	Rate2
	Rate4
	Rate8
	Rate16
	Rate32
	Rate64
	Rate128
	Rate256
)

// Value returns the numeric sampling rate r for a SamplingRate code.
func (r SamplingRate) Value() uint64 { return uint64(1) << uint(r) }

// ErrUnsupportedSamplingRate is returned when an archive declares a
// sampling-rate code outside SamplingRate's enumerated range.
var ErrUnsupportedSamplingRate = errors.New("fmindex: unsupported sampled-SA sampling rate code")

// SampledSA is a packed integer array storing SA[i] only at positions
// satisfying i mod r == 0. Locate(i) walks the LF-mapping until it lands on
// a sampled position.
type SampledSA struct {
	indexLength  uint64
	samplingRate uint64
	array        *packedIntArray
}

// BuildSampledSA samples a full suffix array sa (length n+1, including the
// sentinel row) at every r-th position. This is the in-process builder used
// by tests and by the archive writer; full suffix sorting itself is treated
// as an external, offline collaborator.
func BuildSampledSA(sa []uint64, rate SamplingRate) *SampledSA {
	n := uint64(len(sa))
	r := rate.Value()
	numSamples := int((n + r - 1) / r)
	width := bitWidthFor(n)
	arr := newPackedIntArray(numSamples, width)
	for i := uint64(0); i < n; i += r {
		arr.Set(int(i/r), sa[i])
	}
	return &SampledSA{indexLength: n, samplingRate: r, array: arr}
}

// SamplingRateValue returns the numeric sampling rate.
func (s *SampledSA) SamplingRateValue() uint64 { return s.samplingRate }

// IndexLength is the length of the suffix array this structure samples
// (BWT length, including the sentinel row).
func (s *SampledSA) IndexLength() uint64 { return s.indexLength }

// Locate returns SA[i], walking the LF-mapping (supplied by the caller,
// normally BWT.LF) until it reaches a sampled row. The number of steps
// before hitting a sample is bounded by the sampling rate.
func (s *SampledSA) Locate(i uint64, lf func(uint64) uint64) uint64 {
	var steps uint64
	for i%s.samplingRate != 0 {
		i = lf(i)
		steps++
	}
	sample := s.array.Get(int(i / s.samplingRate))
	return (sample + steps) % s.indexLength
}
