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

package paired

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// InsertSizeModel tracks the observed template-length distribution across
// many read pairs and decides when it has converged enough that the
// paired-end controller can shortcut end 2's search instead of running
// it independently.
type InsertSizeModel struct {
	mu             sync.Mutex
	samples        []float64
	minSamples     int
	confidenceZ    float64 // e.g. 1.96 for a 95% interval
	maxRelStdError float64 // convergence bar: confidenceZ*stderr/mean of the running sample
}

// NewInsertSizeModel returns a model that reports convergence once at
// least minSamples template lengths have been observed and confidenceZ
// times the sample's standard error, relative to its mean, is at or below
// maxRelStdError.
func NewInsertSizeModel(minSamples int, confidenceZ, maxRelStdError float64) *InsertSizeModel {
	return &InsertSizeModel{minSamples: minSamples, confidenceZ: confidenceZ, maxRelStdError: maxRelStdError}
}

// Observe records one more template length.
func (m *InsertSizeModel) Observe(length float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = append(m.samples, length)
}

// Converged reports whether enough template lengths have been observed,
// and whether their distribution's standard error relative to the mean
// has settled under the configured threshold -- i.e. another observation
// is unlikely to move the mean estimate by more than confidenceZ standard
// errors.
func (m *InsertSizeModel) Converged() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.samples)
	if n < m.minSamples {
		return false
	}
	mean := stat.Mean(m.samples, nil)
	if mean == 0 {
		return false
	}
	stddev := stat.StdDev(m.samples, nil)
	stdErr := stddev / math.Sqrt(float64(n))
	return (m.confidenceZ*stdErr)/mean <= m.maxRelStdError
}

// Stats returns the current mean and standard deviation of observed
// template lengths.
func (m *InsertSizeModel) Stats() (mean, stddev float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.samples) == 0 {
		return 0, 0
	}
	return stat.Mean(m.samples, nil), stat.StdDev(m.samples, nil)
}
