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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCIGARAddMergesRuns(t *testing.T) {
	var c CIGAR
	c.Add(OpMatch)
	c.Add(OpMatch)
	c.Add(OpDelete)
	c.Add(OpMatch)
	assert.Equal(t, []CIGAROp{{N: 2, Op: OpMatch}, {N: 1, Op: OpDelete}, {N: 1, Op: OpMatch}}, c.Ops)
}

func TestCIGARStringReversesBacktraceOrder(t *testing.T) {
	var c CIGAR
	// Built back-to-front, as a traceback would.
	c.Add(OpMatch)
	c.Add(OpDelete)
	c.Add(OpMatch)
	c.Add(OpMatch)
	assert.Equal(t, "2M1D1M", c.String())
}

func TestCIGARSummaryStats(t *testing.T) {
	var c CIGAR
	c.Ops = []CIGAROp{{N: 10, Op: OpMatch}, {N: 2, Op: OpMismatch}, {N: 1, Op: OpDelete}, {N: 3, Op: OpInsert}}
	assert.Equal(t, 6, c.EditDistance())
	assert.Equal(t, 10, c.MatchingBases())
	assert.Equal(t, 13, c.EffectiveReferenceLength())
}

func TestVectorResetKeepsBackingArray(t *testing.T) {
	var v Vector
	tr := v.Append()
	tr.TextPosition = 42
	assert.Equal(t, 1, v.Len())
	v.Reset()
	assert.Equal(t, 0, v.Len())
	tr2 := v.Append()
	assert.Equal(t, uint64(0), tr2.TextPosition)
}
