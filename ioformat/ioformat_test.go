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

package ioformat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFASTQScannerReadsRecords(t *testing.T) {
	in := "@read1\nACGT\n+\nIIII\n@read2\nGGCC\n+ignored\nJJJJ\n"
	s := NewFASTQScanner(strings.NewReader(in))

	r1, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, "read1", string(r1.ID))
	assert.Equal(t, "ACGT", string(r1.Seq))
	assert.Equal(t, "IIII", string(r1.Qual))

	r2, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, "read2", string(r2.ID))
	assert.Equal(t, "GGCC", string(r2.Seq))
	assert.Equal(t, "JJJJ", string(r2.Qual))

	_, err = s.Next()
	assert.Equal(t, ErrEOF, err)
}

func TestFASTQScannerRejectsMissingAtMarker(t *testing.T) {
	s := NewFASTQScanner(strings.NewReader("read1\nACGT\n+\nIIII\n"))
	_, err := s.Next()
	assert.Equal(t, ErrInvalidFASTQ, err)
}

func TestFASTQScannerRejectsTruncatedRecord(t *testing.T) {
	s := NewFASTQScanner(strings.NewReader("@read1\nACGT\n"))
	_, err := s.Next()
	assert.Equal(t, ErrShortFASTQ, err)
}

func TestFASTAScannerReadsMultilineRecords(t *testing.T) {
	in := ">chr1\nACGT\nACGT\n>chr2\nGGCC\n"
	s := NewFASTAScanner(strings.NewReader(in))

	r1, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, "chr1", string(r1.ID))
	assert.Equal(t, "ACGTACGT", string(r1.Seq))

	r2, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, "chr2", string(r2.ID))
	assert.Equal(t, "GGCC", string(r2.Seq))

	_, err = s.Next()
	assert.Equal(t, ErrEOF, err)
}
