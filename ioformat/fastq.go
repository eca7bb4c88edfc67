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
	"bufio"
	"io"

	"github.com/pkg/errors"
)

// ErrShortFASTQ is returned when a FASTQ stream ends mid-record.
var ErrShortFASTQ = errors.New("ioformat: short FASTQ record")

// ErrInvalidFASTQ is returned when a record's ID or separator line does
// not carry its required leading marker byte.
var ErrInvalidFASTQ = errors.New("ioformat: malformed FASTQ record")

// FASTQScanner is a minimal four-line-per-record FASTQ reader, built on
// bufio.Scanner and trimmed to the one shape package search needs: ID,
// sequence, and quality, with the "+"-prefixed third line discarded
// rather than stored.
type FASTQScanner struct {
	b   *bufio.Scanner
	err error
}

// NewFASTQScanner constructs a scanner reading FASTQ records from r.
func NewFASTQScanner(r io.Reader) *FASTQScanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &FASTQScanner{b: s}
}

// Next returns the next record, or ErrEOF once the stream is exhausted.
func (f *FASTQScanner) Next() (Record, error) {
	if f.err != nil {
		return Record{}, f.err
	}
	if !f.b.Scan() {
		return Record{}, f.finish()
	}
	id := append([]byte(nil), f.b.Bytes()...)
	if len(id) == 0 || id[0] != '@' {
		f.err = ErrInvalidFASTQ
		return Record{}, f.err
	}

	if !f.scanLine() {
		return Record{}, f.err
	}
	seq := append([]byte(nil), f.b.Bytes()...)

	if !f.scanLine() {
		return Record{}, f.err
	}
	sep := f.b.Bytes()
	if len(sep) == 0 || sep[0] != '+' {
		f.err = ErrInvalidFASTQ
		return Record{}, f.err
	}

	if !f.scanLine() {
		return Record{}, f.err
	}
	qual := append([]byte(nil), f.b.Bytes()...)

	return Record{ID: id[1:], Seq: seq, Qual: qual}, nil
}

func (f *FASTQScanner) scanLine() bool {
	if f.b.Scan() {
		return true
	}
	f.err = f.finish()
	if f.err == ErrEOF {
		f.err = ErrShortFASTQ
	}
	return false
}

func (f *FASTQScanner) finish() error {
	if err := f.b.Err(); err != nil {
		return err
	}
	return ErrEOF
}
