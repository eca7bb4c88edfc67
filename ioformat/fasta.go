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
	"bytes"
	"io"
)

// FASTAScanner is a minimal multi-line-per-record FASTA reader: each
// record is a ">"-prefixed header line followed by one or more
// sequence lines, concatenated into a single Seq.
type FASTAScanner struct {
	b       *bufio.Scanner
	err     error
	pending []byte
	primed  bool
}

// NewFASTAScanner constructs a scanner reading FASTA records from r.
func NewFASTAScanner(r io.Reader) *FASTAScanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &FASTAScanner{b: s}
}

// Next returns the next record, or ErrEOF once the stream is exhausted.
func (f *FASTAScanner) Next() (Record, error) {
	if f.err != nil {
		return Record{}, f.err
	}

	var header []byte
	if f.primed {
		header = f.pending
		f.primed = false
	} else {
		if !f.advanceToHeader() {
			return Record{}, f.err
		}
		header = append([]byte(nil), f.b.Bytes()...)
	}

	var seq bytes.Buffer
	for f.b.Scan() {
		line := f.b.Bytes()
		if len(line) > 0 && line[0] == '>' {
			f.pending = append([]byte(nil), line...)
			f.primed = true
			break
		}
		seq.Write(line)
	}
	if !f.primed {
		f.err = f.finish()
	}

	return Record{ID: header[1:], Seq: append([]byte(nil), seq.Bytes()...)}, nil
}

func (f *FASTAScanner) advanceToHeader() bool {
	for f.b.Scan() {
		if line := f.b.Bytes(); len(line) > 0 && line[0] == '>' {
			return true
		}
	}
	f.err = f.finish()
	return false
}

func (f *FASTAScanner) finish() error {
	if err := f.b.Err(); err != nil {
		return err
	}
	return ErrEOF
}
