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

// Package ioformat holds narrow interfaces onto the input/output file
// formats this module's core never parses or emits itself: FASTA/FASTQ
// reads in, SAM/MAP alignments out. Each interface has exactly one real
// adapter, kept intentionally thin -- full parsing of these formats is
// out of scope for the aligner core, and package search/worker consume
// only the interfaces below, never a concrete reader/writer type.
package ioformat

import "errors"

// Record is one sequencing read: an identifier, its base calls, and
// (for FASTQ) a quality string of the same length as Seq.
type Record struct {
	ID   []byte
	Seq  []byte
	Qual []byte
}

// ErrEOF is returned by a reader once its input is exhausted.
var ErrEOF = errors.New("ioformat: end of input")

// FASTAReader yields one Record per call to Next, with Qual left nil.
type FASTAReader interface {
	Next() (Record, error)
}

// FASTQReader yields one Record per call to Next, with Qual populated.
type FASTQReader interface {
	Next() (Record, error)
}
