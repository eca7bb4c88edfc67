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
	"github.com/pkg/errors"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"

	"github.com/grailbio/gemgo/matches"
)

// SAMWriter is the narrow output collaborator package search/worker
// write aligned reads through; a MAP-format emitter can satisfy the
// same interface without either caller or this package committing to
// one wire format.
type SAMWriter interface {
	Write(read Record, trace matches.MatchTrace) error
	// WriteUnmapped emits read with no alignment: SAM flag 4 and reason
	// describing why the search stage produced nothing to write, a
	// per-read diagnostic rather than dropping the read from output
	// entirely.
	WriteUnmapped(read Record, reason string) error
	Close() error
}

var cigarOpCode = map[byte]sam.CigarOpType{
	matches.OpMatch:    sam.CigarMatch,
	matches.OpMismatch: sam.CigarMismatch,
	matches.OpInsert:   sam.CigarInsertion,
	matches.OpDelete:   sam.CigarDeletion,
}

// HTSWriter emits alignments as BAM records through hts/sam and hts/bam:
// this package owns only the MatchTrace -> sam.Record translation, not a
// binary format encoder.
type HTSWriter struct {
	ref *sam.Reference
	w   *bam.Writer
}

// NewHTSWriter wraps w, writing single-reference alignments against
// ref (the one contiguous reference sequence an Index represents).
func NewHTSWriter(header *sam.Header, ref *sam.Reference, w *bam.Writer) *HTSWriter {
	return &HTSWriter{ref: ref, w: w}
}

// Write translates one read's curated alignment into a sam.Record and
// writes it.
func (h *HTSWriter) Write(read Record, trace matches.MatchTrace) error {
	cigar := make(sam.Cigar, 0, len(trace.CIGAR.Ops))
	for _, op := range trace.CIGAR.Ops {
		code, ok := cigarOpCode[op.Op]
		if !ok {
			return errors.Errorf("ioformat: unmapped CIGAR op %q", string(op.Op))
		}
		cigar = append(cigar, sam.NewCigarOp(code, int(op.N)))
	}

	rec := sam.GetFromFreePool()
	rec.Name = string(read.ID)
	rec.Ref = h.ref
	rec.Pos = int(trace.TextPosition)
	rec.MateRef = nil
	rec.MatePos = -1
	if trace.Strand == matches.Reverse {
		rec.Flags = sam.Reverse
	}
	rec.Cigar = cigar
	rec.Seq = sam.NewSeq(read.Seq)
	rec.Qual = read.Qual
	if rec.Qual == nil {
		rec.Qual = make([]byte, len(read.Seq))
		for i := range rec.Qual {
			rec.Qual[i] = 0xff
		}
	}

	if err := h.w.Write(rec); err != nil {
		return errors.Wrap(err, "ioformat: writing SAM record")
	}
	return nil
}

var causeTag = sam.Tag{'Z', 'C'}

// WriteUnmapped emits read as flag-4 (unmapped), tagging it with reason
// under the "ZC" ("cause") user-space aux field as a per-read diagnostic.
func (h *HTSWriter) WriteUnmapped(read Record, reason string) error {
	rec := sam.GetFromFreePool()
	rec.Name = string(read.ID)
	rec.Ref = nil
	rec.Pos = -1
	rec.MateRef = nil
	rec.MatePos = -1
	rec.Flags = sam.Unmapped
	rec.Seq = sam.NewSeq(read.Seq)
	rec.Qual = read.Qual
	if rec.Qual == nil {
		rec.Qual = make([]byte, len(read.Seq))
		for i := range rec.Qual {
			rec.Qual[i] = 0xff
		}
	}
	if reason != "" {
		if aux, err := sam.NewAux(causeTag, reason); err == nil {
			rec.AuxFields = append(rec.AuxFields, aux)
		}
	}

	if err := h.w.Write(rec); err != nil {
		return errors.Wrap(err, "ioformat: writing unmapped SAM record")
	}
	return nil
}

// Close closes the underlying BAM writer.
func (h *HTSWriter) Close() error {
	return h.w.Close()
}
