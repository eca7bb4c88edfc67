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
package main

/*
gemgo-map aligns short reads against a prebuilt archive: for each read (or
read pair) it runs the region-profile / candidate-generation / BPM /
SWG pipeline in package search and emits one BAM record per read: its
best-scoring placement, or an unmapped record.
*/

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"

	"github.com/grailbio/gemgo/archive"
	"github.com/grailbio/gemgo/arena"
	"github.com/grailbio/gemgo/dna"
	"github.com/grailbio/gemgo/fmindex"
	"github.com/grailbio/gemgo/gpu"
	"github.com/grailbio/gemgo/ioformat"
	"github.com/grailbio/gemgo/matches"
	"github.com/grailbio/gemgo/paired"
	"github.com/grailbio/gemgo/search"
	"github.com/grailbio/gemgo/worker"
)

// slabSegmentSize is the arena pool's growth unit; see package arena's
// doc comment on SlabPool for why a single, generous segment size is
// simpler than tuning per workload.
const slabSegmentSize = 1 << 20

// Exit codes distinguish usage errors from input, archive, I/O, and
// internal failures so scripts calling this command can branch on why
// it failed.
const (
	exitSuccess     = 0
	exitUsage       = 1
	exitInputFormat = 2
	exitArchiveLoad = 3
	exitIO          = 4
	exitInternal    = 5
)

var (
	archivePath      = flag.String("I", "", "archive path (required)")
	inputPaths       = flag.String("i", "", "input reads: in[,in2] for paired-end (required)")
	outputPath       = flag.String("o", "-", "output BAM path, or - for stdout")
	threads          = flag.Int("t", 1, "worker count")
	maxErrorRate     = flag.Float64("e", 0.04, "max effective edit distance, as a fraction of read length")
	maxBandwidthRate = flag.Float64("s", 0.2, "SWG bandwidth, as a fraction of read length")
	minIdentity      = flag.Float64("min-identity", 0.80, "minimum fraction of matching bases")
	gpuFlag          = flag.String("gpu", "off", "use GPU offload buffers if available: on|off")
	peMin            = flag.Uint64("pe-min", 0, "minimum paired-end insert size (0 = auto)")
	peMax            = flag.Uint64("pe-max", 0, "maximum paired-end insert size (0 = auto)")
	orientations     = flag.String("orientations", "fr", "permitted concordant orientations (fr, rf, ff)")
	leftGapAlignment = flag.Bool("left-gap-alignment", true, "gap placement tiebreak")
)

func mapUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s -I archive -i reads.fastq[,mate.fastq] [OPTIONS]\n", os.Args[0])
	flag.PrintDefaults()
}

func fail(code int, format string, args ...interface{}) {
	log.Error.Printf(format, args...)
	os.Exit(code)
}

func main() {
	flag.Usage = mapUsage
	shutdown := grail.Init()
	defer shutdown()

	if *archivePath == "" || *inputPaths == "" {
		mapUsage()
		os.Exit(exitUsage)
	}
	var orientation paired.Orientation
	switch *orientations {
	case "fr":
		orientation = paired.OrientationFR
	case "rf":
		orientation = paired.OrientationRF
	case "ff":
		orientation = paired.OrientationFF
	default:
		fail(exitUsage, "gemgo-map: --orientations must be one of fr, rf, ff, got %q", *orientations)
	}
	gpu.SetEnabled(strings.EqualFold(*gpuFlag, "on"))

	ctx := vcontext.Background()

	idx, closeIdx, err := archive.Load(*archivePath)
	if err != nil {
		fail(exitArchiveLoad, "gemgo-map: loading archive %s: %v", *archivePath, err)
	}
	defer closeIdx()

	textPath := *archivePath + ".text"
	text, closeText, err := archive.LoadPackedText(textPath)
	if err != nil {
		fail(exitArchiveLoad, "gemgo-map: loading reference text %s: %v", textPath, err)
	}
	defer closeText()

	inPaths := strings.Split(*inputPaths, ",")
	if len(inPaths) > 2 {
		fail(exitUsage, "gemgo-map: -i accepts at most two comma-separated paths, got %d", len(inPaths))
	}

	samWriter, closeOut, err := openOutput(ctx, *outputPath, *archivePath, idx)
	if err != nil {
		fail(exitIO, "gemgo-map: opening output %s: %v", *outputPath, err)
	}
	defer closeOut()

	patternOpts := search.PatternOpts{
		ErrorRate:       *maxErrorRate,
		BandwidthFactor: *maxBandwidthRate / *maxErrorRate,
	}
	searchOpts := search.DefaultOpts
	searchOpts.GenomeLength = idx.Length()
	searchOpts.SWG.MinIdentity = *minIdentity
	searchOpts.SWG.LeftGapAlignment = *leftGapAlignment

	pairedOpts := paired.Opts{
		MinInsert:    *peMin,
		MaxInsert:    *peMax,
		ExtendWindow: 500,
		Orientation:  orientation,
	}
	if pairedOpts.MaxInsert == 0 {
		// "auto": permit anything until the running insert-size model
		// converges on a tighter estimate.
		pairedOpts.MaxInsert = 1 << 20
	}

	if len(inPaths) == 2 {
		if err := runPaired(ctx, idx, text, inPaths[0], inPaths[1], patternOpts, searchOpts, pairedOpts, samWriter); err != nil {
			fail(exitCodeFor(err), "gemgo-map: %v", err)
		}
	} else {
		if err := runSingle(ctx, idx, text, inPaths[0], patternOpts, searchOpts, samWriter); err != nil {
			fail(exitCodeFor(err), "gemgo-map: %v", err)
		}
	}

	os.Exit(exitSuccess)
}

// classifiedError carries the exit code its cause should map to, so a
// single error return from runSingle/runPaired can still distinguish
// "bad input record" from "disk full" at the top of main.
type classifiedError struct {
	code int
	err  error
}

func (e *classifiedError) Error() string { return e.err.Error() }
func (e *classifiedError) Unwrap() error { return e.err }

func exitCodeFor(err error) int {
	if ce, ok := err.(*classifiedError); ok {
		return ce.code
	}
	return exitInternal
}

func openOutput(ctx context.Context, outPath, archivePathForName string, idx *fmindex.Index) (ioformat.SAMWriter, func() error, error) {
	var w io.Writer
	var closeFn func() error
	if outPath == "-" || outPath == "" {
		w = os.Stdout
		closeFn = func() error { return nil }
	} else {
		dst, err := file.Create(ctx, outPath)
		if err != nil {
			return nil, nil, err
		}
		w = dst.Writer(ctx)
		closeFn = func() error { return dst.Close(ctx) }
	}

	refName := strings.TrimSuffix(path.Base(archivePathForName), path.Ext(archivePathForName))
	ref, err := sam.NewReference(refName, "", "", int(idx.Length()), nil, nil)
	if err != nil {
		return nil, nil, err
	}
	header, err := sam.NewHeader(nil, []*sam.Reference{ref})
	if err != nil {
		return nil, nil, err
	}
	bw, err := bam.NewWriter(w, header, *threads)
	if err != nil {
		return nil, nil, err
	}
	htsWriter := ioformat.NewHTSWriter(header, ref, bw)
	return htsWriter, func() error {
		err := htsWriter.Close()
		if cerr := closeFn(); err == nil {
			err = cerr
		}
		return err
	}, nil
}

// recordReader is the shape both ioformat.FASTAReader and
// ioformat.FASTQReader already satisfy; declared locally so openReader
// can return either scanner behind one interface.
type recordReader interface {
	Next() (ioformat.Record, error)
}

func openReader(ctx context.Context, p string) (recordReader, func() error, error) {
	f, err := file.Open(ctx, p)
	if err != nil {
		return nil, nil, err
	}
	r := f.Reader(ctx)
	if u := compress.NewReaderPath(r, p); u != nil {
		r = u
	}
	closeFn := func() error { return f.Close(ctx) }

	switch path.Ext(strings.TrimSuffix(p, ".gz")) {
	case ".fa", ".fasta", ".fna":
		return ioformat.NewFASTAScanner(r), closeFn, nil
	default:
		return ioformat.NewFASTQScanner(r), closeFn, nil
	}
}

// writeResult emits one read's search outcome: its best-scoring trace if
// any were found (by Score, ties broken by lowest EditDistance), or an
// unmapped record tagging why not, so every input read gets exactly one
// output record.
func writeResult(w ioformat.SAMWriter, rec ioformat.Record, traces []matches.MatchTrace, searchErr error) error {
	if searchErr != nil {
		return w.WriteUnmapped(rec, searchErr.Error())
	}
	if len(traces) == 0 {
		return w.WriteUnmapped(rec, "no alignment found")
	}
	best := traces[0]
	for _, tr := range traces[1:] {
		if tr.Score > best.Score || (tr.Score == best.Score && tr.EditDistance < best.EditDistance) {
			best = tr
		}
	}
	return w.Write(rec, best)
}

func runSingle(ctx context.Context, idx *fmindex.Index, text *dna.PackedText, inPath string, patternOpts search.PatternOpts, searchOpts search.Opts, out ioformat.SAMWriter) error {
	in, closeIn, err := openReader(ctx, inPath)
	if err != nil {
		return &classifiedError{exitIO, err}
	}
	defer closeIn()

	searchFn := func(ts *worker.ThreadState, rec worker.Record) ([]matches.MatchTrace, error) {
		pattern := search.CompilePattern(rec.Seq, patternOpts)
		return search.Search(ctx, idx, text, pattern, searchOpts, ts)
	}

	var writeErr error
	pool := worker.NewPool(*threads, arena.NewSlabPool(slabSegmentSize), searchFn, func(blockNum int, results []worker.RecordResult) error {
		for _, r := range results {
			rec := ioformat.Record{ID: r.Record.Name, Seq: r.Record.Seq, Qual: r.Record.Qual}
			if err := writeResult(out, rec, r.Matches, r.Err); err != nil {
				writeErr = err
				return err
			}
		}
		return nil
	}, *threads*2)

	const blockSize = 256
	var block []worker.Record
	for {
		rec, err := in.Next()
		if err == ioformat.ErrEOF {
			break
		}
		if err != nil {
			return &classifiedError{exitInputFormat, err}
		}
		block = append(block, worker.Record{Name: rec.ID, Seq: rec.Seq, Qual: rec.Qual})
		if len(block) >= blockSize {
			pool.Submit(block)
			block = nil
		}
	}
	if len(block) > 0 {
		pool.Submit(block)
	}
	if err := pool.Close(); err != nil {
		return &classifiedError{exitIO, err}
	}
	if writeErr != nil {
		return &classifiedError{exitIO, writeErr}
	}
	return nil
}

// pairSeparator joins two reads (and, separately, two quality strings)
// into one worker.Record: worker's per-read unit of work becomes one
// read pair rather than one read, so the same ordered worker pool that
// serves single-end mode also serves paired-end mode. 0x00 never
// appears in a validated read or quality string.
const pairSeparator = 0x00

func runPaired(ctx context.Context, idx *fmindex.Index, text *dna.PackedText, path1, path2 string, patternOpts search.PatternOpts, searchOpts search.Opts, pairedOpts paired.Opts, out ioformat.SAMWriter) error {
	in1, close1, err := openReader(ctx, path1)
	if err != nil {
		return &classifiedError{exitIO, err}
	}
	defer close1()
	in2, close2, err := openReader(ctx, path2)
	if err != nil {
		return &classifiedError{exitIO, err}
	}
	defer close2()

	insertSizes := paired.NewInsertSizeModel(50, 3.0, 0.1)

	searchFn := func(ts *worker.ThreadState, rec worker.Record) ([]matches.MatchTrace, error) {
		read1, read2, _, _ := splitPairedRecord(rec)
		var outErr error
		pairSearch := func(read []byte) []matches.MatchTrace {
			pattern := search.CompilePattern(read, patternOpts)
			traces, err := search.Search(ctx, idx, text, pattern, searchOpts, ts)
			if err != nil {
				outErr = err
			}
			return traces
		}
		pairExtend := func(read []byte, windowBegin, windowEnd uint64) []matches.MatchTrace {
			pattern := search.CompilePattern(read, patternOpts)
			return search.ExtendLocal(text, windowBegin, windowEnd, pattern, searchOpts)
		}

		ctrl := paired.NewController(pairedOpts, pairSearch, pairExtend, read1, read2, insertSizes)
		ctrl.Run()
		if outErr != nil {
			return nil, outErr
		}

		pairs := ctrl.Pairs()
		if len(pairs) == 0 {
			return nil, nil
		}
		best := pairs[0]
		for _, p := range pairs[1:] {
			if p.End1.Score+p.End2.Score > best.End1.Score+best.End2.Score {
				best = p
			}
		}
		return []matches.MatchTrace{best.End1, best.End2}, nil
	}

	var writeErr error
	pool := worker.NewPool(*threads, arena.NewSlabPool(slabSegmentSize), searchFn, func(blockNum int, results []worker.RecordResult) error {
		for _, r := range results {
			_, _, id1, id2 := splitPairedRecord(r.Record)
			seq1, seq2, qual1, qual2 := splitPairedSeq(r.Record)
			if r.Err != nil || len(r.Matches) != 2 {
				rec1 := ioformat.Record{ID: id1, Seq: seq1, Qual: qual1}
				rec2 := ioformat.Record{ID: id2, Seq: seq2, Qual: qual2}
				if err := writeResult(out, rec1, nil, r.Err); err != nil {
					writeErr = err
					return err
				}
				if err := writeResult(out, rec2, nil, r.Err); err != nil {
					writeErr = err
					return err
				}
				continue
			}
			rec1 := ioformat.Record{ID: id1, Seq: seq1, Qual: qual1}
			rec2 := ioformat.Record{ID: id2, Seq: seq2, Qual: qual2}
			if err := out.Write(rec1, r.Matches[0]); err != nil {
				writeErr = err
				return err
			}
			if err := out.Write(rec2, r.Matches[1]); err != nil {
				writeErr = err
				return err
			}
		}
		return nil
	}, *threads*2)

	const blockSize = 256
	var block []worker.Record
	for {
		rec1, err1 := in1.Next()
		rec2, err2 := in2.Next()
		if err1 == ioformat.ErrEOF && err2 == ioformat.ErrEOF {
			break
		}
		if err1 != nil && err1 != ioformat.ErrEOF {
			return &classifiedError{exitInputFormat, err1}
		}
		if err2 != nil && err2 != ioformat.ErrEOF {
			return &classifiedError{exitInputFormat, err2}
		}
		if (err1 == ioformat.ErrEOF) != (err2 == ioformat.ErrEOF) {
			return &classifiedError{exitInputFormat, fmt.Errorf("paired input streams have different lengths")}
		}
		block = append(block, joinPairedRecord(rec1, rec2))
		if len(block) >= blockSize {
			pool.Submit(block)
			block = nil
		}
	}
	if len(block) > 0 {
		pool.Submit(block)
	}
	if err := pool.Close(); err != nil {
		return &classifiedError{exitIO, err}
	}
	if writeErr != nil {
		return &classifiedError{exitIO, writeErr}
	}
	return nil
}

func joinPairedRecord(rec1, rec2 ioformat.Record) worker.Record {
	name := append(append([]byte{}, rec1.ID...), pairSeparator)
	name = append(name, rec2.ID...)
	seq := append(append([]byte{}, rec1.Seq...), pairSeparator)
	seq = append(seq, rec2.Seq...)
	qual := append(append([]byte{}, rec1.Qual...), pairSeparator)
	qual = append(qual, rec2.Qual...)
	return worker.Record{Name: name, Seq: seq, Qual: qual}
}

func splitPairedRecord(rec worker.Record) (read1, read2 []uint8, id1, id2 []byte) {
	seq1, seq2, _, _ := splitPairedSeq(rec)
	i := bytes.IndexByte(rec.Name, pairSeparator)
	return seq1, seq2, rec.Name[:i], rec.Name[i+1:]
}

func splitPairedSeq(rec worker.Record) (seq1, seq2, qual1, qual2 []byte) {
	si := bytes.IndexByte(rec.Seq, pairSeparator)
	seq1, seq2 = rec.Seq[:si], rec.Seq[si+1:]
	if len(rec.Qual) == 0 {
		return seq1, seq2, nil, nil
	}
	qi := bytes.IndexByte(rec.Qual, pairSeparator)
	return seq1, seq2, rec.Qual[:qi], rec.Qual[qi+1:]
}
