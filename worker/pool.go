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

// Package worker runs the bounded search worker pool: each worker loops
// {claim a block -> search every read in it -> hand the block to the
// ordered output drain}, while a single drain goroutine emits completed
// blocks strictly in ascending block order regardless of which worker
// finished them first. This mirrors encoding/bam's ShardedBAMWriter split
// of "per-shard compressor, ordered writer" -- a worker here is the
// compressor, the drain goroutine is the writer.
package worker

import (
	"sync"
	"sync/atomic"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/syncqueue"

	"github.com/grailbio/gemgo/arena"
	"github.com/grailbio/gemgo/matches"
)

// Record is one read submitted for search. Qual is carried through
// untouched for the output stage (cmd/gemgo-map's SAM emission); nothing
// in this package or package search reads it.
type Record struct {
	Name []byte
	Seq  []byte
	Qual []byte
}

// SearchFunc runs the full search pipeline for one read using the calling
// worker's own ThreadState, returning its match traces. Kept as an
// injected callback (rather than an import of package search) so this
// package never depends on the orchestration layer built on top of it;
// cmd/gemgo-map wires the two together.
type SearchFunc func(ts *ThreadState, rec Record) ([]matches.MatchTrace, error)

// RecordResult pairs one record with its search outcome. A per-read
// error never aborts its block: it is carried alongside a nil match list
// so the output stage can tag it and move on rather than aborting the
// whole run.
type RecordResult struct {
	Record  Record
	Matches []matches.MatchTrace
	Err     error
}

// Sink receives completed blocks strictly in ascending block-number
// order, starting at 0.
type Sink func(blockNum int, results []RecordResult) error

type job struct {
	num     int
	records []Record
}

// Pool is a bounded pool of search worker goroutines draining numbered
// input blocks and emitting results to a Sink in strictly ascending block
// order.
type Pool struct {
	search   SearchFunc
	slabPool *arena.SlabPool
	sink     Sink

	jobs chan job
	out  *syncqueue.OrderedQueue

	nextBlock int64 // atomic; Submit's claim point for the next block number

	workersWG sync.WaitGroup
	drainWG   sync.WaitGroup

	mu    sync.Mutex
	fatal error
}

// NewPool starts numWorkers search goroutines, each with its own
// ThreadState backed by slabPool. queueSize bounds how far the ordered
// output queue may let a fast worker get ahead of a slow one before
// Insert blocks (see syncqueue.OrderedQueue).
func NewPool(numWorkers int, slabPool *arena.SlabPool, search SearchFunc, sink Sink, queueSize int) *Pool {
	p := &Pool{
		search:   search,
		slabPool: slabPool,
		sink:     sink,
		jobs:     make(chan job, numWorkers),
		out:      syncqueue.NewOrderedQueue(queueSize),
	}
	p.workersWG.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go p.runWorker()
	}
	p.drainWG.Add(1)
	go p.drain()
	return p
}

// Submit assigns the next block number to records and enqueues the block
// for a worker to claim. Submit is itself the atomic claim point
// (sync/atomic counter), so callers must call it from a single reader
// goroutine that partitions input into blocks for the pool of search
// workers.
func (p *Pool) Submit(records []Record) {
	num := int(atomic.AddInt64(&p.nextBlock, 1)) - 1
	p.jobs <- job{num: num, records: records}
}

// Close signals that no more blocks will be submitted, waits for every
// worker and the drain goroutine to finish, and returns the first fatal
// error encountered (an ordered-queue or sink failure), if any. Per-read
// search errors are never fatal; see RecordResult.
func (p *Pool) Close() error {
	close(p.jobs)
	p.workersWG.Wait()
	if err := p.out.Close(nil); err != nil {
		p.recordFatal(err)
	}
	p.drainWG.Wait()
	return p.fatalErr()
}

func (p *Pool) recordFatal(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fatal == nil {
		p.fatal = err
	}
}

func (p *Pool) fatalErr() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fatal
}

func (p *Pool) runWorker() {
	defer p.workersWG.Done()
	ts := newThreadState(p.slabPool)
	defer ts.Close()

	for j := range p.jobs {
		results := make([]RecordResult, len(j.records))
		for i, rec := range j.records {
			ts.Reset()
			traces, err := p.search(ts, rec)
			if err != nil {
				log.Error.Printf("worker: read %q: %v", rec.Name, err)
			}
			results[i] = RecordResult{Record: rec, Matches: traces, Err: err}
		}
		if err := p.out.Insert(j.num, results); err != nil {
			p.recordFatal(err)
			return
		}
	}
}

func (p *Pool) drain() {
	defer p.drainWG.Done()
	blockNum := 0
	for {
		entry, ok, err := p.out.Next()
		if err != nil {
			p.recordFatal(err)
			return
		}
		if !ok {
			return
		}
		if err := p.sink(blockNum, entry.([]RecordResult)); err != nil {
			p.recordFatal(err)
			return
		}
		blockNum++
	}
}
