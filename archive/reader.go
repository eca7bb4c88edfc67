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

package archive

import (
	"encoding/binary"
	"os"
	"reflect"
	"strings"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/grailbio/gemgo/fmindex"
)

// cursor reads sequential fields out of a byte slice backed by an mmap'd
// (or staged, then mmap'd) archive file. Reinterpreting the backing bytes
// directly as []uint64 (asU64Slice) instead of copying avoids doubling
// memory for the BWT's and rank table's multi-gigabyte arrays at whole-
// genome scale, the same unsafe.Pointer-reinterpretation idiom
// fusion/kmer_index.go uses for its hash table region.
type cursor struct {
	data []byte
	pos  int
}

func (c *cursor) u64() (uint64, error) {
	if c.pos+8 > len(c.data) {
		return 0, ErrTruncated
	}
	v := binary.LittleEndian.Uint64(c.data[c.pos : c.pos+8])
	c.pos += 8
	return v, nil
}

// asU64Slice reinterprets the next n*8 bytes as a []uint64 without
// copying. The archive writer always emits little-endian u64 words at
// 8-byte-aligned offsets within a sectionAlign-aligned section, so this
// is safe on every architecture this module targets.
func (c *cursor) asU64Slice(n int) ([]uint64, error) {
	nbytes := n * 8
	if c.pos+nbytes > len(c.data) {
		return nil, ErrTruncated
	}
	b := c.data[c.pos : c.pos+nbytes]
	c.pos += nbytes
	if n == 0 {
		return nil, nil
	}
	var out []uint64
	hdr := (*reflect.SliceHeader)(unsafe.Pointer(&out))
	hdr.Data = uintptr(unsafe.Pointer(&b[0]))
	hdr.Len = n
	hdr.Cap = n
	return out, nil
}

func (c *cursor) skipPad() {
	c.pos += padLen(c.pos)
}

// Load reads a complete archive from path. A local path is mmap'd
// directly; an "s3://..." path is first staged to a temporary file under
// TMPDIR and then mmap'd from there, since mmap's entire point is a
// single contiguous address space, not a streaming reader.
func Load(path string) (idx *fmindex.Index, closeFn func() error, err error) {
	localPath := path
	var cleanupStaged func() error
	if strings.HasPrefix(path, "s3://") {
		staged, cleanup, serr := stageS3(path)
		if serr != nil {
			return nil, nil, serr
		}
		localPath, cleanupStaged = staged, cleanup
	}

	f, err := os.Open(localPath)
	if err != nil {
		if cleanupStaged != nil {
			cleanupStaged()
		}
		return nil, nil, errors.Wrapf(err, "archive: opening %s", localPath)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		if cleanupStaged != nil {
			cleanupStaged()
		}
		return nil, nil, errors.Wrapf(err, "archive: stat %s", localPath)
	}
	size := int(fi.Size())
	if size == 0 {
		if cleanupStaged != nil {
			cleanupStaged()
		}
		return nil, nil, ErrTruncated
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		if cleanupStaged != nil {
			cleanupStaged()
		}
		return nil, nil, errors.Wrapf(err, "archive: mmap %s", localPath)
	}

	idx, err = parse(data)
	if err != nil {
		unix.Munmap(data)
		if cleanupStaged != nil {
			cleanupStaged()
		}
		return nil, nil, err
	}

	return idx, func() error {
		if err := unix.Munmap(data); err != nil {
			return err
		}
		if cleanupStaged != nil {
			return cleanupStaged()
		}
		return nil
	}, nil
}

func parse(data []byte) (*fmindex.Index, error) {
	c := &cursor{data: data}

	magic, err := c.u64()
	if err != nil {
		return nil, err
	}
	if magic != archiveMagic {
		return nil, ErrBadMagic
	}
	version, err := c.u64()
	if err != nil {
		return nil, err
	}
	if version != archiveVersion {
		return nil, ErrUnsupportedVersion
	}
	textLength, err := c.u64()
	if err != nil {
		return nil, err
	}
	properLen, err := c.u64()
	if err != nil {
		return nil, err
	}
	c.skipPad()

	saIndexLength, err := c.u64()
	if err != nil {
		return nil, err
	}
	saRate, err := c.u64()
	if err != nil {
		return nil, err
	}
	saBitWidth, err := c.u64()
	if err != nil {
		return nil, err
	}
	saLength, err := c.u64()
	if err != nil {
		return nil, err
	}
	saNumWords, err := c.u64()
	if err != nil {
		return nil, err
	}
	saWords, err := c.asU64Slice(int(saNumWords))
	if err != nil {
		return nil, err
	}
	c.skipPad()
	sampledSA := fmindex.NewSampledSAFromRaw(fmindex.SampledSARaw{
		IndexLength:  saIndexLength,
		SamplingRate: saRate,
		Array: fmindex.PackedArrayRaw{
			BitWidth: uint(saBitWidth),
			Length:   int(saLength),
			Words:    saWords,
		},
	})

	tableSize, err := c.u64()
	if err != nil {
		return nil, err
	}
	numLevels, err := c.u64()
	if err != nil {
		return nil, err
	}
	numLevelSkip, err := c.u64()
	if err != nil {
		return nil, err
	}
	levelSkip, err := c.asU64Slice(int(numLevelSkip))
	if err != nil {
		return nil, err
	}
	ranges, err := c.asU64Slice(int(tableSize) * 2)
	if err != nil {
		return nil, err
	}
	minMatchingDepth, err := c.u64()
	if err != nil {
		return nil, err
	}
	c.skipPad()
	rankTable := fmindex.NewRankMTableFromRaw(fmindex.RankMTableRaw{
		NumLevels:        numLevels,
		LevelSkip:        levelSkip,
		Ranges:           ranges,
		MinMatchingDepth: minMatchingDepth,
	})

	bwtLength, err := c.u64()
	if err != nil {
		return nil, err
	}
	numBlocks, err := c.u64()
	if err != nil {
		return nil, err
	}
	lo, err := c.asU64Slice(int(numBlocks))
	if err != nil {
		return nil, err
	}
	hi, err := c.asU64Slice(int(numBlocks))
	if err != nil {
		return nil, err
	}
	ext, err := c.asU64Slice(int(numBlocks))
	if err != nil {
		return nil, err
	}
	flatCounters, err := c.asU64Slice(int(numBlocks+1) * 7)
	if err != nil {
		return nil, err
	}
	counters := make([][7]uint64, numBlocks+1)
	for i := range counters {
		copy(counters[i][:], flatCounters[i*7:(i+1)*7])
	}
	cArraySlice, err := c.asU64Slice(8)
	if err != nil {
		return nil, err
	}
	var cArray [8]uint64
	copy(cArray[:], cArraySlice)

	bwt := fmindex.NewBWTFromRaw(fmindex.BWTRaw{
		Length:   int(bwtLength),
		Lo:       lo,
		Hi:       hi,
		Ext:      ext,
		Counters: counters,
		CArray:   cArray,
	})

	return &fmindex.Index{
		TextLength: textLength,
		ProperLen:  properLen,
		BWT:        bwt,
		RankTable:  rankTable,
		SampledSA:  sampledSA,
	}, nil
}
