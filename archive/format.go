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

// Package archive implements the archive file and packed-DNA-text file
// codecs: a little-endian binary layout of a header, a sampled suffix
// array, a rank memoization table, and a BWT, each section aligned to a
// 4 KiB boundary so the file can be mmap-loaded directly. Local paths are
// mmap'd in place; s3:// paths are staged to TMPDIR first, since mmap's
// entire benefit is a single contiguous address space, not a streaming
// read.
package archive

import "github.com/pkg/errors"

// sectionAlign is the alignment every large section is padded to, so the
// archive can be mmap'd and each section's start address is a multiple of
// the platform page size.
const sectionAlign = 4096

// archiveMagic is the file's leading marker. ErrBadMagic is returned when
// it does not match -- "a wrong-model marker at either header slot is
// rejected with a distinctive error" (spec's external-interfaces section).
const archiveMagic = uint64(0x47454d474f494458) // "GEMGOIDX" in ASCII, big-endian-read

// archiveVersion is the second header marker: the on-disk layout version
// this package reads and writes. A mismatch is also rejected, since a
// future layout change would otherwise be silently misinterpreted.
const archiveVersion = uint64(1)

// ErrBadMagic is returned by Load when the file's magic marker doesn't
// match archiveMagic.
var ErrBadMagic = errors.New("archive: not a gemgo archive file (bad magic)")

// ErrUnsupportedVersion is returned by Load when the file's version
// marker isn't one this package knows how to read.
var ErrUnsupportedVersion = errors.New("archive: unsupported archive format version")

// ErrTruncated is returned by Load when the file is shorter than its
// header claims.
var ErrTruncated = errors.New("archive: truncated archive file")

func padLen(n int) int {
	rem := n % sectionAlign
	if rem == 0 {
		return 0
	}
	return sectionAlign - rem
}

func alignUp(n int) int {
	return n + padLen(n)
}
