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
	"bytes"
	"encoding/binary"
	"io/ioutil"

	"github.com/pkg/errors"

	"github.com/grailbio/gemgo/fmindex"
)

func putU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func putU64Slice(buf *bytes.Buffer, vs []uint64) {
	for _, v := range vs {
		putU64(buf, v)
	}
}

func padTo(buf *bytes.Buffer) {
	if n := padLen(buf.Len()); n > 0 {
		buf.Write(make([]byte, n))
	}
}

// Save writes idx's complete archive -- header, sampled SA, rank
// memoization table, and BWT, each section padded to sectionAlign -- to
// path.
func Save(idx *fmindex.Index, path string) error {
	var buf bytes.Buffer

	putU64(&buf, archiveMagic)
	putU64(&buf, archiveVersion)
	putU64(&buf, idx.TextLength)
	putU64(&buf, idx.ProperLen)
	padTo(&buf)

	sa := idx.SampledSA.Raw()
	putU64(&buf, sa.IndexLength)
	putU64(&buf, sa.SamplingRate)
	putU64(&buf, uint64(sa.Array.BitWidth))
	putU64(&buf, uint64(sa.Array.Length))
	putU64(&buf, uint64(len(sa.Array.Words)))
	putU64Slice(&buf, sa.Array.Words)
	padTo(&buf)

	rt := idx.RankTable.Raw()
	tableSize := uint64(len(rt.Ranges) / 2)
	putU64(&buf, tableSize)
	putU64(&buf, rt.NumLevels)
	putU64(&buf, uint64(len(rt.LevelSkip)))
	putU64Slice(&buf, rt.LevelSkip)
	putU64Slice(&buf, rt.Ranges)
	putU64(&buf, rt.MinMatchingDepth)
	padTo(&buf)

	bw := idx.BWT.Raw()
	putU64(&buf, uint64(bw.Length))
	putU64(&buf, uint64(len(bw.Lo)))
	putU64Slice(&buf, bw.Lo)
	putU64Slice(&buf, bw.Hi)
	putU64Slice(&buf, bw.Ext)
	for _, row := range bw.Counters {
		putU64Slice(&buf, row[:])
	}
	putU64Slice(&buf, bw.CArray[:])

	if err := ioutil.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return errors.Wrapf(err, "archive: writing %s", path)
	}
	return nil
}
