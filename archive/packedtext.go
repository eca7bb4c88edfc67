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
	"io/ioutil"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/grailbio/gemgo/dna"
)

// SavePackedText writes t's header {text_length, text_size} followed by
// its three 64-bit-per-block bit-layers (the third, sparse in practice,
// stored the same way as the other two) to path.
func SavePackedText(t *dna.PackedText, path string) error {
	raw := t.Raw()
	var buf bytes.Buffer
	putU64(&buf, uint64(raw.Length))
	putU64(&buf, uint64(len(raw.Lo)))
	padTo(&buf)
	putU64Slice(&buf, raw.Lo)
	putU64Slice(&buf, raw.Hi)
	putU64Slice(&buf, raw.Ext)

	if err := ioutil.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return errors.Wrapf(err, "archive: writing %s", path)
	}
	return nil
}

// LoadPackedText mmaps path and reinterprets it as a PackedText. The
// returned closeFn must be called to release the mapping.
func LoadPackedText(path string) (t *dna.PackedText, closeFn func() error, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "archive: opening %s", path)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, nil, errors.Wrapf(err, "archive: stat %s", path)
	}
	size := int(fi.Size())
	if size == 0 {
		return nil, nil, ErrTruncated
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "archive: mmap %s", path)
	}

	c := &cursor{data: data}
	length, err := c.u64()
	if err != nil {
		unix.Munmap(data)
		return nil, nil, err
	}
	textSize, err := c.u64()
	if err != nil {
		unix.Munmap(data)
		return nil, nil, err
	}
	if wantWords := uint64((length + 63) / 64); textSize != wantWords {
		unix.Munmap(data)
		return nil, nil, dna.ErrWrongModel
	}
	c.skipPad()

	lo, err := c.asU64Slice(int(textSize))
	if err != nil {
		unix.Munmap(data)
		return nil, nil, err
	}
	hi, err := c.asU64Slice(int(textSize))
	if err != nil {
		unix.Munmap(data)
		return nil, nil, err
	}
	ext, err := c.asU64Slice(int(textSize))
	if err != nil {
		unix.Munmap(data)
		return nil, nil, err
	}

	pt := dna.NewPackedTextFromRaw(dna.PackedTextRaw{Length: int(length), Lo: lo, Hi: hi, Ext: ext})
	return pt, func() error { return unix.Munmap(data) }, nil
}
