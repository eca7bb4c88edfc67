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

package worker

import "github.com/golang/snappy"

// TextCache holds snappy-compressed copies of the candidate text windows
// decoded for one read. A window fetched once during kmer prefiltering is
// often revisited during SWG refinement of the same candidate; caching it
// compressed avoids re-decoding the suffix array without keeping every
// window's raw bytes resident for the whole read.
//
// A read carries at most a few dozen candidates, so a linear scan keyed
// by window start offset is cheaper than a map's overhead.
type TextCache struct {
	offsets    []uint64
	compressed [][]byte
}

func newTextCache() *TextCache {
	return &TextCache{}
}

// Put compresses and stores window, keyed by its text start offset.
func (c *TextCache) Put(offset uint64, window []byte) {
	c.offsets = append(c.offsets, offset)
	c.compressed = append(c.compressed, snappy.Encode(nil, window))
}

// Get decompresses and returns the window stored at offset, if any.
func (c *TextCache) Get(offset uint64) ([]byte, bool) {
	for i, o := range c.offsets {
		if o == offset {
			out, err := snappy.Decode(nil, c.compressed[i])
			if err != nil {
				return nil, false
			}
			return out, true
		}
	}
	return nil, false
}

func (c *TextCache) reset() {
	c.offsets = c.offsets[:0]
	c.compressed = c.compressed[:0]
}
