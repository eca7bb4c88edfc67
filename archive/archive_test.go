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
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/gemgo/dna"
	"github.com/grailbio/gemgo/fmindex"
)

func tempPath(t *testing.T, name string) string {
	dir, err := ioutil.TempDir("", "gemgo-archive-test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, name)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	text := "GATTACAGATTACAGATTACAGATTACAGATTACAGATTACA"
	idx, err := fmindex.Build([]byte(text), fmindex.Rate4)
	require.NoError(t, err)

	path := tempPath(t, "test.idx")
	require.NoError(t, Save(idx, path))

	loaded, closeFn, err := Load(path)
	require.NoError(t, err)
	defer closeFn()

	assert.Equal(t, idx.TextLength, loaded.TextLength)
	assert.Equal(t, idx.ProperLen, loaded.ProperLen)

	n := uint64(idx.BWT.Len())
	for i := uint64(0); i < n; i++ {
		assert.Equal(t, idx.BWT.CharAt(i), loaded.BWT.CharAt(i), "row %d", i)
		assert.Equal(t, idx.Locate(i), loaded.Locate(i), "row %d", i)
	}
	for c := uint8(0); c < 7; c++ {
		assert.Equal(t, idx.BWT.CArray[c], loaded.BWT.CArray[c])
	}

	lo, hi := idx.BackwardSearch([]uint8{dna.Encode('G'), dna.Encode('A'), dna.Encode('T')})
	lo2, hi2 := loaded.BackwardSearch([]uint8{dna.Encode('G'), dna.Encode('A'), dna.Encode('T')})
	assert.Equal(t, lo, lo2)
	assert.Equal(t, hi, hi2)
}

func TestLoadRejectsBadMagic(t *testing.T) {
	path := tempPath(t, "bad.idx")
	require.NoError(t, ioutil.WriteFile(path, make([]byte, 4096), 0644))
	_, _, err := Load(path)
	assert.Equal(t, ErrBadMagic, errors.Cause(err))
}

func TestPackedTextSaveLoadRoundTrip(t *testing.T) {
	pt := dna.EncodeInto([]byte("GATTACAGATTACANNNSEP"))
	path := tempPath(t, "text.pt")
	require.NoError(t, SavePackedText(pt, path))

	loaded, closeFn, err := LoadPackedText(path)
	require.NoError(t, err)
	defer closeFn()

	require.Equal(t, pt.Len(), loaded.Len())
	for i := 0; i < pt.Len(); i++ {
		assert.Equal(t, pt.At(i), loaded.At(i), "pos %d", i)
	}
}
