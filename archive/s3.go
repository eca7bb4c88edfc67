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
	"context"
	"io"
	"io/ioutil"
	"os"
	"sync"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/file/s3file"
	"github.com/pkg/errors"
)

var registerS3Once sync.Once

func registerS3() {
	registerS3Once.Do(func() {
		file.RegisterImplementation("s3", func() file.Implementation {
			return s3file.NewImplementation(s3file.NewDefaultProvider(session.Options{}), s3file.Options{})
		})
	})
}

// stageS3 downloads the object at path (an "s3://bucket/key" URL) into a
// temporary file under TMPDIR and returns its local path along with a
// cleanup function that removes it. Archives are staged whole, never
// streamed, because the reader's whole point is mmap'ing a single
// contiguous address space.
func stageS3(path string) (localPath string, cleanup func() error, err error) {
	registerS3()
	ctx := context.Background()

	src, err := file.Open(ctx, path)
	if err != nil {
		return "", nil, errors.Wrapf(err, "archive: opening %s", path)
	}
	defer src.Close(ctx)

	dir := os.Getenv("TMPDIR")
	tmp, err := ioutil.TempFile(dir, "gemgo-archive-*.idx")
	if err != nil {
		return "", nil, errors.Wrap(err, "archive: creating TMPDIR staging file")
	}

	if _, err := io.Copy(tmp, src.Reader(ctx)); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, errors.Wrapf(err, "archive: staging %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, errors.Wrap(err, "archive: closing staged file")
	}

	name := tmp.Name()
	return name, func() error { return os.Remove(name) }, nil
}
