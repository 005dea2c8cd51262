// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/gorse-io/mtlprep/config"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func testStore(t *testing.T, store Store) {
	// create file
	w, done, err := store.Create("demo.train.inter")
	assert.NoError(t, err)
	_, err = w.Write([]byte("hello"))
	assert.NoError(t, err)
	assert.NoError(t, w.Close())
	<-done

	// list files
	names, err := store.List()
	assert.NoError(t, err)
	assert.Equal(t, []string{"demo.train.inter"}, names)

	// read file
	r, err := store.Open("demo.train.inter")
	assert.NoError(t, err)
	data, err := io.ReadAll(r)
	assert.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.NoError(t, r.Close())

	// remove file
	assert.NoError(t, store.Remove("demo.train.inter"))
	names, err = store.List()
	assert.NoError(t, err)
	assert.Empty(t, names)
}

func TestPOSIX(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")
	names, err := NewPOSIX(dir).List()
	assert.NoError(t, err)
	assert.Empty(t, names)
	testStore(t, NewPOSIX(dir))

	// nested names
	store := NewPOSIX(dir)
	w, _, err := store.Create("vocab/demo.yaml")
	assert.NoError(t, err)
	assert.NoError(t, w.Close())
	names, err = store.List()
	assert.NoError(t, err)
	assert.Equal(t, []string{"vocab/demo.yaml"}, names)

	_, err = store.Open("missing")
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, config.StorageConfig{})
	assert.NoError(t, err)
	assert.Equal(t, NewPOSIX(dir), store)
	store, err = Open("file://"+dir, config.StorageConfig{})
	assert.NoError(t, err)
	assert.Equal(t, NewPOSIX(dir), store)

	store, err = Open("s3://bucket/prefix/data", config.StorageConfig{S3: config.S3Config{Endpoint: "localhost:9000"}})
	assert.NoError(t, err)
	s3, ok := store.(*S3)
	assert.True(t, ok)
	assert.Equal(t, "bucket", s3.bucket)
	assert.Equal(t, "prefix/data", s3.prefix)

	_, err = Open("s3://bucket/prefix", config.StorageConfig{})
	assert.True(t, errors.IsNotValid(err))
	_, err = Open("azblob://container/prefix", config.StorageConfig{})
	assert.True(t, errors.IsNotValid(err))
	_, err = Open("ftp://host/prefix", config.StorageConfig{})
	assert.True(t, errors.IsNotSupported(err))
}
