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
	"net/url"
	"strings"

	"github.com/gorse-io/mtlprep/base/log"
	"github.com/gorse-io/mtlprep/config"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// Store is a flat namespace of files under a prefix.
type Store interface {
	// Open a file for reading.
	Open(name string) (io.ReadCloser, error)
	// Create a file for writing. Closing the writer waits for the upload and returns its error.
	// The done channel is closed when the upload is complete.
	Create(name string) (io.WriteCloser, chan struct{}, error)
	// List names of files under the prefix.
	List() ([]string, error)
	// Remove a file.
	Remove(name string) error
}

// Open selects a store by the scheme of the location: a plain path or file:// for a local
// directory, s3://bucket/prefix, gs://bucket/prefix or azblob://container/prefix.
func Open(location string, cfg config.StorageConfig) (Store, error) {
	if !strings.Contains(location, "://") {
		return NewPOSIX(location), nil
	}
	u, err := url.Parse(location)
	if err != nil {
		return nil, errors.NewNotValid(err, "storage location")
	}
	prefix := strings.TrimPrefix(u.Path, "/")
	log.Logger().Debug("open storage", zap.String("location", log.RedactURL(location)))
	switch u.Scheme {
	case "file":
		return NewPOSIX(u.Host + u.Path), nil
	case "s3":
		return NewS3(cfg.S3, u.Host, prefix)
	case "gs":
		return NewGCS(cfg.GCS, u.Host, prefix)
	case "azblob":
		return NewAzureBlob(cfg.Azure, u.Host, prefix)
	}
	return nil, errors.NotSupportedf("storage scheme %s", u.Scheme)
}

// pipeWriter streams writes to an uploader running in another goroutine.
type pipeWriter struct {
	*io.PipeWriter
	done chan struct{}
	err  error
}

func newPipeWriter(upload func(r io.Reader) error) *pipeWriter {
	pr, pw := io.Pipe()
	w := &pipeWriter{PipeWriter: pw, done: make(chan struct{})}
	go func() {
		defer close(w.done)
		w.err = upload(pr)
		// unblock writers if the upload stopped early
		_ = pr.CloseWithError(w.err)
	}()
	return w
}

func (w *pipeWriter) Close() error {
	if err := w.PipeWriter.Close(); err != nil {
		return errors.Trace(err)
	}
	<-w.done
	return w.err
}
