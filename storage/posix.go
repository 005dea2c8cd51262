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
	"os"
	"path/filepath"
	"sort"

	"github.com/juju/errors"
)

type POSIX struct {
	dir string
}

func NewPOSIX(dir string) *POSIX {
	return &POSIX{dir: dir}
}

// Open a file for reading.
func (p *POSIX) Open(name string) (io.ReadCloser, error) {
	file, err := os.Open(filepath.Join(p.dir, name))
	if err != nil {
		return nil, errors.Trace(err)
	}
	return file, nil
}

// Create a new file for writing. Data is written to a temporary file which is renamed when
// the writer is closed, so readers never observe a partial file.
func (p *POSIX) Create(name string) (io.WriteCloser, chan struct{}, error) {
	fullPath := filepath.Join(p.dir, name)
	if err := os.MkdirAll(filepath.Dir(fullPath), os.ModePerm); err != nil {
		return nil, nil, errors.Trace(err)
	}
	file, err := os.CreateTemp(filepath.Dir(fullPath), "."+filepath.Base(fullPath)+".*")
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	w := newPipeWriter(func(r io.Reader) error {
		if _, err := io.Copy(file, r); err != nil {
			_ = file.Close()
			_ = os.Remove(file.Name())
			return errors.Annotatef(err, "write file %s", fullPath)
		}
		if err := file.Close(); err != nil {
			_ = os.Remove(file.Name())
			return errors.Trace(err)
		}
		return errors.Trace(os.Rename(file.Name(), fullPath))
	})
	return w, w.done, nil
}

// List files in the directory, recursively.
func (p *POSIX) List() ([]string, error) {
	var names []string
	err := filepath.WalkDir(p.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name, err := filepath.Rel(p.dir, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(name))
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, errors.Trace(err)
	}
	sort.Strings(names)
	return names, nil
}

func (p *POSIX) Remove(name string) error {
	return errors.Trace(os.Remove(filepath.Join(p.dir, name)))
}
