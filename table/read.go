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

package table

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorse-io/mtlprep/base"
	"github.com/gorse-io/mtlprep/base/log"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// HeaderMode tells the reader how to obtain field names and types.
type HeaderMode string

const (
	// HeaderTyped reads `name:type` cells from the first line.
	HeaderTyped HeaderMode = "typed"
	// HeaderPlain reads names from the first line. Types come from ReadOptions.Columns or default to token.
	HeaderPlain HeaderMode = "plain"
	// HeaderNone takes names and types from ReadOptions.Columns.
	HeaderNone HeaderMode = "none"
)

const maxLineSize = 16 * 1024 * 1024

// ReadOptions configures Read.
type ReadOptions struct {
	Separator     string
	Header        HeaderMode
	Columns       []string
	NullValues    []string
	LoadColumns   []string
	UnloadColumns []string
	SeqSeparator  string
	Progress      bool
}

func DefaultReadOptions() ReadOptions {
	return ReadOptions{
		Separator:    ",",
		Header:       HeaderPlain,
		NullValues:   []string{"", "NaN", "nan", "null", "NULL"},
		SeqSeparator: " ",
	}
}

// ReadFile reads a delimited file.
func ReadFile(path string, opts ReadOptions) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer file.Close()
	var r io.Reader = file
	if opts.Progress {
		info, err := file.Stat()
		if err != nil {
			return nil, errors.Trace(err)
		}
		bar := progressbar.DefaultBytes(info.Size(), "loading "+filepath.Base(path))
		defer func() {
			_ = bar.Finish()
		}()
		r = io.TeeReader(file, bar)
	}
	t, err := Read(r, opts)
	if err != nil {
		return nil, errors.Annotatef(err, "read %s", path)
	}
	log.Logger().Info("load table",
		zap.String("path", path),
		zap.Int("rows", t.Len()),
		zap.Strings("fields", t.Names()))
	return t, nil
}

// Read reads a delimited table.
func Read(r io.Reader, opts ReadOptions) (*Table, error) {
	if opts.Separator == "" {
		opts.Separator = ","
	}
	if opts.SeqSeparator == "" {
		opts.SeqSeparator = " "
	}
	if opts.Header == "" {
		opts.Header = HeaderPlain
	}
	if len(opts.LoadColumns) > 0 && len(opts.UnloadColumns) > 0 {
		return nil, errors.NotValidf("load columns %v and unload columns %v set at the same time",
			opts.LoadColumns, opts.UnloadColumns)
	}
	overrides := make(map[string]Field, len(opts.Columns))
	declared := make([]Field, 0, len(opts.Columns))
	for _, s := range opts.Columns {
		field, err := ParseField(s)
		if err != nil {
			return nil, errors.Trace(err)
		}
		overrides[field.Name] = field
		declared = append(declared, field)
	}
	nulls := lo.SliceToMap(opts.NullValues, func(s string) (string, struct{}) {
		return s, struct{}{}
	})

	var (
		fields   []Field // fields of the file
		selected []int   // positions of loaded fields
		builder  *Builder
		readErr  error
	)
	setFields := func(all []Field) error {
		fields = all
		for i, field := range fields {
			if err := base.ValidateFieldName(field.Name, opts.Separator); err != nil {
				return errors.NotValidf("field %q: %v", field.Name, err)
			}
			if len(opts.LoadColumns) > 0 && !lo.Contains(opts.LoadColumns, field.Name) {
				continue
			}
			if lo.Contains(opts.UnloadColumns, field.Name) {
				continue
			}
			selected = append(selected, i)
		}
		if len(selected) == 0 {
			log.Logger().Warn("no field is loaded", zap.Any("fields", fields))
		}
		builder = NewBuilder(lo.Map(selected, func(i int, _ int) Field {
			return fields[i]
		}))
		return nil
	}
	if opts.Header == HeaderNone {
		if len(declared) == 0 {
			return nil, errors.NotValidf("header none without columns")
		}
		if err := setFields(declared); err != nil {
			return nil, errors.Trace(err)
		}
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	err := base.ReadLines(sc, opts.Separator, func(line int, cells []string) bool {
		if fields == nil {
			// header line
			header := make([]Field, len(cells))
			for i, cell := range cells {
				cell = strings.TrimSpace(strings.TrimPrefix(cell, "\ufeff"))
				switch opts.Header {
				case HeaderTyped:
					field, err := ParseField(cell)
					if err != nil {
						readErr = errors.Annotatef(err, "line %d", line+1)
						return false
					}
					header[i] = field
				default:
					header[i] = Field{Name: cell, Type: Token}
				}
				if override, ok := overrides[header[i].Name]; ok {
					header[i] = override
				}
			}
			if readErr = setFields(header); readErr != nil {
				return false
			}
			return true
		}
		if len(cells) == 1 && cells[0] == "" {
			// blank line
			return true
		}
		if len(cells) != len(fields) {
			readErr = errors.NotValidf("line %d has %d cells, expected %d", line+1, len(cells), len(fields))
			return false
		}
		values := make([]string, len(selected))
		present := make([]bool, len(selected))
		for j, i := range selected {
			cell := cells[i]
			if _, isNull := nulls[cell]; isNull {
				continue
			}
			field := fields[i]
			if field.Type.IsSeq() {
				cell = strings.Join(lo.Filter(strings.Split(cell, opts.SeqSeparator), func(s string, _ int) bool {
					return s != ""
				}), seqSeparator)
			}
			values[j] = cell
			present[j] = true
		}
		if readErr = builder.AppendRow(values, present); readErr != nil {
			return false
		}
		return true
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	if readErr != nil {
		return nil, readErr
	}
	if builder == nil {
		return nil, errors.NotValidf("empty file without header")
	}
	return builder.Build()
}
