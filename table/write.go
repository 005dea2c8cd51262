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
	"strings"

	"github.com/gorse-io/mtlprep/base"
	"github.com/juju/errors"
)

// WriteOptions configures Write.
type WriteOptions struct {
	Separator    string
	TypedHeader  bool
	SeqSeparator string
}

func DefaultWriteOptions() WriteOptions {
	return WriteOptions{
		Separator:    ",",
		TypedHeader:  true,
		SeqSeparator: " ",
	}
}

// Write writes a table with a header line. Missing cells are written empty.
func Write(w io.Writer, t *Table, opts WriteOptions) error {
	if opts.Separator == "" {
		opts.Separator = ","
	}
	if opts.SeqSeparator == "" {
		opts.SeqSeparator = " "
	}
	bw := bufio.NewWriter(w)
	// header
	for j, field := range t.Fields() {
		if j > 0 {
			if _, err := bw.WriteString(opts.Separator); err != nil {
				return errors.Trace(err)
			}
		}
		cell := field.Name
		if opts.TypedHeader {
			cell = field.String()
		}
		if _, err := bw.WriteString(base.Escape(cell, opts.Separator)); err != nil {
			return errors.Trace(err)
		}
	}
	if _, err := bw.WriteString("\n"); err != nil {
		return errors.Trace(err)
	}
	// rows
	columns := t.Columns()
	for i := 0; i < t.Len(); i++ {
		for j, col := range columns {
			if j > 0 {
				if _, err := bw.WriteString(opts.Separator); err != nil {
					return errors.Trace(err)
				}
			}
			cell := col.String(i)
			if col.Field.Type.IsSeq() {
				cell = strings.ReplaceAll(cell, seqSeparator, opts.SeqSeparator)
			}
			if _, err := bw.WriteString(base.Escape(cell, opts.Separator)); err != nil {
				return errors.Trace(err)
			}
		}
		if _, err := bw.WriteString("\n"); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(bw.Flush())
}
