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
	"github.com/bits-and-blooms/bitset"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"modernc.org/strutil"
)

// Builder appends rows to a new table. Token cells are interned so that repeated ids share memory.
type Builder struct {
	fields []Field
	cells  [][]string
	valid  []*bitset.BitSet
	rows   int
	pool   *strutil.Pool
}

func NewBuilder(fields []Field) *Builder {
	return &Builder{
		fields: fields,
		cells:  make([][]string, len(fields)),
		valid: lo.Map(fields, func(_ Field, _ int) *bitset.BitSet {
			return bitset.New(0)
		}),
		pool: strutil.NewPool(),
	}
}

// AppendRow appends a row. A nil present slice marks every cell as present.
func (b *Builder) AppendRow(values []string, present []bool) error {
	if len(values) != len(b.fields) {
		return errors.NotValidf("row with %d cells, expected %d", len(values), len(b.fields))
	}
	for j, v := range values {
		if present != nil && !present[j] {
			b.cells[j] = append(b.cells[j], "")
			continue
		}
		if b.fields[j].Type.IsTokenLike() {
			v = b.pool.Align(v)
		}
		b.cells[j] = append(b.cells[j], v)
		b.valid[j].Set(uint(b.rows))
	}
	b.rows++
	return nil
}

// Len returns the number of appended rows.
func (b *Builder) Len() int {
	return b.rows
}

func (b *Builder) Build() (*Table, error) {
	columns := make([]*Column, len(b.fields))
	for j, field := range b.fields {
		columns[j] = NewColumn(field, b.cells[j], b.valid[j])
	}
	if len(columns) == 0 {
		return New(nil, lo.Range(b.rows))
	}
	return New(columns, nil)
}
