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
	"sort"
	"strings"

	"github.com/juju/errors"
	"github.com/samber/lo"
)

// keySeparator joins the cells of a key tuple.
const keySeparator = "\x1f"

// Table is an immutable columnar table. Transformations return new tables and share
// unchanged columns with their source.
type Table struct {
	columns []*Column
	byName  map[string]int
	index   []int
}

// New creates a table from columns of equal length. A nil index numbers rows from zero.
func New(columns []*Column, index []int) (*Table, error) {
	byName := make(map[string]int, len(columns))
	n := -1
	for i, col := range columns {
		if _, exist := byName[col.Field.Name]; exist {
			return nil, errors.AlreadyExistsf("field %s", col.Field.Name)
		}
		byName[col.Field.Name] = i
		if n == -1 {
			n = col.Len()
		} else if n != col.Len() {
			return nil, errors.NotValidf("length %d of field %s, expected %d", col.Len(), col.Field.Name, n)
		}
	}
	if n == -1 {
		n = len(index)
	}
	if index == nil {
		index = lo.Range(n)
	} else if len(index) != n {
		return nil, errors.NotValidf("index length %d, expected %d", len(index), n)
	}
	return &Table{columns: columns, byName: byName, index: index}, nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.index)
}

// Fields returns the fields in column order.
func (t *Table) Fields() []Field {
	return lo.Map(t.columns, func(c *Column, _ int) Field {
		return c.Field
	})
}

// Names returns the field names in column order.
func (t *Table) Names() []string {
	return lo.Map(t.columns, func(c *Column, _ int) string {
		return c.Field.Name
	})
}

func (t *Table) Columns() []*Column {
	return t.columns
}

func (t *Table) Has(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (*Column, error) {
	i, ok := t.byName[name]
	if !ok {
		return nil, errors.NotFoundf("field %s", name)
	}
	return t.columns[i], nil
}

// ColumnsOf returns the columns with the given names in order.
func (t *Table) ColumnsOf(names []string) ([]*Column, error) {
	columns := make([]*Column, len(names))
	for i, name := range names {
		col, err := t.Column(name)
		if err != nil {
			return nil, errors.Trace(err)
		}
		columns[i] = col
	}
	return columns, nil
}

// Index returns the row identities.
func (t *Table) Index() []int {
	return append([]int(nil), t.index...)
}

// RowID returns the identity of row i.
func (t *Table) RowID(i int) int {
	return t.index[i]
}

// Row returns the present cells of row i by field name.
func (t *Table) Row(i int) map[string]string {
	row := make(map[string]string, len(t.columns))
	for _, col := range t.columns {
		if v, ok := col.Value(i); ok {
			row[col.Field.Name] = v
		}
	}
	return row
}

// Take returns a table of the given rows in the given order.
func (t *Table) Take(rows []int) *Table {
	columns := lo.Map(t.columns, func(c *Column, _ int) *Column {
		return c.take(rows)
	})
	index := lo.Map(rows, func(row int, _ int) int {
		return t.index[row]
	})
	return &Table{columns: columns, byName: t.byName, index: index}
}

// Filter returns a table of the rows for which keep returns true.
func (t *Table) Filter(keep func(i int) bool) *Table {
	rows := make([]int, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	if len(rows) == t.Len() {
		return t
	}
	return t.Take(rows)
}

// WithColumn returns a table with the column appended, or replacing a column of the same name.
func (t *Table) WithColumn(col *Column) (*Table, error) {
	if col.Len() != t.Len() && len(t.columns) > 0 {
		return nil, errors.NotValidf("length %d of field %s, expected %d", col.Len(), col.Field.Name, t.Len())
	}
	columns := append([]*Column(nil), t.columns...)
	if i, ok := t.byName[col.Field.Name]; ok {
		columns[i] = col
	} else {
		columns = append(columns, col)
	}
	return New(columns, t.index)
}

// Drop returns a table without the named columns. Unknown names are ignored.
func (t *Table) Drop(names ...string) *Table {
	columns := lo.Filter(t.columns, func(c *Column, _ int) bool {
		return !lo.Contains(names, c.Field.Name)
	})
	next, _ := New(columns, t.index)
	return next
}

// Project returns a table with the named columns in the given order.
func (t *Table) Project(names []string) (*Table, error) {
	columns, err := t.ColumnsOf(names)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return New(columns, t.index)
}

// Rename returns a table with columns renamed from the keys of mapping to its values. All names are
// replaced at once, so mappings may swap or chain names.
func (t *Table) Rename(mapping map[string]string) (*Table, error) {
	froms := lo.Keys(mapping)
	sort.Strings(froms)
	columns := append([]*Column(nil), t.columns...)
	for _, from := range froms {
		i, ok := t.byName[from]
		if !ok {
			return nil, errors.NotFoundf("field %s", from)
		}
		columns[i] = columns[i].WithField(Field{Name: mapping[from], Type: columns[i].Field.Type})
	}
	return New(columns, t.index)
}

// SetType returns a table with the type of a column changed.
func (t *Table) SetType(name string, typ FieldType) (*Table, error) {
	i, ok := t.byName[name]
	if !ok {
		return nil, errors.NotFoundf("field %s", name)
	}
	columns := append([]*Column(nil), t.columns...)
	columns[i] = columns[i].WithField(Field{Name: name, Type: typ})
	return New(columns, t.index)
}

// Key returns the key tuple of row i over the given columns, and false if any cell is missing.
func Key(columns []*Column, i int) (string, bool) {
	if len(columns) == 1 {
		return columns[0].Value(i)
	}
	parts := make([]string, len(columns))
	for j, col := range columns {
		v, ok := col.Value(i)
		if !ok {
			return "", false
		}
		parts[j] = v
	}
	return strings.Join(parts, keySeparator), true
}

// TupleKey builds the key tuple of row i with missing cells kept as their own value, so that two
// tuples are equal only when they agree on every cell and on which cells are missing.
func TupleKey(columns []*Column, i int) string {
	parts := make([]string, len(columns))
	for j, col := range columns {
		if v, ok := col.Value(i); ok {
			parts[j] = "\x01" + v
		} else {
			parts[j] = "\x00"
		}
	}
	return strings.Join(parts, keySeparator)
}

// Concat stacks tables with identical fields. Row identities are renumbered.
func Concat(tables ...*Table) (*Table, error) {
	if len(tables) == 0 {
		return New(nil, nil)
	}
	fields := tables[0].Fields()
	for _, t := range tables[1:] {
		if !lo.Every(fields, t.Fields()) || len(fields) != len(t.Fields()) {
			return nil, errors.NotValidf("fields %v, expected %v", t.Fields(), fields)
		}
	}
	builder := NewBuilder(fields)
	for _, t := range tables {
		for i := 0; i < t.Len(); i++ {
			for j, name := range tables[0].Names() {
				col, _ := t.Column(name)
				v, ok := col.Value(i)
				builder.cells[j] = append(builder.cells[j], v)
				if ok {
					builder.valid[j].Set(uint(builder.rows))
				}
			}
			builder.rows++
		}
	}
	return builder.Build()
}
