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
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// LeftJoin appends the columns of right to left, matching rows on the column `on`. Duplicate keys
// in right keep the first row. Rows of left without match get missing cells.
func LeftJoin(left, right *Table, on string) (*Table, error) {
	rows, err := match(left, right, on)
	if err != nil {
		return nil, errors.Annotate(err, "left join")
	}
	return appendColumns(left, right, on, rows)
}

// InnerJoin is LeftJoin restricted to the rows of left that have a match in right.
func InnerJoin(left, right *Table, on string) (*Table, error) {
	rows, err := match(left, right, on)
	if err != nil {
		return nil, errors.Annotate(err, "inner join")
	}
	matched := make([]int, 0, len(rows))
	for i, j := range rows {
		if j >= 0 {
			matched = append(matched, i)
		}
	}
	if len(matched) < len(rows) {
		left = left.Take(matched)
		rows = lo.Filter(rows, func(j int, _ int) bool {
			return j >= 0
		})
	}
	return appendColumns(left, right, on, rows)
}

// match returns the position in right of the row matching each row of left, or -1.
func match(left, right *Table, on string) ([]int, error) {
	leftKey, err := left.Column(on)
	if err != nil {
		return nil, errors.Trace(err)
	}
	rightKey, err := right.Column(on)
	if err != nil {
		return nil, errors.Trace(err)
	}
	// index right rows
	positions := make(map[string]int, right.Len())
	for i := 0; i < right.Len(); i++ {
		if key, ok := rightKey.Value(i); ok {
			if _, exist := positions[key]; !exist {
				positions[key] = i
			}
		}
	}
	// match left rows
	rows := make([]int, left.Len())
	for i := range rows {
		rows[i] = -1
		if key, ok := leftKey.Value(i); ok {
			if j, exist := positions[key]; exist {
				rows[i] = j
			}
		}
	}
	return rows, nil
}

func appendColumns(left, right *Table, on string, rows []int) (*Table, error) {
	columns := append([]*Column(nil), left.columns...)
	for _, col := range right.columns {
		if col.Field.Name == on {
			continue
		}
		if left.Has(col.Field.Name) {
			return nil, errors.AlreadyExistsf("field %s in both tables", col.Field.Name)
		}
		columns = append(columns, col.gather(rows))
	}
	return New(columns, left.index)
}

// gather is take with -1 denoting a missing cell.
func (c *Column) gather(rows []int) *Column {
	values := make([]string, len(rows))
	valid := newMask(len(rows))
	for i, row := range rows {
		if row >= 0 && c.valid.Test(uint(row)) {
			values[i] = c.values[row]
			valid.Set(uint(i))
		}
	}
	return &Column{Field: c.Field, values: values, valid: valid}
}
