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
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bitset"
	"github.com/juju/errors"
)

// seqSeparator joins the elements of sequence cells inside a column. Readers and writers
// translate it to the separator of the file.
const seqSeparator = "\x1e"

// Column is an immutable column of string cells with a validity mask.
type Column struct {
	Field  Field
	values []string
	valid  *bitset.BitSet
}

// NewColumn creates a column. A nil mask marks every cell as valid.
func NewColumn(field Field, values []string, valid *bitset.BitSet) *Column {
	if valid == nil {
		valid = bitset.New(uint(len(values)))
		valid.FlipRange(0, uint(len(values)))
	}
	return &Column{Field: field, values: values, valid: valid}
}

// NewMaskedColumn creates a column whose missing cells are marked false in present.
func NewMaskedColumn(field Field, values []string, present []bool) *Column {
	valid := newMask(len(values))
	for i, ok := range present {
		if ok {
			valid.Set(uint(i))
		}
	}
	return &Column{Field: field, values: values, valid: valid}
}

// NewSeqColumn creates a sequence column from element lists. Nil lists are missing cells.
func NewSeqColumn(field Field, seqs [][]string) *Column {
	values := make([]string, len(seqs))
	valid := bitset.New(uint(len(seqs)))
	for i, seq := range seqs {
		if seq != nil {
			values[i] = strings.Join(seq, seqSeparator)
			valid.Set(uint(i))
		}
	}
	return &Column{Field: field, values: values, valid: valid}
}

// NewFloatColumn creates a numeric column.
func NewFloatColumn(field Field, values []float64) *Column {
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = FormatFloat(v)
	}
	return NewColumn(field, cells, nil)
}

// FormatFloat formats a number the way writers expect it: integers without a fraction.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (c *Column) Len() int {
	return len(c.values)
}

// Value returns the cell and whether it is present.
func (c *Column) Value(i int) (string, bool) {
	if !c.valid.Test(uint(i)) {
		return "", false
	}
	return c.values[i], true
}

// String returns the cell or an empty string for missing cells.
func (c *Column) String(i int) string {
	v, _ := c.Value(i)
	return v
}

func (c *Column) IsNull(i int) bool {
	return !c.valid.Test(uint(i))
}

func (c *Column) NullCount() int {
	return len(c.values) - int(c.valid.Count())
}

// Float parses the cell as a number.
func (c *Column) Float(i int) (float64, bool, error) {
	v, ok := c.Value(i)
	if !ok {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, true, errors.NotValidf("value %q of field %s at row %d", v, c.Field.Name, i)
	}
	return f, true, nil
}

// Seq returns the elements of a sequence cell.
func (c *Column) Seq(i int) []string {
	v, ok := c.Value(i)
	if !ok || v == "" {
		return nil
	}
	return strings.Split(v, seqSeparator)
}

// Distinct counts distinct present values.
func (c *Column) Distinct() int {
	seen := make(map[string]struct{})
	for i := range c.values {
		if v, ok := c.Value(i); ok {
			seen[v] = struct{}{}
		}
	}
	return len(seen)
}

// WithField returns the same cells under another field.
func (c *Column) WithField(field Field) *Column {
	return &Column{Field: field, values: c.values, valid: c.valid}
}

func (c *Column) take(rows []int) *Column {
	values := make([]string, len(rows))
	valid := bitset.New(uint(len(rows)))
	for i, row := range rows {
		if c.valid.Test(uint(row)) {
			values[i] = c.values[row]
			valid.Set(uint(i))
		}
	}
	return &Column{Field: c.Field, values: values, valid: valid}
}

func newMask(n int) *bitset.BitSet {
	return bitset.New(uint(n))
}

// JoinSeq builds a sequence cell from elements.
func JoinSeq(elements []string) string {
	return strings.Join(elements, seqSeparator)
}
