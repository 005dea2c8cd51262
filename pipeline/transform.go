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

package pipeline

import (
	"context"
	"strconv"
	"strings"

	"github.com/gorse-io/mtlprep/base/log"
	"github.com/gorse-io/mtlprep/encoding"
	"github.com/gorse-io/mtlprep/table"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Encode replaces token and token_seq cells by dense integer codes. Codes follow the sorted order
// of values and start at the offset; offset 1 reserves 0 for padding and unseen values.
type Encode struct {
	Columns []string `mapstructure:"columns" validate:"required,min=1"`
	Offset  int      `mapstructure:"offset" validate:"min=0,max=1"`

	preset *encoding.Vocabularies
	fitted *encoding.Vocabularies
}

func (s *Encode) Name() string {
	return "encode"
}

func (s *Encode) Apply(_ context.Context, t *table.Table) (*table.Table, error) {
	fitted := encoding.NewVocabularies()
	next := t
	for _, name := range s.Columns {
		col, err := next.Column(name)
		if err != nil {
			return nil, errors.Trace(err)
		}
		var (
			v  *encoding.Vocabulary
			ok bool
		)
		if s.preset != nil {
			v, ok = s.preset.Get(name)
		}
		if !ok {
			if v, err = encoding.FitColumn(col, s.Offset); err != nil {
				return nil, errors.Trace(err)
			}
		}
		if next, err = encoding.Transform(next, name, v); err != nil {
			return nil, errors.Trace(err)
		}
		fitted.Set(name, v)
		log.StageLogger(s.Name()).Debug("encode field",
			zap.String("field", name),
			zap.Int("count", v.Count()),
			zap.Bool("preset", ok))
	}
	s.fitted = fitted
	return next, nil
}

// FillMissing fills missing cells. Float and label cells become the column mean and token cells
// become Value, or 0 when Value is empty. Missing sequences become empty sequences.
type FillMissing struct {
	Columns []string `mapstructure:"columns"`
	Value   string   `mapstructure:"value"`
}

func (s *FillMissing) Name() string {
	return "fill_missing"
}

func (s *FillMissing) Apply(_ context.Context, t *table.Table) (*table.Table, error) {
	columns := t.Columns()
	if len(s.Columns) > 0 {
		var err error
		if columns, err = t.ColumnsOf(s.Columns); err != nil {
			return nil, errors.Trace(err)
		}
	}
	next := t
	for _, col := range columns {
		if col.NullCount() == 0 {
			continue
		}
		fill := lo.Ternary(s.Value == "", "0", s.Value)
		switch {
		case col.Field.Type.IsSeq():
			fill = s.Value
		case col.Field.Type.IsNumeric() && s.Value == "":
			mean, err := columnMean(col)
			if err != nil {
				return nil, errors.Trace(err)
			}
			fill = table.FormatFloat(mean)
		}
		values := make([]string, col.Len())
		for i := range values {
			if v, ok := col.Value(i); ok {
				values[i] = v
			} else {
				values[i] = fill
			}
		}
		log.StageLogger(s.Name()).Debug("fill field",
			zap.String("field", col.Field.Name),
			zap.Int("count", col.NullCount()),
			zap.String("value", fill))
		var err error
		if next, err = next.WithColumn(table.NewColumn(col.Field, values, nil)); err != nil {
			return nil, errors.Trace(err)
		}
	}
	return next, nil
}

func columnMean(col *table.Column) (float64, error) {
	sum, n := 0.0, 0
	for i := 0; i < col.Len(); i++ {
		v, ok, err := col.Float(i)
		if err != nil {
			return 0, errors.Trace(err)
		}
		if ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return sum / float64(n), nil
}

// Normalize rescales float and float_seq columns to [0, 1] by min-max normalization. A column with
// a single distinct value becomes 1. Missing cells stay missing.
type Normalize struct {
	Columns []string `mapstructure:"columns"`
}

func (s *Normalize) Name() string {
	return "normalize"
}

func (s *Normalize) Apply(_ context.Context, t *table.Table) (*table.Table, error) {
	names := s.Columns
	if len(names) == 0 {
		for _, field := range t.Fields() {
			if field.Type == table.Float || field.Type == table.FloatSeq {
				names = append(names, field.Name)
			}
		}
	}
	next := t
	for _, name := range names {
		col, err := next.Column(name)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if col.Field.Type != table.Float && col.Field.Type != table.FloatSeq {
			return nil, errors.NotValidf("normalize %s field %s", col.Field.Type, name)
		}
		rows := make([][]float64, col.Len())
		for i := range rows {
			if rows[i], err = parseFloats(col, i); err != nil {
				return nil, errors.Trace(err)
			}
		}
		all := lo.Flatten(rows)
		if len(all) == 0 {
			continue
		}
		lower, upper := lo.Min(all), lo.Max(all)
		if lower == upper {
			log.StageLogger(s.Name()).Warn("constant field", zap.String("field", name))
		}
		values := make([]string, col.Len())
		present := make([]bool, col.Len())
		for i, row := range rows {
			if col.IsNull(i) {
				continue
			}
			present[i] = true
			scaled := lo.Map(row, func(v float64, _ int) string {
				if lower == upper {
					return "1"
				}
				return table.FormatFloat((v - lower) / (upper - lower))
			})
			values[i] = joinSeq(col.Field.Type, scaled)
		}
		if next, err = next.WithColumn(table.NewMaskedColumn(col.Field, values, present)); err != nil {
			return nil, errors.Trace(err)
		}
	}
	return next, nil
}

func parseFloats(col *table.Column, i int) ([]float64, error) {
	if col.IsNull(i) {
		return nil, nil
	}
	if col.Field.Type != table.FloatSeq {
		v, _, err := col.Float(i)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return []float64{v}, nil
	}
	seq := col.Seq(i)
	result := make([]float64, len(seq))
	for j, s := range seq {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errors.NotValidf("value %q of field %s at row %d", s, col.Field.Name, i)
		}
		result[j] = v
	}
	return result, nil
}

func joinSeq(typ table.FieldType, values []string) string {
	if typ.IsSeq() {
		return table.JoinSeq(values)
	}
	return values[0]
}

// Project keeps the listed columns in order. Entries may carry a type as "name:type". Rename maps
// old names to new names after projection, all at once.
type Project struct {
	Columns []string          `mapstructure:"columns" validate:"required,min=1"`
	Rename  map[string]string `mapstructure:"rename"`
}

func (s *Project) Name() string {
	return "project"
}

func (s *Project) Apply(_ context.Context, t *table.Table) (*table.Table, error) {
	fields := make([]table.Field, len(s.Columns))
	for i, column := range s.Columns {
		field, err := table.ParseField(column)
		if err != nil {
			return nil, errors.Trace(err)
		}
		fields[i] = field
	}
	next, err := t.Project(lo.Map(fields, func(f table.Field, _ int) string {
		return f.Name
	}))
	if err != nil {
		return nil, errors.Trace(err)
	}
	for i, field := range fields {
		if strings.Contains(s.Columns[i], ":") {
			if next, err = next.SetType(field.Name, field.Type); err != nil {
				return nil, errors.Trace(err)
			}
		}
	}
	if len(s.Rename) > 0 {
		if next, err = next.Rename(s.Rename); err != nil {
			return nil, errors.Trace(err)
		}
	}
	return next, nil
}
