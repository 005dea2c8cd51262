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

	"github.com/gorse-io/mtlprep/base/log"
	"github.com/gorse-io/mtlprep/table"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// DropMissing removes rows with a missing value in any of the columns, or in any column when
// none are listed.
type DropMissing struct {
	Columns []string `mapstructure:"columns"`
}

func (s *DropMissing) Name() string {
	return "drop_missing"
}

func (s *DropMissing) Apply(_ context.Context, t *table.Table) (*table.Table, error) {
	columns := t.Columns()
	if len(s.Columns) > 0 {
		var err error
		if columns, err = t.ColumnsOf(s.Columns); err != nil {
			return nil, errors.Trace(err)
		}
	}
	for _, col := range columns {
		if n := col.NullCount(); n > 0 {
			log.StageLogger(s.Name()).Debug("missing values",
				zap.String("field", col.Field.Name), zap.Int("count", n))
		}
	}
	next := t.Filter(func(i int) bool {
		return !lo.SomeBy(columns, func(col *table.Column) bool {
			return col.IsNull(i)
		})
	})
	dropped(s.Name(), t.Len(), next.Len(), "missing values")
	return next, nil
}

// Dedup removes rows with duplicate keys, keeping the first or last occurrence. When SortBy is set,
// rows are first stably sorted by that column, parsed as a number or a date. Missing times sort last.
// Key tuples are compared cell by cell, and a missing cell only matches a missing cell.
type Dedup struct {
	Keys   []string `mapstructure:"keys" validate:"required,min=1"`
	Keep   string   `mapstructure:"keep" validate:"oneof=first last"`
	SortBy string   `mapstructure:"sort_by"`
}

func (s *Dedup) Name() string {
	return "dedup"
}

func (s *Dedup) Apply(_ context.Context, t *table.Table) (*table.Table, error) {
	keys, err := t.ColumnsOf(s.Keys)
	if err != nil {
		return nil, errors.Trace(err)
	}
	order := lo.Range(t.Len())
	if s.SortBy != "" {
		if order, err = t.SortByTime(s.SortBy); err != nil {
			return nil, errors.Trace(err)
		}
	}
	if s.Keep == "last" {
		order = lo.Reverse(order)
	}
	seen := make(map[string]struct{}, t.Len())
	keep := make([]bool, t.Len())
	for _, row := range order {
		key := table.TupleKey(keys, row)
		if _, exist := seen[key]; !exist {
			seen[key] = struct{}{}
			keep[row] = true
		}
	}
	if s.Keep == "last" {
		order = lo.Reverse(order)
	}
	next := t.Take(lo.Filter(order, func(row int, _ int) bool {
		return keep[row]
	}))
	dropped(s.Name(), t.Len(), next.Len(), "duplicate keys")
	return next, nil
}
