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

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/gorse-io/mtlprep/table"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// Aggregate groups rows by a key tuple and collapses the event column of every group into a
// token_seq column in first-seen order. Other columns keep the value of the first row in the group.
// Each group keeps the row identity of its first row.
type Aggregate struct {
	Keys   []string `mapstructure:"keys" validate:"required,min=1"`
	Event  string   `mapstructure:"event" validate:"required"`
	Output string   `mapstructure:"output" validate:"required"`
}

func (s *Aggregate) Name() string {
	return "aggregate"
}

func (s *Aggregate) Apply(_ context.Context, t *table.Table) (*table.Table, error) {
	keys, err := t.ColumnsOf(s.Keys)
	if err != nil {
		return nil, errors.Trace(err)
	}
	event, err := t.Column(s.Event)
	if err != nil {
		return nil, errors.Trace(err)
	}
	groups := make(map[string]int)
	var (
		first  []int
		events [][]string
	)
	for i := 0; i < t.Len(); i++ {
		key, ok := table.Key(keys, i)
		if !ok {
			continue
		}
		g, exist := groups[key]
		if !exist {
			g = len(first)
			groups[key] = g
			first = append(first, i)
			events = append(events, []string{})
		}
		if v, ok := event.Value(i); ok {
			events[g] = append(events[g], v)
		}
	}
	dropped(s.Name(), t.Len(), len(first), "aggregated")
	next := t.Take(first).Drop(s.Event)
	if next, err = next.WithColumn(table.NewSeqColumn(table.Field{Name: s.Output, Type: table.TokenSeq}, events)); err != nil {
		return nil, errors.Trace(err)
	}
	return next, nil
}

// LabelRule derives a binary label. A rule either lists events, and the label is 1 when any of them
// occurs in the event list, or gives a boolean expression over `events` and `row`.
type LabelRule struct {
	Name   string   `mapstructure:"name" validate:"required"`
	Events []string `mapstructure:"events" validate:"required_without=Expr"`
	Expr   string   `mapstructure:"expr" validate:"required_without=Events"`
}

// DeriveLabels appends a label column for every rule.
type DeriveLabels struct {
	Events string      `mapstructure:"events"`
	Labels []LabelRule `mapstructure:"labels" validate:"required,min=1,dive"`
}

func (s *DeriveLabels) Name() string {
	return "derive_labels"
}

func labelEnv(events []string, row map[string]string) map[string]any {
	return map[string]any{
		"events": events,
		"row":    row,
	}
}

func (s *DeriveLabels) Apply(_ context.Context, t *table.Table) (*table.Table, error) {
	var event *table.Column
	if t.Has(s.Events) {
		event, _ = t.Column(s.Events)
	}
	programs := make([]*vm.Program, len(s.Labels))
	for i, rule := range s.Labels {
		if rule.Expr != "" {
			program, err := expr.Compile(rule.Expr, expr.Env(labelEnv(nil, nil)), expr.AsBool())
			if err != nil {
				return nil, errors.NewNotValid(err, "label "+rule.Name)
			}
			programs[i] = program
		} else if event == nil {
			return nil, errors.NotFoundf("event field %s for label %s", s.Events, rule.Name)
		}
	}
	labels := make([][]float64, len(s.Labels))
	for i := range labels {
		labels[i] = make([]float64, t.Len())
	}
	for row := 0; row < t.Len(); row++ {
		var events []string
		if event != nil {
			events = event.Seq(row)
		}
		var env map[string]any
		for i, rule := range s.Labels {
			hit := false
			if programs[i] == nil {
				hit = lo.Some(events, rule.Events)
			} else {
				if env == nil {
					env = labelEnv(events, t.Row(row))
				}
				result, err := expr.Run(programs[i], env)
				if err != nil {
					return nil, errors.Annotatef(err, "label %s at row %d", rule.Name, t.RowID(row))
				}
				hit = result.(bool)
			}
			labels[i][row] = lo.Ternary(hit, 1.0, 0.0)
		}
	}
	next := t
	for i, rule := range s.Labels {
		var err error
		next, err = next.WithColumn(table.NewFloatColumn(table.Field{Name: rule.Name, Type: table.Label}, labels[i]))
		if err != nil {
			return nil, errors.Trace(err)
		}
	}
	return next, nil
}
