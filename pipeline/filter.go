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
	"math"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/mtlprep/base/log"
	"github.com/gorse-io/mtlprep/table"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// PopularityFilter sums the target column per key tuple and removes the rows of every key whose
// sum is below the threshold. It also removes rows with a missing key cell, which never enter the
// exclusion set; they are counted with the dropped rows of the stage. When users and items are both
// filtered, each one is a separate stage and the second pass may leave entities of the first below
// the threshold.
type PopularityFilter struct {
	Keys      []string `mapstructure:"keys" validate:"required,min=1"`
	Target    string   `mapstructure:"target" validate:"required"`
	Threshold float64  `mapstructure:"threshold"`
}

func (s *PopularityFilter) Name() string {
	return "popularity_filter"
}

func (s *PopularityFilter) Apply(_ context.Context, t *table.Table) (*table.Table, error) {
	keys, err := t.ColumnsOf(s.Keys)
	if err != nil {
		return nil, errors.Trace(err)
	}
	target, err := t.Column(s.Target)
	if err != nil {
		return nil, errors.Trace(err)
	}
	sums := make(map[string]float64)
	for i := 0; i < t.Len(); i++ {
		key, ok := table.Key(keys, i)
		if !ok {
			continue
		}
		v, _, err := target.Float(i)
		if err != nil {
			return nil, errors.Trace(err)
		}
		sums[key] += v
	}
	excluded := mapset.NewThreadUnsafeSet[string]()
	for key, sum := range sums {
		if sum < s.Threshold {
			excluded.Add(key)
		}
	}
	log.StageLogger(s.Name()).Info("exclude entities",
		zap.Strings("keys", s.Keys),
		zap.Int("excluded", excluded.Cardinality()),
		zap.Int("total", len(sums)))
	next := t.Filter(func(i int) bool {
		key, ok := table.Key(keys, i)
		return ok && !excluded.Contains(key)
	})
	dropped(s.Name(), t.Len(), next.Len(), "unpopular "+strings.Join(s.Keys, ","))
	return next, nil
}

// Interval is a range of numbers with open or closed bounds.
type Interval struct {
	Lower, Upper         float64
	LowerOpen, UpperOpen bool
}

func (i Interval) Contains(v float64) bool {
	if v < i.Lower || (i.LowerOpen && v == i.Lower) {
		return false
	}
	if v > i.Upper || (i.UpperOpen && v == i.Upper) {
		return false
	}
	return true
}

// ParseIntervals parses intervals separated by semicolons, such as "[1,5);(7,9]". Bounds may be
// "inf" or "-inf".
func ParseIntervals(text string) ([]Interval, error) {
	var intervals []Interval
	for _, part := range strings.Split(text, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if len(part) < 2 {
			return nil, errors.NotValidf("interval %q", part)
		}
		left, right := part[0], part[len(part)-1]
		if (left != '[' && left != '(') || (right != ']' && right != ')') {
			return nil, errors.NotValidf("interval %q", part)
		}
		bounds := strings.Split(part[1:len(part)-1], ",")
		if len(bounds) != 2 {
			return nil, errors.NotValidf("interval %q", part)
		}
		lower, err := parseBound(bounds[0])
		if err != nil {
			return nil, errors.NotValidf("interval %q", part)
		}
		upper, err := parseBound(bounds[1])
		if err != nil {
			return nil, errors.NotValidf("interval %q", part)
		}
		if lower > upper {
			return nil, errors.NotValidf("interval %q", part)
		}
		intervals = append(intervals, Interval{
			Lower:     lower,
			Upper:     upper,
			LowerOpen: left == '(',
			UpperOpen: right == ')',
		})
	}
	if len(intervals) == 0 {
		return nil, errors.NotValidf("empty intervals %q", text)
	}
	return intervals, nil
}

func parseBound(s string) (float64, error) {
	switch s = strings.TrimSpace(s); s {
	case "inf", "+inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	}
	return strconv.ParseFloat(s, 64)
}

func inIntervals(intervals []Interval, v float64) bool {
	return lo.SomeBy(intervals, func(i Interval) bool {
		return i.Contains(v)
	})
}

// FilterValue keeps rows whose numeric field lies in any of the intervals, or whose field value is
// one of the listed values. Rows with a missing value are removed.
type FilterValue struct {
	Field     string   `mapstructure:"field" validate:"required"`
	Intervals string   `mapstructure:"intervals" validate:"required_without=Values"`
	Values    []string `mapstructure:"values" validate:"required_without=Intervals"`
}

func (s *FilterValue) Name() string {
	return "filter_value"
}

func (s *FilterValue) Apply(_ context.Context, t *table.Table) (*table.Table, error) {
	col, err := t.Column(s.Field)
	if err != nil {
		return nil, errors.Trace(err)
	}
	var keep []bool
	if s.Intervals != "" {
		intervals, err := ParseIntervals(s.Intervals)
		if err != nil {
			return nil, errors.Trace(err)
		}
		keep = make([]bool, t.Len())
		for i := range keep {
			v, ok, err := col.Float(i)
			if err != nil {
				return nil, errors.Trace(err)
			}
			keep[i] = ok && inIntervals(intervals, v)
		}
	} else {
		values := mapset.NewThreadUnsafeSet(s.Values...)
		keep = make([]bool, t.Len())
		for i := range keep {
			v, ok := col.Value(i)
			keep[i] = ok && values.Contains(v)
		}
	}
	next := t.Filter(func(i int) bool {
		return keep[i]
	})
	dropped(s.Name(), t.Len(), next.Len(), "value of "+s.Field)
	return next, nil
}

// FilterInterNum repeatedly removes the interactions of users and items whose number of
// interactions lies outside the intervals until every remaining entity satisfies them.
type FilterInterNum struct {
	User         string `mapstructure:"user" validate:"required_with=UserInterval"`
	Item         string `mapstructure:"item" validate:"required_with=ItemInterval"`
	UserInterval string `mapstructure:"user_interval" validate:"required_without=ItemInterval"`
	ItemInterval string `mapstructure:"item_interval" validate:"required_without=UserInterval"`
}

func (s *FilterInterNum) Name() string {
	return "filter_inter_num"
}

type interCounter struct {
	column    *table.Column
	intervals []Interval
	counts    map[string]int
}

func newInterCounter(t *table.Table, name, intervals string) (*interCounter, error) {
	if intervals == "" {
		return nil, nil
	}
	parsed, err := ParseIntervals(intervals)
	if err != nil {
		return nil, errors.Trace(err)
	}
	col, err := t.Column(name)
	if err != nil {
		return nil, errors.Trace(err)
	}
	counter := &interCounter{column: col, intervals: parsed, counts: make(map[string]int)}
	for i := 0; i < t.Len(); i++ {
		if v, ok := col.Value(i); ok {
			counter.counts[v]++
		}
	}
	return counter, nil
}

func (c *interCounter) banned() mapset.Set[string] {
	ban := mapset.NewThreadUnsafeSet[string]()
	if c == nil {
		return ban
	}
	for id, n := range c.counts {
		if !inIntervals(c.intervals, float64(n)) {
			ban.Add(id)
		}
	}
	return ban
}

func (c *interCounter) isBanned(ban mapset.Set[string], row int) bool {
	if c == nil {
		return false
	}
	v, ok := c.column.Value(row)
	return ok && ban.Contains(v)
}

func (c *interCounter) remove(row int) {
	if c == nil {
		return
	}
	if v, ok := c.column.Value(row); ok {
		if c.counts[v]--; c.counts[v] <= 0 {
			delete(c.counts, v)
		}
	}
}

func (s *FilterInterNum) Apply(ctx context.Context, t *table.Table) (*table.Table, error) {
	users, err := newInterCounter(t, s.User, s.UserInterval)
	if err != nil {
		return nil, errors.Trace(err)
	}
	items, err := newInterCounter(t, s.Item, s.ItemInterval)
	if err != nil {
		return nil, errors.Trace(err)
	}
	alive := make([]bool, t.Len())
	for i := range alive {
		alive[i] = true
	}
	for round := 1; ; round++ {
		if err = ctx.Err(); err != nil {
			return nil, errors.Trace(err)
		}
		banUsers, banItems := users.banned(), items.banned()
		if banUsers.Cardinality() == 0 && banItems.Cardinality() == 0 {
			break
		}
		removed := 0
		for i := range alive {
			if alive[i] && (users.isBanned(banUsers, i) || items.isBanned(banItems, i)) {
				alive[i] = false
				users.remove(i)
				items.remove(i)
				removed++
			}
		}
		log.StageLogger(s.Name()).Debug("remove interactions",
			zap.Int("round", round),
			zap.Int("banned_users", banUsers.Cardinality()),
			zap.Int("banned_items", banItems.Cardinality()),
			zap.Int("rows", removed))
	}
	next := t.Filter(func(i int) bool {
		return alive[i]
	})
	dropped(s.Name(), t.Len(), next.Len(), "interaction number")
	return next, nil
}
