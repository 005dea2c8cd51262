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
	"strconv"

	"github.com/araddon/dateparse"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// SortByTime returns row positions stably sorted by a time column. Cells are parsed as numbers
// (such as unix timestamps) or, failing that, as dates. Rows with a missing time sort last.
func (t *Table) SortByTime(name string) ([]int, error) {
	col, err := t.Column(name)
	if err != nil {
		return nil, errors.Trace(err)
	}
	times := make([]float64, t.Len())
	present := make([]bool, t.Len())
	for i := range times {
		v, ok := col.Value(i)
		if !ok {
			continue
		}
		present[i] = true
		if times[i], err = strconv.ParseFloat(v, 64); err == nil {
			continue
		}
		date, err := dateparse.ParseAny(v)
		if err != nil {
			return nil, errors.NotValidf("time %q of field %s", v, name)
		}
		times[i] = float64(date.UnixNano())
	}
	order := lo.Range(t.Len())
	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if present[a] != present[b] {
			return present[a]
		}
		return times[a] < times[b]
	})
	return order, nil
}
