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

package split

import (
	"math"

	"github.com/bits-and-blooms/bitset"
	"github.com/gorse-io/mtlprep/base"
	"github.com/gorse-io/mtlprep/table"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

const (
	Train = "train"
	Valid = "valid"
	Test  = "test"
)

// Partitions are the disjoint train, validation and test subsets of a table.
type Partitions struct {
	Train *table.Table
	Valid *table.Table
	Test  *table.Table
}

// Partition is a named subset.
type Partition struct {
	Name  string
	Table *table.Table
}

// List returns the partitions in train, validation, test order.
func (p Partitions) List() []Partition {
	return []Partition{
		{Name: Train, Table: p.Train},
		{Name: Valid, Table: p.Valid},
		{Name: Test, Table: p.Test},
	}
}

// Leave-one-out modes name the parts that receive the last rows of every group.
const (
	ValidAndTest = "valid_and_test"
	ValidOnly    = "valid_only"
	TestOnly     = "test_only"
)

// Order arranges the rows of a table before they are divided. Training rows are taken from the
// head of the order and test rows from its tail.
type Order func(t *table.Table) ([]int, error)

// Random orders rows by a permutation drawn from the seed.
func Random(seed int64) Order {
	return func(t *table.Table) ([]int, error) {
		return base.NewRandomGenerator(seed).Permutation(t.Len()), nil
	}
}

// ByTime orders rows by a time column, earliest first.
func ByTime(field string) Order {
	return func(t *table.Table) ([]int, error) {
		return t.SortByTime(field)
	}
}

// parts holds the row positions of train, validation and test.
type parts [3][]int

func (p *parts) partitions(t *table.Table) Partitions {
	return Partitions{
		Train: t.Take(p[0]),
		Valid: t.Take(p[1]),
		Test:  t.Take(p[2]),
	}
}

// Holdout holds out the last ceil(holdout*n) rows of the order and divides them into halves:
// the last ceil(h/2) rows for test and the rest for validation.
func Holdout(t *table.Table, holdout float64, order Order) (Partitions, error) {
	if holdout <= 0 || holdout >= 1 {
		return Partitions{}, errors.NotValidf("holdout fraction %v", holdout)
	}
	rows, err := order(t)
	if err != nil {
		return Partitions{}, errors.Trace(err)
	}
	n := len(rows)
	numHeld := int(math.Ceil(holdout * float64(n)))
	numTest := int(math.Ceil(float64(numHeld) / 2))
	return (&parts{rows[:n-numHeld], rows[n-numHeld : n-numTest], rows[n-numTest:]}).partitions(t), nil
}

// Ratio splits ordered rows by ratios [train, valid, test]. Ratios need not be normalized. When
// groupBy is set, every group is split separately so that each group has rows in every part it
// can fill.
func Ratio(t *table.Table, ratios []float64, groupBy string, order Order) (Partitions, error) {
	if len(ratios) != 3 {
		return Partitions{}, errors.NotValidf("%d split ratios, expected 3", len(ratios))
	}
	total := lo.Sum(ratios)
	if total <= 0 || lo.SomeBy(ratios, func(r float64) bool { return r < 0 }) {
		return Partitions{}, errors.NotValidf("split ratios %v", ratios)
	}
	ratios = lo.Map(ratios, func(r float64, _ int) float64 {
		return r / total
	})
	rows, err := order(t)
	if err != nil {
		return Partitions{}, errors.Trace(err)
	}
	groups := [][]int{rows}
	if groupBy != "" {
		if groups, err = group(t, rows, groupBy); err != nil {
			return Partitions{}, errors.Trace(err)
		}
	}
	var p parts
	for _, rows := range groups {
		assign(&p, rows, ratios)
	}
	return p.partitions(t), nil
}

// LeaveOneOut groups ordered rows and moves the last rows of every group out of training: one row
// to validation and one to test for ValidAndTest, or one row to the single named part. A group
// always keeps at least one training row, and a group of two rows under ValidAndTest gives its
// second row to test.
func LeaveOneOut(t *table.Table, groupBy, mode string, order Order) (Partitions, error) {
	if groupBy == "" {
		return Partitions{}, errors.NotValidf("leave one out without group field")
	}
	var targets []int
	switch mode {
	case ValidAndTest:
		targets = []int{1, 2}
	case ValidOnly:
		targets = []int{1}
	case TestOnly:
		targets = []int{2}
	default:
		return Partitions{}, errors.NotValidf("leave one out mode %q", mode)
	}
	rows, err := order(t)
	if err != nil {
		return Partitions{}, errors.Trace(err)
	}
	groups, err := group(t, rows, groupBy)
	if err != nil {
		return Partitions{}, errors.Trace(err)
	}
	var p parts
	for _, rows := range groups {
		left := min(len(targets), len(rows)-1)
		train := len(rows) - left
		p[0] = append(p[0], rows[:train]...)
		for i, row := range rows[train:] {
			target := targets[len(targets)-left+i]
			p[target] = append(p[target], row)
		}
	}
	return p.partitions(t), nil
}

// Benchmark restores the partitions of a table concatenated from pre-split train, validation and
// test files with the given row counts. Rows are assigned by row identity, which counts rows across
// the files in order.
func Benchmark(t *table.Table, sizes []int) (Partitions, error) {
	if len(sizes) != 3 {
		return Partitions{}, errors.NotValidf("%d benchmark files, expected 3", len(sizes))
	}
	var p parts
	for i := 0; i < t.Len(); i++ {
		id, bound := t.RowID(i), 0
		for j, size := range sizes {
			bound += size
			if id < bound || j == len(sizes)-1 {
				p[j] = append(p[j], i)
				break
			}
		}
	}
	return p.partitions(t), nil
}

// group collects rows by the value of a column, keeping the order of rows within each group and
// the first-seen order of groups.
func group(t *table.Table, rows []int, groupBy string) ([][]int, error) {
	col, err := t.Column(groupBy)
	if err != nil {
		return nil, errors.Trace(err)
	}
	var groups [][]int
	positions := make(map[string]int)
	for _, row := range rows {
		key := col.String(row)
		g, exist := positions[key]
		if !exist {
			g = len(groups)
			positions[key] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], row)
	}
	return groups, nil
}

func assign(p *parts, rows []int, ratios []float64) {
	splitIds := calculateSplitIds(len(rows), ratios)
	bounds := append(append([]int{0}, splitIds...), len(rows))
	for i := range p {
		p[i] = append(p[i], rows[bounds[i]:bounds[i+1]]...)
	}
}

// calculateSplitIds returns the boundaries between parts. Every part other than the first is rounded
// down, then parts with a positive but fractional share get one row while the first part has
// more than one.
func calculateSplitIds(total int, ratios []float64) []int {
	counts := lo.Map(ratios, func(r float64, _ int) int {
		return int(r * float64(total))
	})
	counts[0] = total - lo.Sum(counts[1:])
	for i := 1; i < len(ratios); i++ {
		if counts[0] <= 1 {
			break
		}
		share := ratios[len(ratios)-i] * float64(total)
		if share > 0 && share < 1 {
			counts[len(counts)-i]++
			counts[0]--
		}
	}
	ids := make([]int, len(counts)-1)
	sum := 0
	for i := range ids {
		sum += counts[i]
		ids[i] = sum
	}
	return ids
}

// Verify checks that parts are pairwise disjoint by row identity and that their union is whole.
func Verify(whole *table.Table, parts ...*table.Table) error {
	positions := make(map[int]uint, whole.Len())
	for i := 0; i < whole.Len(); i++ {
		positions[whole.RowID(i)] = uint(i)
	}
	covered := bitset.New(uint(whole.Len()))
	for _, part := range parts {
		for i := 0; i < part.Len(); i++ {
			id := part.RowID(i)
			pos, ok := positions[id]
			if !ok {
				return errors.NotValidf("row %d not in source table", id)
			}
			if covered.Test(pos) {
				return errors.NotValidf("row %d in more than one partition", id)
			}
			covered.Set(pos)
		}
	}
	if covered.Count() != uint(whole.Len()) {
		return errors.NotValidf("%d of %d rows covered by partitions", covered.Count(), whole.Len())
	}
	return nil
}
