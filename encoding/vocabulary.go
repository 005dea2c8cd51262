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

package encoding

import (
	"sort"
	"strconv"
	"strings"

	"github.com/juju/errors"
)

// Pad is the code reserved for missing or unseen values when the offset is 1.
const Pad = 0

// Vocabulary is a dense bijection between the distinct values of a column and the codes
// [offset, offset+k). Codes follow the sorted order of values: numeric order when every
// value is a number, lexicographic order otherwise.
type Vocabulary struct {
	si     map[string]int
	is     []string
	cnt    []int
	offset int
}

// Fit builds a vocabulary from the values of a column. Frequencies count every occurrence.
func Fit(values []string, offset int) *Vocabulary {
	freq := make(map[string]int)
	for _, v := range values {
		freq[v]++
	}
	distinct := make([]string, 0, len(freq))
	for v := range freq {
		distinct = append(distinct, v)
	}
	sortValues(distinct)
	v := NewVocabulary(distinct, offset)
	for i, s := range v.is {
		v.cnt[i] = freq[s]
	}
	return v
}

// NewVocabulary creates a vocabulary whose codes follow the order of values.
func NewVocabulary(values []string, offset int) *Vocabulary {
	v := &Vocabulary{
		si:     make(map[string]int, len(values)),
		is:     make([]string, 0, len(values)),
		cnt:    make([]int, 0, len(values)),
		offset: offset,
	}
	for _, s := range values {
		if _, exist := v.si[s]; exist {
			continue
		}
		v.si[s] = len(v.is)
		v.is = append(v.is, s)
		v.cnt = append(v.cnt, 0)
	}
	return v
}

func sortValues(values []string) {
	numbers := make([]float64, len(values))
	numeric := true
	for i, v := range values {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			numeric = false
			break
		}
		numbers[i] = f
	}
	if numeric {
		sort.Sort(byNumber{values, numbers})
	} else {
		sort.Strings(values)
	}
}

type byNumber struct {
	values  []string
	numbers []float64
}

func (b byNumber) Len() int { return len(b.values) }

func (b byNumber) Less(i, j int) bool {
	if b.numbers[i] == b.numbers[j] {
		return b.values[i] < b.values[j]
	}
	return b.numbers[i] < b.numbers[j]
}

func (b byNumber) Swap(i, j int) {
	b.values[i], b.values[j] = b.values[j], b.values[i]
	b.numbers[i], b.numbers[j] = b.numbers[j], b.numbers[i]
}

// Count returns the number of distinct values.
func (v *Vocabulary) Count() int {
	return len(v.is)
}

// Dim returns the number of codes a model needs for this column, including the reserved code.
func (v *Vocabulary) Dim() int {
	return len(v.is) + v.offset
}

// Id returns the code of a value.
func (v *Vocabulary) Id(s string) (int, bool) {
	if i, ok := v.si[s]; ok {
		return i + v.offset, true
	}
	return 0, false
}

// Encode returns the code of a value. Unseen values map to Pad when the offset reserves it.
func (v *Vocabulary) Encode(s string) (int, error) {
	if id, ok := v.Id(s); ok {
		return id, nil
	}
	if v.offset > Pad {
		return Pad, nil
	}
	return 0, errors.NotFoundf("value %q", s)
}

// Value returns the value of a code.
func (v *Vocabulary) Value(id int) (string, bool) {
	i := id - v.offset
	if i < 0 || i >= len(v.is) {
		return "", false
	}
	return v.is[i], true
}

// Freq returns the number of occurrences of a code at fit time.
func (v *Vocabulary) Freq(id int) int {
	i := id - v.offset
	if i < 0 || i >= len(v.cnt) {
		return 0
	}
	return v.cnt[i]
}

// Values returns the values in code order.
func (v *Vocabulary) Values() []string {
	return append([]string(nil), v.is...)
}
