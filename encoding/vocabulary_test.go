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
	"bytes"
	"strings"
	"testing"

	"github.com/gorse-io/mtlprep/table"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func TestFit(t *testing.T) {
	v := Fit([]string{"b", "a", "a", "c"}, 1)
	assert.Equal(t, 3, v.Count())
	assert.Equal(t, 4, v.Dim())
	for value, code := range map[string]int{"a": 1, "b": 2, "c": 3} {
		id, ok := v.Id(value)
		assert.True(t, ok)
		assert.Equal(t, code, id)
		back, ok := v.Value(code)
		assert.True(t, ok)
		assert.Equal(t, value, back)
	}
	assert.Equal(t, 2, v.Freq(1))
	assert.Equal(t, 1, v.Freq(2))
	assert.Equal(t, 0, v.Freq(0))
	_, ok := v.Value(0)
	assert.False(t, ok)
}

func TestFitNumeric(t *testing.T) {
	// numeric ids sort by value, not by text
	v := Fit([]string{"10", "9", "100", "9"}, 0)
	assert.Equal(t, []string{"9", "10", "100"}, v.Values())
	id, _ := v.Id("9")
	assert.Equal(t, 0, id)
	// mixed values sort as text
	v = Fit([]string{"10", "9", "x"}, 0)
	assert.Equal(t, []string{"10", "9", "x"}, v.Values())
}

func TestEncode(t *testing.T) {
	v := Fit([]string{"a", "b"}, 1)
	id, err := v.Encode("b")
	assert.NoError(t, err)
	assert.Equal(t, 2, id)
	id, err = v.Encode("z")
	assert.NoError(t, err)
	assert.Equal(t, Pad, id)

	v = Fit([]string{"a", "b"}, 0)
	_, err = v.Encode("z")
	assert.True(t, errors.IsNotFound(err))
}

func TestVocabulariesSaveLoad(t *testing.T) {
	vs := NewVocabularies()
	vs.Set("user_id", Fit([]string{"u2", "u1", "u2"}, 1))
	vs.Set("item_id", Fit([]string{"3", "1"}, 0))
	var buf bytes.Buffer
	assert.NoError(t, vs.Save(&buf))
	assert.Contains(t, buf.String(), "field: user_id")

	loaded, err := Load(&buf)
	assert.NoError(t, err)
	assert.Equal(t, []string{"user_id", "item_id"}, loaded.Names())
	assert.Equal(t, map[string]int{"user_id": 3, "item_id": 2}, loaded.Dims())
	users, ok := loaded.Get("user_id")
	assert.True(t, ok)
	id, _ := users.Id("u2")
	assert.Equal(t, 2, id)
	assert.Equal(t, 2, users.Freq(2))

	_, err = Load(strings.NewReader("vocabularies:\n  - offset: 1\n    values: [a]\n"))
	assert.True(t, errors.IsNotValid(err))
	_, err = Load(strings.NewReader("vocabularies:\n  - field: x\n    values: [a, a]\n"))
	assert.True(t, errors.IsNotValid(err))
}

func TestTransform(t *testing.T) {
	tab, err := table.New([]*table.Column{
		table.NewMaskedColumn(table.Field{Name: "user_id", Type: table.Token},
			[]string{"b", "a", "", "c"}, []bool{true, true, false, true}),
		table.NewSeqColumn(table.Field{Name: "history", Type: table.TokenSeq},
			[][]string{{"x", "y"}, {"y"}, nil, {}}),
		table.NewColumn(table.Field{Name: "score", Type: table.Float}, []string{"1", "2", "3", "4"}, nil),
	}, nil)
	assert.NoError(t, err)

	users, _ := tab.Column("user_id")
	v, err := FitColumn(users, 1)
	assert.NoError(t, err)
	encoded, err := Transform(tab, "user_id", v)
	assert.NoError(t, err)
	col, _ := encoded.Column("user_id")
	assert.Equal(t, []string{"2", "1", "0", "3"}, []string{col.String(0), col.String(1), col.String(2), col.String(3)})
	// source table is unchanged
	assert.Equal(t, "b", users.String(0))

	history, _ := tab.Column("history")
	v, err = FitColumn(history, 1)
	assert.NoError(t, err)
	assert.Equal(t, 2, v.Count())
	encoded, err = Transform(encoded, "history", v)
	assert.NoError(t, err)
	col, _ = encoded.Column("history")
	assert.Equal(t, []string{"1", "2"}, col.Seq(0))
	assert.Equal(t, []string{"2"}, col.Seq(1))
	assert.False(t, col.IsNull(2))

	score, _ := tab.Column("score")
	_, err = FitColumn(score, 1)
	assert.True(t, errors.IsNotValid(err))
	_, err = Transform(tab, "score", v)
	assert.True(t, errors.IsNotValid(err))
	_, err = Transform(tab, "unknown", v)
	assert.True(t, errors.IsNotFound(err))

	strict := Fit([]string{"a"}, 0)
	_, err = Transform(tab, "user_id", strict)
	assert.True(t, errors.IsNotFound(err))
}
