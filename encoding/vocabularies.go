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
	"io"
	"strconv"

	"github.com/gorse-io/mtlprep/table"
	"github.com/juju/errors"
	"gopkg.in/yaml.v3"
)

// Vocabularies holds the fitted vocabulary of every encoded column. Saved as an artifact, it lets
// later runs and serving encode values consistently with training.
type Vocabularies struct {
	names []string
	vocab map[string]*Vocabulary
}

func NewVocabularies() *Vocabularies {
	return &Vocabularies{vocab: make(map[string]*Vocabulary)}
}

func (vs *Vocabularies) Set(name string, v *Vocabulary) {
	if _, exist := vs.vocab[name]; !exist {
		vs.names = append(vs.names, name)
	}
	vs.vocab[name] = v
}

func (vs *Vocabularies) Get(name string) (*Vocabulary, bool) {
	v, ok := vs.vocab[name]
	return v, ok
}

// Names returns encoded columns in fit order.
func (vs *Vocabularies) Names() []string {
	return append([]string(nil), vs.names...)
}

// Dims returns the embedding dimension of every encoded column.
func (vs *Vocabularies) Dims() map[string]int {
	dims := make(map[string]int, len(vs.names))
	for _, name := range vs.names {
		dims[name] = vs.vocab[name].Dim()
	}
	return dims
}

type vocabularyEntry struct {
	Field  string   `yaml:"field"`
	Offset int      `yaml:"offset"`
	Values []string `yaml:"values"`
	Freq   []int    `yaml:"freq,omitempty"`
}

type vocabularyFile struct {
	Vocabularies []vocabularyEntry `yaml:"vocabularies"`
}

// Save writes vocabularies as YAML.
func (vs *Vocabularies) Save(w io.Writer) error {
	var file vocabularyFile
	for _, name := range vs.names {
		v := vs.vocab[name]
		file.Vocabularies = append(file.Vocabularies, vocabularyEntry{
			Field:  name,
			Offset: v.offset,
			Values: v.Values(),
			Freq:   append([]int(nil), v.cnt...),
		})
	}
	encoder := yaml.NewEncoder(w)
	if err := encoder.Encode(file); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(encoder.Close())
}

// Load reads vocabularies saved by Save.
func Load(r io.Reader) (*Vocabularies, error) {
	var file vocabularyFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, errors.Annotate(err, "decode vocabularies")
	}
	vs := NewVocabularies()
	for _, entry := range file.Vocabularies {
		if entry.Field == "" {
			return nil, errors.NotValidf("vocabulary without field")
		}
		v := NewVocabulary(entry.Values, entry.Offset)
		if v.Count() != len(entry.Values) {
			return nil, errors.NotValidf("duplicate values in vocabulary of %s", entry.Field)
		}
		if len(entry.Freq) == len(entry.Values) {
			copy(v.cnt, entry.Freq)
		}
		vs.Set(entry.Field, v)
	}
	return vs, nil
}

// FitColumn fits a vocabulary over the present values of a token or token sequence column.
func FitColumn(col *table.Column, offset int) (*Vocabulary, error) {
	if !col.Field.Type.IsTokenLike() {
		return nil, errors.NotValidf("encoding %s field %s", col.Field.Type, col.Field.Name)
	}
	values := make([]string, 0, col.Len())
	for i := 0; i < col.Len(); i++ {
		if col.Field.Type == table.TokenSeq {
			values = append(values, col.Seq(i)...)
		} else if v, ok := col.Value(i); ok {
			values = append(values, v)
		}
	}
	return Fit(values, offset), nil
}

// Transform replaces the values of a column with their codes. Missing cells become Pad when the
// vocabulary reserves it and stay missing otherwise.
func Transform(t *table.Table, name string, v *Vocabulary) (*table.Table, error) {
	col, err := t.Column(name)
	if err != nil {
		return nil, errors.Trace(err)
	}
	switch col.Field.Type {
	case table.Token:
		values := make([]string, col.Len())
		present := make([]bool, col.Len())
		for i := range values {
			s, ok := col.Value(i)
			if !ok {
				if v.offset > Pad {
					values[i], present[i] = strconv.Itoa(Pad), true
				}
				continue
			}
			id, err := v.Encode(s)
			if err != nil {
				return nil, errors.Annotatef(err, "field %s", name)
			}
			values[i], present[i] = strconv.Itoa(id), true
		}
		return t.WithColumn(table.NewMaskedColumn(col.Field, values, present))
	case table.TokenSeq:
		seqs := make([][]string, col.Len())
		for i := range seqs {
			if col.IsNull(i) {
				if v.offset > Pad {
					seqs[i] = []string{}
				}
				continue
			}
			elems := col.Seq(i)
			seqs[i] = make([]string, len(elems))
			for j, s := range elems {
				id, err := v.Encode(s)
				if err != nil {
					return nil, errors.Annotatef(err, "field %s", name)
				}
				seqs[i][j] = strconv.Itoa(id)
			}
		}
		return t.WithColumn(table.NewSeqColumn(col.Field, seqs))
	default:
		return nil, errors.NotValidf("encoding %s field %s", col.Field.Type, name)
	}
}
