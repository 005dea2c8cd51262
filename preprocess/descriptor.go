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

package preprocess

import (
	"io"

	"github.com/gorse-io/mtlprep/config"
	"github.com/gorse-io/mtlprep/encoding"
	"github.com/gorse-io/mtlprep/split"
	"github.com/gorse-io/mtlprep/table"
	"github.com/juju/errors"
	"gopkg.in/yaml.v3"
)

// Descriptor summarizes a preprocessed dataset for trainer configuration.
type Descriptor struct {
	Dataset           string                `yaml:"dataset"`
	Seed              int64                 `yaml:"seed"`
	Fields            []FieldDescriptor     `yaml:"fields"`
	FieldTokenDims    map[string]int        `yaml:"field_token_dims,omitempty"`
	FieldTokenSeqDims map[string]int        `yaml:"field_token_seq_dims,omitempty"`
	FloatFields       []string              `yaml:"float_fields,omitempty"`
	LabelFields       []string              `yaml:"label_fields,omitempty"`
	Partitions        []PartitionDescriptor `yaml:"partitions"`
}

type FieldDescriptor struct {
	Name     string          `yaml:"name"`
	Type     table.FieldType `yaml:"type"`
	Distinct int             `yaml:"distinct"`
	Nulls    int             `yaml:"nulls,omitempty"`
	Dim      int             `yaml:"dim,omitempty"`
}

type PartitionDescriptor struct {
	Name string `yaml:"name"`
	File string `yaml:"file"`
	Rows int    `yaml:"rows"`
}

// Describe builds the descriptor of a processed table and its partitions.
func Describe(cfg *config.Config, t *table.Table, partitions split.Partitions, vocab *encoding.Vocabularies) *Descriptor {
	d := &Descriptor{
		Dataset:           cfg.Dataset,
		Seed:              cfg.Split.Seed,
		FieldTokenDims:    make(map[string]int),
		FieldTokenSeqDims: make(map[string]int),
	}
	dims := vocab.Dims()
	for _, col := range t.Columns() {
		field := FieldDescriptor{
			Name:     col.Field.Name,
			Type:     col.Field.Type,
			Distinct: col.Distinct(),
			Nulls:    col.NullCount(),
			Dim:      dims[col.Field.Name],
		}
		d.Fields = append(d.Fields, field)
		switch col.Field.Type {
		case table.Token:
			if field.Dim > 0 {
				d.FieldTokenDims[field.Name] = field.Dim
			}
		case table.TokenSeq:
			if field.Dim > 0 {
				d.FieldTokenSeqDims[field.Name] = field.Dim
			}
		case table.Float, table.FloatSeq:
			d.FloatFields = append(d.FloatFields, field.Name)
		case table.Label:
			d.LabelFields = append(d.LabelFields, field.Name)
		}
	}
	for _, partition := range partitions.List() {
		d.Partitions = append(d.Partitions, PartitionDescriptor{
			Name: partition.Name,
			File: cfg.Output.FileName(cfg.Dataset, partition.Name),
			Rows: partition.Table.Len(),
		})
	}
	return d
}

// Save writes the descriptor as YAML.
func (d *Descriptor) Save(w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(d); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(encoder.Close())
}

// LoadDescriptor reads a descriptor written by Save.
func LoadDescriptor(r io.Reader) (*Descriptor, error) {
	var d Descriptor
	if err := yaml.NewDecoder(r).Decode(&d); err != nil {
		return nil, errors.NewNotValid(err, "decode descriptor")
	}
	return &d, nil
}
