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
	"strings"

	"github.com/juju/errors"
)

// FieldType is the type of a field in an atomic file header.
type FieldType string

const (
	// Token is a categorical id such as user_id or item_id.
	Token FieldType = "token"
	// Float is a dense numeric feature.
	Float FieldType = "float"
	// Label is a supervised target.
	Label FieldType = "label"
	// TokenSeq is a sequence of categorical ids.
	TokenSeq FieldType = "token_seq"
	// FloatSeq is a sequence of dense values.
	FloatSeq FieldType = "float_seq"
)

var fieldTypes = []FieldType{Token, Float, Label, TokenSeq, FloatSeq}

// ParseFieldType parses the suffix of a typed header cell.
func ParseFieldType(s string) (FieldType, error) {
	for _, t := range fieldTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", errors.NotValidf("field type %q", s)
}

// IsSeq returns true for sequence types.
func (t FieldType) IsSeq() bool {
	return t == TokenSeq || t == FloatSeq
}

// IsNumeric returns true for types whose cells are parsed as numbers.
func (t FieldType) IsNumeric() bool {
	return t == Float || t == Label || t == FloatSeq
}

// IsTokenLike returns true for types that take part in label encoding.
func (t FieldType) IsTokenLike() bool {
	return t == Token || t == TokenSeq
}

// Field is a named, typed column.
type Field struct {
	Name string    `yaml:"name" json:"name"`
	Type FieldType `yaml:"type" json:"type"`
}

// ParseField parses `name:type`. A name without type is a token field.
func ParseField(s string) (Field, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Field{}, errors.NotValidf("empty field")
	}
	name, typ, found := strings.Cut(s, ":")
	if !found {
		return Field{Name: name, Type: Token}, nil
	}
	if name == "" {
		return Field{}, errors.NotValidf("field %q without name", s)
	}
	fieldType, err := ParseFieldType(typ)
	if err != nil {
		return Field{}, errors.Annotatef(err, "field %q", name)
	}
	return Field{Name: name, Type: fieldType}, nil
}

// String formats the field as a typed header cell.
func (f Field) String() string {
	return f.Name + ":" + string(f.Type)
}
