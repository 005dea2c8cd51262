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
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/juju/errors"
)

// Factory creates a stage from decoded parameters.
type Factory func(params map[string]any) (Stage, error)

var (
	factories = make(map[string]Factory)
	validate  = sync.OnceValue(func() *validator.Validate {
		return validator.New(validator.WithRequiredStructEnabled())
	})
)

// Register adds a stage type. It panics if the type is registered twice.
func Register(typ string, factory Factory) {
	if _, exist := factories[typ]; exist {
		panic("stage type registered twice: " + typ)
	}
	factories[typ] = factory
}

// Types returns registered stage types in sorted order.
func Types() []string {
	types := make([]string, 0, len(factories))
	for typ := range factories {
		types = append(types, typ)
	}
	sort.Strings(types)
	return types
}

// Build creates a stage of a registered type.
func Build(typ string, params map[string]any) (Stage, error) {
	factory, ok := factories[typ]
	if !ok {
		return nil, errors.NotFoundf("stage type %s", typ)
	}
	stage, err := factory(params)
	if err != nil {
		return nil, errors.Annotatef(err, "build stage %s", typ)
	}
	return stage, nil
}

// register wraps a constructor of a parameter struct into a factory.
func register[T any, P interface {
	*T
	Stage
}](typ string, defaults func() T) {
	Register(typ, func(params map[string]any) (Stage, error) {
		stage := P(new(T))
		if defaults != nil {
			*stage = defaults()
		}
		if err := decode(params, stage); err != nil {
			return nil, errors.Trace(err)
		}
		if err := validate().Struct(stage); err != nil {
			return nil, errors.NewNotValid(err, "invalid stage parameters")
		}
		return stage, nil
	})
}

func decode(params map[string]any, result any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           result,
	})
	if err != nil {
		return errors.Trace(err)
	}
	if err = decoder.Decode(params); err != nil {
		return errors.NewNotValid(err, "decode stage parameters")
	}
	return nil
}

func init() {
	register[DropMissing]("drop_missing", nil)
	register[Aggregate]("aggregate", func() Aggregate {
		return Aggregate{Output: "events"}
	})
	register[DeriveLabels]("derive_labels", func() DeriveLabels {
		return DeriveLabels{Events: "events"}
	})
	register[PopularityFilter]("popularity_filter", func() PopularityFilter {
		return PopularityFilter{Threshold: 1}
	})
	register[Encode]("encode", func() Encode {
		return Encode{Offset: 1}
	})
	register[Dedup]("dedup", func() Dedup {
		return Dedup{Keep: "first"}
	})
	register[FilterValue]("filter_value", nil)
	register[FilterInterNum]("filter_inter_num", nil)
	register[FillMissing]("fill_missing", nil)
	register[Normalize]("normalize", nil)
	register[Project]("project", nil)
}
