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

package config

import (
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gorse-io/mtlprep/base"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

var validate = sync.OnceValue(func() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
})

// Validate checks the configuration and builds its stages.
func (config *Config) Validate() error {
	if err := validate().Struct(config); err != nil {
		return errors.NewNotValid(err, "invalid config")
	}
	if config.Split.Mode == RatioSplit {
		ratios := config.Split.Ratios
		if len(ratios) != 3 || lo.Sum(ratios) <= 0 || lo.Min(ratios) < 0 {
			return errors.NotValidf("split ratios %v", ratios)
		}
	}
	if config.Input.Presplit() != (config.Split.Mode == BenchmarkSplit) {
		return errors.NotValidf("split mode %s with input path %s (pre-split inputs need %s and %s in the path)",
			config.Split.Mode, config.Input.Path, BenchmarkSplit, partitionPlaceholder)
	}
	for _, column := range config.Input.Columns {
		name, _, _ := strings.Cut(column, ":")
		if err := base.ValidateFieldName(name, config.Input.Separator); err != nil {
			return errors.NewNotValid(err, "input columns")
		}
	}
	if _, err := config.Pipeline(); err != nil {
		return errors.Trace(err)
	}
	return nil
}
