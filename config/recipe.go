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
	"embed"
	"path"
	"strings"

	"github.com/juju/errors"
)

//go:embed recipes/*.yaml
var recipes embed.FS

// Recipe is a built-in configuration.
type Recipe struct {
	Name        string
	Dataset     string
	Description string
	Input       string
	Stages      int
}

// Recipes lists built-in recipes by name.
func Recipes() ([]Recipe, error) {
	entries, err := recipes.ReadDir("recipes")
	if err != nil {
		return nil, errors.Trace(err)
	}
	var result []Recipe
	for _, entry := range entries {
		name := strings.TrimSuffix(entry.Name(), path.Ext(entry.Name()))
		config, err := LoadRecipe(name)
		if err != nil {
			return nil, errors.Trace(err)
		}
		result = append(result, Recipe{
			Name:        name,
			Dataset:     config.Dataset,
			Description: config.Description,
			Input:       config.Input.Path,
			Stages:      len(config.Stages),
		})
	}
	return result, nil
}

// LoadRecipe loads a built-in recipe. Environment variables override the recipe.
func LoadRecipe(name string) (*Config, error) {
	data, err := recipes.ReadFile(path.Join("recipes", name+".yaml"))
	if err != nil {
		return nil, errors.NotFoundf("recipe %s", name)
	}
	config, err := parse(data)
	if err != nil {
		return nil, errors.Annotatef(err, "load recipe %s", name)
	}
	return config, nil
}
