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
	"os"
	"path/filepath"
	"testing"

	"github.com/gorse-io/mtlprep/table"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

const testConfig = `
dataset: demo
input:
  path: data/demo.csv
  separator: "\t"
  null_values: ["", "-"]
  columns: ["score:float"]
  joins:
    - path: data/users.csv
      on: user_id
      header: typed
stages:
  - type: drop_missing
  - type: encode
    columns: [user_id, item_id]
    offset: 0
split:
  mode: ratio
  ratios: [0.8, 0.1, 0.1]
  group_by: user_id
  seed: 2022
output:
  url: s3://bucket/demo
  typed_header: false
storage:
  s3:
    endpoint: localhost:9000
    access_key_id: minio
`

func writeConfig(t *testing.T, text string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	assert.NoError(t, os.WriteFile(path, []byte(text), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, testConfig))
	assert.NoError(t, err)
	assert.NoError(t, config.Validate())
	assert.Equal(t, "demo", config.Dataset)
	// [input]
	assert.Equal(t, "data/demo.csv", config.Input.Path)
	assert.Equal(t, "\t", config.Input.Separator)
	assert.Equal(t, "plain", config.Input.Header)
	assert.Equal(t, []string{"", "-"}, config.Input.NullValues)
	opts := config.Input.ReadOptions()
	assert.Equal(t, table.HeaderPlain, opts.Header)
	assert.Equal(t, []string{"score:float"}, opts.Columns)
	assert.Equal(t, " ", opts.SeqSeparator)
	// joins inherit reader options
	assert.Len(t, config.Input.Joins, 1)
	assert.Equal(t, "user_id", config.Input.Joins[0].On)
	assert.Equal(t, "\t", config.Input.Joins[0].Separator)
	assert.Equal(t, "typed", config.Input.Joins[0].Header)
	assert.Equal(t, []string{"", "-"}, config.Input.Joins[0].NullValues)
	// [stages]
	assert.Len(t, config.Stages, 2)
	assert.Equal(t, "encode", config.Stages[1].Type())
	assert.NotContains(t, config.Stages[1].Params(), "type")
	p, err := config.Pipeline()
	assert.NoError(t, err)
	assert.Len(t, p.Stages(), 2)
	// [split]
	assert.Equal(t, RatioSplit, config.Split.Mode)
	assert.Equal(t, []float64{0.8, 0.1, 0.1}, config.Split.Ratios)
	assert.Equal(t, "user_id", config.Split.GroupBy)
	assert.Equal(t, int64(2022), config.Split.Seed)
	// [output]
	assert.Equal(t, "s3://bucket/demo", config.Output.URL)
	assert.False(t, config.Output.TypedHeader)
	assert.Equal(t, "demo.train.inter", config.Output.FileName(config.Dataset, "train"))
	assert.Equal(t, "demo.vocab.yaml", config.Output.VocabularyName(config.Dataset))
	assert.Equal(t, "demo.yaml", config.Output.DescriptorName(config.Dataset))
	// [storage]
	assert.Equal(t, "localhost:9000", config.Storage.S3.Endpoint)
	assert.Equal(t, "minio", config.Storage.S3.AccessKeyID)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
	_, err = LoadConfig(writeConfig(t, "dataset: [1"))
	assert.True(t, errors.IsNotValid(err))
}

func TestSetDefault(t *testing.T) {
	config, err := parse(nil)
	assert.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), config)
}

func TestBindEnv(t *testing.T) {
	t.Setenv("MTLPREP_INPUT_PATH", "/data/input.csv")
	t.Setenv("MTLPREP_OUTPUT_URL", "gs://bucket/prefix")
	t.Setenv("MTLPREP_SPLIT_SEED", "7")
	t.Setenv("MTLPREP_S3_SECRET_ACCESS_KEY", "<secret>")
	t.Setenv("MTLPREP_AZURE_CONNECTION_STRING", "<connection>")

	config, err := LoadConfig(writeConfig(t, testConfig))
	assert.NoError(t, err)
	assert.Equal(t, "/data/input.csv", config.Input.Path)
	assert.Equal(t, "gs://bucket/prefix", config.Output.URL)
	assert.Equal(t, int64(7), config.Split.Seed)
	assert.Equal(t, "<secret>", config.Storage.S3.SecretAccessKey)
	assert.Equal(t, "<connection>", config.Storage.Azure.ConnectionString)
}

func TestValidate(t *testing.T) {
	cases := map[string]string{
		"missing dataset":    "input: {path: a.csv}",
		"missing path":       "dataset: demo",
		"unknown header":     "dataset: demo\ninput: {path: a.csv, header: json}",
		"missing columns":    "dataset: demo\ninput: {path: a.csv, header: none}",
		"load and unload":    "dataset: demo\ninput: {path: a.csv, load_columns: [a], unload_columns: [b]}",
		"bad column name":    "dataset: demo\ninput: {path: a.csv, columns: ['a,b:float']}",
		"bad holdout":        "dataset: demo\ninput: {path: a.csv}\nsplit: {holdout: 1.5}",
		"bad split mode":     "dataset: demo\ninput: {path: a.csv}\nsplit: {mode: kfold}",
		"two ratios":         "dataset: demo\ninput: {path: a.csv}\nsplit: {mode: ratio, ratios: [0.8, 0.2]}",
		"negative ratio":     "dataset: demo\ninput: {path: a.csv}\nsplit: {mode: ratio, ratios: [0.8, -0.1, 0.3]}",
		"pattern":            "dataset: demo\ninput: {path: a.csv}\noutput: {pattern: data.inter}",
		"stage without type": "dataset: demo\ninput: {path: a.csv}\nstages: [{columns: [a]}]",
		"bad stage params":   "dataset: demo\ninput: {path: a.csv}\nstages: [{type: encode, offset: 3, columns: [a]}]",
		"join without key":   "dataset: demo\ninput: {path: a.csv, joins: [{path: b.csv}]}",
		"bad order":          "dataset: demo\ninput: {path: a.csv}\nsplit: {order: shuffle}",
		"time without field": "dataset: demo\ninput: {path: a.csv}\nsplit: {order: time}",
		"loo without group":  "dataset: demo\ninput: {path: a.csv}\nsplit: {mode: leave_one_out}",
		"bad loo mode":       "dataset: demo\ninput: {path: a.csv}\nsplit: {mode: leave_one_out, group_by: u, leave_one_mode: valid}",
		"benchmark path":     "dataset: demo\ninput: {path: a.csv}\nsplit: {mode: benchmark}",
		"presplit path":      "dataset: demo\ninput: {path: 'a.{partition}.csv'}",
	}
	for name, text := range cases {
		config, err := parse([]byte(text))
		assert.NoError(t, err, name)
		assert.True(t, errors.IsNotValid(config.Validate()), name)
	}

	config, err := parse([]byte("dataset: demo\ninput: {path: a.csv}\nstages: [{type: shuffle}]"))
	assert.NoError(t, err)
	assert.True(t, errors.IsNotFound(config.Validate()))
}

func TestSplitConfig(t *testing.T) {
	config, err := parse([]byte(`
dataset: demo
input:
  path: a.csv
  joins:
    - {path: users.csv, on: user_id, inner: true}
split:
  mode: leave_one_out
  order: time
  time_field: timestamp
  group_by: user_id
  leave_one_mode: test_only
`))
	assert.NoError(t, err)
	assert.NoError(t, config.Validate())
	assert.Equal(t, SplitConfig{
		Mode:         LeaveOneOutSplit,
		Order:        TimeOrder,
		TimeField:    "timestamp",
		Holdout:      0.2,
		GroupBy:      "user_id",
		LeaveOneMode: "test_only",
		Seed:         42,
	}, config.Split)
	assert.True(t, config.Input.Joins[0].Inner)
	assert.False(t, config.Input.Presplit())

	config, err = parse([]byte("dataset: demo\ninput: {path: 'data/ml.{partition}.inter'}\nsplit: {mode: benchmark}"))
	assert.NoError(t, err)
	assert.NoError(t, config.Validate())
	assert.True(t, config.Input.Presplit())
	assert.Equal(t, []string{"data/ml.train.inter", "data/ml.valid.inter", "data/ml.test.inter"},
		config.Input.PartitionPaths())
}

func TestRecipes(t *testing.T) {
	recipes, err := Recipes()
	assert.NoError(t, err)
	assert.Equal(t, []string{"ijcai15", "kuairand", "qbvideo", "userbehavior"}, []string{
		recipes[0].Name, recipes[1].Name, recipes[2].Name, recipes[3].Name})
	for _, recipe := range recipes {
		config, err := LoadRecipe(recipe.Name)
		assert.NoError(t, err)
		assert.NoError(t, config.Validate(), recipe.Name)
		assert.Equal(t, recipe.Name, config.Dataset)
		assert.NotEmpty(t, recipe.Description)
	}
	config, err := LoadRecipe("ijcai15")
	assert.NoError(t, err)
	assert.Equal(t, "plain", config.Input.Joins[0].Header)

	_, err = LoadRecipe("movielens")
	assert.True(t, errors.IsNotFound(err))
}
