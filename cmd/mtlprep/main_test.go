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

package main

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	flags := rootCommand.PersistentFlags()
	defer func() {
		assert.NoError(t, flags.Set("config", ""))
		assert.NoError(t, flags.Set("recipe", ""))
	}()
	assert.NoError(t, rootCommand.ParseFlags(nil))
	_, err := loadConfig(rootCommand)
	assert.True(t, errors.IsNotValid(err))

	assert.NoError(t, flags.Set("recipe", "qbvideo"))
	cfg, err := loadConfig(rootCommand)
	assert.NoError(t, err)
	assert.Equal(t, "qbvideo", cfg.Dataset)

	assert.NoError(t, flags.Set("config", "recipe.yaml"))
	_, err = loadConfig(rootCommand)
	assert.True(t, errors.IsNotValid(err))
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "log.csv")
	var text string
	for _, line := range []string{"1,1,pv", "1,1,buy", "1,2,pv", "2,1,buy", "2,2,pv", "3,1,buy", "3,3,pv", "4,2,buy", "4,4,pv", "5,5,buy"} {
		text += line + "\n"
	}
	assert.NoError(t, os.WriteFile(input, []byte(text), 0644))
	recipe := filepath.Join(dir, "recipe.yaml")
	assert.NoError(t, os.WriteFile(recipe, []byte(`
dataset: demo
input:
  path: log.csv
  header: none
  columns: [user_id, item_id, behavior]
stages:
  - type: aggregate
    keys: [user_id, item_id]
    event: behavior
  - type: derive_labels
    labels: [{name: buy, events: [buy]}]
  - type: encode
    columns: [user_id, item_id]
`), 0644))
	output := filepath.Join(dir, "output")

	rootCommand.SetArgs([]string{"run", "--config", recipe, "--input", input, "--output", output, "--seed", "7"})
	assert.NoError(t, rootCommand.Execute())
	_, err := os.Stat(filepath.Join(output, "demo.train.inter"))
	assert.NoError(t, err)

	rootCommand.SetArgs([]string{"inspect", filepath.Join(output, "demo.train.inter")})
	assert.NoError(t, rootCommand.Execute())

	encoded := filepath.Join(dir, "encoded.csv")
	rootCommand.SetArgs([]string{"encode", "--config", recipe, "--input", input,
		"--vocab", filepath.Join(output, "demo.vocab.yaml"), "--output", encoded})
	assert.NoError(t, rootCommand.Execute())
	data, err := os.ReadFile(encoded)
	assert.NoError(t, err)
	assert.Contains(t, string(data), "user_id:token,item_id:token,behavior:token\n1,1,pv\n")

	rootCommand.SetArgs([]string{"recipes"})
	assert.NoError(t, rootCommand.Execute())
}

func TestStopSignals(t *testing.T) {
	assert.Contains(t, stopSignals, os.Interrupt)
	assert.Contains(t, stopSignals, syscall.SIGTERM)
}
