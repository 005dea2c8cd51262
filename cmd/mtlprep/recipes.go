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
	"fmt"
	"os"

	"github.com/gorse-io/mtlprep/config"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var recipesCommand = &cobra.Command{
	Use:   "recipes",
	Short: "List built-in recipes.",
	RunE: func(cmd *cobra.Command, args []string) error {
		recipes, err := config.Recipes()
		if err != nil {
			return errors.Trace(err)
		}
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("name", "input", "stages", "description")
		for _, recipe := range recipes {
			if err = table.Append([]string{recipe.Name, recipe.Input, fmt.Sprint(recipe.Stages), recipe.Description}); err != nil {
				return errors.Trace(err)
			}
		}
		return errors.Trace(table.Render())
	},
}

func init() {
	rootCommand.AddCommand(recipesCommand)
}
