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

	"github.com/gorse-io/mtlprep/table"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var inspectCommand = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show fields, missing values and distinct values of a delimited file.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := table.DefaultReadOptions()
		opts.Separator, _ = cmd.Flags().GetString("separator")
		header, _ := cmd.Flags().GetString("header")
		opts.Header = table.HeaderMode(header)
		opts.Columns, _ = cmd.Flags().GetStringSlice("columns")
		opts.Progress = true
		t, err := table.ReadFile(args[0], opts)
		if err != nil {
			return errors.Trace(err)
		}
		fmt.Printf("%s: %d rows\n", args[0], t.Len())
		writer := tablewriter.NewWriter(os.Stdout)
		writer.Header("field", "type", "missing", "distinct")
		for _, col := range t.Columns() {
			if err = writer.Append([]string{
				col.Field.Name,
				string(col.Field.Type),
				fmt.Sprint(col.NullCount()),
				fmt.Sprint(col.Distinct()),
			}); err != nil {
				return errors.Trace(err)
			}
		}
		return errors.Trace(writer.Render())
	},
}

func init() {
	rootCommand.AddCommand(inspectCommand)
	inspectCommand.Flags().String("separator", ",", "field separator")
	inspectCommand.Flags().String("header", string(table.HeaderTyped), "header mode (typed, plain or none)")
	inspectCommand.Flags().StringSlice("columns", nil, "field names and types, such as user_id:token")
}
