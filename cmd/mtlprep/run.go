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
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorse-io/mtlprep/preprocess"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// stopSignals cancel a running preprocessing job.
var stopSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run a preprocessing recipe.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return errors.Trace(err)
		}
		if input, _ := cmd.Flags().GetString("input"); input != "" {
			cfg.Input.Path = input
		}
		if output, _ := cmd.Flags().GetString("output"); output != "" {
			cfg.Output.URL = output
		}
		if cmd.Flags().Changed("seed") {
			cfg.Split.Seed, _ = cmd.Flags().GetInt64("seed")
		}
		if err = cfg.Validate(); err != nil {
			return errors.Trace(err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), stopSignals...)
		defer stop()
		result, err := preprocess.Run(ctx, cfg)
		if err != nil {
			return errors.Trace(err)
		}

		// stages
		stages := tablewriter.NewWriter(os.Stdout)
		stages.Header("stage", "rows in", "rows out", "elapsed")
		for _, stage := range result.Report.Stages {
			if err = stages.Append([]string{
				stage.Name,
				fmt.Sprint(stage.RowsIn),
				fmt.Sprint(stage.RowsOut),
				stage.Elapsed.String(),
			}); err != nil {
				return errors.Trace(err)
			}
		}
		if err = stages.Render(); err != nil {
			return errors.Trace(err)
		}
		// partitions
		partitions := tablewriter.NewWriter(os.Stdout)
		partitions.Header("partition", "file", "rows")
		for _, partition := range result.Descriptor.Partitions {
			if err = partitions.Append([]string{partition.Name, partition.File, fmt.Sprint(partition.Rows)}); err != nil {
				return errors.Trace(err)
			}
		}
		return errors.Trace(partitions.Render())
	},
}

func init() {
	rootCommand.AddCommand(runCommand)
	runCommand.Flags().String("input", "", "override input file path")
	runCommand.Flags().String("output", "", "override output location (directory, s3://, gs:// or azblob://)")
	runCommand.Flags().Int64("seed", 0, "override random seed of the split")

}
