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

	"github.com/gorse-io/mtlprep/base/log"
	"github.com/gorse-io/mtlprep/cmd/version"
	"github.com/gorse-io/mtlprep/config"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCommand = &cobra.Command{
	Use:   "mtlprep",
	Short: "Preprocess recommendation datasets for multi-task learning.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetLogger(cmd.Flags(), debug)
	},
	SilenceUsage: true,
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Show build information.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(version.BuildInfo())
	},
}

func init() {
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	rootCommand.PersistentFlags().StringP("recipe", "r", "", "built-in recipe name")
	rootCommand.AddCommand(versionCommand)
}

// loadConfig loads the configuration file or the built-in recipe named by flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	recipe, _ := cmd.Flags().GetString("recipe")
	switch {
	case configPath != "" && recipe != "":
		return nil, errors.NotValidf("both --config and --recipe")
	case configPath != "":
		log.Logger().Info("load config", zap.String("config", configPath))
		return config.LoadConfig(configPath)
	case recipe != "":
		log.Logger().Info("load recipe", zap.String("recipe", recipe))
		return config.LoadRecipe(recipe)
	}
	return nil, errors.NotValidf("neither --config nor --recipe")
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}
