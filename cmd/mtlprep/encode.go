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
	"io"
	"os"

	"github.com/gorse-io/mtlprep/base/log"
	"github.com/gorse-io/mtlprep/encoding"
	"github.com/gorse-io/mtlprep/preprocess"
	"github.com/gorse-io/mtlprep/table"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var encodeCommand = &cobra.Command{
	Use:   "encode",
	Short: "Encode a file with a saved vocabulary.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return errors.Trace(err)
		}
		if input, _ := cmd.Flags().GetString("input"); input != "" {
			cfg.Input.Path = input
		}
		// load vocabularies
		vocabPath, _ := cmd.Flags().GetString("vocab")
		file, err := os.Open(vocabPath)
		if err != nil {
			return errors.Trace(err)
		}
		vocab, err := encoding.Load(file)
		_ = file.Close()
		if err != nil {
			return errors.Trace(err)
		}
		// encode
		t, err := preprocess.Apply(context.Background(), cfg.Input, vocab)
		if err != nil {
			return errors.Trace(err)
		}
		var w io.Writer = os.Stdout
		if output, _ := cmd.Flags().GetString("output"); output != "" {
			out, err := os.Create(output)
			if err != nil {
				return errors.Trace(err)
			}
			defer out.Close()
			w = out
			log.Logger().Info("write encoded table", zap.String("output", output), zap.Int("rows", t.Len()))
		}
		return errors.Trace(table.Write(w, t, table.WriteOptions{
			Separator:    cfg.Output.Separator,
			TypedHeader:  cfg.Output.TypedHeader,
			SeqSeparator: cfg.Output.SeqSeparator,
		}))
	},
}

func init() {
	rootCommand.AddCommand(encodeCommand)
	encodeCommand.Flags().String("vocab", "", "saved vocabulary file")
	encodeCommand.Flags().String("input", "", "override input file path")
	encodeCommand.Flags().String("output", "", "output file (stdout when empty)")
	_ = encodeCommand.MarkFlagRequired("vocab")
}
