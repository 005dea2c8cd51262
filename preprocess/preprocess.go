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

package preprocess

import (
	"context"
	"io"
	"time"

	"github.com/gorse-io/mtlprep/base/log"
	"github.com/gorse-io/mtlprep/config"
	"github.com/gorse-io/mtlprep/encoding"
	"github.com/gorse-io/mtlprep/pipeline"
	"github.com/gorse-io/mtlprep/split"
	"github.com/gorse-io/mtlprep/storage"
	"github.com/gorse-io/mtlprep/table"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of a preprocessing run.
type Result struct {
	Table        *table.Table
	Partitions   split.Partitions
	Report       *pipeline.Report
	Vocabularies *encoding.Vocabularies
	Descriptor   *Descriptor
	Files        []string
}

// Run loads the input, runs the stages, splits the result and writes partitions, vocabularies
// and the dataset descriptor to the output store.
func Run(ctx context.Context, cfg *config.Config) (*Result, error) {
	start := time.Now()
	p, err := cfg.Pipeline()
	if err != nil {
		return nil, errors.Trace(err)
	}
	log.Logger().Info("build pipeline", zap.Strings("stages", lo.Map(p.Stages(), func(stage pipeline.Stage, _ int) string {
		return stage.Name()
	})))
	raw, sizes, err := load(cfg.Input)
	if err != nil {
		return nil, errors.Trace(err)
	}
	processed, report, err := p.Run(ctx, raw)
	if err != nil {
		return nil, errors.Trace(err)
	}
	partitions, err := Split(processed, cfg.Split, sizes)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err = split.Verify(processed, partitions.Train, partitions.Valid, partitions.Test); err != nil {
		return nil, errors.Trace(err)
	}
	store, err := storage.Open(cfg.Output.URL, cfg.Storage)
	if err != nil {
		return nil, errors.Trace(err)
	}
	result := &Result{
		Table:        processed,
		Partitions:   partitions,
		Report:       report,
		Vocabularies: p.Vocabularies(),
	}
	result.Descriptor = Describe(cfg, processed, partitions, result.Vocabularies)
	if result.Files, err = write(ctx, store, cfg, result); err != nil {
		return nil, errors.Trace(err)
	}
	log.Logger().Info("complete preprocessing",
		zap.String("dataset", cfg.Dataset),
		zap.Int("rows_in", raw.Len()),
		zap.Int("rows_out", processed.Len()),
		zap.Int("train", partitions.Train.Len()),
		zap.Int("valid", partitions.Valid.Len()),
		zap.Int("test", partitions.Test.Len()),
		zap.String("output", log.RedactURL(cfg.Output.URL)),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

// Load reads the input and joins side tables onto it. A pre-split input is read as the
// concatenation of its train, validation and test files.
func Load(cfg config.InputConfig) (*table.Table, error) {
	t, _, err := load(cfg)
	return t, errors.Trace(err)
}

// load returns the rows read from every input file as well.
func load(cfg config.InputConfig) (*table.Table, []int, error) {
	paths := []string{cfg.Path}
	if cfg.Presplit() {
		paths = cfg.PartitionPaths()
	}
	parts := make([]*table.Table, len(paths))
	sizes := make([]int, len(paths))
	for i, path := range paths {
		part, err := table.ReadFile(path, cfg.ReadOptions())
		if err != nil {
			return nil, nil, errors.Trace(err)
		}
		parts[i], sizes[i] = part, part.Len()
	}
	t := parts[0]
	if len(parts) > 1 {
		var err error
		if t, err = table.Concat(parts...); err != nil {
			return nil, nil, errors.Annotatef(err, "concat %s", cfg.Path)
		}
		log.Logger().Info("concat pre-split input", zap.Strings("paths", paths), zap.Ints("rows", sizes))
	}
	for _, join := range cfg.Joins {
		right, err := table.ReadFile(join.Path, join.ReadOptions())
		if err != nil {
			return nil, nil, errors.Trace(err)
		}
		before := t.Len()
		if join.Inner {
			t, err = table.InnerJoin(t, right, join.On)
		} else {
			t, err = table.LeftJoin(t, right, join.On)
		}
		if err != nil {
			return nil, nil, errors.Annotatef(err, "join %s", join.Path)
		}
		log.Logger().Info("join table",
			zap.String("path", join.Path),
			zap.String("on", join.On),
			zap.Bool("inner", join.Inner),
			zap.Strings("fields", right.Names()),
			zap.Int("unmatched", before-t.Len()))
	}
	return t, sizes, nil
}

// Split partitions a table as configured. Sizes are the row counts of pre-split input files and
// are only used by the benchmark mode.
func Split(t *table.Table, cfg config.SplitConfig, sizes []int) (split.Partitions, error) {
	order := split.Random(cfg.Seed)
	if cfg.Order == config.TimeOrder {
		order = split.ByTime(cfg.TimeField)
	}
	switch cfg.Mode {
	case config.HoldoutSplit:
		return split.Holdout(t, cfg.Holdout, order)
	case config.RatioSplit:
		return split.Ratio(t, cfg.Ratios, cfg.GroupBy, order)
	case config.LeaveOneOutSplit:
		return split.LeaveOneOut(t, cfg.GroupBy, cfg.LeaveOneMode, order)
	case config.BenchmarkSplit:
		return split.Benchmark(t, sizes)
	}
	return split.Partitions{}, errors.NotSupportedf("split mode %s", cfg.Mode)
}

func write(ctx context.Context, store storage.Store, cfg *config.Config, result *Result) ([]string, error) {
	opts := table.WriteOptions{
		Separator:    cfg.Output.Separator,
		TypedHeader:  cfg.Output.TypedHeader,
		SeqSeparator: cfg.Output.SeqSeparator,
	}
	var files []string
	group, ctx := errgroup.WithContext(ctx)
	for _, partition := range result.Partitions.List() {
		name := cfg.Output.FileName(cfg.Dataset, partition.Name)
		files = append(files, name)
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return errors.Trace(err)
			}
			return upload(store, name, func(w io.Writer) error {
				return table.Write(w, partition.Table, opts)
			})
		})
	}
	if name := cfg.Output.VocabularyName(cfg.Dataset); name != "" && len(result.Vocabularies.Names()) > 0 {
		files = append(files, name)
		group.Go(func() error {
			return upload(store, name, result.Vocabularies.Save)
		})
	}
	if name := cfg.Output.DescriptorName(cfg.Dataset); name != "" {
		files = append(files, name)
		group.Go(func() error {
			return upload(store, name, result.Descriptor.Save)
		})
	}
	if err := group.Wait(); err != nil {
		return nil, errors.Trace(err)
	}
	return files, nil
}

func upload(store storage.Store, name string, save func(w io.Writer) error) error {
	w, done, err := store.Create(name)
	if err != nil {
		return errors.Trace(err)
	}
	if err = save(w); err != nil {
		// abort the upload instead of committing a partial file
		if aborter, ok := w.(interface{ CloseWithError(error) error }); ok {
			_ = aborter.CloseWithError(err)
		} else {
			_ = w.Close()
		}
		return errors.Annotatef(err, "write %s", name)
	}
	if err = w.Close(); err != nil {
		return errors.Annotatef(err, "write %s", name)
	}
	<-done
	log.Logger().Info("write file", zap.String("name", name))
	return nil
}
