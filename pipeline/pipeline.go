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

package pipeline

import (
	"context"
	"time"

	"github.com/gorse-io/mtlprep/base/log"
	"github.com/gorse-io/mtlprep/encoding"
	"github.com/gorse-io/mtlprep/table"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// Stage transforms a table into a new table. Stages never modify their input.
type Stage interface {
	Name() string
	Apply(ctx context.Context, t *table.Table) (*table.Table, error)
}

// StageReport records the effect of one stage.
type StageReport struct {
	Name    string
	RowsIn  int
	RowsOut int
	Elapsed time.Duration
}

// Report records the effect of a pipeline run.
type Report struct {
	Stages []StageReport
}

// Dropped returns the number of rows removed by all stages.
func (r *Report) Dropped() int {
	if len(r.Stages) == 0 {
		return 0
	}
	return r.Stages[0].RowsIn - r.Stages[len(r.Stages)-1].RowsOut
}

// Pipeline applies stages in order.
type Pipeline struct {
	stages []Stage
}

func New(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

func (p *Pipeline) Stages() []Stage {
	return p.stages
}

// Run applies every stage to the table. Cancellation is checked between stages.
func (p *Pipeline) Run(ctx context.Context, t *table.Table) (*table.Table, *Report, error) {
	report := &Report{}
	for i, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, report, errors.Trace(err)
		}
		start := time.Now()
		next, err := stage.Apply(ctx, t)
		if err != nil {
			return nil, report, errors.Annotatef(err, "stage %d (%s)", i, stage.Name())
		}
		stat := StageReport{
			Name:    stage.Name(),
			RowsIn:  t.Len(),
			RowsOut: next.Len(),
			Elapsed: time.Since(start),
		}
		report.Stages = append(report.Stages, stat)
		log.Logger().Info("complete stage",
			zap.String("stage", stat.Name),
			zap.Int("rows_in", stat.RowsIn),
			zap.Int("rows_out", stat.RowsOut),
			zap.Duration("elapsed", stat.Elapsed))
		t = next
	}
	return t, report, nil
}

// Vocabularies collects the vocabularies fitted by encode stages.
func (p *Pipeline) Vocabularies() *encoding.Vocabularies {
	result := encoding.NewVocabularies()
	for _, stage := range p.stages {
		if encoder, ok := stage.(*Encode); ok && encoder.fitted != nil {
			for _, name := range encoder.fitted.Names() {
				v, _ := encoder.fitted.Get(name)
				result.Set(name, v)
			}
		}
	}
	return result
}

// WithVocabularies presets the vocabularies used by encode stages. Columns with a preset
// vocabulary are transformed with it instead of a freshly fitted one.
func (p *Pipeline) WithVocabularies(vocab *encoding.Vocabularies) {
	for _, stage := range p.stages {
		if encoder, ok := stage.(*Encode); ok {
			encoder.preset = vocab
		}
	}
}

// dropped logs rows removed by a stage.
func dropped(stage string, before, after int, reason string) {
	if before == after {
		return
	}
	log.StageLogger(stage).Info("drop rows",
		zap.Int("rows", before-after),
		zap.String("reason", reason))
}
