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

	"github.com/gorse-io/mtlprep/base/log"
	"github.com/gorse-io/mtlprep/config"
	"github.com/gorse-io/mtlprep/encoding"
	"github.com/gorse-io/mtlprep/table"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// Apply loads an input described by the configuration and encodes every column with a saved
// vocabulary, giving codes consistent with the run that produced the vocabulary. Unseen values
// become 0 for vocabularies with offset 1.
func Apply(ctx context.Context, cfg config.InputConfig, vocab *encoding.Vocabularies) (*table.Table, error) {
	t, err := Load(cfg)
	if err != nil {
		return nil, errors.Trace(err)
	}
	for _, name := range vocab.Names() {
		if err = ctx.Err(); err != nil {
			return nil, errors.Trace(err)
		}
		if !t.Has(name) {
			log.Logger().Warn("skip missing field", zap.String("field", name))
			continue
		}
		v, _ := vocab.Get(name)
		if t, err = encoding.Transform(t, name, v); err != nil {
			return nil, errors.Trace(err)
		}
	}
	return t, nil
}
