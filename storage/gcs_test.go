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

package storage

import (
	"context"
	"testing"

	"github.com/fsouza/fake-gcs-server/fakestorage"
	"github.com/gorse-io/mtlprep/config"
	"github.com/stretchr/testify/assert"
)

func TestGCS(t *testing.T) {
	server, err := fakestorage.NewServerWithOptions(fakestorage.Options{
		Scheme:     "http",
		Port:       5050,
		PublicHost: "localhost:5050",
	})
	assert.NoError(t, err)
	defer server.Stop()
	t.Setenv("GCS_EMULATOR_ENDPOINT", "http://localhost:5050/storage/v1/")

	client, err := NewGCS(config.GCSConfig{}, "mtlprep-test", "output")
	assert.NoError(t, err)

	// create bucket if not exists
	err = client.client.Bucket("mtlprep-test").Create(context.Background(), "test-project", nil)
	if err != nil {
		assert.ErrorContains(t, err, "already exists")
	}
	testStore(t, client)
}
