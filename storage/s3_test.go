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
	"os"
	"testing"

	"github.com/gorse-io/mtlprep/config"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
)

func TestS3(t *testing.T) {
	cfg := config.S3Config{
		Endpoint:        os.Getenv("S3_ENDPOINT"),
		AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
	}
	if cfg.Endpoint == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		t.Skip("S3 environment variables are not set, skipping S3 tests")
	}

	client, err := NewS3(cfg, "mtlprep-test", "output")
	assert.NoError(t, err)
	exists, err := client.BucketExists(context.Background(), client.bucket)
	assert.NoError(t, err)
	if !exists {
		assert.NoError(t, client.MakeBucket(context.Background(), client.bucket, minio.MakeBucketOptions{}))
	}
	testStore(t, client)
}
