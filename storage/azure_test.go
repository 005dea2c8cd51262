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
	"errors"
	"os"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/gorse-io/mtlprep/config"
	"github.com/stretchr/testify/assert"
)

func TestAzureBlobEmulator(t *testing.T) {
	connectionString := os.Getenv("AZURE_STORAGE_CONNECTION_STRING")
	if connectionString == "" {
		t.Skip("AZURE_STORAGE_CONNECTION_STRING is not set, skipping Azure Blob emulator test")
	}

	client, err := NewAzureBlob(config.AzureBlobConfig{ConnectionString: connectionString}, "mtlprep-test", "output")
	assert.NoError(t, err)
	_, err = client.client.CreateContainer(context.Background(), client.container, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if !errors.As(err, &respErr) || respErr.ErrorCode != string(bloberror.ContainerAlreadyExists) {
			assert.NoError(t, err)
		}
	}
	testStore(t, client)
}
