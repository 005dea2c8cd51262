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
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/gorse-io/mtlprep/config"
	"github.com/juju/errors"
)

type AzureBlob struct {
	client    *azblob.Client
	container string
	prefix    string
}

func NewAzureBlob(cfg config.AzureBlobConfig, container string, prefix string) (*AzureBlob, error) {
	var (
		client *azblob.Client
		err    error
	)
	if cfg.ConnectionString != "" {
		client, err = azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
		if err != nil {
			return nil, errors.Trace(err)
		}
	} else {
		if cfg.AccountName == "" || cfg.AccountKey == "" {
			return nil, errors.NotValidf("azure blob without account_name and account_key or connection_string")
		}
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AccountName)
		}
		cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
		if err != nil {
			return nil, errors.Trace(err)
		}
		client, err = azblob.NewClientWithSharedKeyCredential(endpoint, cred, nil)
		if err != nil {
			return nil, errors.Trace(err)
		}
	}
	return &AzureBlob{
		client:    client,
		container: container,
		prefix:    strings.TrimPrefix(prefix, "/"),
	}, nil
}

func (a *AzureBlob) Open(name string) (io.ReadCloser, error) {
	resp, err := a.client.DownloadStream(context.Background(), a.container, path.Join(a.prefix, name), nil)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return resp.Body, nil
}

func (a *AzureBlob) Create(name string) (io.WriteCloser, chan struct{}, error) {
	fullPath := path.Join(a.prefix, name)
	w := newPipeWriter(func(r io.Reader) error {
		_, err := a.client.UploadStream(context.Background(), a.container, fullPath, r, nil)
		return errors.Annotatef(err, "upload file %s to Azure Blob", fullPath)
	})
	return w, w.done, nil
}

func (a *AzureBlob) List() ([]string, error) {
	var (
		prefix *string
		names  []string
	)
	if a.prefix != "" {
		prefix = &a.prefix
	}
	pager := a.client.NewListBlobsFlatPager(a.container, &azblob.ListBlobsFlatOptions{Prefix: prefix})
	for pager.More() {
		resp, err := pager.NextPage(context.Background())
		if err != nil {
			return nil, errors.Trace(err)
		}
		for _, item := range resp.Segment.BlobItems {
			if item.Name == nil {
				continue
			}
			name := strings.TrimPrefix(strings.TrimPrefix(*item.Name, a.prefix), "/")
			if name != "" {
				names = append(names, name)
			}
		}
	}
	return names, nil
}

func (a *AzureBlob) Remove(name string) error {
	_, err := a.client.DeleteBlob(context.Background(), a.container, path.Join(a.prefix, name), nil)
	return errors.Trace(err)
}
