package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/Azure/azure-storage-blob-go/azblob"
)

// AzureStore implements Store for Azure Blob Storage
type AzureStore struct {
	containerURL azblob.ContainerURL
	container    string
	prefix       string
	raw          string
}

// NewAzureStore creates a new AzureStore for an azblob:// location
func NewAzureStore(loc Location, config AzureConfig) (*AzureStore, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Azure storage configuration: %w", err)
	}

	credential, err := azblob.NewSharedKeyCredential(config.AccountName, config.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credentials: %w", err)
	}

	pipeline := azblob.NewPipeline(credential, azblob.PipelineOptions{})

	serviceURL, err := url.Parse(fmt.Sprintf("https://%s.blob.core.windows.net", config.AccountName))
	if err != nil {
		return nil, fmt.Errorf("failed to parse Azure service URL: %w", err)
	}

	return &AzureStore{
		containerURL: azblob.NewServiceURL(*serviceURL, pipeline).NewContainerURL(loc.Bucket),
		container:    loc.Bucket,
		prefix:       loc.Prefix,
		raw:          loc.Raw,
	}, nil
}

// List returns the blobs directly under the prefix
func (as *AzureStore) List(ctx context.Context) ([]Object, error) {
	var objects []Object

	for marker := (azblob.Marker{}); marker.NotDone(); {
		listResponse, err := as.containerURL.ListBlobsHierarchySegment(ctx, marker, "/", azblob.ListBlobsSegmentOptions{
			Prefix: as.prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list blobs in container %s: %w", as.container, err)
		}

		for _, blob := range listResponse.Segment.BlobItems {
			name := strings.TrimPrefix(blob.Name, as.prefix)
			if name == "" {
				continue
			}

			var size int64
			if blob.Properties.ContentLength != nil {
				size = *blob.Properties.ContentLength
			}

			objects = append(objects, Object{
				Name:    name,
				Path:    name,
				Size:    size,
				ModTime: blob.Properties.LastModified,
			})
		}

		marker = listResponse.NextMarker
	}

	return objects, nil
}

// BatchDelete removes each blob. The legacy SDK has no batch endpoint, so
// blobs are deleted one by one and failures are reported together.
func (as *AzureStore) BatchDelete(ctx context.Context, paths []string) error {
	var errs []error
	for _, p := range paths {
		blobURL := as.containerURL.NewBlobURL(joinKey(as.prefix, p))
		_, err := blobURL.Delete(ctx, azblob.DeleteSnapshotsOptionInclude, azblob.BlobAccessConditions{})
		if err != nil {
			var storageErr azblob.StorageError
			if errors.As(err, &storageErr) && storageErr.ServiceCode() == azblob.ServiceCodeBlobNotFound {
				continue
			}
			errs = append(errs, fmt.Errorf("failed to delete blob %s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

// String returns the configured location
func (as *AzureStore) String() string {
	return as.raw
}
