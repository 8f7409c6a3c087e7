package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOStore implements Store for MinIO and S3 compatible endpoints
type MinIOStore struct {
	client *minio.Client
	bucket string
	prefix string
	raw    string
}

// NewMinIOStore creates a new MinIOStore for a minio:// location
func NewMinIOStore(loc Location, config MinIOConfig) (*MinIOStore, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid MinIO storage configuration: %w", err)
	}

	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinIOStore{
		client: client,
		bucket: loc.Bucket,
		prefix: loc.Prefix,
		raw:    loc.Raw,
	}, nil
}

// List returns the objects directly under the prefix
func (m *MinIOStore) List(ctx context.Context) ([]Object, error) {
	// Cancelling stops the listing goroutine when we return early
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var objects []Object

	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:    m.prefix,
		Recursive: false,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects in MinIO bucket %s: %w", m.bucket, obj.Err)
		}

		name := strings.TrimPrefix(obj.Key, m.prefix)
		if name == "" || strings.HasSuffix(name, "/") {
			continue
		}

		objects = append(objects, Object{
			Name:    name,
			Path:    name,
			Size:    obj.Size,
			ModTime: obj.LastModified,
		})
	}

	return objects, nil
}

// BatchDelete removes the objects through the multi-object delete API
func (m *MinIOStore) BatchDelete(ctx context.Context, paths []string) error {
	objectsCh := make(chan minio.ObjectInfo, len(paths))
	for _, p := range paths {
		objectsCh <- minio.ObjectInfo{Key: joinKey(m.prefix, p)}
	}
	close(objectsCh)

	var errs []error
	for rErr := range m.client.RemoveObjects(ctx, m.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if minio.ToErrorResponse(rErr.Err).Code == "NoSuchKey" {
			continue
		}
		errs = append(errs, fmt.Errorf("failed to delete object %s: %w", rErr.ObjectName, rErr.Err))
	}
	return errors.Join(errs...)
}

// String returns the configured location
func (m *MinIOStore) String() string {
	return m.raw
}
