package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSStore implements Store for Google Cloud Storage
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
	raw    string
}

// NewGCSStore creates a new GCSStore for a gs:// location. Without a
// credentials file the default application credentials are used.
func NewGCSStore(ctx context.Context, loc Location, config GCSConfig) (*GCSStore, error) {
	var opts []option.ClientOption
	if config.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(config.CredentialsPath))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSStore{
		client: client,
		bucket: loc.Bucket,
		prefix: loc.Prefix,
		raw:    loc.Raw,
	}, nil
}

// List returns the objects directly under the prefix
func (gs *GCSStore) List(ctx context.Context) ([]Object, error) {
	var objects []Object

	it := gs.client.Bucket(gs.bucket).Objects(ctx, &storage.Query{
		Prefix:    gs.prefix,
		Delimiter: "/",
	})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects in gs://%s/%s: %w", gs.bucket, gs.prefix, err)
		}

		// Synthetic directory entries only carry a prefix
		if attrs.Prefix != "" {
			continue
		}

		name := strings.TrimPrefix(attrs.Name, gs.prefix)
		if name == "" {
			continue
		}

		objects = append(objects, Object{
			Name:    name,
			Path:    name,
			Size:    attrs.Size,
			ModTime: attrs.Updated,
		})
	}

	return objects, nil
}

// BatchDelete removes each object; objects already gone are skipped
func (gs *GCSStore) BatchDelete(ctx context.Context, paths []string) error {
	bucket := gs.client.Bucket(gs.bucket)

	var errs []error
	for _, p := range paths {
		err := bucket.Object(joinKey(gs.prefix, p)).Delete(ctx)
		if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			errs = append(errs, fmt.Errorf("failed to delete object %s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

// Close releases the underlying client
func (gs *GCSStore) Close() error {
	return gs.client.Close()
}

// String returns the configured location
func (gs *GCSStore) String() string {
	return gs.raw
}
