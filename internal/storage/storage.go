// Package storage provides the remote store backends that hold backup artifacts.
//
// A backend only needs two capabilities: listing the objects under its
// location and removing a batch of them by path. Backends are selected from
// the scheme of the configured remote location:
//
//	remote:path             rclone remote (default)
//	/srv/backups            local directory (also file:///srv/backups)
//	s3://bucket/prefix      Amazon S3
//	azblob://container/dir  Azure Blob Storage
//	gs://bucket/prefix      Google Cloud Storage
//	minio://bucket/prefix   MinIO or another S3 compatible endpoint
package storage

import (
	"context"
	"time"
)

// Object is one entry of a remote listing.
type Object struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Lister lists the objects stored at a remote location.
type Lister interface {
	List(ctx context.Context) ([]Object, error)
}

// BatchDeleter removes a set of objects, identified by their Path, in one call.
type BatchDeleter interface {
	BatchDelete(ctx context.Context, paths []string) error
}

// Store is a remote location holding backup artifacts.
type Store interface {
	Lister
	BatchDeleter

	// String returns the location in a form suitable for logs.
	String() string
}

// ProviderType identifies a storage backend.
type ProviderType string

const (
	ProviderRclone ProviderType = "RCLONE"
	ProviderLocal  ProviderType = "LOCAL"
	ProviderS3     ProviderType = "S3"
	ProviderAzure  ProviderType = "AZURE"
	ProviderGCS    ProviderType = "GCS"
	ProviderMinIO  ProviderType = "MINIO"
)

// joinKey joins a prefix and a name the way object stores expect.
func joinKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	if prefix[len(prefix)-1] == '/' {
		return prefix + name
	}
	return prefix + "/" + name
}

// baseName returns the last path element of an object key.
func baseName(key string) string {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == '/' {
			return key[i+1:]
		}
	}
	return key
}
