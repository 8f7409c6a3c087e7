package storage

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// ErrInvalidLocation is returned when a remote location cannot be parsed.
var ErrInvalidLocation = errors.New("invalid remote location")

// Location is a parsed remote location.
type Location struct {
	Provider ProviderType
	// Bucket is the bucket or container name for object stores.
	Bucket string
	// Prefix is the key prefix inside the bucket, or the directory for local stores.
	Prefix string
	// Raw is the location exactly as configured.
	Raw string
}

// String returns the configured location.
func (l Location) String() string {
	return l.Raw
}

var schemeProviders = map[string]ProviderType{
	"s3":     ProviderS3,
	"azblob": ProviderAzure,
	"azure":  ProviderAzure,
	"gs":     ProviderGCS,
	"gcs":    ProviderGCS,
	"minio":  ProviderMinIO,
	"file":   ProviderLocal,
}

// ParseLocation resolves the backend and its coordinates from a remote location.
// Strings without a known URL scheme are treated as rclone remotes, except
// absolute filesystem paths which address a local directory.
func ParseLocation(raw string) (Location, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Location{}, fmt.Errorf("%w: location is empty", ErrInvalidLocation)
	}

	if idx := strings.Index(trimmed, "://"); idx > 0 {
		scheme := strings.ToLower(trimmed[:idx])
		provider, ok := schemeProviders[scheme]
		if !ok {
			return Location{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidLocation, scheme)
		}

		u, err := url.Parse(trimmed)
		if err != nil {
			return Location{}, fmt.Errorf("%w: %v", ErrInvalidLocation, err)
		}

		if provider == ProviderLocal {
			if u.Path == "" {
				return Location{}, fmt.Errorf("%w: file location needs a path", ErrInvalidLocation)
			}
			return Location{Provider: ProviderLocal, Prefix: filepath.Clean(u.Path), Raw: trimmed}, nil
		}

		if u.Host == "" {
			return Location{}, fmt.Errorf("%w: %s location needs a bucket", ErrInvalidLocation, scheme)
		}

		prefix := strings.TrimPrefix(u.Path, "/")
		if prefix != "" && !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}

		return Location{Provider: provider, Bucket: u.Host, Prefix: prefix, Raw: trimmed}, nil
	}

	if filepath.IsAbs(trimmed) {
		return Location{Provider: ProviderLocal, Prefix: filepath.Clean(trimmed), Raw: trimmed}, nil
	}

	return Location{Provider: ProviderRclone, Prefix: trimmed, Raw: trimmed}, nil
}
