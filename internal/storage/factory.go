package storage

import (
	"context"
	"fmt"
)

// Factory creates stores based on the remote location and configuration
type Factory struct {
	config Config
}

// NewFactory creates a new store factory
func NewFactory(config Config) *Factory {
	return &Factory{config: config}
}

// Create resolves the backend for location and constructs it
func (f *Factory) Create(ctx context.Context, location string) (Store, error) {
	loc, err := ParseLocation(location)
	if err != nil {
		return nil, err
	}

	switch loc.Provider {
	case ProviderRclone:
		return NewRcloneStore(loc.Raw, f.config.Rclone)

	case ProviderLocal:
		return NewLocalStore(loc.Prefix)

	case ProviderS3:
		return NewS3Store(loc, f.config.S3)

	case ProviderAzure:
		return NewAzureStore(loc, f.config.Azure)

	case ProviderGCS:
		return NewGCSStore(ctx, loc, f.config.GCS)

	case ProviderMinIO:
		return NewMinIOStore(loc, f.config.MinIO)

	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", loc.Provider)
	}
}

// SupportedProviders returns the backends the factory can create
func (f *Factory) SupportedProviders() []ProviderType {
	return []ProviderType{
		ProviderRclone,
		ProviderLocal,
		ProviderS3,
		ProviderAzure,
		ProviderGCS,
		ProviderMinIO,
	}
}
