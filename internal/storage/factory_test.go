package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory_Create(t *testing.T) {
	tempDir := t.TempDir()

	factory := NewFactory(Config{
		S3:    S3Config{Region: "eu-west-1"},
		Azure: AzureConfig{AccountName: "vaultbackups", AccountKey: "c2VjcmV0a2V5"},
		MinIO: MinIOConfig{Endpoint: "minio.local:9000", AccessKey: "key", SecretKey: "secret"},
	})

	tests := []struct {
		name     string
		location string
		wantType interface{}
	}{
		{"rclone", "drive:vaultwarden", &RcloneStore{}},
		{"local", tempDir, &LocalStore{}},
		{"s3", "s3://backups/vault", &S3Store{}},
		{"azure", "azblob://backups/vault", &AzureStore{}},
		{"minio", "minio://backups", &MinIOStore{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := factory.Create(context.Background(), tt.location)
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, store)
			assert.Equal(t, tt.location, store.String())
		})
	}
}

func TestFactory_CreateErrors(t *testing.T) {
	factory := NewFactory(Config{})

	tests := []struct {
		name     string
		location string
	}{
		{"empty location", ""},
		{"unknown scheme", "ftp://host/dir"},
		{"s3 without region", "s3://backups"},
		{"azure without credentials", "azblob://backups"},
		{"minio without endpoint", "minio://backups"},
		{"missing local directory", "/nonexistent/vaultwarden-retention"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := factory.Create(context.Background(), tt.location)
			assert.Error(t, err)
			assert.Nil(t, store)
		})
	}

	_, err := factory.Create(context.Background(), "")
	assert.True(t, errors.Is(err, ErrInvalidLocation))
}

func TestFactory_SupportedProviders(t *testing.T) {
	providers := NewFactory(Config{}).SupportedProviders()
	assert.ElementsMatch(t, []ProviderType{
		ProviderRclone, ProviderLocal, ProviderS3, ProviderAzure, ProviderGCS, ProviderMinIO,
	}, providers)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, (&S3Config{Region: "us-east-1"}).Validate())
	assert.Error(t, (&S3Config{Region: "us-east-1", AccessKey: "only-key"}).Validate())
	assert.Error(t, (&S3Config{}).Validate())

	assert.Error(t, (&AzureConfig{AccountName: "acct"}).Validate())

	assert.Error(t, (&MinIOConfig{Endpoint: "http://minio:9000", AccessKey: "k", SecretKey: "s"}).Validate())
	assert.NoError(t, (&MinIOConfig{Endpoint: "minio:9000", AccessKey: "k", SecretKey: "s"}).Validate())
}
