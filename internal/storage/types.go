package storage

import (
	"fmt"
	"strings"
)

// Config carries backend credentials. Which section is used depends on the
// scheme of the remote location.
type Config struct {
	Rclone RcloneConfig `mapstructure:"rclone" yaml:"rclone"`
	S3     S3Config     `mapstructure:"s3" yaml:"s3"`
	Azure  AzureConfig  `mapstructure:"azure" yaml:"azure"`
	GCS    GCSConfig    `mapstructure:"gcs" yaml:"gcs"`
	MinIO  MinIOConfig  `mapstructure:"minio" yaml:"minio"`
}

// RcloneConfig for the rclone command line backend
type RcloneConfig struct {
	Binary     string `mapstructure:"binary" yaml:"binary"`
	ConfigPath string `mapstructure:"config" yaml:"config"`
	// TempDir holds the transient --files-from list
	TempDir string `mapstructure:"temp_dir" yaml:"temp_dir"`
}

// S3Config for Amazon S3 storage
type S3Config struct {
	Region         string `mapstructure:"region" yaml:"region"`
	AccessKey      string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey      string `mapstructure:"secret_key" yaml:"secret_key"`
	Endpoint       string `mapstructure:"endpoint" yaml:"endpoint"`
	ForcePathStyle bool   `mapstructure:"force_path_style" yaml:"force_path_style"`
}

// AzureConfig for Azure Blob Storage
type AzureConfig struct {
	AccountName string `mapstructure:"account_name" yaml:"account_name"`
	AccountKey  string `mapstructure:"account_key" yaml:"account_key"`
}

// GCSConfig for Google Cloud Storage
type GCSConfig struct {
	CredentialsPath string `mapstructure:"credentials_path" yaml:"credentials_path"`
}

// MinIOConfig for MinIO and other S3 compatible endpoints
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl" yaml:"use_ssl"`
}

// Validate validates the S3 configuration
func (c *S3Config) Validate() error {
	if c.Region == "" {
		return fmt.Errorf("s3 region is required")
	}
	if (c.AccessKey == "") != (c.SecretKey == "") {
		return fmt.Errorf("s3 access key and secret key must be set together")
	}
	return nil
}

// Validate validates the Azure configuration
func (c *AzureConfig) Validate() error {
	if c.AccountName == "" {
		return fmt.Errorf("azure account name is required")
	}
	if c.AccountKey == "" {
		return fmt.Errorf("azure account key is required")
	}
	return nil
}

// Validate validates the MinIO configuration
func (c *MinIOConfig) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("minio endpoint is required")
	}
	if strings.Contains(c.Endpoint, "://") {
		return fmt.Errorf("minio endpoint must be host[:port] without scheme")
	}
	if c.AccessKey == "" || c.SecretKey == "" {
		return fmt.Errorf("minio access key and secret key are required")
	}
	return nil
}
