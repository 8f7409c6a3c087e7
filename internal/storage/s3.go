package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// s3MaxDeleteKeys is the DeleteObjects limit per request
const s3MaxDeleteKeys = 1000

// S3Store implements Store for Amazon S3
type S3Store struct {
	client s3iface.S3API
	bucket string
	prefix string
	raw    string
}

// NewS3Store creates a new S3Store for an s3:// location
func NewS3Store(loc Location, config S3Config) (*S3Store, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid S3 storage configuration: %w", err)
	}

	awsConfig := &aws.Config{
		Region: aws.String(config.Region),
	}
	if config.AccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(config.AccessKey, config.SecretKey, "")
	}
	if config.Endpoint != "" {
		awsConfig.Endpoint = aws.String(config.Endpoint)
	}
	if config.ForcePathStyle {
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return newS3StoreWithClient(s3.New(sess), loc), nil
}

func newS3StoreWithClient(client s3iface.S3API, loc Location) *S3Store {
	return &S3Store{
		client: client,
		bucket: loc.Bucket,
		prefix: loc.Prefix,
		raw:    loc.Raw,
	}
}

// List returns the objects directly under the prefix
func (s *S3Store) List(ctx context.Context) ([]Object, error) {
	var objects []Object

	input := &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(s.prefix),
		Delimiter: aws.String("/"),
	}

	err := s.client.ListObjectsV2PagesWithContext(ctx, input,
		func(page *s3.ListObjectsV2Output, lastPage bool) bool {
			for _, obj := range page.Contents {
				name := strings.TrimPrefix(aws.StringValue(obj.Key), s.prefix)
				if name == "" {
					continue
				}
				objects = append(objects, Object{
					Name:    name,
					Path:    name,
					Size:    aws.Int64Value(obj.Size),
					ModTime: aws.TimeValue(obj.LastModified),
				})
			}
			return true
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects in s3://%s/%s: %w", s.bucket, s.prefix, err)
	}

	return objects, nil
}

// BatchDelete removes the objects with DeleteObjects, chunked to the API limit
func (s *S3Store) BatchDelete(ctx context.Context, paths []string) error {
	for start := 0; start < len(paths); start += s3MaxDeleteKeys {
		end := start + s3MaxDeleteKeys
		if end > len(paths) {
			end = len(paths)
		}

		identifiers := make([]*s3.ObjectIdentifier, 0, end-start)
		for _, p := range paths[start:end] {
			identifiers = append(identifiers, &s3.ObjectIdentifier{
				Key: aws.String(joinKey(s.prefix, p)),
			})
		}

		out, err := s.client.DeleteObjectsWithContext(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &s3.Delete{
				Objects: identifiers,
				Quiet:   aws.Bool(true),
			},
		})
		if err != nil {
			return fmt.Errorf("failed to delete objects from s3://%s: %w", s.bucket, err)
		}

		if len(out.Errors) > 0 {
			first := out.Errors[0]
			return fmt.Errorf("failed to delete %d objects from s3://%s, first: %s: %s",
				len(out.Errors), s.bucket, aws.StringValue(first.Key), aws.StringValue(first.Message))
		}
	}

	return nil
}

// String returns the configured location
func (s *S3Store) String() string {
	return s.raw
}
