package assets

import (
	"context"
	"fmt"
	"io"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/pithecene-io/stevedore/types"
)

// StoreConfig holds configuration for the S3 content store.
type StoreConfig struct {
	// Bucket is the bucket name (required).
	Bucket string
	// Region is the bucket region.
	Region string
	// Endpoint is a custom endpoint URL for S3-compatible providers
	// (e.g. Cloudflare R2, MinIO). Empty uses the default AWS endpoint.
	Endpoint string
	// UsePathStyle forces path-style addressing (bucket in path, not
	// subdomain). Required by most S3-compatible providers.
	UsePathStyle bool
}

// Validate checks that required store configuration is present.
func (c *StoreConfig) Validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("content store bucket is required")
	}
	return nil
}

// S3Uploader uploads assets to an S3 bucket with public-read access.
type S3Uploader struct {
	client *s3.Client
	bucket string
}

// NewS3Uploader builds an uploader from the resolved operator credentials.
// The client is explicit per invocation: no process-wide AWS configuration
// is consulted beyond the region.
func NewS3Uploader(ctx context.Context, creds *types.Credentials, cfg StoreConfig) (*S3Uploader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithCredentialsProvider(
			awscreds.NewStaticCredentialsProvider(creds.KeyID, creds.Secret, ""),
		),
	}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
		})
	}
	if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return &S3Uploader{
		client: s3.NewFromConfig(awsCfg, s3Opts...),
		bucket: cfg.Bucket,
	}, nil
}

// Upload PUTs one object with public-read access and the given content type.
// Objects are idempotently overwritten, so an interrupted sync can be retried.
func (u *S3Uploader) Upload(ctx context.Context, key, contentType string, body io.Reader) error {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &u.bucket,
		Key:         &key,
		Body:        body,
		ACL:         s3types.ObjectCannedACLPublicRead,
		ContentType: &contentType,
	})
	return err
}
