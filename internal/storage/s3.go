package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrInvalidS3Reference is returned when an s3:// reference has no bucket or key.
var ErrInvalidS3Reference = errors.New("invalid s3 reference")

// S3Config holds the configuration for S3 storage.
type S3Config struct {
	Bucket          string
	Region          string
	Prefix          string // Optional: key prefix for saved artifacts
	Endpoint        string // Optional: for custom S3-compatible endpoints
	AccessKeyID     string // Optional: AWS access key ID
	SecretAccessKey string // Optional: AWS secret access key
}

// S3Store saves library artifacts to a bucket and opens s3:// source references.
type S3Store struct {
	client *s3.Client
	bucket string
	region string
	prefix string
}

// Compile-time check that S3Store implements Library.
var _ Library = (*S3Store)(nil)

// NewS3Store creates a new S3Store instance from cfg.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	var configOpts []func(*config.LoadOptions) error
	configOpts = append(configOpts, config.WithRegion(cfg.Region))

	// Use static credentials if provided
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(), configOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Store{
		client: s3.NewFromConfig(awsCfg, clientOpts...),
		bucket: cfg.Bucket,
		region: cfg.Region,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// Save uploads data under the configured prefix and returns the object URL.
func (s *S3Store) Save(ctx context.Context, name string, data io.Reader) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	key := name
	if s.prefix != "" {
		key = path.Join(s.prefix, name)
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   data,
	})
	if err != nil {
		return "", fmt.Errorf("upload to S3: %w", err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}

// Open streams the object named by an s3://bucket/key reference.
// The caller is responsible for closing the returned ReadCloser.
func (s *S3Store) Open(ctx context.Context, ref *url.URL) (io.ReadCloser, error) {
	bucket := ref.Host
	key := strings.TrimPrefix(ref.Path, "/")
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidS3Reference, ref.Redacted())
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("download from S3: %w", err)
	}
	return out.Body, nil
}
