package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/prn-tf/gatehouse/internal/config"
)

// S3Backend stores avatars in an S3-compatible object store.
// Public paths are formed from the configured base URL plus the object key,
// so the bucket (or a CDN in front of it) serves the files directly.
type S3Backend struct {
	client  *s3.Client
	bucket  string
	prefix  string
	baseURL string
	maxSize int64
	logger  zerolog.Logger
}

// NewS3Backend creates an S3 avatar backend from the uploads configuration.
func NewS3Backend(ctx context.Context, cfg config.S3UploadsConfig, maxSize int64, logger zerolog.Logger) (*S3Backend, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Backend{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  cfg.Prefix,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		maxSize: maxSize,
		logger:  logger.With().Str("component", "storage_s3").Logger(),
	}, nil
}

// Save stores the content and returns its public path.
func (b *S3Backend) Save(ctx context.Context, filename string, reader io.Reader, size int64) (string, error) {
	if b.maxSize > 0 && size > b.maxSize {
		return "", ErrFileTooLarge
	}

	name, err := objectName(filename)
	if err != nil {
		return "", err
	}
	key := b.prefix + name

	_, err = b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(key),
		Body:          reader,
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload avatar to S3: %w", err)
	}

	b.logger.Debug().Str("key", key).Int64("size", size).Msg("avatar stored")
	return b.baseURL + "/" + key, nil
}

// Remove deletes a previously stored file by its public path.
func (b *S3Backend) Remove(ctx context.Context, publicPath string) error {
	key, ok := strings.CutPrefix(publicPath, b.baseURL+"/")
	if !ok || !strings.HasPrefix(key, b.prefix) {
		// Not one of ours (e.g. the default avatar); nothing to do.
		return nil
	}

	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to remove avatar from S3: %w", err)
	}
	return nil
}

// Ensure S3Backend implements Backend.
var _ Backend = (*S3Backend)(nil)
