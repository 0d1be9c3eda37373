// Package s3store saves edited images to an S3 bucket.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mhpenta/imageedit"
)

// PutObjectAPI is the part of *s3.Client the store uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads edited images under an optional key prefix.
type S3Store struct {
	Client PutObjectAPI
	Bucket string
	Prefix string

	logger *slog.Logger
}

var _ imageedit.Storage = (*S3Store)(nil)

// New returns a store writing to bucket through client.
func New(client PutObjectAPI, bucket, prefix string) (*S3Store, error) {
	if client == nil {
		return nil, errors.New("s3store: client is required")
	}
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("s3store: bucket is required")
	}
	return &S3Store{
		Client: client,
		Bucket: bucket,
		Prefix: strings.Trim(prefix, "/"),
		logger: slog.Default(),
	}, nil
}

// NewFromEnv builds the S3 client from the default AWS configuration chain
// (environment, shared config files, instance role).
func NewFromEnv(ctx context.Context, bucket, prefix string) (*S3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3store: load aws config: %w", err)
	}
	return New(s3.NewFromConfig(cfg), bucket, prefix)
}

// SetLogger sets a structured logger for uploads.
func (s *S3Store) SetLogger(logger *slog.Logger) *S3Store {
	s.logger = logger
	return s
}

// SaveFile uploads data to {prefix}/{key} and returns its s3:// URL.
func (s *S3Store) SaveFile(ctx context.Context, data []byte, key string, contentType string) (string, error) {
	if s == nil || s.Client == nil {
		return "", imageedit.ErrStorageNotConfigured
	}

	objectKey := strings.TrimLeft(key, "/")
	if s.Prefix != "" {
		objectKey = path.Join(s.Prefix, objectKey)
	}

	s.logger.Info("uploading to s3",
		"bucket", s.Bucket,
		"key", objectKey,
		"content_type", contentType,
		"size", len(data),
	)

	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(objectKey),
		ContentType: aws.String(contentType),
		Body:        bytes.NewReader(data),
	})
	if err != nil {
		return "", fmt.Errorf("s3store: put object %s: %w", objectKey, err)
	}

	return "s3://" + s.Bucket + "/" + objectKey, nil
}
