// Package objectstore puts and gets named blobs in a single S3 bucket.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("object not found")

// S3API is the subset of the S3 client used by Store.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store is a bucket-scoped object store client. Safe for concurrent use.
type Store struct {
	client S3API
	bucket string
	logger *slog.Logger
}

// New returns a Store for bucket.
func New(client S3API, bucket string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{client: client, bucket: bucket, logger: logger}
}

// Bucket returns the bucket name.
func (s *Store) Bucket() string { return s.bucket }

// URI returns the s3:// URI of key.
func (s *Store) URI(key string) string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, key)
}

// Put uploads body under key.
func (s *Store) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	ctx, span := tracer.Start(ctx, "put object")
	defer span.End()
	span.SetAttributes(attribute.String("s3.bucket", s.bucket), attribute.String("s3.key", key))

	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("put s3://%s/%s: %w", s.bucket, key, err)
	}
	s.logger.Debug("Object uploaded", "bucket", s.bucket, "key", key)
	return nil
}

// Get reads the whole object stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "get object")
	defer span.End()
	span.SetAttributes(attribute.String("s3.bucket", s.bucket), attribute.String("s3.key", key))

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, key, ErrNotFound)
		}
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, key, err)
	}
	defer func() {
		if closeErr := out.Body.Close(); closeErr != nil {
			s.logger.Debug("Failed to close object body", "key", key, "error", closeErr)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, out.Body); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("read s3://%s/%s: %w", s.bucket, key, err)
	}
	span.SetAttributes(attribute.Int("s3.bytes", buf.Len()))
	return buf.Bytes(), nil
}
