// Package s3 provides a remote document store adapter over any
// S3-compatible object storage (AWS S3, GCS interop, MinIO) using the
// MinIO client.
package s3

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/brightlyhq/brightly/internal/core/domain"
	"github.com/brightlyhq/brightly/internal/core/ports/driven"
	"github.com/brightlyhq/brightly/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.RemoteStore = (*Store)(nil)

// DocumentSuffix restricts which objects participate in the document
// set; everything else in the bucket is ignored.
const DocumentSuffix = ".txt"

// Config holds connection settings for the bucket.
type Config struct {
	// Endpoint is the S3 host, e.g. "s3.amazonaws.com".
	Endpoint string

	// AccessKey and SecretKey authenticate against the endpoint.
	AccessKey string
	SecretKey string

	// Bucket is the bucket holding the document set (required).
	Bucket string

	// Prefix optionally scopes the document set to a key prefix.
	Prefix string

	// UseSSL toggles TLS (default true in practice; set explicitly).
	UseSSL bool
}

// Store is a remote document store backed by an S3 bucket.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewStore connects to the configured bucket.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3: bucket is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("s3: create client: %w", err)
	}

	return &Store{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

// List enumerates every text document in the bucket with its content.
func (s *Store) List(ctx context.Context) ([]domain.RemoteObject, error) {
	var objects []domain.RemoteObject

	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.prefix,
		Recursive: true,
	}) {
		if info.Err != nil {
			return nil, fmt.Errorf("list bucket %s: %w: %w", s.bucket, domain.ErrRemoteUnavailable, info.Err)
		}
		if !strings.HasSuffix(info.Key, DocumentSuffix) {
			continue
		}

		obj, err := s.Get(ctx, s.relative(info.Key))
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", info.Key, err)
		}
		objects = append(objects, obj)
	}

	logger.Debug("Listed %d documents from bucket %s", len(objects), s.bucket)
	return objects, nil
}

// Get fetches a single document by path.
func (s *Store) Get(ctx context.Context, path string) (domain.RemoteObject, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key(path), minio.GetObjectOptions{})
	if err != nil {
		return domain.RemoteObject{}, fmt.Errorf("get %s: %w: %w", path, domain.ErrRemoteUnavailable, err)
	}
	defer obj.Close()

	content, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return domain.RemoteObject{}, fmt.Errorf("get %s: %w", path, domain.ErrNotFound)
		}
		return domain.RemoteObject{}, fmt.Errorf("read %s: %w: %w", path, domain.ErrRemoteUnavailable, err)
	}

	return domain.RemoteObject{Path: path, Content: string(content)}, nil
}

// Put creates or replaces a document.
func (s *Store) Put(ctx context.Context, path, content string) error {
	reader := strings.NewReader(content)
	_, err := s.client.PutObject(ctx, s.bucket, s.key(path), reader, int64(reader.Len()),
		minio.PutObjectOptions{ContentType: "text/plain"})
	if err != nil {
		return fmt.Errorf("put %s: %w: %w", path, domain.ErrRemoteUnavailable, err)
	}
	return nil
}

// Delete removes a document.
func (s *Store) Delete(ctx context.Context, path string) error {
	// StatObject first so a missing path is reported as not found
	// rather than silently succeeding.
	if _, err := s.client.StatObject(ctx, s.bucket, s.key(path), minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return fmt.Errorf("delete %s: %w", path, domain.ErrNotFound)
		}
		return fmt.Errorf("stat %s: %w: %w", path, domain.ErrRemoteUnavailable, err)
	}

	if err := s.client.RemoveObject(ctx, s.bucket, s.key(path), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete %s: %w: %w", path, domain.ErrRemoteUnavailable, err)
	}
	return nil
}

// Close releases resources.
func (s *Store) Close() error {
	// MinIO client doesn't need explicit cleanup
	return nil
}

func (s *Store) key(path string) string {
	if s.prefix == "" {
		return path
	}
	return strings.TrimSuffix(s.prefix, "/") + "/" + path
}

func (s *Store) relative(key string) string {
	if s.prefix == "" {
		return key
	}
	return strings.TrimPrefix(key, strings.TrimSuffix(s.prefix, "/")+"/")
}
