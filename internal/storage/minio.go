package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/abduss/filegate/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const defaultObjectStoreTimeout = 5 * time.Second

// NewMinIOClient establishes a MinIO client using the provided configuration.
// Endpoints may be given as a URL (scheme decides TLS) or as host[:port].
func NewMinIOClient(cfg config.StoreConfig) (*minio.Client, error) {
	endpoint, secure, err := minioEndpoint(cfg)
	if err != nil {
		return nil, err
	}

	// one attempt per call; failures surface to the caller as-is
	minio.MaxRetry = 1

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return client, nil
}

func minioEndpoint(cfg config.StoreConfig) (string, bool, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return "", false, fmt.Errorf("object store endpoint is not configured")
	}

	if strings.Contains(endpoint, "://") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return "", false, fmt.Errorf("parse endpoint %q: %w", endpoint, err)
		}
		if u.Host == "" {
			return "", false, fmt.Errorf("endpoint %q has no host", endpoint)
		}
		return u.Host, u.Scheme == "https", nil
	}

	if !strings.Contains(endpoint, ":") {
		// default to MinIO API port when not supplied explicitly
		endpoint = fmt.Sprintf("%s:9000", endpoint)
	}
	return endpoint, cfg.UseSSL, nil
}

// EnsureBucket ensures the target bucket exists, creating it if necessary.
func EnsureBucket(ctx context.Context, client *minio.Client, bucket, region string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultObjectStoreTimeout)
	defer cancel()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}

	if exists {
		return nil
	}

	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("create bucket %q: %w", bucket, err)
	}

	return nil
}

// MinIOStore adapts minio.Client to ObjectStore for one bucket.
type MinIOStore struct {
	client *minio.Client
	core   *minio.Core
	bucket string
}

// NewMinIOStore constructs an adapter.
func NewMinIOStore(client *minio.Client, bucket string) *MinIOStore {
	return &MinIOStore{
		client: client,
		core:   &minio.Core{Client: client},
		bucket: bucket,
	}
}

func (s *MinIOStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return unavailable("put object", err)
	}
	return nil
}

func (s *MinIOStore) Get(ctx context.Context, key string) (*Object, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, classifyMinIOError("get object", err)
	}

	// GetObject is lazy; Stat performs the request and reports a missing key.
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, classifyMinIOError("get object", err)
	}

	return &Object{
		Key:         key,
		Size:        info.Size,
		ContentType: info.ContentType,
		Body:        obj,
	}, nil
}

func (s *MinIOStore) List(ctx context.Context, continuationToken string, maxKeys int) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, unavailable("list objects", err)
	}

	res, err := s.core.ListObjectsV2(s.bucket, "", "", continuationToken, "", maxKeys)
	if err != nil {
		return Page{}, unavailable("list objects", err)
	}

	page := Page{
		Objects:   make([]ObjectInfo, 0, len(res.Contents)),
		Truncated: res.IsTruncated,
		NextToken: res.NextContinuationToken,
	}
	for _, o := range res.Contents {
		page.Objects = append(page.Objects, ObjectInfo{Key: o.Key, Size: o.Size})
	}
	return page, nil
}

func (s *MinIOStore) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return unavailable("remove object", err)
	}
	return nil
}

func (s *MinIOStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultObjectStoreTimeout)
	defer cancel()

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return unavailable("check bucket", err)
	}
	if !exists {
		return fmt.Errorf("bucket %q: %w", s.bucket, ErrNotFound)
	}
	return nil
}

func classifyMinIOError(op string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchObject":
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return unavailable(op, err)
}
