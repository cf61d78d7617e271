package storage

import (
	"context"
	"io"
)

// ObjectInfo is the listing metadata of one stored object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// Page is one response of a paginated bucket listing.
type Page struct {
	Objects   []ObjectInfo
	Truncated bool
	NextToken string
}

// Object is a fetched object. The caller must close Body.
type Object struct {
	Key         string
	Size        int64 // -1 when the backend did not report a length
	ContentType string
	Body        io.ReadCloser
}

// ObjectStore is the set of operations the gateway performs against its single bucket.
// Every call is one round-trip without retries.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (*Object, error)
	List(ctx context.Context, continuationToken string, maxKeys int) (Page, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}
