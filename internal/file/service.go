package file

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/abduss/filegate/internal/contenttype"
	"github.com/abduss/filegate/internal/staging"
	"github.com/abduss/filegate/internal/storage"
	"go.uber.org/zap"
)

const (
	defaultMaxFileSize = 50 * 1024 * 1024 // 50MB
	defaultPageSize    = 1000
)

type stager interface {
	Stage(r io.Reader, originalName string) (*staging.StagedFile, error)
}

// Observer receives upload and purge events, typically for metrics.
type Observer interface {
	Uploaded(sizeBytes int64)
	UploadFailed(reason string)
	Purged(sizeBytes int64)
}

type nopObserver struct{}

func (nopObserver) Uploaded(int64)      {}
func (nopObserver) UploadFailed(string) {}
func (nopObserver) Purged(int64)        {}

// Options tunes a Service. Zero values fall back to defaults.
type Options struct {
	MaxFileSize int64
	PageSize    int
	Logger      *zap.Logger
	Observer    Observer
}

// Service moves uploads into the object store and reports on its contents.
type Service struct {
	store       storage.ObjectStore
	stager      stager
	log         *zap.Logger
	observer    Observer
	maxFileSize int64
	pageSize    int
	now         func() time.Time
}

// NewService constructs a file service.
func NewService(store storage.ObjectStore, stager stager, opts Options) *Service {
	s := &Service{
		store:       store,
		stager:      stager,
		log:         opts.Logger,
		observer:    opts.Observer,
		maxFileSize: opts.MaxFileSize,
		pageSize:    opts.PageSize,
		now:         time.Now,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	if s.maxFileSize <= 0 {
		s.maxFileSize = defaultMaxFileSize
	}
	if s.pageSize <= 0 {
		s.pageSize = defaultPageSize
	}
	return s
}

// Upload stages src locally, enforces the size limit and stores it under the
// generated name. The staged copy is removed before Upload returns.
func (s *Service) Upload(ctx context.Context, src io.Reader, originalName string) (UploadResult, error) {
	staged, err := s.stager.Stage(src, originalName)
	if err != nil {
		s.observer.UploadFailed("staging")
		return UploadResult{}, fmt.Errorf("stage upload: %w", err)
	}
	defer s.discard(staged)

	if staged.Size > s.maxFileSize {
		s.observer.UploadFailed("too_large")
		return UploadResult{}, ErrFileTooLarge
	}

	contentType := contenttype.Resolve(originalName)

	f, err := staged.Open()
	if err != nil {
		s.observer.UploadFailed("staging")
		return UploadResult{}, fmt.Errorf("open staged file: %w", err)
	}
	defer f.Close()

	start := s.now()
	if err := s.store.Put(ctx, staged.Name, f, staged.Size, contentType); err != nil {
		s.observer.UploadFailed("store")
		return UploadResult{}, fmt.Errorf("store object %s: %w", staged.Name, err)
	}
	elapsed := s.now().Sub(start)

	s.observer.Uploaded(staged.Size)
	s.log.Info("object stored",
		zap.String("key", staged.Name),
		zap.String("original_name", originalName),
		zap.String("content_type", contentType),
		zap.Int64("size_bytes", staged.Size),
		zap.Duration("elapsed", elapsed),
	)

	return UploadResult{
		Name:        staged.Name,
		ContentType: contentType,
		SizeBytes:   staged.Size,
		Elapsed:     elapsed,
	}, nil
}

func (s *Service) discard(staged *staging.StagedFile) {
	if err := staged.Remove(); err != nil {
		s.log.Warn("remove staged file", zap.String("key", staged.Name), zap.Error(err))
	}
}

// Walk visits every object in the bucket, page by page, in store order.
// It stops at the first store or callback error.
func (s *Service) Walk(ctx context.Context, fn func(storage.ObjectInfo) error) error {
	token := ""
	for {
		page, err := s.store.List(ctx, token, s.pageSize)
		if err != nil {
			return fmt.Errorf("list bucket: %w", err)
		}
		for _, obj := range page.Objects {
			if err := fn(obj); err != nil {
				return err
			}
		}
		if !page.Truncated || page.NextToken == "" {
			return nil
		}
		token = page.NextToken
	}
}

// PurgeOversized deletes obj when it exceeds the upload limit and reports
// whether it did.
func (s *Service) PurgeOversized(ctx context.Context, obj storage.ObjectInfo) (bool, error) {
	if obj.Size <= s.maxFileSize {
		return false, nil
	}
	if err := s.store.Delete(ctx, obj.Key); err != nil {
		return false, fmt.Errorf("purge %s: %w", obj.Key, err)
	}
	s.observer.Purged(obj.Size)
	s.log.Info("deleted oversized object",
		zap.String("key", obj.Key),
		zap.String("size", fmt.Sprintf("%.2f MB", float64(obj.Size)/(1024*1024))),
	)
	return true, nil
}

// Summarize counts every object in the bucket and purges oversized ones on
// the way. Purged objects are still counted. Deletions made before an error
// are kept.
func (s *Service) Summarize(ctx context.Context) (Summary, error) {
	var sum Summary
	err := s.Walk(ctx, func(obj storage.ObjectInfo) error {
		sum.TotalFiles++
		sum.TotalSize += obj.Size
		_, err := s.PurgeOversized(ctx, obj)
		return err
	})
	if err != nil {
		return Summary{}, err
	}
	return sum, nil
}

// Fetch returns the stored object. The caller must close its Body.
func (s *Service) Fetch(ctx context.Context, key string) (*storage.Object, error) {
	obj, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", key, err)
	}
	return obj, nil
}
