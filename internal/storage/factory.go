package storage

import (
	"context"
	"fmt"

	"github.com/abduss/filegate/internal/config"
)

// New builds the ObjectStore selected by cfg.Driver.
func New(ctx context.Context, cfg config.StoreConfig) (ObjectStore, error) {
	switch cfg.Driver {
	case config.DriverMinIO:
		client, err := NewMinIOClient(cfg)
		if err != nil {
			return nil, err
		}
		if cfg.EnsureBucket {
			if err := EnsureBucket(ctx, client, cfg.Bucket, cfg.Region); err != nil {
				return nil, err
			}
		}
		return NewMinIOStore(client, cfg.Bucket), nil
	case config.DriverS3, "":
		client, err := NewS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store := NewS3Store(client, cfg.Bucket)
		if cfg.EnsureBucket {
			if err := store.ensureBucket(ctx, cfg.Region); err != nil {
				return nil, err
			}
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
