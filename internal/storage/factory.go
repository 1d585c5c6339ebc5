package storage

import (
	types "PixelRelay/pkg"
	"context"
	"fmt"

	"go.uber.org/zap"
)

// NewStorage builds the backend selected by cfg.Type. buckets lists the
// buckets the service writes to; backends that can create buckets on start-up
// use it.
func NewStorage(ctx context.Context, cfg types.StorageConfig, buckets []string, logger *zap.Logger) (Storage, error) {
	switch cfg.Type {
	case "s3":
		return NewS3Storage(ctx, cfg.S3)
	case "minio":
		return NewMinioStorage(ctx, cfg.Minio, buckets, logger)
	case "local":
		return NewLocalStorage(cfg.Local)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Type)
	}
}
