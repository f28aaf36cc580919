package storage

import (
	"context"
	"fmt"

	"alcyxob/photo-portfolio/internal/config"

	"github.com/sirupsen/logrus"
)

// New builds the ObjectStorage selected by cfg.Storage.Driver.
func New(ctx context.Context, cfg config.Config, log *logrus.Logger) (ObjectStorage, error) {
	switch cfg.Storage.Driver {
	case "s3":
		return NewS3Storage(ctx, cfg.S3, log)
	case "minio":
		return NewMinIOStorage(ctx, cfg.MinIO, log)
	case "memory":
		log.Warn("using in-memory object storage, data is lost on restart")
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
