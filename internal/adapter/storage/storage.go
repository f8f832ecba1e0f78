package storage

import (
	"context"
	"fmt"

	"github.com/semmidev/pgstash/internal/config"
	"github.com/semmidev/pgstash/internal/domain"
)

// New builds the configured remote store for artifacts.
func New(ctx context.Context, cfg *config.StorageConfig) (domain.Storage, error) {
	switch cfg.Backend {
	case "s3":
		return NewS3(ctx, cfg)
	case "gdrive":
		return NewGDrive(ctx, cfg)
	case "local":
		return NewLocal(cfg.LocalPath)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}
