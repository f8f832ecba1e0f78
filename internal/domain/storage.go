package domain

import (
	"context"
	"time"
)

type Storage interface {
	Upload(ctx context.Context, localPath string, remoteName string) error
	// Download fails with an error wrapping ErrArtifactNotFound when
	// remoteName does not exist.
	Download(ctx context.Context, remoteName string, localPath string) error
	Exists(ctx context.Context, remoteName string) (bool, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, remoteName string) error
	GetOldFiles(ctx context.Context, cutoffTime time.Time) ([]string, error)
}

type Notifier interface {
	Notify(ctx context.Context, message string) error
}
