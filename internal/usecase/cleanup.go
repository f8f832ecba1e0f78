package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/semmidev/pgstash/internal/domain"
)

// Cleanup enforces retention on remote artifacts of one database. Objects
// that are not artifacts of that database are never touched.
type Cleanup struct {
	storage       domain.Storage
	logger        Logger
	clock         clock.Clock
	databaseName  string
	retentionDays int
}

func NewCleanup(
	storage domain.Storage,
	logger Logger,
	clk clock.Clock,
	databaseName string,
	retentionDays int,
) *Cleanup {
	return &Cleanup{
		storage:       storage,
		logger:        logger,
		clock:         clk,
		databaseName:  databaseName,
		retentionDays: retentionDays,
	}
}

// Execute returns the number of artifacts deleted.
func (uc *Cleanup) Execute(ctx context.Context) (int, error) {
	if uc.retentionDays <= 0 {
		uc.logger.Infof("Retention disabled, skipping cleanup")
		return 0, nil
	}

	uc.logger.Infof("Starting cleanup, retention: %d days", uc.retentionDays)
	cutoff := uc.clock.Now().AddDate(0, 0, -uc.retentionDays)

	files, err := uc.storage.GetOldFiles(ctx, cutoff)
	if err != nil {
		uc.logger.Warnf("Listing old files failed, falling back to artifact timestamps: %v", err)
		files, err = uc.fallbackListFiles(ctx, cutoff)
		if err != nil {
			return 0, err
		}
	}

	deleted := 0
	for _, filename := range files {
		if !uc.owns(filename) {
			continue
		}

		uc.logger.Infof("Deleting old backup: %s", filename)
		if err := uc.storage.Delete(ctx, filename); err != nil {
			uc.logger.Errorf("Failed to delete %s: %v", filename, err)
			continue
		}
		deleted++
	}

	uc.logger.Infof("Deleted %d old backup(s)", deleted)
	return deleted, nil
}

func (uc *Cleanup) owns(filename string) bool {
	artifact, err := domain.ParseArtifact(filename)
	return err == nil && artifact.DatabaseName == uc.databaseName
}

func (uc *Cleanup) fallbackListFiles(ctx context.Context, cutoff time.Time) ([]string, error) {
	files, err := uc.storage.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	oldFiles := make([]string, 0)
	for _, filename := range files {
		artifact, err := domain.ParseArtifact(filename)
		if err != nil {
			uc.logger.Warnf("Could not parse timestamp from %s: %v", filename, err)
			continue
		}

		if artifact.CreatedAt.Before(cutoff) {
			oldFiles = append(oldFiles, filename)
		}
	}

	return oldFiles, nil
}
