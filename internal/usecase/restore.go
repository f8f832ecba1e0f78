package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/semmidev/pgstash/internal/domain"
)

// Restore sequences download -> restore -> local cleanup.
type Restore struct {
	db       domain.Database
	storage  domain.Storage
	notifier domain.Notifier
	logger   Logger
	clock    clock.Clock
	workDir  string
}

func NewRestore(
	db domain.Database,
	storage domain.Storage,
	notifier domain.Notifier,
	logger Logger,
	clk clock.Clock,
	workDir string,
) *Restore {
	return &Restore{
		db:       db,
		storage:  storage,
		notifier: notifier,
		logger:   logger,
		clock:    clk,
		workDir:  workDir,
	}
}

// Execute restores the database from the named remote artifact. The name is
// passed through as given; only its base name is used on local disk.
func (uc *Restore) Execute(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("artifact name is required")
	}

	dbName := uc.db.GetName()
	uc.logger.Infof("[%s] Starting restore from %s", dbName, name)

	if err := uc.run(ctx, name); err != nil {
		uc.logger.Errorf("[%s] Restore failed: %v", dbName, err)
		notify(ctx, uc.notifier, uc.logger, fmt.Sprintf("❌ Restore of %s from %s failed\n\n%v", dbName, name, err))
		return err
	}

	finished := uc.clock.Now().Format(time.DateTime)
	uc.logger.Auditf("Database restored from %s at %s", name, finished)
	notify(ctx, uc.notifier, uc.logger, fmt.Sprintf("♻️ Database Restored\n\n📁 File: %s\n🕐 Time: %s", name, finished))

	return nil
}

func (uc *Restore) run(ctx context.Context, name string) error {
	localPath := filepath.Join(uc.workDir, filepath.Base(name))
	if err := ensureAbsent(localPath); err != nil {
		return err
	}

	if err := uc.storage.Download(ctx, name, localPath); err != nil {
		removeLocal(uc.logger, localPath)
		return fmt.Errorf("download: %w", err)
	}

	uc.logger.Infof("[%s] Replaying %s", uc.db.GetName(), localPath)
	if err := uc.db.Restore(ctx, localPath); err != nil {
		removeLocal(uc.logger, localPath)
		return fmt.Errorf("restore: %w", err)
	}

	if err := os.Remove(localPath); err != nil {
		return fmt.Errorf("remove local file: %w", err)
	}

	return nil
}
