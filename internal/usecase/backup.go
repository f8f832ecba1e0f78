package usecase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/semmidev/pgstash/internal/domain"
)

type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	// Auditf writes one line per completed operation to the audit log.
	Auditf(template string, args ...interface{})
}

// Backup sequences dump -> upload -> local cleanup for one database.
type Backup struct {
	db       domain.Database
	storage  domain.Storage
	notifier domain.Notifier
	logger   Logger
	clock    clock.Clock
	workDir  string
}

func NewBackup(
	db domain.Database,
	storage domain.Storage,
	notifier domain.Notifier,
	logger Logger,
	clk clock.Clock,
	workDir string,
) *Backup {
	return &Backup{
		db:       db,
		storage:  storage,
		notifier: notifier,
		logger:   logger,
		clock:    clk,
		workDir:  workDir,
	}
}

// Execute produces exactly one remote artifact. The local dump file is
// removed on every path except a failed upload, where it is kept for manual
// recovery.
func (uc *Backup) Execute(ctx context.Context) (domain.Artifact, error) {
	start := uc.clock.Now()
	dbName := uc.db.GetName()
	artifact := domain.NewArtifact(dbName, start, domain.DefaultExtension)
	filename := artifact.Filename()

	uc.logger.Infof("[%s] Starting backup %s", dbName, filename)

	if err := uc.run(ctx, filename); err != nil {
		uc.logger.Errorf("[%s] Backup failed: %v", dbName, err)
		notify(ctx, uc.notifier, uc.logger, fmt.Sprintf("❌ Backup of %s failed\n\n%v", dbName, err))
		return artifact, err
	}

	finished := uc.clock.Now()
	uc.logger.Auditf("Backup created and uploaded as %s at %s (took %s)",
		filename, finished.Format(time.DateTime), finished.Sub(start).Round(time.Second))
	notify(ctx, uc.notifier, uc.logger, fmt.Sprintf("✅ Backup Created\n\n📁 File: %s\n🕐 Time: %s",
		filename, finished.Format(time.DateTime)))

	return artifact, nil
}

func (uc *Backup) run(ctx context.Context, filename string) error {
	dbName := uc.db.GetName()

	if err := uc.db.Ping(ctx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}

	// names have second resolution; never overwrite an earlier artifact
	exists, err := uc.storage.Exists(ctx, filename)
	if err != nil {
		return fmt.Errorf("check remote artifact: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: %s", domain.ErrArtifactExists, filename)
	}

	localPath := filepath.Join(uc.workDir, filename)
	if err := ensureAbsent(localPath); err != nil {
		return err
	}

	uc.logger.Infof("[%s] Dumping to %s", dbName, localPath)
	if err := uc.db.Dump(ctx, localPath); err != nil {
		removeLocal(uc.logger, localPath)
		return fmt.Errorf("dump: %w", err)
	}

	info, err := os.Stat(localPath)
	if err != nil {
		removeLocal(uc.logger, localPath)
		return fmt.Errorf("stat dump file: %w", err)
	}
	uc.logger.Infof("[%s] Dump created, size: %.2f MB", dbName, float64(info.Size())/(1024*1024))

	if err := uc.storage.Upload(ctx, localPath, filename); err != nil {
		uc.logger.Warnf("[%s] Keeping local copy for manual recovery: %s", dbName, localPath)
		return fmt.Errorf("upload: %w", err)
	}

	if err := os.Remove(localPath); err != nil {
		return fmt.Errorf("remove local file: %w", err)
	}

	return nil
}

func ensureAbsent(localPath string) error {
	_, err := os.Stat(localPath)
	if err == nil {
		return fmt.Errorf("%w: local file %s", domain.ErrArtifactExists, localPath)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat local file: %w", err)
	}
	return nil
}

func removeLocal(logger Logger, localPath string) {
	if err := os.Remove(localPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warnf("Failed to remove local file %s: %v", localPath, err)
	}
}

// notify is best effort; a failed notification never fails the operation.
func notify(ctx context.Context, n domain.Notifier, logger Logger, message string) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, message); err != nil {
		logger.Warnf("Notification failed: %v", err)
	}
}
