package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/semmidev/pgstash/internal/adapter/storage"
	"github.com/semmidev/pgstash/internal/domain"
	"github.com/semmidev/pgstash/internal/infrastructure/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// fakeDatabase holds its "contents" in memory and dumps/restores them
// through real files, like the client tools do.
type fakeDatabase struct {
	name       string
	contents   string
	pingErr    error
	dumpErr    error
	restoreErr error
	skipWrite  bool
	dumps      int
	restores   int
}

func (f *fakeDatabase) Dump(ctx context.Context, outputPath string) error {
	f.dumps++
	if f.dumpErr != nil {
		// tools typically leave a truncated file behind
		_ = os.WriteFile(outputPath, []byte("-- partial"), 0644)
		return f.dumpErr
	}
	if f.skipWrite {
		return nil
	}
	return os.WriteFile(outputPath, []byte(f.contents), 0644)
}

func (f *fakeDatabase) Restore(ctx context.Context, inputPath string) error {
	f.restores++
	if f.restoreErr != nil {
		return f.restoreErr
	}
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return err
	}
	f.contents = string(data)
	return nil
}

func (f *fakeDatabase) GetName() string                { return f.name }
func (f *fakeDatabase) GetType() string                { return "postgresql" }
func (f *fakeDatabase) Ping(ctx context.Context) error { return f.pingErr }

// flakyStorage injects transfer failures in front of a real store.
type flakyStorage struct {
	domain.Storage
	uploadErr     error
	existsErr     error
	getOldErr     error
	uploadedNames []string
}

func (f *flakyStorage) Upload(ctx context.Context, localPath, remoteName string) error {
	if f.uploadErr != nil {
		return &domain.TransferError{Op: "upload", Name: remoteName, Err: f.uploadErr}
	}
	f.uploadedNames = append(f.uploadedNames, remoteName)
	return f.Storage.Upload(ctx, localPath, remoteName)
}

func (f *flakyStorage) Exists(ctx context.Context, remoteName string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.Storage.Exists(ctx, remoteName)
}

func (f *flakyStorage) GetOldFiles(ctx context.Context, cutoff time.Time) ([]string, error) {
	if f.getOldErr != nil {
		return nil, f.getOldErr
	}
	return f.Storage.GetOldFiles(ctx, cutoff)
}

type recordingNotifier struct {
	messages []string
	err      error
}

func (r *recordingNotifier) Notify(ctx context.Context, message string) error {
	r.messages = append(r.messages, message)
	return r.err
}

type fixture struct {
	db        *fakeDatabase
	remote    *flakyStorage
	remoteDir string
	workDir   string
	clock     *clock.Mock
	logs      *observer.ObservedLogs
	logger    *logger.Logger
	notifier  *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	remoteDir := t.TempDir()
	local, err := storage.NewLocal(remoteDir)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	core, logs := observer.New(zap.InfoLevel)
	mock := clock.NewMock()
	mock.Set(time.Date(2024, 3, 1, 13, 5, 9, 0, time.Local))

	return &fixture{
		db:        &fakeDatabase{name: "orders", contents: "INSERT INTO orders VALUES (1, 'widget');\n"},
		remote:    &flakyStorage{Storage: local},
		remoteDir: remoteDir,
		workDir:   t.TempDir(),
		clock:     mock,
		logs:      logs,
		logger:    &logger.Logger{SugaredLogger: zap.New(core).Sugar()},
		notifier:  &recordingNotifier{},
	}
}

func (f *fixture) backup() *Backup {
	return NewBackup(f.db, f.remote, f.notifier, f.logger, f.clock, f.workDir)
}

func (f *fixture) restore() *Restore {
	return NewRestore(f.db, f.remote, f.notifier, f.logger, f.clock, f.workDir)
}

func (f *fixture) workFiles() []string {
	entries, _ := os.ReadDir(f.workDir)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func (f *fixture) remoteHas(name string) bool {
	_, err := os.Stat(filepath.Join(f.remoteDir, name))
	return err == nil
}

func isProcessError(err error) bool {
	var perr *domain.ProcessError
	return errors.As(err, &perr)
}

func isTransferError(err error) bool {
	var terr *domain.TransferError
	return errors.As(err, &terr)
}
