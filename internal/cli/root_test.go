package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/semmidev/pgstash/internal/domain"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeService struct {
	backupErr  error
	restoreErr error
	restored   []string
	scheduled  bool
	shutdown   bool
	artifact   domain.Artifact
	listed     []string
	deleted    int
}

func (f *fakeService) Backup(ctx context.Context) (domain.Artifact, error) {
	return f.artifact, f.backupErr
}

func (f *fakeService) Restore(ctx context.Context, name string) error {
	f.restored = append(f.restored, name)
	return f.restoreErr
}

func (f *fakeService) List(ctx context.Context) ([]string, error) { return f.listed, nil }

func (f *fakeService) Cleanup(ctx context.Context) (int, error) { return f.deleted, nil }

func (f *fakeService) Schedule(ctx context.Context) error {
	f.scheduled = true
	<-ctx.Done()
	return nil
}

func (f *fakeService) Shutdown() { f.shutdown = true }

func execute(ctx context.Context, svc *fakeService, args ...string) (string, string, error) {
	var factoryErr error
	if svc == nil {
		factoryErr = errors.New("load config: invalid config: missing required environment variable(s): DB_NAME")
	}
	root := NewRootCommand(func(ctx context.Context, configPath string) (Service, error) {
		if factoryErr != nil {
			return nil, factoryErr
		}
		return svc, nil
	})

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func TestRootCommand(t *testing.T) {
	Convey("Given the command surface", t, func() {
		svc := &fakeService{
			artifact: domain.NewArtifact("orders", time.Date(2024, 3, 1, 13, 5, 9, 0, time.Local), "sql"),
		}
		ctx := context.Background()

		Convey("backup should print the artifact name", func() {
			out, _, err := execute(ctx, svc, "backup")
			So(err, ShouldBeNil)
			So(out, ShouldEqual, "orders_2024_03_01_130509.sql\n")
			So(svc.shutdown, ShouldBeTrue)
		})

		Convey("backup should surface failures", func() {
			svc.backupErr = &domain.ProcessError{Tool: "pg_dump", ExitCode: 1, Stderr: "connection refused"}
			_, _, err := execute(ctx, svc, "backup")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldEqual, "backup failed: pg_dump exited with status 1: connection refused")
		})

		Convey("restore should pass the filename through", func() {
			_, _, err := execute(ctx, svc, "restore", "orders_2024_03_01_130509.sql")
			So(err, ShouldBeNil)
			So(svc.restored, ShouldResemble, []string{"orders_2024_03_01_130509.sql"})
		})

		Convey("restore should require a filename", func() {
			_, _, err := execute(ctx, svc, "restore")
			So(err, ShouldNotBeNil)
			So(svc.restored, ShouldBeEmpty)
		})

		Convey("restore should keep not-found distinguishable", func() {
			svc.restoreErr = &domain.TransferError{Op: "download", Name: "does_not_exist.sql", Err: domain.ErrArtifactNotFound}
			_, _, err := execute(ctx, svc, "restore", "does_not_exist.sql")
			So(errors.Is(err, domain.ErrArtifactNotFound), ShouldBeTrue)
		})

		Convey("schedule should run until the context is cancelled", func() {
			runCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
			defer cancel()

			_, _, err := execute(runCtx, svc, "schedule")
			So(err, ShouldBeNil)
			So(svc.scheduled, ShouldBeTrue)
		})

		Convey("list should print one name per line", func() {
			svc.listed = []string{"a_2024_01_01_000000.sql", "a_2024_01_02_000000.sql"}
			out, _, err := execute(ctx, svc, "list")
			So(err, ShouldBeNil)
			So(out, ShouldEqual, "a_2024_01_01_000000.sql\na_2024_01_02_000000.sql\n")
		})

		Convey("cleanup should report the number deleted", func() {
			svc.deleted = 3
			out, _, err := execute(ctx, svc, "cleanup")
			So(err, ShouldBeNil)
			So(out, ShouldEqual, "deleted 3 backup(s)\n")
		})

		Convey("configuration errors should fail before any work", func() {
			_, _, err := execute(ctx, nil, "backup")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "DB_NAME")
		})

		Convey("unknown commands should fail", func() {
			_, _, err := execute(ctx, svc, "purge")
			So(err, ShouldNotBeNil)
		})
	})
}
