package app

import (
	"context"
	"fmt"
	"os"

	"github.com/benbjohnson/clock"
	"github.com/robfig/cron/v3"
	"github.com/semmidev/pgstash/internal/adapter/database"
	"github.com/semmidev/pgstash/internal/adapter/notifier"
	"github.com/semmidev/pgstash/internal/adapter/storage"
	"github.com/semmidev/pgstash/internal/config"
	"github.com/semmidev/pgstash/internal/domain"
	"github.com/semmidev/pgstash/internal/infrastructure/logger"
	"github.com/semmidev/pgstash/internal/infrastructure/process"
	"github.com/semmidev/pgstash/internal/infrastructure/scheduler"
	"github.com/semmidev/pgstash/internal/usecase"
)

type App struct {
	config    *config.Config
	logger    *logger.Logger
	scheduler *scheduler.Scheduler
	backupUC  *usecase.Backup
	restoreUC *usecase.Restore
	cleanupUC *usecase.Cleanup
	listUC    *usecase.List
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log, err := logger.New(cfg.App.LogLevel, cfg.App.LogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.New(&cfg.Database, process.NewExecRunner())
	if err != nil {
		return nil, err
	}

	stor, err := storage.New(ctx, &cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s storage: %w", cfg.Storage.Backend, err)
	}

	var notify domain.Notifier
	if cfg.TelegramEnabled() {
		tg, err := notifier.NewTelegram(&cfg.Notify)
		if err != nil {
			log.Warnf("Telegram notifications disabled: %v", err)
		} else {
			notify = tg
		}
	}

	return newApp(cfg, log, db, stor, notify, clock.New())
}

func newApp(
	cfg *config.Config,
	log *logger.Logger,
	db domain.Database,
	stor domain.Storage,
	notify domain.Notifier,
	clk clock.Clock,
) (*App, error) {
	if err := os.MkdirAll(cfg.App.WorkDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}

	sched, err := buildSchedule(cfg.Schedule)
	if err != nil {
		return nil, err
	}

	return &App{
		config: cfg,
		logger: log,
		scheduler: scheduler.New(sched,
			scheduler.WithClock(clk),
			scheduler.WithPollTick(cfg.Schedule.PollTick),
			scheduler.WithShutdownGrace(cfg.Schedule.ShutdownGrace),
			scheduler.WithLogger(log),
		),
		backupUC:  usecase.NewBackup(db, stor, notify, log, clk, cfg.App.WorkDir),
		restoreUC: usecase.NewRestore(db, stor, notify, log, clk, cfg.App.WorkDir),
		cleanupUC: usecase.NewCleanup(stor, log, clk, db.GetName(), cfg.Schedule.RetentionDays),
		listUC:    usecase.NewList(stor),
	}, nil
}

func buildSchedule(cfg config.ScheduleConfig) (cron.Schedule, error) {
	if cfg.Cron != "" {
		return scheduler.Parse(cfg.Cron)
	}
	return scheduler.Every(cfg.Interval), nil
}

func (a *App) Backup(ctx context.Context) (domain.Artifact, error) {
	return a.backupUC.Execute(ctx)
}

func (a *App) Restore(ctx context.Context, name string) error {
	return a.restoreUC.Execute(ctx, name)
}

func (a *App) List(ctx context.Context) ([]string, error) {
	return a.listUC.Execute(ctx)
}

func (a *App) Cleanup(ctx context.Context) (int, error) {
	return a.cleanupUC.Execute(ctx)
}

// Schedule runs backups (and retention, when configured) until ctx is
// cancelled. A failed run is logged and never stops later runs.
func (a *App) Schedule(ctx context.Context) error {
	if a.config.Schedule.Cron != "" {
		a.logger.Infof("Scheduling backups of %s: %s", a.config.Database.Database, a.config.Schedule.Cron)
	} else {
		a.logger.Infof("Scheduling backups of %s every %s", a.config.Database.Database, a.config.Schedule.Interval)
	}

	err := a.scheduler.Run(ctx, func(ctx context.Context) error {
		if _, err := a.backupUC.Execute(ctx); err != nil {
			return err
		}
		if a.config.Schedule.RetentionDays > 0 {
			if _, err := a.cleanupUC.Execute(ctx); err != nil {
				return fmt.Errorf("cleanup: %w", err)
			}
		}
		return nil
	})

	a.logger.Infof("Scheduler stopped")
	return err
}

func (a *App) Shutdown() {
	a.logger.Close()
}
