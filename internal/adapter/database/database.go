package database

import (
	"context"
	"fmt"

	"github.com/semmidev/pgstash/internal/config"
	"github.com/semmidev/pgstash/internal/domain"
	"github.com/semmidev/pgstash/internal/infrastructure/process"
)

func New(cfg *config.DatabaseConfig, runner process.Runner) (domain.Database, error) {
	switch cfg.Type {
	case "postgresql":
		return NewPostgreSQL(cfg, runner), nil
	case "mysql":
		return NewMySQL(cfg, runner), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

func run(ctx context.Context, runner process.Runner, cmd process.Command) error {
	res, err := runner.Run(ctx, cmd)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return &domain.ProcessError{Tool: cmd.Name, ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	return nil
}
