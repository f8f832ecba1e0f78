package database

import (
	"context"
	"fmt"

	"github.com/semmidev/pgstash/internal/config"
	"github.com/semmidev/pgstash/internal/infrastructure/process"
)

type PostgreSQLDatabase struct {
	config *config.DatabaseConfig
	runner process.Runner
}

func NewPostgreSQL(cfg *config.DatabaseConfig, runner process.Runner) *PostgreSQLDatabase {
	return &PostgreSQLDatabase{config: cfg, runner: runner}
}

// Dump writes a plain SQL script without ACLs or ownership so it can be
// replayed by any role.
func (p *PostgreSQLDatabase) Dump(ctx context.Context, outputPath string) error {
	args := append(p.connArgs(),
		"--format=plain",
		"--no-acl",
		"--no-owner",
		fmt.Sprintf("--file=%s", outputPath),
	)
	return run(ctx, p.runner, p.command("pg_dump", args))
}

func (p *PostgreSQLDatabase) Restore(ctx context.Context, inputPath string) error {
	args := append(p.connArgs(),
		"--set=ON_ERROR_STOP=1",
		"--quiet",
		fmt.Sprintf("--file=%s", inputPath),
	)
	return run(ctx, p.runner, p.command("psql", args))
}

func (p *PostgreSQLDatabase) GetName() string {
	return p.config.Database
}

func (p *PostgreSQLDatabase) GetType() string {
	return "postgresql"
}

func (p *PostgreSQLDatabase) Ping(ctx context.Context) error {
	args := append(p.connArgs(), "--command=SELECT 1")
	if err := run(ctx, p.runner, p.command("psql", args)); err != nil {
		return fmt.Errorf("postgresql ping failed: %w", err)
	}
	return nil
}

func (p *PostgreSQLDatabase) connArgs() []string {
	return []string{
		fmt.Sprintf("--host=%s", p.config.Host),
		fmt.Sprintf("--port=%d", p.config.Port),
		fmt.Sprintf("--username=%s", p.config.Username),
		fmt.Sprintf("--dbname=%s", p.config.Database),
	}
}

// The password travels only in the child's environment.
func (p *PostgreSQLDatabase) command(name string, args []string) process.Command {
	return process.Command{
		Name: name,
		Args: args,
		Env:  []string{"PGPASSWORD=" + p.config.Password},
	}
}
