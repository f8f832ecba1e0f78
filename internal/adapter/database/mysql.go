package database

import (
	"context"
	"fmt"

	"github.com/semmidev/pgstash/internal/config"
	"github.com/semmidev/pgstash/internal/infrastructure/process"
)

type MySQLDatabase struct {
	config *config.DatabaseConfig
	runner process.Runner
}

func NewMySQL(cfg *config.DatabaseConfig, runner process.Runner) *MySQLDatabase {
	return &MySQLDatabase{config: cfg, runner: runner}
}

func (m *MySQLDatabase) Dump(ctx context.Context, outputPath string) error {
	args := append(m.connArgs(),
		"--single-transaction",
		"--quick",
		"--lock-tables=false",
		"--routines",
		"--triggers",
		"--events",
		fmt.Sprintf("--result-file=%s", outputPath),
		m.config.Database,
	)
	return run(ctx, m.runner, m.command("mysqldump", args, ""))
}

func (m *MySQLDatabase) Restore(ctx context.Context, inputPath string) error {
	args := append(m.connArgs(), m.config.Database)
	return run(ctx, m.runner, m.command("mysql", args, inputPath))
}

func (m *MySQLDatabase) GetName() string {
	return m.config.Database
}

func (m *MySQLDatabase) GetType() string {
	return "mysql"
}

func (m *MySQLDatabase) Ping(ctx context.Context) error {
	args := append(m.connArgs(), "-e", "SELECT 1")
	if err := run(ctx, m.runner, m.command("mysql", args, "")); err != nil {
		return fmt.Errorf("mysql ping failed: %w", err)
	}
	return nil
}

func (m *MySQLDatabase) connArgs() []string {
	return []string{
		fmt.Sprintf("--host=%s", m.config.Host),
		fmt.Sprintf("--port=%d", m.config.Port),
		fmt.Sprintf("--user=%s", m.config.Username),
	}
}

// MYSQL_PWD keeps the password out of the process list.
func (m *MySQLDatabase) command(name string, args []string, stdin string) process.Command {
	return process.Command{
		Name:      name,
		Args:      args,
		Env:       []string{"MYSQL_PWD=" + m.config.Password},
		StdinFile: stdin,
	}
}
