package cli

import (
	"context"
	"fmt"

	"github.com/semmidev/pgstash/internal/app"
	"github.com/semmidev/pgstash/internal/config"
	"github.com/semmidev/pgstash/internal/domain"
	"github.com/spf13/cobra"
)

// Service is what the sub-commands drive; *app.App implements it.
type Service interface {
	Backup(ctx context.Context) (domain.Artifact, error)
	Restore(ctx context.Context, name string) error
	List(ctx context.Context) ([]string, error)
	Cleanup(ctx context.Context) (int, error)
	Schedule(ctx context.Context) error
	Shutdown()
}

// Factory builds the Service once the command line has been parsed.
type Factory func(ctx context.Context, configPath string) (Service, error)

type runWithService func(run func(cmd *cobra.Command, svc Service, args []string) error) func(*cobra.Command, []string) error

func DefaultFactory(ctx context.Context, configPath string) (Service, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	application, err := app.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize app: %w", err)
	}
	return application, nil
}

func NewRootCommand(factory Factory) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "pgstash",
		Short: "Manage database backup and restore operations",
		Long: `pgstash dumps a database with its native client tools, uploads the dump
to object storage and restores from a previously uploaded dump.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "optional YAML config file (environment takes precedence)")

	// withService builds the Service for commands that need one and shuts it
	// down afterwards.
	var withService runWithService = func(run func(cmd *cobra.Command, svc Service, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			svc, err := factory(cmd.Context(), configPath)
			if err != nil {
				return err
			}
			defer svc.Shutdown()
			return run(cmd, svc, args)
		}
	}

	root.AddCommand(
		newBackupCommand(withService),
		newRestoreCommand(withService),
		newScheduleCommand(withService),
		newListCommand(withService),
		newCleanupCommand(withService),
	)

	return root
}
