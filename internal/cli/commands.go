package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBackupCommand(withService runWithService) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Create a database backup and upload it",
		Args:  cobra.NoArgs,
		RunE: withService(func(cmd *cobra.Command, svc Service, args []string) error {
			artifact, err := svc.Backup(cmd.Context())
			if err != nil {
				return fmt.Errorf("backup failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), artifact.Filename())
			return nil
		}),
	}
}

func newRestoreCommand(withService runWithService) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <filename>",
		Short: "Restore the database from an uploaded backup",
		Args:  cobra.ExactArgs(1),
		RunE: withService(func(cmd *cobra.Command, svc Service, args []string) error {
			if err := svc.Restore(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("restore failed: %w", err)
			}
			return nil
		}),
	}
}

func newScheduleCommand(withService runWithService) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Back up on a fixed schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: withService(func(cmd *cobra.Command, svc Service, args []string) error {
			return svc.Schedule(cmd.Context())
		}),
	}
}

func newListCommand(withService runWithService) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List uploaded backups, oldest first",
		Args:  cobra.NoArgs,
		RunE: withService(func(cmd *cobra.Command, svc Service, args []string) error {
			names, err := svc.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list failed: %w", err)
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		}),
	}
}

func newCleanupCommand(withService runWithService) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete uploaded backups older than the retention period",
		Args:  cobra.NoArgs,
		RunE: withService(func(cmd *cobra.Command, svc Service, args []string) error {
			deleted, err := svc.Cleanup(cmd.Context())
			if err != nil {
				return fmt.Errorf("cleanup failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d backup(s)\n", deleted)
			return nil
		}),
	}
}
