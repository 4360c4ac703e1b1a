package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/camden-git/rostertagger/database"
	"github.com/camden-git/rostertagger/services"
	"github.com/spf13/cobra"
)

func migrateCommand() *cobra.Command {
	var apply, force bool

	cmd := &cobra.Command{
		Use:   "migrate-usernames",
		Short: "Re-extract usernames from stored filenames and move images accordingly",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			migrator := services.NewUsernameMigrator(a.store)
			var report services.MigrationReport
			if apply {
				report, err = migrator.Apply(cmd.Context(), database.BackupPath(a.cfg.DatabasePath, time.Now()), force)
			} else {
				report, err = migrator.Migrate(cmd.Context(), true)
			}
			if errors.Is(err, services.ErrBackupFailed) {
				return fmt.Errorf("%w; re-run with --force to migrate without one", err)
			}
			out := cmd.OutOrStdout()
			if apply && report.BackupPath != "" {
				fmt.Fprintf(out, "Backed up database to %s\n", report.BackupPath)
			}
			for _, c := range report.Changes {
				fmt.Fprintf(out, "  %s: %s -> %s\n", c.Filepath, c.From, c.To)
			}
			fmt.Fprintf(out, "Scanned %d, reassigned %d, unparseable %d, profiles created %d, removed %d\n",
				report.Scanned, report.Reassigned, report.Unparseable, report.ProfilesCreated, report.ProfilesRemoved)
			if !apply {
				fmt.Fprintln(out, "Dry run: nothing was written. Re-run with --apply to migrate.")
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "write the changes instead of reporting them")
	cmd.Flags().BoolVar(&force, "force", false, "with --apply, migrate even if the database backup fails")
	return cmd
}
