package cmd

import (
	"fmt"

	"github.com/camden-git/rostertagger/services"
	"github.com/spf13/cobra"
)

func scanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scan [root]",
		Short: "Scan a folder and import its images (defaults to ROOT_DIRECTORY)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			root := a.cfg.RootDirectory
			if len(args) == 1 {
				root = args[0]
			}

			report, err := services.NewImporter(a.store, a.metrics).ImportFolder(cmd.Context(), root)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Scanned %s: %d files, %d candidates, %d unsupported, %d unparseable, %d unreadable\n",
				report.Root, report.Scan.Files, report.Scan.Candidates, report.Scan.Unsupported,
				report.Scan.ParseFailures, report.Scan.Unreadable)
			for _, f := range report.Scan.Failures {
				fmt.Fprintf(out, "  skipped %s: %s\n", f.Filename, f.Reason)
			}
			fmt.Fprintf(out, "Imported %d, skipped %d duplicates, created %d profiles\n",
				report.Import.Imported, report.Import.SkippedDuplicate, report.Import.ProfilesCreated)
			return err
		},
	}
}
