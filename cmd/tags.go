package cmd

import (
	"fmt"
	"os"

	"github.com/camden-git/rostertagger/services"
	"github.com/spf13/cobra"
)

func tagsCommand() *cobra.Command {
	tagsCmd := &cobra.Command{
		Use:   "tags",
		Short: "Export tags to a YAML sidecar or import an edited one",
	}

	exportCmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write every tag to a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", args[0], err)
			}
			n, err := services.NewTagSync(a.store).Export(f)
			if closeErr := f.Close(); err == nil {
				err = closeErr
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d tagged images to %s\n", n, args[0])
			return nil
		},
	}

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Apply an edited YAML sidecar as manual tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			report, err := services.NewTagSync(a.store).Import(f)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Applied %d, unchanged %d, unknown %d\n", report.Applied, report.Unchanged, report.Unknown)
			for _, p := range report.UnknownPaths {
				fmt.Fprintf(out, "  no stored image for %s\n", p)
			}
			return nil
		},
	}

	tagsCmd.AddCommand(exportCmd, importCmd)
	return tagsCmd
}
