package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func profilesCommand() *cobra.Command {
	profilesCmd := &cobra.Command{
		Use:   "profiles",
		Short: "Browse and rename profiles",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List profiles with their image counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			profiles, err := a.store.Profiles.ListVisibleWithCounts()
			if err != nil {
				return err
			}
			stats, err := a.store.Stats()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "USERNAME\tIMAGES")
			for _, p := range profiles {
				fmt.Fprintf(tw, "%s\t%d\n", p.Username, p.ImageCount)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d profiles, %d images, %d tagged\n", stats.Profiles, stats.Images, stats.TaggedImages)
			return nil
		},
	}

	renameCmd := &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a profile, merging into <new> if it already exists",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.Profiles.Rename(args[0], args[1]); err != nil {
				return fmt.Errorf("failed to rename profile %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", args[0], args[1])
			return nil
		},
	}

	profilesCmd.AddCommand(listCmd, renameCmd)
	return profilesCmd
}
