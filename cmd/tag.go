package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/camden-git/rostertagger/workers"
	"github.com/spf13/cobra"
)

func tagCommand() *cobra.Command {
	var ids []uint
	var limit int

	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Tag untagged images, or the images given with --ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			client, err := a.visionClient(cmd.Context())
			if err != nil {
				return err
			}
			if client.MockMode() {
				fmt.Fprintln(cmd.ErrOrStderr(), "No GEMINI_API_KEY set: tags will be mock-sourced")
			}
			if limit <= 0 {
				limit = a.cfg.TagBatchLimit
			}

			out := cmd.OutOrStdout()
			tagger := workers.NewBatchTagger(a.store, client, a.cfg.TagWorkers, a.metrics)
			report, err := tagger.Run(cmd.Context(), workers.BatchScope{ImageIDs: ids, Limit: limit}, func(p workers.ItemProgress) {
				line := fmt.Sprintf("[%d/%d] image %d %s", p.Index, p.Total, p.ImageID, p.Outcome)
				if p.Source != "" {
					line += " (" + p.Source + ")"
				}
				if p.Error != "" {
					line += ": " + p.Error
				}
				fmt.Fprintln(out, line)
			})

			fmt.Fprintf(out, "Attempted %d, succeeded %d, failed %d, skipped %d (%d mock-sourced)\n",
				report.Attempted, report.Succeeded, report.Failed, report.Skipped, report.MockSourced)
			if len(report.FailedIDs) > 0 {
				fmt.Fprintf(out, "Retry failures with: rostertagger tag --ids %s\n", joinIDs(report.FailedIDs))
			}
			return err
		},
	}

	cmd.Flags().UintSliceVar(&ids, "ids", nil, "comma-separated image ids to (re)tag")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of images to tag (env TAG_BATCH_LIMIT)")
	return cmd
}

func joinIDs(ids []uint) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(uint64(id), 10)
	}
	return strings.Join(parts, ",")
}
