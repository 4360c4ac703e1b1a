package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RootCommand creates the rostertagger command tree.
func RootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "rostertagger",
		Short:        "Import roster images by username and tag them with a vision model",
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("db", "", "SQLite database path (env DATABASE_PATH)")
	flags.String("db-log-level", "", "GORM log level: silent, error, warn, info (env DB_LOG_LEVEL)")
	flags.Int("workers", 0, "concurrent tagging workers (env TAG_WORKERS)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{
			"DATABASE_PATH": "db",
			"DB_LOG_LEVEL":  "db-log-level",
			"TAG_WORKERS":   "workers",
			"LISTEN_ADDR":   "addr",
		})
	}

	rootCmd.AddCommand(
		scanCommand(),
		tagCommand(),
		serveCommand(),
		profilesCommand(),
		tagsCommand(),
		migrateCommand(),
	)
	return rootCmd
}

// bindFlags lets flags that were set on the command line override the
// environment when the configuration is loaded.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for key, name := range keys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := viper.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("error binding flag %s: %w", name, err)
		}
	}
	return nil
}
