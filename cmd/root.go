package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tomfevang/go-populate-my-db/internal/logger"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:   "go-populate-my-db",
	Short: "Populate PostgreSQL databases with blueprint-driven fake data",
	Long: `go-populate-my-db reads YAML blueprints describing the data you want
(items, counts, fields, relations) and fills your database with realistic
rows: parents are written before their children, uniqueness survives
reruns against a non-empty database, and cross-row references are
resolved while generating.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Setup(debug)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
}

func Execute() error {
	return rootCmd.Execute()
}
