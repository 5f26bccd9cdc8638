// Package cli wires the application together and exposes it as subcommands.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")

	cmd := &cobra.Command{
		Use:   "participation-hub",
		Short: "Participation ledger and gradebook reconciliation service",
		Long: `participation-hub records daily rubric participation scores per student
per course, keeps the authoritative ledger locally, and mirrors each
student's cumulative standing into the external gradebook.`,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config (optional)")
	cmd.AddCommand(NewServeCmd(&configPath))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	return cmd
}
