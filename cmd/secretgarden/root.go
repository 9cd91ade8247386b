package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	sglog "github.com/nao1215/secretgarden/internal/log"
)

// NewRootCmd creates the root command for secretgarden.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secretgarden",
		Short: "Provision public sites that hide a secret page",
		Long: `secretgarden builds a set of public sites from a single provisioning file.

Every site hides a secret page that opens only after a visitor navigates the
menu in one of the site's secret sequences. secretgarden allocates those
sequences, estimates how likely a blind visitor is to stumble on one, and
writes the site configuration, CSV exports and PostgreSQL scripts.

Start with 'secretgarden init' to write an example init.yaml.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	// Add subcommands
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewValidateCmd())
	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewGenerateCmd())
	cmd.AddCommand(NewResetCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getBoolFlag retrieves a boolean flag from the command or its root.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	value, err := cmd.Flags().GetBool(name)
	if err != nil {
		value, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return value
}

// setupLogger creates the masking logger selected by the global flags.
// Logs go to stderr so that reports on stdout stay parseable.
func setupLogger(cmd *cobra.Command) *slog.Logger {
	verbose := getBoolFlag(cmd, "verbose")
	if getBoolFlag(cmd, "log-json") {
		return sglog.NewSecureJSONLogger(os.Stderr, verbose)
	}
	return sglog.NewSecureLogger(os.Stderr, verbose)
}
