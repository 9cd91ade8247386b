package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/secretgarden/internal/config"
	"github.com/nao1215/secretgarden/internal/scaffold"
)

// NewResetCmd creates the reset command.
func NewResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Remove the build directory",
		Long: `Reset removes the build directory and everything generated into it.

The provisioning file, site sources, SQL templates, the common-PIN cache and
the run history are left untouched.

Examples:
  # Remove ./build
  secretgarden reset

  # Remove a custom build directory
  secretgarden reset -b /tmp/garden-build`,
		Args: cobra.NoArgs,
		RunE: runResetCmd,
	}

	cmd.Flags().StringP("build-dir", "b", config.DefaultBuildDir,
		"Build directory to remove")
	return cmd
}

// runResetCmd executes the reset command.
func runResetCmd(cmd *cobra.Command, _ []string) error {
	buildDir, err := cmd.Flags().GetString("build-dir")
	if err != nil {
		return err
	}

	removed, err := scaffold.Clean(buildDir)
	if err != nil {
		return err
	}

	if removed {
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", buildDir)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Nothing to remove: %s does not exist\n", buildDir)
	}
	return nil
}
