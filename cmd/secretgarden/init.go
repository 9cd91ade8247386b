package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/secretgarden/internal/config"
)

//go:embed templates/init.yaml
var provisionTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write an example provisioning file",
		Long: `Init writes an example init.yaml in the current directory.

The generated file includes:
- Two public sites with menus, secret doors and tripwire pages
- The secret door and secret page form fields
- Sequence length, history window and common-PIN filtering settings

Examples:
  # Create init.yaml in current directory
  secretgarden init

  # Create the file at a specific path
  secretgarden init -o service/init.yaml

  # Force overwrite existing file
  secretgarden init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the provisioning file")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing provisioning file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("provisioning file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := provisionTemplate.ReadFile("templates/init.yaml")
	if err != nil {
		return fmt.Errorf("failed to read provisioning template: %w", err)
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// The file holds database passwords.
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write provisioning file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created provisioning file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to describe your deployment:")
	fmt.Fprintln(out, "  - Public site domains, menus and secret pages")
	fmt.Fprintln(out, "  - Database credentials")
	fmt.Fprintln(out, "  - Sequence length and common-PIN filtering")
	return nil
}
