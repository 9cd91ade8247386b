package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/secretgarden/internal/config"
	"github.com/nao1215/secretgarden/internal/discover"
)

// errInvalidProvision is returned by validate after the problems were listed.
var errInvalidProvision = errors.New("provisioning file is invalid")

// NewValidateCmd creates the validate command.
func NewValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a provisioning file without building anything",
		Long: `Validate checks the provisioning file against its schema and the rules the
schema cannot express: the public site count, pk_max_history versus pk_length,
unique and well-formed domains, secret doors present in their menu, secret
pages absent from it, and enough non-tripwire pages left per menu.

Every problem is listed, not only the first one.

Examples:
  # Validate init.yaml in the current directory
  secretgarden validate

  # Validate a specific file
  secretgarden validate -c service/init.yaml`,
		Args: cobra.NoArgs,
		RunE: runValidateCmd,
	}

	addConfigFlag(cmd)
	return cmd
}

// runValidateCmd executes the validate command.
func runValidateCmd(cmd *cobra.Command, _ []string) error {
	path, err := resolveConfigPath(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	p, err := config.LoadProvisionFile(path)
	if err != nil {
		if !config.IsValidationError(err) {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		fmt.Fprintf(out, "%s has problems:\n", path)
		for _, line := range errorLines(err) {
			fmt.Fprintf(out, "  - %s\n", line)
		}
		return errInvalidProvision
	}

	app := p.ApplicationConfig
	fmt.Fprintf(out, "%s is valid\n", path)
	fmt.Fprintf(out, "  public sites:       %d\n", len(p.PublicSites))
	fmt.Fprintf(out, "  sequences per site: %d\n",
		discover.SequencesPerSite(p.ProjectMeta.NumUniquePKSequences, len(p.PublicSites)))
	fmt.Fprintf(out, "  sequence length:    %d\n", app.PKLength)
	fmt.Fprintf(out, "  sliding window:     %d\n", discover.Window(app.PKMaxHistory, app.PKLength))
	fmt.Fprintf(out, "  usernames:          %d\n", p.ProjectMeta.UsernameCount())
	return nil
}
