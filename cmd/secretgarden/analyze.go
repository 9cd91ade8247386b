package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/secretgarden/internal/config"
	"github.com/nao1215/secretgarden/internal/pipeline"
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Estimate how discoverable the secret pages are",
		Long: `Analyze computes, for every public site, the probability that a visitor
clicking through the menu at random reaches the secret page.

p_single is the chance that one blind guess of a full sequence hits one of the
site's live sequences. p_session adds up the chance of a hit over every
position of the sliding history window, discounted by the tripwire pages a
random walk would click on the way.

Nothing is written to disk.

Examples:
  # Analyze init.yaml in the current directory
  secretgarden analyze

  # Print the per-step series as well
  secretgarden analyze -v

  # Markdown report into a file
  secretgarden analyze --markdown -o analysis.md`,
		Args: cobra.NoArgs,
		RunE: runAnalyzeCmd,
	}

	addConfigFlag(cmd)
	addReportFlags(cmd)
	return cmd
}

// runAnalyzeCmd executes the analyze command.
func runAnalyzeCmd(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()
	cfg.Verbose = getBoolFlag(cmd, "verbose")
	if err := readReportFlags(cmd, cfg); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	path, err := resolveConfigPath(cmd)
	if err != nil {
		return err
	}
	cfg.ConfigFilePath = path

	p, err := loadProvision(path)
	if err != nil {
		return err
	}

	output, closeOutput, err := openReportOutput(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeOutput() //nolint:errcheck // Report errors surface through Write

	run := pipeline.NewRun("", cfg, p)
	return pipeline.AnalyzePipeline(pipeline.Deps{
		Logger: setupLogger(cmd),
		Report: newReportWriter(cmd, cfg, output),
	}).Execute(context.Background(), run)
}
