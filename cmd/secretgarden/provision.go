package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/secretgarden/internal/config"
	"github.com/nao1215/secretgarden/internal/report"
)

// addConfigFlag registers the provisioning file flag.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "",
		"Provisioning file path (default: init.yaml, service/init.yaml or the XDG config directory)")
}

// addReportFlags registers the report format and destination flags.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("tee", false,
		"Also print a text report to stdout when --output is set")
}

// resolveConfigPath returns the provisioning file named by --config or found
// in the default locations.
func resolveConfigPath(cmd *cobra.Command) (string, error) {
	explicit, err := cmd.Flags().GetString("config")
	if err != nil {
		return "", err
	}

	path := config.FindConfigFile(explicit)
	switch {
	case path != "":
		return path, nil
	case explicit != "":
		return "", fmt.Errorf("%w: %s", config.ErrConfigNotFound, explicit)
	default:
		return "", config.ErrNoConfigFile
	}
}

// loadProvision loads and validates the provisioning file.
// Every validation problem is listed, one per line.
func loadProvision(path string) (*config.Provision, error) {
	p, err := config.LoadProvisionFile(path)
	if err == nil {
		return p, nil
	}
	if !config.IsValidationError(err) {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil, fmt.Errorf("%s is invalid:\n%w", path, err)
}

// readReportFlags copies the report flags into cfg.
func readReportFlags(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
		return err
	}
	if cfg.TeeReport, err = cmd.Flags().GetBool("tee"); err != nil {
		return err
	}
	if cfg.JSONReport && cfg.MarkdownReport {
		return config.ErrConflictingReportFormats
	}
	if cfg.TeeReport && cfg.ReportFile == "" {
		return config.ErrTeeWithoutOutput
	}
	return nil
}

// openReportOutput returns the report destination: the report file, created
// with owner-only permissions, or stdout.
func openReportOutput(cmd *cobra.Command, cfg *config.Config) (io.Writer, func() error, error) {
	if cfg.ReportFile == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}

	if dir := filepath.Dir(cfg.ReportFile); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// newReportWriter returns the writer selected by the report flags. With
// --tee the report file is accompanied by a text report on stdout.
func newReportWriter(cmd *cobra.Command, cfg *config.Config, output io.Writer) report.Writer {
	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		w = newSimpleWriter(cfg, output)
	}

	if cfg.TeeReport && cfg.ReportFile != "" {
		return report.NewMultiWriter(w, newSimpleWriter(cfg, cmd.OutOrStdout()))
	}
	return w
}

// newSimpleWriter returns a text writer. Verbose output also lists empty
// sections so that "no warnings" is stated explicitly.
func newSimpleWriter(cfg *config.Config, output io.Writer) *report.SimpleWriter {
	return report.NewSimpleWriter(output,
		report.WithVerbose(cfg.Verbose),
		report.WithShowEmpty(cfg.Verbose),
	)
}

// errorLines flattens joined errors into one message per line.
func errorLines(err error) []string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var lines []string
		for _, e := range joined.Unwrap() {
			lines = append(lines, errorLines(e)...)
		}
		return lines
	}
	return []string{err.Error()}
}
