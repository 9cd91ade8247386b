package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nao1215/secretgarden/internal/config"
	"github.com/nao1215/secretgarden/internal/database"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded generate runs",
		Long: `History lists the runs recorded by 'secretgarden generate'.

Each run stores its per-site statistics: requested and produced sequences,
attempts, common-PIN rejections, the allocation outcome and the
discoverability estimate. Secret sequences, tripwire pages and credentials
are never recorded.

Examples:
  # List the 20 most recent runs
  secretgarden history

  # Show one run; a unique prefix of the run ID is enough
  secretgarden history 3f2a9c1e

  # Show how one site evolved across runs
  secretgarden history --site bakery.example.org

  # Machine-readable listing
  secretgarden history --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 20,
		"Maximum number of runs listed (0 lists all)")
	cmd.Flags().StringP("site", "s", "",
		"Show the history of one public site domain")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")
	addReportFlags(cmd)

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	cfg := config.NewConfig()
	cfg.Verbose = getBoolFlag(cmd, "verbose")
	if err := readReportFlags(cmd, cfg); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	var err error
	if cfg.DBDir, err = cmd.Flags().GetString("db-dir"); err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	site, err := cmd.Flags().GetString("site")
	if err != nil {
		return err
	}
	if site != "" && len(args) > 0 {
		return errors.New("--site cannot be combined with a run ID")
	}

	db, err := database.Open(cfg.DBDir, database.Options{EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w (run 'secretgarden generate' first)", err)
	}
	defer db.Close()

	output, closeOutput, err := openReportOutput(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeOutput() //nolint:errcheck // Errors surface through the writes

	ctx := context.Background()
	switch {
	case len(args) == 1:
		report, err := db.GetRun(ctx, args[0])
		if err != nil {
			return err
		}
		_, err = newReportWriter(cmd, cfg, output).Write(report)
		return err
	case site != "":
		return listSiteHistory(ctx, db, site, cfg.JSONReport, output)
	default:
		return listRuns(ctx, db, limit, cfg.JSONReport, output)
	}
}

// listRuns prints the most recent runs.
func listRuns(ctx context.Context, db *database.HistoryDB, limit int, asJSON bool, out io.Writer) error {
	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(out, runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet.")
		fmt.Fprintln(out, "\nUse 'secretgarden generate' to build and record a run.")
		return nil
	}

	fmt.Fprintf(out, "Recorded runs (%d):\n\n", len(runs))
	fmt.Fprintf(out, "  %-8s  %-16s  %-5s  %-17s  %-8s  %s\n", "ID", "When", "Sites", "Sequences", "Warnings", "Filter")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 72))
	for _, r := range runs {
		filter := "off"
		if r.DenylistEnabled {
			filter = "top " + humanize.Comma(int64(r.DenylistThreshold))
		}
		fmt.Fprintf(out, "  %-8s  %-16s  %-5d  %-17s  %-8d  %s\n",
			r.ID[:min(len(r.ID), 8)],
			humanize.Time(r.StartedAt),
			r.Sites,
			humanize.Comma(int64(r.Produced))+"/"+humanize.Comma(int64(r.Requested)),
			r.Warnings,
			filter,
		)
	}

	fmt.Fprintln(out, "\nUse 'secretgarden history <id>' to show the report of a run.")
	return nil
}

// listSiteHistory prints the runs of one site.
func listSiteHistory(ctx context.Context, db *database.HistoryDB, domain string, asJSON bool, out io.Writer) error {
	runs, err := db.SiteHistory(ctx, domain)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(out, runs)
	}

	if len(runs) == 0 {
		fmt.Fprintf(out, "No runs recorded for %s\n", domain)
		return nil
	}

	fmt.Fprintf(out, "History of %s (%d runs):\n\n", domain, len(runs))
	fmt.Fprintf(out, "  %-8s  %-17s  %-8s  %-10s  %-16s  %s\n", "Run", "Sequences", "Attempts", "Rejected", "Outcome", "p_session")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 80))
	for _, s := range runs {
		fmt.Fprintf(out, "  %-8s  %-17s  %-8s  %-10s  %-16s  %.3g\n",
			s.RunID[:min(len(s.RunID), 8)],
			humanize.Comma(int64(s.Produced))+"/"+humanize.Comma(int64(s.Requested)),
			humanize.Comma(int64(s.Attempts)),
			humanize.Comma(int64(s.DenylistRejections)),
			s.Exit,
			s.PSession,
		)
	}
	return nil
}

// writeJSON writes v as indented JSON.
func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
