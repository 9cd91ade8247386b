package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/secretgarden/internal/config"
	"github.com/nao1215/secretgarden/internal/pipeline"
)

// NewGenerateCmd creates the generate command.
func NewGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Build every site, the secret sequences and the database scripts",
		Long: `Generate builds the whole deployment into the build directory:

- One copy of the public site source per public site, with its config.php
- The admin site with its config.php
- pk_sequences.csv with the secret sequences of every site
- base_usernames.csv with the username vending pool
- database/*.sql with roles, tables, permissions and seed data

Sequences that coincide with common PINs are rejected when
common_sequence_threshold is set. The ranked PIN list is downloaded once and
cached; use --proxy or --tor to route that download.

Examples:
  # Build into ./build
  secretgarden generate

  # Replace a previous build
  secretgarden generate --force

  # Download the common-PIN list through an embedded Tor daemon
  secretgarden generate --tor

  # Skip common-PIN filtering and write a JSON report
  secretgarden generate --no-denylist --json -o build-report.json`,
		Args: cobra.NoArgs,
		RunE: runGenerateCmd,
	}

	addConfigFlag(cmd)
	addReportFlags(cmd)

	// Layout flags
	cmd.Flags().StringP("build-dir", "b", config.DefaultBuildDir,
		"Output directory")
	cmd.Flags().String("public-source", config.DefaultPublicSourceDir,
		"Public site source cloned once per public site")
	cmd.Flags().String("admin-source", config.DefaultAdminSourceDir,
		"Admin site source")
	cmd.Flags().String("templates", config.DefaultTemplateDir,
		"Directory of the SQL templates")
	cmd.Flags().String("usernames-file", config.DefaultBaseUsernamesFile,
		"Username pool used instead of generated names when it exists")
	cmd.Flags().StringSlice("exclude", config.DefaultExcludes(),
		"Glob patterns skipped while cloning site sources")
	cmd.Flags().IntP("jobs", "J", config.DefaultJobs,
		"Number of sites cloned concurrently")
	cmd.Flags().BoolP("force", "f", false,
		"Remove an existing build directory first")
	cmd.Flags().Bool("continue-on-error", false,
		"Run the remaining steps after a step fails and exit with its error afterwards")

	// Allocation flags
	cmd.Flags().Int("attempt-budget", 0,
		"Candidates drawn per site before giving up (default: attempt_budget or 5000)")

	// Denylist flags
	cmd.Flags().Bool("no-denylist", false,
		"Skip common-PIN filtering")
	cmd.Flags().Bool("refresh-denylist", false,
		"Download the common-PIN list even when the cache is fresh")
	cmd.Flags().String("cache-dir", config.XDGCacheDir(),
		"Directory of cached common-PIN lists")
	cmd.Flags().Duration("denylist-max-age", config.DefaultDenylistMaxAge,
		"Reuse a cached common-PIN list younger than this (0 downloads every run)")
	cmd.Flags().StringP("proxy", "p", "",
		"Download through a SOCKS5 proxy (e.g., 127.0.0.1:9050)")
	cmd.Flags().Bool("tor", false,
		"Download through an embedded Tor daemon")
	cmd.Flags().DurationP("tor-timeout", "T", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for the common-PIN download")

	// History flags
	cmd.Flags().Bool("no-history", false,
		"Do not record the run in the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// runGenerateCmd executes the generate command.
func runGenerateCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	p, err := loadProvision(cfg.ConfigFilePath)
	if err != nil {
		return err
	}

	logger := setupLogger(cmd)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	output, closeOutput, err := openReportOutput(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeOutput() //nolint:errcheck // Report errors surface through Write

	pl, err := pipeline.GeneratePipeline(cfg, pipeline.Deps{
		Logger: logger,
		Report: newReportWriter(cmd, cfg, output),
	})
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	startTime := time.Now()
	run := pipeline.NewRun("", cfg, p)
	if err := pl.Execute(ctx, run); err != nil {
		return err
	}
	if run.Err != nil {
		return fmt.Errorf("build finished with errors: %w", run.Err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Build written to %s in %s\n",
		cfg.BuildDir, time.Since(startTime).Round(time.Millisecond))
	return nil
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getBoolFlag(cmd, "verbose")

	var err error
	flags := cmd.Flags()

	if cfg.BuildDir, err = flags.GetString("build-dir"); err != nil {
		return nil, err
	}
	if cfg.PublicSourceDir, err = flags.GetString("public-source"); err != nil {
		return nil, err
	}
	if cfg.AdminSourceDir, err = flags.GetString("admin-source"); err != nil {
		return nil, err
	}
	if cfg.TemplateDir, err = flags.GetString("templates"); err != nil {
		return nil, err
	}
	if cfg.BaseUsernamesFile, err = flags.GetString("usernames-file"); err != nil {
		return nil, err
	}
	if cfg.Excludes, err = flags.GetStringSlice("exclude"); err != nil {
		return nil, err
	}
	if cfg.Jobs, err = flags.GetInt("jobs"); err != nil {
		return nil, err
	}
	if cfg.Force, err = flags.GetBool("force"); err != nil {
		return nil, err
	}
	if cfg.ContinueOnError, err = flags.GetBool("continue-on-error"); err != nil {
		return nil, err
	}
	if cfg.AttemptBudget, err = flags.GetInt("attempt-budget"); err != nil {
		return nil, err
	}
	if cfg.DisableDenylist, err = flags.GetBool("no-denylist"); err != nil {
		return nil, err
	}
	if cfg.RefreshDenylist, err = flags.GetBool("refresh-denylist"); err != nil {
		return nil, err
	}
	if cfg.CacheDir, err = flags.GetString("cache-dir"); err != nil {
		return nil, err
	}
	if cfg.DenylistMaxAge, err = flags.GetDuration("denylist-max-age"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.UseTor, err = flags.GetBool("tor"); err != nil {
		return nil, err
	}
	if cfg.TorStartupTimeout, err = flags.GetDuration("tor-timeout"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}

	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noHistory
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}

	if err := readReportFlags(cmd, cfg); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	if cfg.ConfigFilePath, err = resolveConfigPath(cmd); err != nil {
		return nil, err
	}
	return cfg, nil
}
