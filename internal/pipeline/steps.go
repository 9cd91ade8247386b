package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/nao1215/secretgarden/internal/database"
	"github.com/nao1215/secretgarden/internal/denylist"
	"github.com/nao1215/secretgarden/internal/discover"
	"github.com/nao1215/secretgarden/internal/model"
	"github.com/nao1215/secretgarden/internal/report"
	"github.com/nao1215/secretgarden/internal/scaffold"
	"github.com/nao1215/secretgarden/internal/sequence"
	"github.com/nao1215/secretgarden/internal/sqlgen"
	"github.com/nao1215/secretgarden/internal/tor"
	"github.com/nao1215/secretgarden/internal/username"
)

// ErrBuildDirExists is returned when the build directory already exists and
// removal was not forced.
var ErrBuildDirExists = errors.New("build directory already exists, use --force to replace it")

// stepBase holds what every step shares.
type stepBase struct {
	logger *slog.Logger
	random io.Reader
}

// StepOption configures a step.
type StepOption func(*stepBase)

// WithStepLogger sets a custom logger for a step.
func WithStepLogger(logger *slog.Logger) StepOption {
	return func(s *stepBase) {
		s.logger = logger
	}
}

// WithStepRandom replaces crypto/rand in steps that draw random values.
// Tests use it to inject failing readers.
func WithStepRandom(r io.Reader) StepOption {
	return func(s *stepBase) {
		s.random = r
	}
}

func newStepBase(opts []StepOption) stepBase {
	var b stepBase
	for _, opt := range opts {
		opt(&b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// effectiveTripwires is the number of tripwire pages a site gets: the
// configured count, clamped to the pages that are neither home nor the
// secret door.
func effectiveTripwires(s *Site) int {
	if s.Tripwires.Indices != nil {
		return len(s.Tripwires.Indices)
	}
	candidates := 0
	for i, page := range s.Config.PagesMenu {
		if i > 0 && page != s.Config.RoutingSecrets.SecretDoor {
			candidates++
		}
	}
	return max(0, min(s.Config.TripwireCount(), candidates))
}

// AnalyzeStep fills in the discoverability estimate of every site.
type AnalyzeStep struct {
	stepBase
}

// NewAnalyzeStep creates a new analysis step.
func NewAnalyzeStep(opts ...StepOption) *AnalyzeStep {
	return &AnalyzeStep{stepBase: newStepBase(opts)}
}

// Name returns the step name.
func (s *AnalyzeStep) Name() string {
	return "analyze"
}

// Do executes the analysis step.
func (s *AnalyzeStep) Do(_ context.Context, run *Run) error {
	p := run.Provision
	app := p.ApplicationConfig
	perSite := discover.SequencesPerSite(p.ProjectMeta.NumUniquePKSequences, len(p.PublicSites))
	window := discover.Window(app.PKMaxHistory, app.PKLength)

	for _, site := range run.Sites {
		r := site.Report
		r.MenuSize = len(site.Config.PagesMenu)
		r.TripwireCount = effectiveTripwires(site)
		r.Length = app.PKLength
		r.Window = window
		r.SequencesPerSite = perSite
		r.Estimate = discover.Estimate(discover.Params{
			MenuSize:         r.MenuSize,
			SequencesPerSite: perSite,
			Length:           app.PKLength,
			Window:           window,
			Tripwires:        r.TripwireCount,
		})

		s.logger.Info("discoverability estimated",
			"domain", r.Domain,
			"p_single", r.Estimate.Single,
			"p_session", r.Estimate.Session,
		)
	}
	return nil
}

// PrepareBuildDirStep creates an empty build directory.
type PrepareBuildDirStep struct {
	stepBase
}

// NewPrepareBuildDirStep creates a new build directory step.
func NewPrepareBuildDirStep(opts ...StepOption) *PrepareBuildDirStep {
	return &PrepareBuildDirStep{stepBase: newStepBase(opts)}
}

// Name returns the step name.
func (s *PrepareBuildDirStep) Name() string {
	return "prepare_build_dir"
}

// Critical reports that no later step may run without a prepared build
// directory, since they would write into a previous build.
func (s *PrepareBuildDirStep) Critical() bool {
	return true
}

// Do executes the build directory step.
func (s *PrepareBuildDirStep) Do(_ context.Context, run *Run) error {
	buildDir := run.Config.BuildDir

	if _, err := os.Stat(buildDir); err == nil {
		if !run.Config.Force {
			return fmt.Errorf("%w: %s", ErrBuildDirExists, buildDir)
		}
		if _, err := scaffold.Clean(buildDir); err != nil {
			return err
		}
		s.logger.Info("removed previous build", "dir", buildDir)
	}

	if err := os.MkdirAll(buildDir, 0750); err != nil {
		return fmt.Errorf("failed to create build directory: %w", err)
	}

	run.Report.BuildDir = buildDir
	for _, site := range run.Sites {
		site.Dir = scaffold.SiteDir(buildDir, site.Index, site.Config.Domain)
	}
	return nil
}

// PickTripwiresStep selects the tripwire pages of every site.
type PickTripwiresStep struct {
	stepBase
}

// NewPickTripwiresStep creates a new tripwire selection step.
func NewPickTripwiresStep(opts ...StepOption) *PickTripwiresStep {
	return &PickTripwiresStep{stepBase: newStepBase(opts)}
}

// Name returns the step name.
func (s *PickTripwiresStep) Name() string {
	return "pick_tripwires"
}

// Do executes the tripwire selection step.
func (s *PickTripwiresStep) Do(_ context.Context, run *Run) error {
	for _, site := range run.Sites {
		tw, err := sequence.PickTripwires(
			site.Config.PagesMenu,
			site.Config.RoutingSecrets.SecretDoor,
			site.Config.TripwireCount(),
			s.random,
		)
		if err != nil {
			return fmt.Errorf("%s: %w", site.Config.Domain, err)
		}
		site.Tripwires = tw
		site.Report.TripwirePages = tw.Pages
		site.Report.TripwireCount = len(tw.Pages)

		s.logger.Debug("tripwires picked", "domain", site.Config.Domain, "count", len(tw.Pages))
	}
	return nil
}

// CloneSitesStep copies the site sources into the build directory.
type CloneSitesStep struct {
	stepBase
	cloner *scaffold.Cloner
	batch  *BatchProcessor
}

// NewCloneSitesStep creates a new clone step.
func NewCloneSitesStep(cloner *scaffold.Cloner, batch *BatchProcessor, opts ...StepOption) *CloneSitesStep {
	return &CloneSitesStep{stepBase: newStepBase(opts), cloner: cloner, batch: batch}
}

// Name returns the step name.
func (s *CloneSitesStep) Name() string {
	return "clone_sites"
}

// Do executes the clone step. A missing source directory is a warning.
func (s *CloneSitesStep) Do(ctx context.Context, run *Run) error {
	cfg := run.Config

	if isDir(cfg.PublicSourceDir) {
		err := s.batch.ProcessSites(ctx, run.Sites, func(ctx context.Context, site *Site) error {
			result, err := s.cloner.Clone(ctx, cfg.PublicSourceDir, site.Dir)
			if err != nil {
				return err
			}
			s.logger.Info("public site cloned", "domain", site.Config.Domain, "files", result.Files)
			return nil
		})
		if err != nil {
			return err
		}
	} else {
		run.Warn(model.NewWarning("", model.WarningSourceMissing,
			"public site source %s not found, sites were not cloned", cfg.PublicSourceDir))
	}

	if isDir(cfg.AdminSourceDir) {
		result, err := s.cloner.Clone(ctx, cfg.AdminSourceDir, scaffold.AdminDir(cfg.BuildDir))
		if err != nil {
			return err
		}
		s.logger.Info("admin site cloned", "files", result.Files)
	} else {
		run.Warn(model.NewWarning("", model.WarningSourceMissing,
			"admin site source %s not found, admin site was not cloned", cfg.AdminSourceDir))
	}
	return nil
}

// RenderConfigsStep writes config/config.php into every cloned site.
type RenderConfigsStep struct {
	stepBase
}

// NewRenderConfigsStep creates a new configuration rendering step.
func NewRenderConfigsStep(opts ...StepOption) *RenderConfigsStep {
	return &RenderConfigsStep{stepBase: newStepBase(opts)}
}

// Name returns the step name.
func (s *RenderConfigsStep) Name() string {
	return "render_configs"
}

// Do executes the rendering step. Sites that were not cloned are skipped
// with a warning.
func (s *RenderConfigsStep) Do(_ context.Context, run *Run) error {
	for _, site := range run.Sites {
		if !isDir(site.Dir) {
			site.Report.Warnings = append(site.Report.Warnings, model.NewWarning(site.Config.Domain,
				model.WarningSourceMissing, "site directory %s not found, config.php not written", site.Dir))
			continue
		}
		content, err := scaffold.PublicConfig(run.Provision, site.Config, site.Tripwires.Pages)
		if err != nil {
			return fmt.Errorf("%s: %w", site.Config.Domain, err)
		}
		path, err := scaffold.WriteConfig(site.Dir, content)
		if err != nil {
			return fmt.Errorf("%s: %w", site.Config.Domain, err)
		}
		s.logger.Debug("site configuration written", "domain", site.Config.Domain, "path", path)
	}

	adminDir := scaffold.AdminDir(run.Config.BuildDir)
	if !isDir(adminDir) {
		return nil
	}
	content, err := scaffold.AdminConfig(run.Provision)
	if err != nil {
		return fmt.Errorf("admin site: %w", err)
	}
	path, err := scaffold.WriteConfig(adminDir, content)
	if err != nil {
		return fmt.Errorf("admin site: %w", err)
	}
	s.logger.Debug("admin configuration written", "path", path)
	return nil
}

// DenylistStep prepares the run-wide common-PIN filter.
//
// Design decision: The list is prepared once per run, before any site is
// allocated, and a failed download never fails the build. Filtering lowers
// the chance of guessable sequences but is not required for a working
// deployment, so it degrades to a warning.
type DenylistStep struct {
	stepBase
	client *http.Client
}

// NewDenylistStep creates a new denylist step. A nil client means a
// transport is built from the command options (direct, SOCKS5 proxy or
// embedded Tor) only when a download is actually needed.
func NewDenylistStep(client *http.Client, opts ...StepOption) *DenylistStep {
	return &DenylistStep{stepBase: newStepBase(opts), client: client}
}

// Name returns the step name.
func (s *DenylistStep) Name() string {
	return "denylist"
}

// Do executes the denylist step. Every failure degrades to no filtering.
func (s *DenylistStep) Do(ctx context.Context, run *Run) error {
	cfg := run.Config
	app := run.Provision.ApplicationConfig
	settings := denylist.Settings{
		Length:   app.PKLength,
		Fraction: app.CommonSequenceThreshold,
		Sources:  app.DenylistSourceMap(),
		Disabled: cfg.DisableDenylist,
	}

	fetcherOpts := []denylist.FetcherOption{
		denylist.WithRefresh(cfg.RefreshDenylist),
		denylist.WithMaxAge(cfg.DenylistMaxAge),
		denylist.WithFetchLogger(s.logger),
	}

	client := s.client
	_, published := denylist.SourceFor(settings.Length, settings.Sources)
	needsDownload := !settings.Disabled && published &&
		denylist.Threshold(settings.Length, settings.Fraction) > 0 &&
		!denylist.NewFetcher(cfg.CacheDir, fetcherOpts...).Fresh(settings.Length)
	if needsDownload && client == nil {
		transport, err := tor.NewTransport(ctx, tor.Options{
			ProxyAddress:   cfg.ProxyAddress,
			UseTor:         cfg.UseTor,
			Timeout:        cfg.Timeout,
			StartupTimeout: cfg.TorStartupTimeout,
			Logger:         s.logger,
		})
		if err != nil {
			run.Warn(model.NewWarning("", model.WarningDenylistUnavailable,
				"no transport for the common-PIN download: %v, continuing without filter", err))
			settings.Disabled = true
		} else {
			defer func() {
				if err := transport.Close(); err != nil {
					s.logger.Warn("failed to stop transport", "error", err)
				}
			}()
			client = transport.Client
			s.logger.Info("downloading common-PIN list", "transport", transport.Mode)
		}
	}

	if client != nil {
		fetcherOpts = append(fetcherOpts, denylist.WithHTTPClient(client))
	}
	fetcher := denylist.NewFetcher(cfg.CacheDir, fetcherOpts...)

	filter, warning := denylist.Prepare(ctx, fetcher, settings)
	if warning != nil {
		run.Warn(*warning)
	}

	run.Denylist = filter
	run.Report.DenylistEnabled = filter.Enabled()
	run.Report.DenylistThreshold = filter.Threshold()
	return nil
}

// AllocateStep draws the secret sequences of every site, one site at a time.
//
// Design decision: Sites are allocated sequentially even though cloning runs
// concurrently. A site allocation is CPU-bound and short, the shared
// denylist resource is a single file scanned per candidate, and sequential
// allocation keeps the warning order stable across runs.
type AllocateStep struct {
	stepBase
}

// NewAllocateStep creates a new allocation step.
func NewAllocateStep(opts ...StepOption) *AllocateStep {
	return &AllocateStep{stepBase: newStepBase(opts)}
}

// Name returns the step name.
func (s *AllocateStep) Name() string {
	return "allocate"
}

// Do executes the allocation step.
func (s *AllocateStep) Do(ctx context.Context, run *Run) error {
	allocOpts := []sequence.Option{sequence.WithLogger(s.logger)}
	if run.Denylist != nil {
		allocOpts = append(allocOpts, sequence.WithDenylist(run.Denylist))
	}
	if s.random != nil {
		allocOpts = append(allocOpts, sequence.WithRandom(s.random))
	}
	allocator := sequence.NewAllocator(allocOpts...)

	budget := run.Config.AttemptBudget
	if budget <= 0 {
		budget = run.Provision.ApplicationConfig.AttemptBudget
	}
	perSite := discover.SequencesPerSite(run.Provision.ProjectMeta.NumUniquePKSequences, len(run.Sites))

	for _, site := range run.Sites {
		pool, err := allocator.Allocate(ctx, sequence.Params{
			Domain:        site.Config.Domain,
			MenuSize:      len(site.Config.PagesMenu),
			Tripwires:     site.Tripwires.Indices,
			Length:        run.Provision.ApplicationConfig.PKLength,
			Target:        perSite,
			AttemptBudget: budget,
		})
		if pool != nil {
			site.Pool = pool
			stats := pool.Stats()
			site.Report.Pool = &stats
			site.Report.Warnings = append(site.Report.Warnings, pool.Warnings...)
		}
		if err != nil {
			return err
		}

		s.logger.Info("sequences allocated",
			"domain", site.Config.Domain,
			"produced", pool.Produced(),
			"requested", pool.Requested,
			"exit", pool.Exit.String(),
		)
	}
	return nil
}

// ExportSequencesStep writes pk_sequences.csv.
type ExportSequencesStep struct {
	stepBase
}

// NewExportSequencesStep creates a new sequence export step.
func NewExportSequencesStep(opts ...StepOption) *ExportSequencesStep {
	return &ExportSequencesStep{stepBase: newStepBase(opts)}
}

// Name returns the step name.
func (s *ExportSequencesStep) Name() string {
	return "export_sequences"
}

// Do executes the export step.
func (s *ExportSequencesStep) Do(_ context.Context, run *Run) error {
	rows := run.SequenceRows()
	path := filepath.Join(run.Config.BuildDir, sqlgen.SequencesCSV)
	if err := sqlgen.WriteSequencesCSV(path, rows); err != nil {
		return err
	}
	s.logger.Info("sequences exported", "path", path, "rows", len(rows))
	return nil
}

// UsernamesStep builds the username vending pool.
type UsernamesStep struct {
	stepBase
}

// NewUsernamesStep creates a new username step.
func NewUsernamesStep(opts ...StepOption) *UsernamesStep {
	return &UsernamesStep{stepBase: newStepBase(opts)}
}

// Name returns the step name.
func (s *UsernamesStep) Name() string {
	return "usernames"
}

// Do executes the username step. A user-provided pool file replaces the
// generated pool.
func (s *UsernamesStep) Do(_ context.Context, run *Run) error {
	var (
		entries []username.Entry
		err     error
	)

	provided := run.Config.BaseUsernamesFile
	if provided != "" && isFile(provided) {
		entries, err = username.LoadFile(provided)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", provided, err)
		}
		s.logger.Info("using provided username pool", "path", provided, "entries", len(entries))
	} else {
		count := run.Provision.ProjectMeta.UsernameCount()
		var genOpts []username.Option
		if s.random != nil {
			genOpts = append(genOpts, username.WithRandom(s.random))
		}
		entries, err = username.NewGenerator(genOpts...).Generate(count)
		if err != nil {
			return err
		}
		if len(entries) < count {
			run.Warn(model.NewWarning("", model.WarningUsernameShortfall,
				"generated %d of %d requested usernames", len(entries), count))
		}
	}

	run.Usernames = entries
	return username.WriteCSV(filepath.Join(run.Config.BuildDir, username.FileName), entries)
}

// SQLStep writes the database scripts.
type SQLStep struct {
	stepBase
}

// NewSQLStep creates a new SQL generation step.
func NewSQLStep(opts ...StepOption) *SQLStep {
	return &SQLStep{stepBase: newStepBase(opts)}
}

// Name returns the step name.
func (s *SQLStep) Name() string {
	return "sql"
}

// Do executes the SQL step.
func (s *SQLStep) Do(_ context.Context, run *Run) error {
	genOpts := []sqlgen.GeneratorOption{sqlgen.WithLogger(s.logger)}
	if s.random != nil {
		genOpts = append(genOpts, sqlgen.WithRandom(s.random))
	}

	result, err := sqlgen.NewGenerator(run.Config.TemplateDir, genOpts...).
		Generate(run.Config.BuildDir, run.Provision, run.SequenceRows(), run.UserRows())
	if err != nil {
		return err
	}
	for _, missing := range result.MissingTemplates {
		run.Warn(model.NewWarning("", model.WarningTemplateMissing,
			"SQL template %s not found in %s, script skipped", missing, run.Config.TemplateDir))
	}
	s.logger.Info("sql scripts written", "files", len(result.Files))
	return nil
}

// ReportStep writes the run report.
type ReportStep struct {
	stepBase
	writer report.Writer
}

// NewReportStep creates a new report step.
func NewReportStep(writer report.Writer, opts ...StepOption) *ReportStep {
	return &ReportStep{stepBase: newStepBase(opts), writer: writer}
}

// Name returns the step name.
func (s *ReportStep) Name() string {
	return "report"
}

// Do executes the report step.
func (s *ReportStep) Do(_ context.Context, run *Run) error {
	if _, err := s.writer.Write(run.Report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// HistoryStep records the run statistics in the history database.
type HistoryStep struct {
	stepBase
}

// NewHistoryStep creates a new history step.
func NewHistoryStep(opts ...StepOption) *HistoryStep {
	return &HistoryStep{stepBase: newStepBase(opts)}
}

// Name returns the step name.
func (s *HistoryStep) Name() string {
	return "history"
}

// Do executes the history step.
func (s *HistoryStep) Do(ctx context.Context, run *Run) error {
	db, err := database.Open(run.Config.DBDir, database.DefaultOptions())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.SaveRun(ctx, run.Report); err != nil {
		return err
	}
	s.logger.Info("run recorded", "run_id", run.Report.RunID, "db", db.Path())
	return nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
