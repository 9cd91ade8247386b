package pipeline

import (
	"log/slog"
	"net/http"

	"github.com/nao1215/secretgarden/internal/config"
	"github.com/nao1215/secretgarden/internal/report"
	"github.com/nao1215/secretgarden/internal/scaffold"
)

// Deps are the collaborators the pipeline builders wire into steps.
type Deps struct {
	// Logger receives pipeline and step logs.
	Logger *slog.Logger

	// Report receives the finished run report.
	Report report.Writer

	// HTTPClient downloads the common-PIN list. Nil builds a transport
	// from the command options.
	HTTPClient *http.Client
}

// GeneratePipeline returns the full build: cloned sites, configurations,
// sequences, usernames, SQL, the report and, if enabled, the history record.
func GeneratePipeline(cfg *config.Config, deps Deps, opts ...Option) (*Pipeline, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	stepOpts := []StepOption{WithStepLogger(logger)}

	cloner, err := scaffold.NewCloner(cfg.Excludes, scaffold.WithClonerLogger(logger))
	if err != nil {
		return nil, err
	}
	batch := NewBatchProcessor(WithConcurrency(cfg.Jobs), WithBatchLogger(logger))

	base := []Option{WithLogger(logger), WithContinueOnError(cfg.ContinueOnError)}
	p := New(append(base, opts...)...)
	p.AddSteps(
		NewPrepareBuildDirStep(stepOpts...),
		NewPickTripwiresStep(stepOpts...),
		NewAnalyzeStep(stepOpts...),
		NewCloneSitesStep(cloner, batch, stepOpts...),
		NewRenderConfigsStep(stepOpts...),
		NewDenylistStep(deps.HTTPClient, stepOpts...),
		NewAllocateStep(stepOpts...),
		NewExportSequencesStep(stepOpts...),
		NewUsernamesStep(stepOpts...),
		NewSQLStep(stepOpts...),
	)
	if deps.Report != nil {
		p.AddStep(NewReportStep(deps.Report, stepOpts...))
	}
	if cfg.SaveToDB {
		p.AddStep(NewHistoryStep(stepOpts...))
	}
	return p, nil
}

// AnalyzePipeline returns the read-only discoverability analysis. It writes
// nothing but the report.
func AnalyzePipeline(deps Deps, opts ...Option) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := New(append([]Option{WithLogger(logger)}, opts...)...)
	p.AddStep(NewAnalyzeStep(WithStepLogger(logger)))
	if deps.Report != nil {
		p.AddStep(NewReportStep(deps.Report, WithStepLogger(logger)))
	}
	return p
}
