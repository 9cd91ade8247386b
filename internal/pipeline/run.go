package pipeline

import (
	"github.com/google/uuid"

	"github.com/nao1215/secretgarden/internal/config"
	"github.com/nao1215/secretgarden/internal/denylist"
	"github.com/nao1215/secretgarden/internal/model"
	"github.com/nao1215/secretgarden/internal/sequence"
	"github.com/nao1215/secretgarden/internal/sqlgen"
	"github.com/nao1215/secretgarden/internal/username"
)

// Run is the state shared by the steps of one build.
type Run struct {
	// Config holds the command options.
	Config *config.Config

	// Provision is the validated provisioning file.
	Provision *config.Provision

	// Report collects statistics and warnings. Sites are in configuration order.
	Report *model.RunReport

	// Sites holds per-site state, parallel to Provision.PublicSites.
	Sites []*Site

	// Denylist is the run-wide common-PIN filter, nil until prepared.
	Denylist *denylist.Filter

	// Usernames is the vending pool.
	Usernames []username.Entry

	// Performed lists the names of the steps that ran.
	Performed []string

	// Err is the error of the step that stopped the run, if any.
	Err error
}

// Site is the state of one public site.
type Site struct {
	// Index is the 1-based position of the site in the provisioning file.
	Index int

	// Config is the site as configured.
	Config config.PublicSite

	// Dir is the site's build directory.
	Dir string

	// Tripwires are the pages picked for this run.
	Tripwires sequence.Tripwires

	// Pool holds the allocated sequences, nil until allocation.
	Pool *model.Pool

	// Report points into Run.Report.Sites.
	Report *model.SiteReport
}

// NewRun creates the state for a build of p. runID identifies the run in the
// history database; an empty runID gets a random UUID.
func NewRun(runID string, cfg *config.Config, p *config.Provision) *Run {
	if runID == "" {
		runID = uuid.NewString()
	}
	report := model.NewRunReport(runID, cfg.ConfigFilePath)
	report.Sites = make([]model.SiteReport, len(p.PublicSites))

	run := &Run{
		Config:    cfg,
		Provision: p,
		Report:    report,
		Sites:     make([]*Site, len(p.PublicSites)),
	}
	for i, s := range p.PublicSites {
		report.Sites[i].Domain = s.Domain
		run.Sites[i] = &Site{
			Index:  i + 1,
			Config: s,
			Report: &report.Sites[i],
		}
	}
	return run
}

// Warn records a run-wide warning.
func (r *Run) Warn(w model.Warning) {
	r.Report.Warnings = append(r.Report.Warnings, w)
}

// SequenceRows flattens the allocated pools in site order.
func (r *Run) SequenceRows() []sqlgen.SequenceRow {
	var rows []sqlgen.SequenceRow
	for _, s := range r.Sites {
		if s.Pool == nil {
			continue
		}
		for _, seq := range s.Pool.Sequences {
			rows = append(rows, sqlgen.SequenceRow{Domain: s.Config.Domain, Sequence: seq})
		}
	}
	return rows
}

// UserRows converts the username pool for the SQL seed script.
func (r *Run) UserRows() []sqlgen.UserRow {
	rows := make([]sqlgen.UserRow, len(r.Usernames))
	for i, u := range r.Usernames {
		rows[i] = sqlgen.UserRow{Username: u.Username, DisplayName: u.DisplayName}
	}
	return rows
}
