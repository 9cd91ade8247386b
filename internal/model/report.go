package model

import "time"

// SiteReport summarizes one site of a provisioning run.
type SiteReport struct {
	// Domain identifies the site.
	Domain string `json:"domain"`

	// MenuSize is the number of navigable pages.
	MenuSize int `json:"menu_size"`

	// TripwireCount is the number of tripwire pages.
	TripwireCount int `json:"tripwire_count"`

	// TripwirePages lists the tripwire page names, when they were picked.
	// They are written to the site configuration only, never to reports.
	TripwirePages []string `json:"-"`

	// Length is the sequence length L.
	Length int `json:"sequence_length"`

	// Window is the sliding window size W.
	Window int `json:"sliding_window"`

	// SequencesPerSite is the target unique count K.
	SequencesPerSite int `json:"sequences_per_site"`

	// Estimate is the discoverability estimate.
	Estimate Estimate `json:"estimate"`

	// Pool holds allocation statistics, nil when no allocation ran.
	Pool *PoolStats `json:"pool,omitempty"`

	// Warnings holds the site's diagnostics.
	Warnings []Warning `json:"warnings,omitempty"`
}

// RunReport is the result of a provisioning run.
type RunReport struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// ConfigPath is the provisioning file that was used.
	ConfigPath string `json:"config_path"`

	// BuildDir is where generated content was written. Empty for analyze-only runs.
	BuildDir string `json:"build_dir,omitempty"`

	// DenylistEnabled reports whether common-PIN filtering was active.
	DenylistEnabled bool `json:"denylist_enabled"`

	// DenylistThreshold is the absolute rank threshold in effect.
	DenylistThreshold int `json:"denylist_threshold"`

	// Sites holds one entry per public site, in configuration order.
	Sites []SiteReport `json:"sites"`

	// Warnings holds run-wide diagnostics.
	Warnings []Warning `json:"warnings,omitempty"`
}

// NewRunReport creates an empty report for the given run.
func NewRunReport(runID, configPath string) *RunReport {
	return &RunReport{
		RunID:      runID,
		StartedAt:  time.Now(),
		ConfigPath: configPath,
		Sites:      make([]SiteReport, 0),
	}
}

// AllWarnings returns run-wide warnings followed by every site warning.
func (r *RunReport) AllWarnings() []Warning {
	all := append([]Warning(nil), r.Warnings...)
	for _, s := range r.Sites {
		all = append(all, s.Warnings...)
	}
	return all
}

// TotalProduced returns the number of sequences produced across all sites.
func (r *RunReport) TotalProduced() int {
	total := 0
	for _, s := range r.Sites {
		if s.Pool != nil {
			total += s.Pool.Produced
		}
	}
	return total
}
