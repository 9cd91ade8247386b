package report

import (
	"fmt"
	"math"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/nao1215/secretgarden/internal/model"
)

// Summary aggregates a run over all sites.
type Summary struct {
	Sites     int `json:"sites"`
	Requested int `json:"requested"`
	Produced  int `json:"produced"`
	Warnings  int `json:"warnings"`

	// Exits counts sites per allocation exit reason.
	Exits map[string]int `json:"exits"`

	// WorstSession is the highest per-session discovery probability.
	WorstSession float64 `json:"worst_p_session"`

	// WorstDomain is the site with WorstSession.
	WorstDomain string `json:"worst_domain,omitempty"`
}

// Summarize builds the Summary of a report.
func Summarize(r *model.RunReport) Summary {
	s := Summary{
		Sites:    len(r.Sites),
		Warnings: len(r.AllWarnings()),
		Exits:    make(map[string]int),
	}
	for _, site := range r.Sites {
		s.Requested += site.SequencesPerSite
		if site.Pool != nil {
			s.Produced += site.Pool.Produced
			s.Exits[site.Pool.Exit]++
		}
		if site.Estimate.Session > s.WorstSession || s.WorstDomain == "" {
			s.WorstSession = site.Estimate.Session
			s.WorstDomain = site.Domain
		}
	}
	return s
}

// exitNames returns the exit reasons of s in a stable order.
func (s Summary) exitNames() []string {
	names := make([]string, 0, len(s.Exits))
	for name := range s.Exits {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// formatProbability renders p as a short decimal with its odds, e.g.
// "0.0012 (1 in 833)".
func formatProbability(p float64) string {
	switch {
	case p <= 0:
		return "0"
	case p >= 1:
		return "1 (certain)"
	}
	odds := math.Round(1 / p)
	return fmt.Sprintf("%.4g (1 in %s)", p, humanize.Comma(int64(odds)))
}

// formatCount renders n with thousands separators.
func formatCount(n int) string {
	return humanize.Comma(int64(n))
}

// denylistStatus describes the common-PIN filter of a run.
func denylistStatus(r *model.RunReport) string {
	if !r.DenylistEnabled {
		return "disabled"
	}
	return fmt.Sprintf("enabled (top %s entries)", formatCount(r.DenylistThreshold))
}
