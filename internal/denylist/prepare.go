package denylist

import (
	"context"

	"github.com/nao1215/secretgarden/internal/model"
)

// Settings describe how the run-wide filter is built.
type Settings struct {
	// Length is the sequence length L.
	Length int

	// Fraction is the popularity fraction p in [0, 1].
	Fraction float64

	// Sources overrides DefaultSources per length.
	Sources map[int]string

	// Disabled turns filtering off without fetching anything.
	Disabled bool
}

// Prepare fetches the list for s.Length once and returns the run-wide filter.
// Every failure degrades to a disabled filter plus a warning; a zero threshold
// or an explicit opt-out disables filtering without a warning.
func Prepare(ctx context.Context, fetcher *Fetcher, s Settings) (*Filter, *model.Warning) {
	threshold := Threshold(s.Length, s.Fraction)
	if s.Disabled || threshold <= 0 {
		return NewFilter(nil, threshold), nil
	}

	url, ok := SourceFor(s.Length, s.Sources)
	if !ok {
		w := model.NewWarning("", model.WarningDenylistUnavailable,
			"no common-PIN list is published for sequence length %d, continuing without filter", s.Length)
		return NewFilter(nil, threshold), &w
	}

	resource, err := fetcher.Fetch(ctx, s.Length, url)
	if err != nil {
		w := model.NewWarning("", model.WarningDenylistUnavailable,
			"failed to fetch common-PIN list: %v, continuing without filter", err)
		return NewFilter(nil, threshold), &w
	}
	return NewFilter(resource, threshold), nil
}
