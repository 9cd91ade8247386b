package model

// Step is one entry of the per-step discoverability series.
type Step struct {
	// Index is the 1-based step within the sliding window.
	Index int `json:"step"`

	// Survival is the probability that every symbol guessed so far avoided
	// tripwire pages.
	Survival float64 `json:"survival"`

	// Probability is the probability of a hit at this step.
	Probability float64 `json:"probability"`
}

// Estimate is the analytic discoverability estimate for one site.
// It is derived from the site parameters and recomputed whenever they change.
type Estimate struct {
	// Single is the probability that one blind guess hits a live sequence.
	Single float64 `json:"p_single"`

	// Session is the union-bound probability over the whole sliding window.
	Session float64 `json:"p_session"`

	// Steps is the per-step series. Empty for degenerate menus.
	Steps []Step `json:"steps"`
}
