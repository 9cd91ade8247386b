package model

// ExitReason explains why sequence allocation for a site stopped.
// Callers use it to tell "fewer than requested because infeasible" apart
// from "fewer than requested because of bad luck within the budget".
type ExitReason int

const (
	// ExitComplete means the pool reached the requested size.
	ExitComplete ExitReason = iota

	// ExitBudgetExhausted means the attempt budget ran out first.
	ExitBudgetExhausted

	// ExitSpaceExhausted means every valid sequence was already in the pool.
	ExitSpaceExhausted

	// ExitInfeasible means the site's constraints admit no sequence at all.
	ExitInfeasible

	// ExitCancelled means the context was cancelled during allocation.
	ExitCancelled
)

// String returns a short identifier for the exit reason.
func (r ExitReason) String() string {
	switch r {
	case ExitComplete:
		return "complete"
	case ExitBudgetExhausted:
		return "budget_exhausted"
	case ExitSpaceExhausted:
		return "space_exhausted"
	case ExitInfeasible:
		return "infeasible"
	case ExitCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Pool is the set of secret sequences allocated for one site.
// It is created fresh for every run and never mutated after allocation.
type Pool struct {
	// Domain identifies the site.
	Domain string

	// Sequences holds the accepted sequences in sorted order.
	Sequences []string

	// Requested is the target unique count K.
	Requested int

	// Attempts is the number of candidates drawn.
	Attempts int

	// DenylistRejections is the number of candidates rejected as common values.
	DenylistRejections int

	// Exit explains why allocation stopped.
	Exit ExitReason

	// Warnings holds the diagnostics raised for this site.
	Warnings []Warning
}

// Produced returns the number of sequences actually allocated.
func (p *Pool) Produced() int {
	return len(p.Sequences)
}

// Shortfall returns how many requested sequences are missing.
func (p *Pool) Shortfall() int {
	if missing := p.Requested - len(p.Sequences); missing > 0 {
		return missing
	}
	return 0
}

// Stats returns the non-secret summary of the pool.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Requested:          p.Requested,
		Produced:           len(p.Sequences),
		Attempts:           p.Attempts,
		DenylistRejections: p.DenylistRejections,
		Exit:               p.Exit.String(),
	}
}

// PoolStats is the part of a Pool that is safe to report and persist.
type PoolStats struct {
	Requested          int    `json:"requested"`
	Produced           int    `json:"produced"`
	Attempts           int    `json:"attempts"`
	DenylistRejections int    `json:"denylist_rejections"`
	Exit               string `json:"exit"`
}
