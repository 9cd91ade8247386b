package sequence

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"slices"

	"github.com/nao1215/secretgarden/internal/model"
)

// DefaultAttemptBudget is the number of candidates drawn per site before
// allocation gives up with a partial pool.
const DefaultAttemptBudget = 5000

// Params are the per-site inputs of an allocation. They are never modified.
type Params struct {
	// Domain identifies the site in warnings and logs.
	Domain string

	// MenuSize is the number of navigable pages N.
	MenuSize int

	// Tripwires are the menu indices excluded from every position.
	Tripwires []int

	// Length is the sequence length L.
	Length int

	// Target is the requested number of unique sequences K.
	Target int

	// AttemptBudget caps the number of candidates drawn.
	// Zero or negative means DefaultAttemptBudget.
	AttemptBudget int
}

// Checker rejects candidates that coincide with common values.
// *denylist.Filter implements it.
type Checker interface {
	// Enabled reports whether the checker can reject anything.
	Enabled() bool

	// IsDenylisted reports whether candidate is a common value and its rank.
	IsDenylisted(candidate string) (bool, int, error)
}

// Allocator draws unique valid sequences for one site at a time.
// It holds no per-site state, so one Allocator serves a whole run.
type Allocator struct {
	// random is the entropy source. Always crypto/rand outside of tests.
	random io.Reader

	// denylist is the optional common-value checker.
	denylist Checker

	// logger receives diagnostics. Candidate values are never logged.
	logger *slog.Logger
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithRandom replaces the entropy source. It must be cryptographically strong;
// it exists so tests can inject failing readers.
func WithRandom(r io.Reader) Option {
	return func(a *Allocator) {
		a.random = r
	}
}

// WithDenylist sets the checker used to reject common values.
func WithDenylist(c Checker) Option {
	return func(a *Allocator) {
		a.denylist = c
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Allocator) {
		a.logger = logger
	}
}

// NewAllocator creates an Allocator reading from crypto/rand.
func NewAllocator(opts ...Option) *Allocator {
	a := &Allocator{
		random: rand.Reader,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Allocate produces up to p.Target unique sequences satisfying the constraint
// model and the denylist. Infeasible sites, exhausted budgets and exhausted
// search spaces yield a partial or empty pool with a warning, never an error.
// An error is returned only when the random source fails. On cancellation the
// partial pool is returned together with the context error.
func (a *Allocator) Allocate(ctx context.Context, p Params) (*model.Pool, error) {
	pool := &model.Pool{
		Domain:    p.Domain,
		Sequences: []string{},
		Requested: p.Target,
		Exit:      model.ExitComplete,
	}
	if p.Target <= 0 {
		return pool, nil
	}

	if !a.feasible(pool, p) {
		pool.Exit = model.ExitInfeasible
		return pool, nil
	}

	alphabet := LegalAlphabet(p.MenuSize, p.Tripwires)
	start := LegalStartAlphabet(alphabet)
	capacity, bounded := Capacity(alphabet, start, p.Length)

	budget := p.AttemptBudget
	if budget <= 0 {
		budget = DefaultAttemptBudget
	}

	filtering := a.denylist != nil && a.denylist.Enabled()
	accepted := make(map[string]struct{}, p.Target)

	for pool.Attempts < budget && len(accepted) < p.Target {
		if bounded && uint64(len(accepted)) >= capacity {
			break
		}

		select {
		case <-ctx.Done():
			pool.Exit = model.ExitCancelled
			pool.Sequences = sortedKeys(accepted)
			return pool, ctx.Err()
		default:
		}

		seq, err := a.draw(alphabet, start, p.Length)
		if err != nil {
			return nil, fmt.Errorf("failed to draw sequence for %s: %w", p.Domain, err)
		}
		pool.Attempts++
		candidate := Encode(seq)

		if filtering {
			listed, rank, err := a.denylist.IsDenylisted(candidate)
			if err != nil {
				pool.Warnings = append(pool.Warnings, model.NewWarning(p.Domain, model.WarningDenylistReadError,
					"common-PIN list unreadable, filtering disabled for this site: %v", err))
				a.logger.Warn("denylist read failed", "domain", p.Domain, "error", err)
				filtering = false
			} else if listed {
				pool.DenylistRejections++
				a.logger.Debug("candidate rejected as common value", "domain", p.Domain, "rank", rank)
				continue
			}
		}

		accepted[candidate] = struct{}{}
	}

	pool.Sequences = sortedKeys(accepted)

	switch {
	case len(accepted) >= p.Target:
		pool.Exit = model.ExitComplete
	case bounded && uint64(len(accepted)) >= capacity:
		pool.Exit = model.ExitSpaceExhausted
		pool.Warnings = append(pool.Warnings, model.NewWarning(p.Domain, model.WarningSpaceExhausted,
			"only %d valid sequences exist, requested %d", len(accepted), p.Target))
	default:
		pool.Exit = model.ExitBudgetExhausted
		pool.Warnings = append(pool.Warnings, model.NewWarning(p.Domain, model.WarningBudgetExhausted,
			"generated %d of %d requested sequences within %d attempts", len(accepted), p.Target, budget))
	}

	for _, w := range pool.Warnings {
		a.logger.Warn("sequence allocation warning", "domain", w.Domain, "kind", w.Kind.String(), "detail", w.Message)
	}
	return pool, nil
}

// feasible checks the structural preconditions of a site and records a
// warning on pool when allocation cannot proceed.
func (a *Allocator) feasible(pool *model.Pool, p Params) bool {
	var w *model.Warning

	alphabet := LegalAlphabet(p.MenuSize, p.Tripwires)
	switch {
	case p.MenuSize <= 1:
		warning := model.NewWarning(p.Domain, model.WarningEmptyMenu,
			"menu has %d page(s), at least 2 are required", p.MenuSize)
		w = &warning
	case p.Length < 1:
		warning := model.NewWarning(p.Domain, model.WarningInvalidLength,
			"sequence length %d is below 1", p.Length)
		w = &warning
	case len(LegalStartAlphabet(alphabet)) == 0:
		warning := model.NewWarning(p.Domain, model.WarningEmptyStartAlphabet,
			"no valid start indices: every non-home page is a tripwire")
		w = &warning
	case len(alphabet) == 1 && p.Length > 1:
		warning := model.NewWarning(p.Domain, model.WarningSingleSymbol,
			"only page %d is legal, no sequence of length %d avoids repeating it", alphabet[0], p.Length)
		w = &warning
	}

	if w == nil {
		return true
	}
	pool.Warnings = append(pool.Warnings, *w)
	a.logger.Warn("site skipped", "domain", p.Domain, "kind", w.Kind.String(), "detail", w.Message)
	return false
}

// draw builds one candidate. The first symbol comes from start, later symbols
// from alphabet, redrawing any symbol equal to its predecessor. Callers must
// guarantee len(alphabet) >= 2 when length > 1.
func (a *Allocator) draw(alphabet, start []int, length int) ([]int, error) {
	seq := make([]int, length)

	first, err := a.pick(start)
	if err != nil {
		return nil, err
	}
	seq[0] = first

	for i := 1; i < length; i++ {
		for {
			s, err := a.pick(alphabet)
			if err != nil {
				return nil, err
			}
			if s != seq[i-1] {
				seq[i] = s
				break
			}
		}
	}
	return seq, nil
}

// pick returns a uniformly random element of symbols.
func (a *Allocator) pick(symbols []int) (int, error) {
	n, err := rand.Int(a.random, big.NewInt(int64(len(symbols))))
	if err != nil {
		return 0, err
	}
	return symbols[n.Int64()], nil
}

// sortedKeys returns the members of a set in lexical order.
func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
