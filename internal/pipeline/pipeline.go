package pipeline

import (
	"context"
	"log/slog"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, each receiving the run state left by the
// previous steps.
//
// Design decision: Steps share one mutable Run instead of passing typed
// results to each other. Later steps (SQL, report, history) read what
// several earlier steps produced, and a step that was skipped or failed
// simply leaves its part of the Run empty.
type Step interface {
	// Do executes the pipeline step.
	// Returns an error if the step fails critically; recoverable problems
	// are recorded as warnings on the run report and return nil.
	Do(ctx context.Context, run *Run) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// CriticalStep is implemented by steps whose failure stops the pipeline even
// when it is configured to continue on error.
type CriticalStep interface {
	Step

	// Critical reports whether later steps must not run after a failure.
	Critical() bool
}

// isCritical reports whether step stops the pipeline on failure regardless
// of continueOnError.
func isCritical(step Step) bool {
	c, ok := step.(CriticalStep)
	return ok && c.Critical()
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails. The first error is kept in Run.Err.
//
// Design decision: A failed SQL or username step should not hide the
// allocation results, so the report and history can still be written for
// a partial build. The default stays stop-on-error because a half-written
// build directory is usually worse than none. Critical steps stop the
// pipeline in either mode.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all pipeline steps in sequence, checking for cancellation
// before each step.
//
// Returns the first error encountered if continueOnError is false or the
// failing step is critical, and nil otherwise. The first error is always
// recorded in run.Err.
func (p *Pipeline) Execute(ctx context.Context, run *Run) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", ctx.Err(),
			)
			if run.Err == nil {
				run.Err = ctx.Err()
			}
			return ctx.Err()
		default:
		}

		p.logger.Info("executing step", "step", step.Name())

		if err := step.Do(ctx, run); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"error", err,
			)
			if run.Err == nil {
				run.Err = err
			}
			if !p.continueOnError || isCritical(step) {
				return err
			}
		} else {
			p.logger.Debug("step completed", "step", step.Name())
		}

		run.Performed = append(run.Performed, step.Name())
	}
	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
