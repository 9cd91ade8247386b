package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/nao1215/secretgarden/internal/config"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, run *Run) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, run *Run) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, run)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

// criticalMockStep is a mockStep that stops the pipeline on failure.
type criticalMockStep struct {
	mockStep
}

// Critical implements CriticalStep.Critical.
func (m *criticalMockStep) Critical() bool {
	return true
}

// emptyRun returns a run without sites.
func emptyRun() *Run {
	return NewRun("test-run", config.NewConfig(), &config.Provision{})
}

// TestPipelineNew tests the Pipeline constructor.
func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates pipeline with default settings", func(t *testing.T) {
		t.Parallel()

		p := New()

		if p == nil {
			t.Fatal("expected non-nil pipeline")
		}
		if p.StepCount() != 0 {
			t.Errorf("expected 0 steps, got %d", p.StepCount())
		}
		if p.logger == nil {
			t.Error("expected default logger")
		}
	})

	t.Run("applies WithContinueOnError option", func(t *testing.T) {
		t.Parallel()

		p := New(WithContinueOnError(true))

		if !p.continueOnError {
			t.Error("expected continueOnError to be true")
		}
	})
}

// TestPipelineAddStep tests adding steps to the pipeline.
func TestPipelineAddStep(t *testing.T) {
	t.Parallel()

	t.Run("adds multiple steps with AddSteps", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddSteps(&mockStep{name: "step-1"}, &mockStep{name: "step-2"}, &mockStep{name: "step-3"})

		if p.StepCount() != 3 {
			t.Errorf("expected 3 steps, got %d", p.StepCount())
		}
	})

	t.Run("maintains step order", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddStep(&mockStep{name: "first"})
		p.AddStep(&mockStep{name: "second"})
		p.AddStep(&mockStep{name: "third"})

		names := p.StepNames()
		expected := []string{"first", "second", "third"}
		for i, name := range names {
			if name != expected[i] {
				t.Errorf("step %d: got %q, expected %q", i, name, expected[i])
			}
		}
	})
}

// TestPipelineExecute tests pipeline execution.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes all steps in order", func(t *testing.T) {
		t.Parallel()

		var order []string
		record := func(name string) *mockStep {
			return &mockStep{name: name, doFunc: func(_ context.Context, _ *Run) error {
				order = append(order, name)
				return nil
			}}
		}

		p := New()
		p.AddSteps(record("a"), record("b"), record("c"))

		run := emptyRun()
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
			t.Errorf("unexpected execution order: %v", order)
		}
		if len(run.Performed) != 3 {
			t.Errorf("expected 3 performed steps, got %v", run.Performed)
		}
		if run.Err != nil {
			t.Errorf("expected no run error, got %v", run.Err)
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		wantErr := errors.New("step failed")
		failing := &mockStep{name: "failing", doFunc: func(context.Context, *Run) error { return wantErr }}
		after := &mockStep{name: "after"}

		p := New()
		p.AddSteps(failing, after)

		run := emptyRun()
		err := p.Execute(context.Background(), run)

		if !errors.Is(err, wantErr) {
			t.Errorf("expected %v, got %v", wantErr, err)
		}
		if after.callCount != 0 {
			t.Error("expected later step to be skipped")
		}
		if !errors.Is(run.Err, wantErr) {
			t.Errorf("expected run error to be recorded, got %v", run.Err)
		}
		if len(run.Performed) != 0 {
			t.Errorf("expected no performed steps, got %v", run.Performed)
		}
	})

	t.Run("continues on error when configured", func(t *testing.T) {
		t.Parallel()

		first := errors.New("first")
		p := New(WithContinueOnError(true))
		p.AddSteps(
			&mockStep{name: "one", doFunc: func(context.Context, *Run) error { return first }},
			&mockStep{name: "two", doFunc: func(context.Context, *Run) error { return errors.New("second") }},
			&mockStep{name: "three"},
		)

		run := emptyRun()
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if !errors.Is(run.Err, first) {
			t.Errorf("expected first error to be kept, got %v", run.Err)
		}
		if len(run.Performed) != 3 {
			t.Errorf("expected 3 performed steps, got %v", run.Performed)
		}
	})

	t.Run("critical step failure stops even when continuing", func(t *testing.T) {
		t.Parallel()

		wantErr := errors.New("build dir taken")
		after := &mockStep{name: "after"}
		p := New(WithContinueOnError(true))
		p.AddSteps(
			&criticalMockStep{mockStep{name: "prepare", doFunc: func(context.Context, *Run) error { return wantErr }}},
			after,
		)

		run := emptyRun()
		if err := p.Execute(context.Background(), run); !errors.Is(err, wantErr) {
			t.Errorf("expected %v, got %v", wantErr, err)
		}
		if after.callCount != 0 {
			t.Error("expected later step to be skipped")
		}
		if !errors.Is(run.Err, wantErr) {
			t.Errorf("expected run error to be recorded, got %v", run.Err)
		}
	})

	t.Run("successful critical step does not stop", func(t *testing.T) {
		t.Parallel()

		after := &mockStep{name: "after"}
		p := New()
		p.AddSteps(&criticalMockStep{mockStep{name: "prepare"}}, after)

		if err := p.Execute(context.Background(), emptyRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if after.callCount != 1 {
			t.Errorf("expected later step to run once, got %d", after.callCount)
		}
	})

	t.Run("respects cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		step := &mockStep{name: "never"}
		p := New()
		p.AddStep(step)

		run := emptyRun()
		err := p.Execute(ctx, run)

		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if step.callCount != 0 {
			t.Error("expected step not to run")
		}
	})
}

// TestNewRun tests run state construction.
func TestNewRun(t *testing.T) {
	t.Parallel()

	p := &config.Provision{
		PublicSites: []config.PublicSite{
			{Domain: "alpha.example"},
			{Domain: "beta.example"},
		},
	}
	cfg := config.NewConfig()
	cfg.ConfigFilePath = "init.yaml"

	run := NewRun("run-1", cfg, p)

	if run.Report.RunID != "run-1" {
		t.Errorf("expected run id run-1, got %q", run.Report.RunID)
	}
	if len(run.Sites) != 2 || len(run.Report.Sites) != 2 {
		t.Fatalf("expected 2 sites, got %d/%d", len(run.Sites), len(run.Report.Sites))
	}
	for i, site := range run.Sites {
		if site.Index != i+1 {
			t.Errorf("site %d: expected index %d, got %d", i, i+1, site.Index)
		}
		if site.Report != &run.Report.Sites[i] {
			t.Errorf("site %d: report does not point into the run report", i)
		}
		if site.Report.Domain != p.PublicSites[i].Domain {
			t.Errorf("site %d: expected domain %q, got %q", i, p.PublicSites[i].Domain, site.Report.Domain)
		}
	}

	if rows := run.SequenceRows(); len(rows) != 0 {
		t.Errorf("expected no sequence rows before allocation, got %d", len(rows))
	}
}
