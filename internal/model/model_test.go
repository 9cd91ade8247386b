package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestPool(t *testing.T) {
	t.Parallel()

	pool := &Pool{
		Domain:             "site.example",
		Sequences:          []string{"1020", "3010"},
		Requested:          5,
		Attempts:           40,
		DenylistRejections: 3,
		Exit:               ExitBudgetExhausted,
	}

	if got := pool.Produced(); got != 2 {
		t.Errorf("expected 2 produced, got %d", got)
	}
	if got := pool.Shortfall(); got != 3 {
		t.Errorf("expected shortfall 3, got %d", got)
	}

	stats := pool.Stats()
	want := PoolStats{Requested: 5, Produced: 2, Attempts: 40, DenylistRejections: 3, Exit: "budget_exhausted"}
	if stats != want {
		t.Errorf("expected %+v, got %+v", want, stats)
	}

	data, err := json.Marshal(stats)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(string(data), "1020") {
		t.Error("pool statistics must not contain sequences")
	}

	full := &Pool{Sequences: []string{"1", "2", "3"}, Requested: 2}
	if full.Shortfall() != 0 {
		t.Error("shortfall must not be negative")
	}
}

func TestExitReasonString(t *testing.T) {
	t.Parallel()

	tests := map[ExitReason]string{
		ExitComplete:        "complete",
		ExitBudgetExhausted: "budget_exhausted",
		ExitSpaceExhausted:  "space_exhausted",
		ExitInfeasible:      "infeasible",
		ExitCancelled:       "cancelled",
		ExitReason(99):      "unknown",
	}
	for reason, want := range tests {
		if got := reason.String(); got != want {
			t.Errorf("%d: expected %q, got %q", reason, want, got)
		}
	}
}

func TestWarning(t *testing.T) {
	t.Parallel()

	t.Run("formats site and run warnings", func(t *testing.T) {
		t.Parallel()

		site := NewWarning("site.example", WarningSpaceExhausted, "only %d valid", 4)
		if got := site.String(); got != "[space_exhausted] site.example: only 4 valid" {
			t.Errorf("unexpected string %q", got)
		}

		run := NewWarning("", WarningTemplateMissing, "no template")
		if got := run.String(); got != "[template_missing] no template" {
			t.Errorf("unexpected string %q", got)
		}
	})

	t.Run("kind survives serialization", func(t *testing.T) {
		t.Parallel()

		for k := WarningEmptyMenu; k <= WarningUsernameShortfall; k++ {
			data, err := json.Marshal(NewWarning("a.example", k, "detail"))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var decoded Warning
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if decoded.Kind != k {
				t.Errorf("expected kind %s, got %s", k, decoded.Kind)
			}
		}
	})

	t.Run("every kind has a distinct name", func(t *testing.T) {
		t.Parallel()

		seen := make(map[string]bool)
		for k := WarningEmptyMenu; k <= WarningUsernameShortfall; k++ {
			name := k.String()
			if name == "unknown" || seen[name] {
				t.Errorf("kind %d has name %q", k, name)
			}
			seen[name] = true
		}
		if _, ok := ParseWarningKind("nonsense"); ok {
			t.Error("expected unknown name to be rejected")
		}
	})
}

func TestRunReport(t *testing.T) {
	t.Parallel()

	r := NewRunReport("run-1", "init.yaml")
	r.Warnings = []Warning{NewWarning("", WarningDenylistUnavailable, "offline")}
	r.Sites = []SiteReport{
		{Domain: "a.example", Pool: &PoolStats{Produced: 3}, Warnings: []Warning{NewWarning("a.example", WarningBudgetExhausted, "x")}},
		{Domain: "b.example"},
		{Domain: "c.example", Pool: &PoolStats{Produced: 4}},
	}

	if got := r.TotalProduced(); got != 7 {
		t.Errorf("expected 7 produced, got %d", got)
	}

	all := r.AllWarnings()
	if len(all) != 2 || all[0].Kind != WarningDenylistUnavailable || all[1].Domain != "a.example" {
		t.Errorf("unexpected warnings %v", all)
	}

	data, err := json.Marshal(SiteReport{Domain: "a.example", TripwirePages: []string{"about"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(string(data), "about") {
		t.Error("tripwire pages must not be serialized")
	}
}
