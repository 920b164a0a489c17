package observability

import (
	"testing"
	"time"
)

// stubMetrics serves canned metrics so the evaluator's conditions can be
// tested without an event log.
type stubMetrics struct {
	m *PipelineMetrics
}

func (s stubMetrics) Calculate(time.Time) (*PipelineMetrics, error) {
	return s.m, nil
}

func TestHealth_FailureRateAlert(t *testing.T) {
	m := &PipelineMetrics{
		Runs:         10,
		EnhancerRuns: map[string]int{"suggestions": 6},
		Failures:     map[string]int{"suggestions": 4},
		MissingDeps:  map[string]int{},
	}
	h := NewHealthEvaluator(stubMetrics{m}, DefaultHealthThresholds())

	alerts, err := h.Evaluate()
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("alerts = %v", alerts)
	}
	a := alerts[0]
	if a.ID != "failure-rate-suggestions" || a.Condition != "enhancer_failure_rate" || a.Severity != SeverityHigh {
		t.Errorf("alert = %+v", a)
	}
	if a.TriggeredAt.IsZero() {
		t.Error("TriggeredAt not stamped")
	}
}

func TestHealth_MinRunsSuppressesNoise(t *testing.T) {
	// One failed run out of one is a 100% rate, but the sample is too small.
	m := &PipelineMetrics{
		Runs:         1,
		EnhancerRuns: map[string]int{},
		Failures:     map[string]int{"suggestions": 1},
		MissingDeps:  map[string]int{},
	}
	h := NewHealthEvaluator(stubMetrics{m}, DefaultHealthThresholds())

	alerts, err := h.Evaluate()
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(alerts) != 0 {
		t.Errorf("alerts = %v, want none below min_runs", alerts)
	}
}

func TestHealth_FailureRateBelowThreshold(t *testing.T) {
	m := &PipelineMetrics{
		Runs:         20,
		EnhancerRuns: map[string]int{"metadata": 19},
		Failures:     map[string]int{"metadata": 1},
		MissingDeps:  map[string]int{},
	}
	h := NewHealthEvaluator(stubMetrics{m}, DefaultHealthThresholds())

	alerts, err := h.Evaluate()
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(alerts) != 0 {
		t.Errorf("alerts = %v, 5%% is under the 25%% threshold", alerts)
	}
}

func TestHealth_MissingDependencyAlert(t *testing.T) {
	m := &PipelineMetrics{
		EnhancerRuns: map[string]int{},
		Failures:     map[string]int{},
		MissingDeps:  map[string]int{"ghost": 3, "once": 1},
	}
	h := NewHealthEvaluator(stubMetrics{m}, DefaultHealthThresholds())

	alerts, err := h.Evaluate()
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("alerts = %v", alerts)
	}
	a := alerts[0]
	if a.ID != "missing-dep-ghost" || a.Condition != "missing_dependency" || a.Severity != SeverityMedium {
		t.Errorf("alert = %+v", a)
	}
}

func TestHealth_DeterministicOrder(t *testing.T) {
	m := &PipelineMetrics{
		Runs:         10,
		EnhancerRuns: map[string]int{"beta": 5, "alpha": 5},
		Failures:     map[string]int{"beta": 5, "alpha": 5},
		MissingDeps:  map[string]int{"zeta": 9, "eta": 9},
	}
	h := NewHealthEvaluator(stubMetrics{m}, DefaultHealthThresholds())

	first, err := h.Evaluate()
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	second, err := h.Evaluate()
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(first) != 4 || len(second) != 4 {
		t.Fatalf("alerts = %d/%d, want 4 each", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("order differs at %d: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}
	if first[0].ID != "failure-rate-alpha" || first[2].ID != "missing-dep-eta" {
		t.Errorf("order = %v, %v, %v, %v", first[0].ID, first[1].ID, first[2].ID, first[3].ID)
	}
}
