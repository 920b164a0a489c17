package observability

import (
	"fmt"
	"sort"
	"time"
)

// AlertSeverity represents the urgency of a health alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert represents a triggered pipeline-health condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// HealthThresholds configures when pipeline-health alerts fire.
type HealthThresholds struct {
	// FailureRate is the per-enhancer failures/runs ratio above which an
	// alert fires. Runs below MinRuns never alert.
	FailureRate float64 `yaml:"failure_rate" json:"failure_rate"`
	MinRuns     int     `yaml:"min_runs" json:"min_runs"`

	// MissingDepRepeats is how many times the same unregistered dependency
	// must be warned about before alerting.
	MissingDepRepeats int `yaml:"missing_dep_repeats" json:"missing_dep_repeats"`

	// Window is how far back the evaluator reads events.
	Window time.Duration `yaml:"window" json:"window"`
}

// DefaultHealthThresholds returns sensible defaults.
func DefaultHealthThresholds() HealthThresholds {
	return HealthThresholds{
		FailureRate:       0.25,
		MinRuns:           4,
		MissingDepRepeats: 3,
		Window:            24 * time.Hour,
	}
}

// HealthEvaluator evaluates alert conditions against the event log.
type HealthEvaluator interface {
	Evaluate() ([]Alert, error)
}

type healthEvaluator struct {
	metrics    MetricsCalculator
	thresholds HealthThresholds
}

// NewHealthEvaluator creates a HealthEvaluator over the given metrics source.
func NewHealthEvaluator(metrics MetricsCalculator, thresholds HealthThresholds) HealthEvaluator {
	return &healthEvaluator{metrics: metrics, thresholds: thresholds}
}

// Evaluate computes metrics over the configured window and returns every
// triggered alert, ordered by condition then subject for determinism.
func (h *healthEvaluator) Evaluate() ([]Alert, error) {
	since := time.Now().UTC().Add(-h.thresholds.Window)
	m, err := h.metrics.Calculate(since)
	if err != nil {
		return nil, fmt.Errorf("evaluating pipeline health: %w", err)
	}

	now := time.Now().UTC()
	var alerts []Alert

	if m.Runs >= h.thresholds.MinRuns {
		for _, name := range sortedKeys(m.Failures) {
			failures := m.Failures[name]
			runs := m.EnhancerRuns[name] + failures
			if runs == 0 {
				continue
			}
			rate := float64(failures) / float64(runs)
			if rate >= h.thresholds.FailureRate {
				alerts = append(alerts, Alert{
					ID:          "failure-rate-" + name,
					Condition:   "enhancer_failure_rate",
					Severity:    SeverityHigh,
					Message:     fmt.Sprintf("enhancer %s failed %d of %d runs (%.0f%%)", name, failures, runs, rate*100),
					TriggeredAt: now,
				})
			}
		}
	}

	for _, dep := range sortedKeys(m.MissingDeps) {
		if m.MissingDeps[dep] >= h.thresholds.MissingDepRepeats {
			alerts = append(alerts, Alert{
				ID:          "missing-dep-" + dep,
				Condition:   "missing_dependency",
				Severity:    SeverityMedium,
				Message:     fmt.Sprintf("dependency %s referenced %d times but never registered", dep, m.MissingDeps[dep]),
				TriggeredAt: now,
			})
		}
	}

	return alerts, nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
