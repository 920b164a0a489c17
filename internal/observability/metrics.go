package observability

import (
	"fmt"
	"time"
)

// PipelineMetrics holds aggregates derived from pipeline events.
type PipelineMetrics struct {
	Runs           int            `json:"runs"`
	ToolCalls      int            `json:"tool_calls"`
	EnhancerRuns   map[string]int `json:"enhancer_runs"`
	Failures       map[string]int `json:"failures"`
	Skips          map[string]int `json:"skips"`
	MissingDeps    map[string]int `json:"missing_dependencies"`
	ToolsByName    map[string]int `json:"tools_by_name"`
	EventCount     int            `json:"event_count"`
	OldestEvent    *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent    *time.Time     `json:"newest_event,omitempty"`
	TotalDurations time.Duration  `json:"-"`
}

// AvgRunDuration returns the mean pipeline run duration, or zero when no
// run carried a duration.
func (m *PipelineMetrics) AvgRunDuration() time.Duration {
	if m.Runs == 0 {
		return 0
	}
	return m.TotalDurations / time.Duration(m.Runs)
}

// MetricsCalculator derives pipeline metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*PipelineMetrics, error)
}

type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a MetricsCalculator reading from the given EventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate reads all events since the given time and aggregates them.
func (mc *metricsCalculator) Calculate(since time.Time) (*PipelineMetrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &PipelineMetrics{
		EnhancerRuns: make(map[string]int),
		Failures:     make(map[string]int),
		Skips:        make(map[string]int),
		MissingDeps:  make(map[string]int),
		ToolsByName:  make(map[string]int),
	}

	m.EventCount = len(events)

	for i, event := range events {
		if i == 0 {
			t := event.Time
			m.OldestEvent = &t
		}
		t := event.Time
		m.NewestEvent = &t

		switch event.Type {
		case EventPipelineRun:
			m.Runs++
			if executed, ok := event.Data["executed"].([]any); ok {
				for _, name := range executed {
					if s, ok := name.(string); ok {
						m.EnhancerRuns[s]++
					}
				}
			}
			if ms, ok := event.Data["duration_ms"].(float64); ok {
				m.TotalDurations += time.Duration(ms) * time.Millisecond
			}
		case EventEnhancerFailed:
			if name, ok := event.Data["enhancer"].(string); ok {
				m.Failures[name]++
			}
		case EventEnhancerSkipped:
			if name, ok := event.Data["enhancer"].(string); ok {
				m.Skips[name]++
			}
		case EventMissingDependency:
			if name, ok := event.Data["dependency"].(string); ok {
				m.MissingDeps[name]++
			}
		case EventToolCall:
			m.ToolCalls++
			if name, ok := event.Data["tool"].(string); ok {
				m.ToolsByName[name]++
			}
		}
	}

	return m, nil
}
