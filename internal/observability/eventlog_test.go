package observability

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func tempLog(t *testing.T) (EventLog, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	t.Cleanup(func() { _ = log.Close() })
	return log, path
}

func TestJSONLEventLog_WriteRead(t *testing.T) {
	log, _ := tempLog(t)

	events := []Event{
		NewEvent("INFO", EventPipelineRun, "run complete", map[string]any{"duration_ms": 12.0}),
		NewEvent("ERROR", EventEnhancerFailed, "enhancer broke", map[string]any{"enhancer": "suggestions"}),
		NewEvent("INFO", EventToolCall, "tool invoked", map[string]any{"tool": "git_status"}),
	}
	for _, e := range events {
		if err := log.Write(e); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	got, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Read = %d events, want 3", len(got))
	}
	if got[0].Type != EventPipelineRun || got[2].Type != EventToolCall {
		t.Errorf("order not preserved: %v, %v", got[0].Type, got[2].Type)
	}
}

func TestJSONLEventLog_FilterByTypeAndLevel(t *testing.T) {
	log, _ := tempLog(t)
	_ = log.Write(NewEvent("INFO", EventPipelineRun, "run", nil))
	_ = log.Write(NewEvent("ERROR", EventEnhancerFailed, "broke", nil))
	_ = log.Write(NewEvent("WARN", EventMissingDependency, "ghost", nil))

	byType, err := log.Read(EventFilter{Type: EventEnhancerFailed})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(byType) != 1 || byType[0].Message != "broke" {
		t.Errorf("type filter = %v", byType)
	}

	byLevel, err := log.Read(EventFilter{Level: "WARN"})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(byLevel) != 1 || byLevel[0].Type != EventMissingDependency {
		t.Errorf("level filter = %v", byLevel)
	}
}

func TestJSONLEventLog_FilterByWindow(t *testing.T) {
	log, _ := tempLog(t)
	old := Event{Time: time.Now().UTC().Add(-2 * time.Hour), Level: "INFO", Type: EventToolCall}
	recent := Event{Time: time.Now().UTC(), Level: "INFO", Type: EventToolCall}
	_ = log.Write(old)
	_ = log.Write(recent)

	since := time.Now().UTC().Add(-time.Hour)
	got, err := log.Read(EventFilter{Since: &since})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("window filter = %d events, want 1", len(got))
	}
}

func TestJSONLEventLog_SkipsMalformedLines(t *testing.T) {
	log, path := tempLog(t)
	_ = log.Write(NewEvent("INFO", EventToolCall, "fine", nil))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("opening log: %v", err)
	}
	if _, err := f.WriteString("not json at all\n"); err != nil {
		t.Fatalf("corrupting log: %v", err)
	}
	_ = f.Close()

	got, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("Read over a corrupt line: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Read = %d events, want the valid one only", len(got))
	}
}

func TestJSONLEventLog_ZeroTimeStamped(t *testing.T) {
	log, _ := tempLog(t)
	_ = log.Write(Event{Level: "INFO", Type: EventToolCall})

	got, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 1 || got[0].Time.IsZero() {
		t.Error("a zero-time event must be stamped on write")
	}
}

func TestJSONLEventLog_AppendsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	first, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("creating log: %v", err)
	}
	_ = first.Write(NewEvent("INFO", EventToolCall, "one", nil))
	_ = first.Close()

	second, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("reopening log: %v", err)
	}
	defer func() { _ = second.Close() }()
	_ = second.Write(NewEvent("INFO", EventToolCall, "two", nil))

	got, err := second.Read(EventFilter{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("reopening must append, not truncate: %d events", len(got))
	}
}

func TestNopEventLog(t *testing.T) {
	var log NopEventLog
	if err := log.Write(NewEvent("INFO", EventToolCall, "ignored", nil)); err != nil {
		t.Errorf("Write: %v", err)
	}
	got, err := log.Read(EventFilter{})
	if err != nil || got != nil {
		t.Errorf("Read = %v, %v", got, err)
	}
	if err := log.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
