package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeRC(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".gitflowrc.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return dir
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BasePath != dir {
		t.Errorf("BasePath = %q", cfg.BasePath)
	}
	if cfg.EventLogPath != filepath.Join(dir, "events.jsonl") {
		t.Errorf("EventLogPath = %q", cfg.EventLogPath)
	}
	if cfg.RepoDir != "" {
		t.Errorf("RepoDir = %q, want empty", cfg.RepoDir)
	}
	if len(cfg.Enhancers) != 0 {
		t.Errorf("Enhancers = %v", cfg.Enhancers)
	}
}

func TestLoad_FullFile(t *testing.T) {
	dir := writeRC(t, `
repo_dir: /work/repo
event_log: /var/log/gitflow/events.jsonl
enhancers:
  suggestions:
    enabled: true
    max_suggestions: 3
    suggestion_types:
      - next-step
      - recovery
  team-activity:
    activity_window: 2h
  risk-assessment:
    enabled: false
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.RepoDir != "/work/repo" {
		t.Errorf("RepoDir = %q", cfg.RepoDir)
	}
	if cfg.EventLogPath != "/var/log/gitflow/events.jsonl" {
		t.Errorf("EventLogPath = %q", cfg.EventLogPath)
	}

	sug, ok := cfg.Enhancers["suggestions"]
	if !ok {
		t.Fatal("suggestions block missing")
	}
	if sug.Enabled == nil || !*sug.Enabled {
		t.Errorf("suggestions.Enabled = %v", sug.Enabled)
	}
	if sug.MaxSuggestions != 3 {
		t.Errorf("MaxSuggestions = %d", sug.MaxSuggestions)
	}
	if len(sug.SuggestionTypes) != 2 || sug.SuggestionTypes[0] != "next-step" {
		t.Errorf("SuggestionTypes = %v", sug.SuggestionTypes)
	}

	ta := cfg.Enhancers["team-activity"]
	if ta.ActivityWindow != 2*time.Hour {
		t.Errorf("ActivityWindow = %v", ta.ActivityWindow)
	}

	risk := cfg.Enhancers["risk-assessment"]
	if risk.Enabled == nil || *risk.Enabled {
		t.Errorf("risk-assessment.Enabled = %v", risk.Enabled)
	}
}

func TestLoad_UnknownKeysLandInExtra(t *testing.T) {
	dir := writeRC(t, `
enhancers:
  suggestions:
    max_suggestions: 2
    emoji: true
    style: terse
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	sug := cfg.Enhancers["suggestions"]
	if sug.MaxSuggestions != 2 {
		t.Errorf("MaxSuggestions = %d", sug.MaxSuggestions)
	}
	if sug.Extra["emoji"] != true || sug.Extra["style"] != "terse" {
		t.Errorf("Extra = %v", sug.Extra)
	}
}

func TestLoad_BadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"enabled not bool", "enhancers:\n  suggestions:\n    enabled: yes please\n"},
		{"max not int", "enhancers:\n  suggestions:\n    max_suggestions: many\n"},
		{"types not list", "enhancers:\n  suggestions:\n    suggestion_types: next-step\n"},
		{"window not duration", "enhancers:\n  team-activity:\n    activity_window: tomorrow\n"},
		{"block not mapping", "enhancers:\n  suggestions: off-by-default\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeRC(t, tt.content)
			if _, err := Load(dir); err == nil {
				t.Error("expected a parse error")
			}
		})
	}
}
