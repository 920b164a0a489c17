package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/flowkit-dev/gitflow-mcp/internal/enhance"
)

func TestResolveBasePath_EnvOverride(t *testing.T) {
	t.Setenv("GITFLOW_MCP_HOME", "/custom/state")
	if got := ResolveBasePath(); got != "/custom/state" {
		t.Errorf("ResolveBasePath = %q", got)
	}
}

func TestResolveBasePath_Default(t *testing.T) {
	t.Setenv("GITFLOW_MCP_HOME", "")
	got := ResolveBasePath()
	if filepath.Base(got) != ".gitflow-mcp" {
		t.Errorf("ResolveBasePath = %q, want a .gitflow-mcp directory", got)
	}
}

func TestNewApp_WiresEverything(t *testing.T) {
	base := filepath.Join(t.TempDir(), "state")

	app, err := NewApp(base)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}

	if _, err := os.Stat(base); err != nil {
		t.Errorf("base directory not created: %v", err)
	}
	if app.Registry == nil || app.Git == nil || app.Sessions == nil {
		t.Fatal("core collaborators not wired")
	}
	if app.EventLog == nil || app.MetricsCalc == nil || app.Health == nil {
		t.Fatal("observability not wired")
	}
	if app.SessionID == "" {
		t.Error("session ID not assigned")
	}

	stats := app.Registry.Stats()
	if stats.Registered != 4 {
		t.Errorf("Registered = %d, want the four built-ins", stats.Registered)
	}
	if stats.PipelineLength != 4 {
		t.Errorf("PipelineLength = %d", stats.PipelineLength)
	}
	for _, name := range []string{enhance.NameMetadata, enhance.NameRiskAssessment, enhance.NameSuggestions, enhance.NameTeamActivity} {
		if !app.Registry.Has(name) {
			t.Errorf("built-in %s not registered", name)
		}
	}
}

func TestNewApp_ConfigDisablesEnhancer(t *testing.T) {
	base := t.TempDir()
	rc := "enhancers:\n  team-activity:\n    enabled: false\n"
	if err := os.WriteFile(filepath.Join(base, ".gitflowrc.yaml"), []byte(rc), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	app, err := NewApp(base)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	e := app.Registry.Get(enhance.NameTeamActivity)
	if e == nil {
		t.Fatal("team-activity not registered")
	}
	if e.Enabled() {
		t.Error("configuration did not disable team-activity")
	}
}

func TestNewApp_RejectedConfigIsFatal(t *testing.T) {
	base := t.TempDir()
	rc := "enhancers:\n  suggestions:\n    max_suggestions: -3\n"
	if err := os.WriteFile(filepath.Join(base, ".gitflowrc.yaml"), []byte(rc), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	if _, err := NewApp(base); err == nil {
		t.Error("a rejected enhancer option set must fail startup")
	}
}
