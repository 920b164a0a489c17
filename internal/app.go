// Package internal provides the App struct that wires all components of
// gitflow-mcp together and initializes the CLI layer.
package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/flowkit-dev/gitflow-mcp/internal/cli"
	"github.com/flowkit-dev/gitflow-mcp/internal/config"
	"github.com/flowkit-dev/gitflow-mcp/internal/enhance"
	"github.com/flowkit-dev/gitflow-mcp/internal/gitops"
	"github.com/flowkit-dev/gitflow-mcp/internal/observability"
	"github.com/flowkit-dev/gitflow-mcp/internal/session"
)

// App holds all service dependencies for gitflow-mcp.
type App struct {
	BasePath string

	Config   *config.Config
	Registry *enhance.Registry
	Git      *gitops.Client
	Sessions session.Store

	// Observability
	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
	Health      observability.HealthEvaluator

	SessionID string
}

// ResolveBasePath returns the state directory: $GITFLOW_MCP_HOME when set,
// otherwise ~/.gitflow-mcp, falling back to the working directory.
func ResolveBasePath() string {
	if p := os.Getenv("GITFLOW_MCP_HOME"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".gitflow-mcp")
}

// NewApp creates and wires all components. Registry configuration failures
// (duplicate names, rejected options, unresolvable order) are fatal here,
// before any tool call is served.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("creating base directory: %w", err)
	}

	// --- Configuration ---
	cfg, err := config.Load(basePath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	app.Config = cfg

	// --- Observability ---
	app.EventLog, err = observability.NewJSONLEventLog(cfg.EventLogPath)
	if err != nil {
		// Non-fatal: run without event logging.
		app.EventLog = observability.NopEventLog{}
	}
	app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	app.Health = observability.NewHealthEvaluator(app.MetricsCalc, observability.DefaultHealthThresholds())

	// --- Collaborators ---
	app.Git = gitops.NewClient(cfg.RepoDir)
	app.Sessions = session.NewFileStore(basePath)
	app.SessionID = fmt.Sprintf("S-%d", time.Now().UTC().UnixNano())

	// --- Enhancement pipeline ---
	app.Registry = enhance.NewRegistry(app.EventLog)
	builtins := []enhance.Enhancer{
		enhance.NewMetadataEnhancer(),
		enhance.NewRiskAssessmentEnhancer(),
		enhance.NewSuggestionsEnhancer(),
		enhance.NewTeamActivityEnhancer(),
	}
	for _, e := range builtins {
		if err := app.Registry.Register(e); err != nil {
			return nil, fmt.Errorf("registering built-in enhancers: %w", err)
		}
	}
	if err := enhance.ApplyConfig(app.Registry, cfg.Enhancers, app.EventLog); err != nil {
		return nil, err
	}
	if _, err := app.Registry.ResolveOrder(); err != nil {
		return nil, err
	}

	// --- CLI wiring ---
	cli.Registry = app.Registry
	cli.Git = app.Git
	cli.Sessions = app.Sessions
	cli.EventLog = app.EventLog
	cli.MetricsCalc = app.MetricsCalc
	cli.Health = app.Health
	cli.SessionID = app.SessionID

	return app, nil
}
