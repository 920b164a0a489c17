package cli

import (
	"github.com/flowkit-dev/gitflow-mcp/internal/enhance"
	"github.com/flowkit-dev/gitflow-mcp/internal/gitops"
	"github.com/flowkit-dev/gitflow-mcp/internal/observability"
	"github.com/flowkit-dev/gitflow-mcp/internal/session"
)

// Service instances, set during app initialization in app.go.
var (
	Registry    *enhance.Registry
	Git         *gitops.Client
	Sessions    session.Store
	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
	Health      observability.HealthEvaluator
	SessionID   string
)
