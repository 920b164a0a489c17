package enhance

import (
	"context"
	"sort"
	"time"

	"github.com/flowkit-dev/gitflow-mcp/pkg/response"
)

// Canonical names of the built-in enhancers, used in dependency declarations
// and the configuration surface.
const (
	NameMetadata       = "metadata"
	NameRiskAssessment = "risk-assessment"
	NameSuggestions    = "suggestions"
	NameTeamActivity   = "team-activity"
)

// MetadataEnhancer stamps operation name, timestamps, and duration onto the
// response. It runs first so every later enhancer can rely on its keys.
type MetadataEnhancer struct {
	Base
	now func() time.Time
}

// NewMetadataEnhancer creates the metadata enhancer.
func NewMetadataEnhancer() *MetadataEnhancer {
	return &MetadataEnhancer{
		Base: NewBase(NameMetadata, PriorityHighest, nil, Info{
			Description: "stamps operation name, timestamps, and duration",
			Version:     "1.0.0",
			Author:      "gitflow-mcp",
		}),
		now: time.Now,
	}
}

// Enhance records the operation identity and timing in response metadata.
func (m *MetadataEnhancer) Enhance(_ context.Context, resp *response.Response, ectx *Context) (*response.Response, error) {
	now := m.now().UTC()
	resp.AddMetadata("timestamp", now.Format(time.RFC3339))

	if ectx == nil {
		return resp, nil
	}

	if ectx.ToolName != "" {
		resp.AddMetadata("operation", ectx.ToolName)
	}
	if ectx.SessionID != "" {
		resp.AddMetadata("session_id", ectx.SessionID)
	}
	if !ectx.OperationStart.IsZero() {
		resp.AddMetadata("duration_ms", now.Sub(ectx.OperationStart).Milliseconds())
	}
	if len(ectx.Args) > 0 {
		keys := make([]string, 0, len(ectx.Args))
		for k := range ectx.Args {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		resp.AddMetadata("args", keys)
	}
	if ectx.Git != nil && ectx.Git.Branch != "" {
		resp.AddMetadata("branch", ectx.Git.Branch)
	}

	return resp, nil
}
