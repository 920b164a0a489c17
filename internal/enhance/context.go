package enhance

import (
	"time"

	"github.com/flowkit-dev/gitflow-mcp/internal/gitops"
	"github.com/flowkit-dev/gitflow-mcp/internal/session"
)

// Context is the per-invocation input assembled by the tool-handler boundary
// and passed to every enhancer alongside the response. Any field may be nil
// or zero; enhancers validate what they need in CanEnhance.
type Context struct {
	// SessionID identifies the calling assistant session.
	SessionID string

	// Session is the caller's session snapshot, if one exists.
	Session *session.Snapshot

	// Git is the repository state snapshot taken around the operation.
	Git *gitops.Context

	// ToolName is the invoked tool (e.g. "create_branch").
	ToolName string

	// Args are the raw tool arguments.
	Args map[string]any

	// OperationStart is when the tool handler began the operation.
	OperationStart time.Time

	// Sessions is the session-store collaborator, for enhancers that read
	// cross-session signals.
	Sessions session.Store
}
