// Package mcp provides the MCP (Model Context Protocol) server that exposes
// git/GitHub workflow operations as tools for AI coding assistants. Every
// tool result is normalized into a response envelope and run through the
// enhancement pipeline before it crosses the transport boundary.
package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/flowkit-dev/gitflow-mcp/internal/enhance"
	"github.com/flowkit-dev/gitflow-mcp/internal/gitops"
	"github.com/flowkit-dev/gitflow-mcp/internal/observability"
	"github.com/flowkit-dev/gitflow-mcp/internal/session"
	"github.com/flowkit-dev/gitflow-mcp/pkg/response"
	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the git collaborator and the enhancement pipeline and exposes
// them as MCP tools.
type Server struct {
	server    *gomcp.Server
	git       *gitops.Client
	registry  *enhance.Registry
	sessions  session.Store
	events    observability.EventLog
	metrics   observability.MetricsCalculator
	sessionID string
	toolCalls int
	recent    []string
	startedAt time.Time
}

// NewServer creates the MCP server. sessions, events, and metrics may be nil
// when the corresponding subsystem is disabled.
func NewServer(git *gitops.Client, registry *enhance.Registry, sessions session.Store, events observability.EventLog, metrics observability.MetricsCalculator, sessionID, version string) *Server {
	if version == "" {
		version = "dev"
	}
	if events == nil {
		events = observability.NopEventLog{}
	}

	s := &Server{
		git:       git,
		registry:  registry,
		sessions:  sessions,
		events:    events,
		metrics:   metrics,
		sessionID: sessionID,
		startedAt: time.Now().UTC(),
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "gitflow-mcp", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type createBranchInput struct {
	Name string `json:"name" jsonschema:"required,the branch name to create (e.g. feature/login)"`
	Base string `json:"base,omitempty" jsonschema:"optional base ref to branch from; defaults to the current HEAD"`
}

type gitStatusInput struct{}

type commitChangesInput struct {
	Message  string `json:"message" jsonschema:"required,the commit message"`
	StageAll bool   `json:"stage_all,omitempty" jsonschema:"stage all tracked and untracked changes before committing"`
}

type pushChangesInput struct {
	Force       bool `json:"force,omitempty" jsonschema:"force push with lease protection"`
	SetUpstream bool `json:"set_upstream,omitempty" jsonschema:"set the upstream tracking branch while pushing"`
}

type createPRInput struct {
	Title string `json:"title" jsonschema:"required,the pull request title"`
	Body  string `json:"body,omitempty" jsonschema:"the pull request body in markdown"`
	Base  string `json:"base,omitempty" jsonschema:"the base branch to merge into"`
	Draft bool   `json:"draft,omitempty" jsonschema:"open the pull request as a draft"`
}

type pipelineStatsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 24h). Defaults to 24h."`
}

type suggestionOutput struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Tool        string `json:"tool,omitempty"`
}

type riskOutput struct {
	Level       string `json:"level"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// envelopeOutput is the enriched-envelope projection shared by every tool
// output: the flattened text carries the message, this carries the structure.
type envelopeOutput struct {
	Status       string                 `json:"status"`
	Message      string                 `json:"message,omitempty"`
	RiskLevel    string                 `json:"risk_level"`
	Suggestions  []suggestionOutput     `json:"suggestions,omitempty"`
	Risks        []riskOutput           `json:"risks,omitempty"`
	Metadata     map[string]any         `json:"metadata,omitempty"`
	TeamActivity *response.TeamActivity `json:"team_activity,omitempty"`
	Timestamp    string                 `json:"timestamp"`
}

type branchOutput struct {
	envelopeOutput
	Branch string `json:"branch,omitempty"`
}

type statusOutput struct {
	envelopeOutput
	Raw     string          `json:"raw,omitempty"`
	Context *gitops.Context `json:"context,omitempty"`
}

type commitOutput struct {
	envelopeOutput
	Result string `json:"result,omitempty"`
}

type pushOutput struct {
	envelopeOutput
	Result string `json:"result,omitempty"`
}

type prOutput struct {
	envelopeOutput
	URL string `json:"url,omitempty"`
}

type pipelineStatsOutput struct {
	Registered     int            `json:"registered"`
	EnabledCount   int            `json:"enabled"`
	PipelineLength int            `json:"pipeline_length"`
	Runs           int            `json:"runs"`
	ToolCalls      int            `json:"tool_calls"`
	EnhancerRuns   map[string]int `json:"enhancer_runs,omitempty"`
	Failures       map[string]int `json:"failures,omitempty"`
	Skips          map[string]int `json:"skips,omitempty"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "create_branch",
		Description: "Create and check out a git branch, optionally from a base ref. Returns the enriched result with risks and follow-up suggestions.",
	}, s.handleCreateBranch)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "git_status",
		Description: "Report working tree status plus a repository snapshot (branch, ahead/behind, dirtiness).",
	}, s.handleGitStatus)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "commit_changes",
		Description: "Commit changes with the given message, optionally staging everything first.",
	}, s.handleCommitChanges)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "push_changes",
		Description: "Push the current branch. Force pushes always use lease protection.",
	}, s.handlePushChanges)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "create_pr",
		Description: "Open a GitHub pull request via the gh CLI and return its URL.",
	}, s.handleCreatePR)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_pipeline_stats",
		Description: "Report enhancement-pipeline statistics: registered enhancers, resolved pipeline length, run and failure counts.",
	}, s.handlePipelineStats)
}

// --- Tool handlers ---

func (s *Server) handleCreateBranch(ctx context.Context, _ *gomcp.CallToolRequest, input createBranchInput) (*gomcp.CallToolResult, branchOutput, error) {
	start := time.Now().UTC()
	args := map[string]any{"name": input.Name, "base": input.Base}

	if input.Name == "" {
		return errorResult("name is required"), branchOutput{}, nil
	}

	var resp *response.Response
	out, err := s.git.CreateBranch(ctx, input.Name, input.Base)
	if err != nil {
		resp = response.Error(fmt.Sprintf("creating branch %s failed", input.Name), err)
	} else {
		resp = response.Success(fmt.Sprintf("created and checked out branch %s", input.Name),
			map[string]any{"branch": input.Name, "output": out})
	}

	resp = s.enhance(ctx, resp, "create_branch", args, start)

	result := branchOutput{envelopeOutput: toEnvelopeOutput(resp), Branch: input.Name}
	return toolResult(resp), result, nil
}

func (s *Server) handleGitStatus(ctx context.Context, _ *gomcp.CallToolRequest, _ gitStatusInput) (*gomcp.CallToolResult, statusOutput, error) {
	start := time.Now().UTC()

	var resp *response.Response
	raw, err := s.git.Status(ctx)
	if err != nil {
		resp = response.Error("reading repository status failed", err)
	} else {
		resp = response.Success("repository status", map[string]any{"status": raw})
	}

	resp = s.enhance(ctx, resp, "git_status", nil, start)

	result := statusOutput{envelopeOutput: toEnvelopeOutput(resp), Raw: raw}
	if snap, snapErr := s.git.Snapshot(ctx); snapErr == nil {
		result.Context = snap
	}
	return toolResult(resp), result, nil
}

func (s *Server) handleCommitChanges(ctx context.Context, _ *gomcp.CallToolRequest, input commitChangesInput) (*gomcp.CallToolResult, commitOutput, error) {
	start := time.Now().UTC()
	args := map[string]any{"message": input.Message, "stage_all": input.StageAll}

	if input.Message == "" {
		return errorResult("message is required"), commitOutput{}, nil
	}

	var resp *response.Response
	out, err := s.git.Commit(ctx, input.Message, input.StageAll)
	if err != nil {
		resp = response.Error("commit failed", err)
	} else {
		resp = response.Success("changes committed", map[string]any{"output": out})
	}

	resp = s.enhance(ctx, resp, "commit_changes", args, start)

	return toolResult(resp), commitOutput{envelopeOutput: toEnvelopeOutput(resp), Result: out}, nil
}

func (s *Server) handlePushChanges(ctx context.Context, _ *gomcp.CallToolRequest, input pushChangesInput) (*gomcp.CallToolResult, pushOutput, error) {
	start := time.Now().UTC()
	args := map[string]any{"force": input.Force, "set_upstream": input.SetUpstream}

	var resp *response.Response
	out, err := s.git.Push(ctx, input.Force, input.SetUpstream)
	if err != nil {
		resp = response.Error("push failed", err)
	} else {
		resp = response.Success("branch pushed", map[string]any{"output": out})
	}

	resp = s.enhance(ctx, resp, "push_changes", args, start)

	return toolResult(resp), pushOutput{envelopeOutput: toEnvelopeOutput(resp), Result: out}, nil
}

func (s *Server) handleCreatePR(ctx context.Context, _ *gomcp.CallToolRequest, input createPRInput) (*gomcp.CallToolResult, prOutput, error) {
	start := time.Now().UTC()
	args := map[string]any{"title": input.Title, "base": input.Base, "draft": input.Draft}

	if input.Title == "" {
		return errorResult("title is required"), prOutput{}, nil
	}

	var resp *response.Response
	url, err := s.git.CreatePR(ctx, input.Title, input.Body, input.Base, input.Draft)
	if err != nil {
		resp = response.Error("creating pull request failed", err)
	} else {
		resp = response.Success(fmt.Sprintf("pull request opened: %s", url), map[string]any{"url": url})
	}

	resp = s.enhance(ctx, resp, "create_pr", args, start)

	return toolResult(resp), prOutput{envelopeOutput: toEnvelopeOutput(resp), URL: url}, nil
}

func (s *Server) handlePipelineStats(_ context.Context, _ *gomcp.CallToolRequest, input pipelineStatsInput) (*gomcp.CallToolResult, pipelineStatsOutput, error) {
	stats := s.registry.Stats()
	out := pipelineStatsOutput{
		Registered:     stats.Registered,
		EnabledCount:   stats.Enabled,
		PipelineLength: stats.PipelineLength,
	}

	if s.metrics != nil {
		sinceStr := input.Since
		if sinceStr == "" {
			sinceStr = "24h"
		}
		since, err := parseSince(sinceStr)
		if err != nil {
			return errorResult(fmt.Sprintf("parsing since duration: %s", err)), out, nil
		}
		m, err := s.metrics.Calculate(since)
		if err != nil {
			return errorResult(fmt.Sprintf("calculating pipeline metrics: %s", err)), out, nil
		}
		out.Runs = m.Runs
		out.ToolCalls = m.ToolCalls
		out.EnhancerRuns = m.EnhancerRuns
		out.Failures = m.Failures
		out.Skips = m.Skips
	}

	return nil, out, nil
}

// --- Helpers ---

// enhance assembles the enhancer context, runs the pipeline, and records the
// tool call in the session store. Order-resolution failure cannot happen in a
// correctly configured server; if it does anyway, the raw response passes
// through unchanged.
func (s *Server) enhance(ctx context.Context, resp *response.Response, toolName string, args map[string]any, start time.Time) *response.Response {
	ectx := &enhance.Context{
		SessionID:      s.sessionID,
		ToolName:       toolName,
		Args:           args,
		OperationStart: start,
		Sessions:       s.sessions,
	}
	if snap, err := s.git.Snapshot(ctx); err == nil {
		ectx.Git = snap
	}

	_ = s.events.Write(observability.NewEvent("INFO", observability.EventToolCall,
		fmt.Sprintf("tool %s invoked", toolName),
		map[string]any{"tool": toolName, "session_id": s.sessionID}))

	enhanced, err := s.registry.Enhance(ctx, resp, ectx)
	if err != nil {
		return resp
	}

	s.recordSession(toolName, ectx)
	return enhanced
}

// recordSession upserts this session's snapshot so other sessions can see it
// as team activity.
func (s *Server) recordSession(toolName string, ectx *enhance.Context) {
	if s.sessions == nil {
		return
	}

	s.toolCalls++
	s.recent = append(s.recent, toolName)
	if len(s.recent) > 10 {
		s.recent = s.recent[len(s.recent)-10:]
	}

	snap := session.Snapshot{
		SessionID:   s.sessionID,
		StartedAt:   s.startedAt,
		LastToolAt:  time.Now().UTC(),
		ToolCalls:   s.toolCalls,
		RecentTools: s.recent,
	}
	if ectx.Git != nil {
		snap.Branch = ectx.Git.Branch
		snap.Repo = ectx.Git.RemoteURL
	}
	_ = s.sessions.Record(snap)
}

func toEnvelopeOutput(resp *response.Response) envelopeOutput {
	env := resp.Envelope()
	out := envelopeOutput{
		Status:       string(env.Status),
		Message:      env.Message,
		RiskLevel:    string(env.RiskLevel),
		Metadata:     env.Metadata,
		TeamActivity: env.TeamActivity,
		Timestamp:    env.Timestamp,
	}
	for _, sg := range env.Suggestions {
		out.Suggestions = append(out.Suggestions, suggestionOutput{
			Type:        sg.Type,
			Description: sg.Description,
			Priority:    string(sg.Priority),
			Tool:        sg.Tool,
		})
	}
	for _, rk := range env.Risks {
		out.Risks = append(out.Risks, riskOutput{
			Level:       string(rk.Level),
			Type:        rk.Type,
			Description: rk.Description,
		})
	}
	return out
}

// toolResult flattens the enriched response for the MCP content field: the
// message is the primary text, and IsError mirrors ERROR status.
func toolResult(resp *response.Response) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: resp.Text()}},
		IsError: resp.HasErrors(),
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// parseSince parses a human-friendly duration string like "7d" or "24h"
// into the corresponding time in the past.
func parseSince(s string) (time.Time, error) {
	now := time.Now().UTC()

	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
