package enhance

import (
	"context"
	"fmt"
	"sort"

	"github.com/flowkit-dev/gitflow-mcp/pkg/response"
)

// DefaultMaxSuggestions bounds the suggestion list when no configuration
// overrides it.
const DefaultMaxSuggestions = 5

var suggestionRank = map[response.SuggestionPriority]int{
	response.PriorityHigh:   3,
	response.PriorityMedium: 2,
	response.PriorityLow:    1,
}

// SuggestionsEnhancer generates ranked follow-up suggestions from the
// enriched response. It depends on metadata and risk assessment so it can
// react to the risks already appended. Its own candidates are ranked before
// appending; entries contributed by other enhancers are left untouched.
type SuggestionsEnhancer struct {
	Base
	maxSuggestions int
	types          map[string]bool
}

// NewSuggestionsEnhancer creates the suggestions enhancer.
func NewSuggestionsEnhancer() *SuggestionsEnhancer {
	return &SuggestionsEnhancer{
		Base: NewBase(NameSuggestions, PriorityHigh, []string{NameMetadata, NameRiskAssessment}, Info{
			Description: "generates ranked follow-up suggestions",
			Version:     "1.0.0",
			Author:      "gitflow-mcp",
		}),
		maxSuggestions: DefaultMaxSuggestions,
	}
}

// Configure applies the typed configuration surface.
func (s *SuggestionsEnhancer) Configure(cfg Config) error {
	if cfg.MaxSuggestions < 0 {
		return fmt.Errorf("max_suggestions must be non-negative, got %d", cfg.MaxSuggestions)
	}
	if cfg.MaxSuggestions > 0 {
		s.maxSuggestions = cfg.MaxSuggestions
	}
	if len(cfg.SuggestionTypes) > 0 {
		s.types = make(map[string]bool, len(cfg.SuggestionTypes))
		for _, t := range cfg.SuggestionTypes {
			s.types[t] = true
		}
	}
	return nil
}

// Enhance appends up to maxSuggestions ranked suggestions.
func (s *SuggestionsEnhancer) Enhance(_ context.Context, resp *response.Response, ectx *Context) (*response.Response, error) {
	candidates := s.collect(resp, ectx)

	// Stable sort keeps generation order among equal priorities.
	sort.SliceStable(candidates, func(i, j int) bool {
		return suggestionRank[candidates[i].Priority] > suggestionRank[candidates[j].Priority]
	})

	added := 0
	for _, c := range candidates {
		if added >= s.maxSuggestions {
			break
		}
		if s.types != nil && !s.types[c.Type] {
			continue
		}
		resp.AddSuggestion(c)
		added++
	}

	return resp, nil
}

// collect derives candidate suggestions from the response status, appended
// risks, and git context.
func (s *SuggestionsEnhancer) collect(resp *response.Response, ectx *Context) []response.Suggestion {
	var out []response.Suggestion

	toolName := ""
	if ectx != nil {
		toolName = ectx.ToolName
	}

	if resp.HasErrors() {
		out = append(out, response.Suggestion{
			Type:        "recovery",
			Description: fmt.Sprintf("inspect repository state with git_status before retrying %s", toolName),
			Priority:    response.PriorityHigh,
			Tool:        "git_status",
		})
	}

	for _, risk := range resp.Risks() {
		switch risk.Type {
		case "divergence":
			out = append(out, response.Suggestion{
				Type:        "sync",
				Description: "pull or rebase onto upstream before pushing",
				Priority:    response.PriorityHigh,
			})
		case "uncommitted-changes":
			out = append(out, response.Suggestion{
				Type:        "hygiene",
				Description: "commit or stash local changes first",
				Priority:    response.PriorityMedium,
				Tool:        "commit_changes",
			})
		case "detached-head":
			out = append(out, response.Suggestion{
				Type:        "recovery",
				Description: "create a branch to keep the current commit reachable",
				Priority:    response.PriorityMedium,
				Tool:        "create_branch",
			})
		}
	}

	if resp.IsSuccess() {
		switch toolName {
		case "create_branch":
			out = append(out, response.Suggestion{
				Type:        "next-step",
				Description: "make changes and commit them on the new branch",
				Priority:    response.PriorityMedium,
				Tool:        "commit_changes",
			})
		case "commit_changes":
			out = append(out, response.Suggestion{
				Type:        "next-step",
				Description: "push the branch to share the commit",
				Priority:    response.PriorityMedium,
				Tool:        "push_changes",
			})
		case "push_changes":
			out = append(out, response.Suggestion{
				Type:        "next-step",
				Description: "open a pull request for review",
				Priority:    response.PriorityMedium,
				Tool:        "create_pr",
			})
		}
	}

	if ectx != nil && ectx.Git != nil && ectx.Git.Ahead > 0 && toolName != "push_changes" && resp.IsSuccess() {
		out = append(out, response.Suggestion{
			Type:        "sync",
			Description: fmt.Sprintf("branch is %d commits ahead of upstream; consider pushing", ectx.Git.Ahead),
			Priority:    response.PriorityLow,
			Tool:        "push_changes",
		})
	}

	return out
}
