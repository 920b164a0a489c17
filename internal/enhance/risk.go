package enhance

import (
	"context"
	"fmt"

	"github.com/flowkit-dev/gitflow-mcp/pkg/response"
)

// destructiveTools maps tool names to the risk they carry when invoked.
// force variants are assessed separately.
var destructiveTools = map[string]response.RiskLevel{
	"push_changes":  response.RiskMedium,
	"delete_branch": response.RiskHigh,
	"reset_hard":    response.RiskCritical,
	"rebase_branch": response.RiskHigh,
}

// RiskAssessmentEnhancer inspects the response and the git/session context
// and appends Risk entries for hazardous situations: destructive operations,
// divergence from upstream, detached HEAD, uncommitted changes. An ERROR
// response is ordinary input here; it gains an operation-failed risk so the
// suggestions enhancer can propose recovery.
type RiskAssessmentEnhancer struct {
	Base
}

// NewRiskAssessmentEnhancer creates the risk-assessment enhancer. It depends
// on metadata so risk entries can assume operation identity is stamped.
func NewRiskAssessmentEnhancer() *RiskAssessmentEnhancer {
	return &RiskAssessmentEnhancer{
		Base: NewBase(NameRiskAssessment, PriorityHigh, []string{NameMetadata}, Info{
			Description: "appends risk entries for destructive operations and divergence",
			Version:     "1.0.0",
			Author:      "gitflow-mcp",
		}),
	}
}

// CanEnhance requires a context: risk heuristics are meaningless without
// knowing which tool ran.
func (r *RiskAssessmentEnhancer) CanEnhance(resp *response.Response, ectx *Context) bool {
	return r.Base.CanEnhance(resp, ectx) && ectx != nil && ectx.ToolName != ""
}

// Enhance appends risks; it never removes or reorders earlier entries.
func (r *RiskAssessmentEnhancer) Enhance(_ context.Context, resp *response.Response, ectx *Context) (*response.Response, error) {
	if level, ok := destructiveTools[ectx.ToolName]; ok {
		resp.AddRisk(response.Risk{
			Level:       level,
			Type:        "destructive-operation",
			Description: fmt.Sprintf("%s modifies history or remote state", ectx.ToolName),
		})
	}

	if force, _ := ectx.Args["force"].(bool); force {
		resp.AddRisk(response.Risk{
			Level:       response.RiskHigh,
			Type:        "force-push",
			Description: "forced update can discard commits other collaborators depend on",
		})
	}

	if git := ectx.Git; git != nil {
		if git.Behind > 0 {
			level := response.RiskMedium
			if ectx.ToolName == "push_changes" {
				level = response.RiskHigh
			}
			resp.AddRisk(response.Risk{
				Level:       level,
				Type:        "divergence",
				Description: fmt.Sprintf("branch is %d commits behind upstream", git.Behind),
			})
		}
		if git.DetachedHEAD {
			resp.AddRisk(response.Risk{
				Level:       response.RiskMedium,
				Type:        "detached-head",
				Description: "HEAD is detached; commits here are easy to lose",
			})
		}
		if git.Dirty {
			if _, destructive := destructiveTools[ectx.ToolName]; destructive {
				resp.AddRisk(response.Risk{
					Level:       response.RiskMedium,
					Type:        "uncommitted-changes",
					Description: fmt.Sprintf("%d uncommitted files present during a destructive operation", git.UncommittedFiles),
				})
			}
		}
	}

	if resp.HasErrors() {
		resp.AddRisk(response.Risk{
			Level:       response.RiskLow,
			Type:        "operation-failed",
			Description: fmt.Sprintf("%s did not complete; repository may be mid-operation", ectx.ToolName),
		})
	}

	return resp, nil
}
