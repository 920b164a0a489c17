package enhance

import (
	"context"
	"time"

	"github.com/flowkit-dev/gitflow-mcp/pkg/response"
)

// DefaultActivityWindow is how far back team-activity signals reach when no
// configuration overrides it.
const DefaultActivityWindow = 4 * time.Hour

// TeamActivityEnhancer attaches collaboration signals from the session-store
// collaborator: other assistant sessions recently active on the same
// repository or branch. The block is set at most once per response; no
// signal means no block.
type TeamActivityEnhancer struct {
	Base
	window time.Duration
}

// NewTeamActivityEnhancer creates the team-activity enhancer.
func NewTeamActivityEnhancer() *TeamActivityEnhancer {
	return &TeamActivityEnhancer{
		Base: NewBase(NameTeamActivity, PriorityLow, nil, Info{
			Description: "attaches signals about other sessions on the same branch",
			Version:     "1.0.0",
			Author:      "gitflow-mcp",
		}),
		window: DefaultActivityWindow,
	}
}

// Configure applies the typed configuration surface.
func (t *TeamActivityEnhancer) Configure(cfg Config) error {
	if cfg.ActivityWindow > 0 {
		t.window = cfg.ActivityWindow
	}
	return nil
}

// CanEnhance requires a session store to query.
func (t *TeamActivityEnhancer) CanEnhance(resp *response.Response, ectx *Context) bool {
	return t.Base.CanEnhance(resp, ectx) && ectx != nil && ectx.Sessions != nil
}

// Enhance queries the session store and sets the team-activity block when
// other sessions were active in the window.
func (t *TeamActivityEnhancer) Enhance(_ context.Context, resp *response.Response, ectx *Context) (*response.Response, error) {
	repo, branch := "", ""
	if ectx.Git != nil {
		branch = ectx.Git.Branch
		repo = ectx.Git.RemoteURL
	}

	since := time.Now().UTC().Add(-t.window)
	others, err := ectx.Sessions.ActiveOnBranch(repo, "", since, ectx.SessionID)
	if err != nil {
		return nil, err
	}
	if len(others) == 0 {
		return resp, nil
	}

	activity := response.TeamActivity{ActiveSessions: len(others)}
	for _, snap := range others {
		if branch != "" && snap.Branch == branch {
			activity.SharedBranch = true
		}
		lastTool := ""
		if len(snap.RecentTools) > 0 {
			lastTool = snap.RecentTools[len(snap.RecentTools)-1]
		}
		activity.Sessions = append(activity.Sessions, response.SessionActivity{
			SessionID: snap.SessionID,
			Branch:    snap.Branch,
			LastTool:  lastTool,
			LastSeen:  snap.LastToolAt,
		})
	}

	if err := resp.SetTeamActivity(activity); err != nil {
		return nil, err
	}

	if activity.SharedBranch {
		resp.AddRisk(response.Risk{
			Level:       response.RiskMedium,
			Type:        "concurrent-session",
			Description: "another session is active on the same branch",
		})
	}

	return resp, nil
}
