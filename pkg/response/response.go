// Package response defines the structured result envelope that every tool
// invocation produces and the enhancement pipeline enriches. A Response is
// created once per tool call, mutated in place by enhancers, and projected to
// the transport boundary when the pipeline finishes. Nothing in this package
// performs I/O.
package response

import (
	"encoding/json"
	"errors"
	"time"
)

// Status is the overall outcome of a tool invocation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusWarning Status = "warning"
	StatusInfo    Status = "info"
)

// statusRank orders statuses by severity for escalation. A status may be
// escalated by later pipeline steps but never silently downgraded.
var statusRank = map[Status]int{
	StatusSuccess: 0,
	StatusInfo:    1,
	StatusWarning: 2,
	StatusError:   3,
}

// RiskLevel is the severity of a single risk, totally ordered
// LOW < MEDIUM < HIGH < CRITICAL.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

var riskRank = map[RiskLevel]int{
	RiskLow:      1,
	RiskMedium:   2,
	RiskHigh:     3,
	RiskCritical: 4,
}

// Compare returns -1, 0, or 1 as l is less than, equal to, or greater than other.
func (l RiskLevel) Compare(other RiskLevel) int {
	a, b := riskRank[l], riskRank[other]
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// MaxRiskLevel returns the higher of two risk levels.
func MaxRiskLevel(a, b RiskLevel) RiskLevel {
	if a.Compare(b) >= 0 {
		return a
	}
	return b
}

// SuggestionPriority ranks a suggestion's importance.
type SuggestionPriority string

const (
	PriorityLow    SuggestionPriority = "low"
	PriorityMedium SuggestionPriority = "medium"
	PriorityHigh   SuggestionPriority = "high"
)

// Risk is an append-only annotation describing a hazard detected in a tool
// result. Immutable once appended.
type Risk struct {
	Level       RiskLevel `json:"level"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
}

// Suggestion is an append-only annotation proposing a follow-up action.
// Tool, when set, names the tool the assistant can call to act on it.
// Immutable once appended.
type Suggestion struct {
	Type        string             `json:"type"`
	Description string             `json:"description"`
	Priority    SuggestionPriority `json:"priority"`
	Tool        string             `json:"tool,omitempty"`
}

// SessionActivity describes one other session active on the same repo or branch.
type SessionActivity struct {
	SessionID string    `json:"session_id"`
	Branch    string    `json:"branch,omitempty"`
	LastTool  string    `json:"last_tool,omitempty"`
	LastSeen  time.Time `json:"last_seen"`
}

// TeamActivity is the collaboration-signal block attached at most once per
// response. If absent, no team activity occurred.
type TeamActivity struct {
	ActiveSessions int               `json:"active_sessions"`
	SharedBranch   bool              `json:"shared_branch"`
	Sessions       []SessionActivity `json:"sessions,omitempty"`
}

// ErrTeamActivitySet is returned by SetTeamActivity when the block was
// already set on this response.
var ErrTeamActivitySet = errors.New("team activity already set")

// Response is the unit of work flowing through the enhancement pipeline.
// Fields are unexported so the append-only invariants on suggestions, risks,
// and metadata hold by construction: callers can add entries but never remove
// or reorder what an earlier step contributed.
type Response struct {
	status       Status
	message      string
	data         any
	suggestions  []Suggestion
	risks        []Risk
	riskOverride *RiskLevel
	metadata     map[string]any
	contextBag   map[string]any
	teamActivity *TeamActivity
	created      time.Time
}

// Status returns the current status.
func (r *Response) Status() Status { return r.status }

// Message returns the human-readable summary.
func (r *Response) Message() string { return r.message }

// Data returns the opaque payload set at creation. Enhancers may read it but
// must not replace it; see TransformData.
func (r *Response) Data() any { return r.data }

// Created returns the creation timestamp.
func (r *Response) Created() time.Time { return r.created }

// IsSuccess reports whether the status is SUCCESS.
func (r *Response) IsSuccess() bool { return r.status == StatusSuccess }

// HasErrors reports whether the status is ERROR.
func (r *Response) HasErrors() bool { return r.status == StatusError }

// Suggestions returns a copy of the suggestion list in append order.
func (r *Response) Suggestions() []Suggestion {
	out := make([]Suggestion, len(r.suggestions))
	copy(out, r.suggestions)
	return out
}

// Risks returns a copy of the risk list in append order.
func (r *Response) Risks() []Risk {
	out := make([]Risk, len(r.risks))
	copy(out, r.risks)
	return out
}

// Metadata returns a copy of the metadata map.
func (r *Response) Metadata() map[string]any {
	out := make(map[string]any, len(r.metadata))
	for k, v := range r.metadata {
		out[k] = v
	}
	return out
}

// MetadataValue looks up a single metadata key.
func (r *Response) MetadataValue(key string) (any, bool) {
	v, ok := r.metadata[key]
	return v, ok
}

// ContextValue looks up a key in the working context bag supplied at creation
// or added by enhancers.
func (r *Response) ContextValue(key string) (any, bool) {
	v, ok := r.contextBag[key]
	return v, ok
}

// TeamActivity returns the collaboration block, or nil if none was set.
func (r *Response) TeamActivity() *TeamActivity { return r.teamActivity }

// RiskLevel returns the overall severity: the maximum level among appended
// risks, unless SetRiskLevel was called to override it. A response with no
// risks and no override reports RiskLow.
func (r *Response) RiskLevel() RiskLevel {
	if r.riskOverride != nil {
		return *r.riskOverride
	}
	level := RiskLow
	for _, risk := range r.risks {
		level = MaxRiskLevel(level, risk.Level)
	}
	return level
}

// AddSuggestion appends a suggestion. Earlier entries are never altered.
func (r *Response) AddSuggestion(s Suggestion) *Response {
	r.suggestions = append(r.suggestions, s)
	return r
}

// AddRisk appends a risk. Earlier entries are never altered.
func (r *Response) AddRisk(risk Risk) *Response {
	r.risks = append(r.risks, risk)
	return r
}

// AddMetadata sets a metadata key. Keys may be added or updated by later
// steps, never deleted.
func (r *Response) AddMetadata(key string, value any) *Response {
	r.metadata[key] = value
	return r
}

// AddContext sets a key in the working context bag.
func (r *Response) AddContext(key string, value any) *Response {
	r.contextBag[key] = value
	return r
}

// SetRiskLevel overrides the computed overall risk level.
func (r *Response) SetRiskLevel(level RiskLevel) *Response {
	r.riskOverride = &level
	return r
}

// SetTeamActivity attaches the collaboration block. It may be set at most
// once per response.
func (r *Response) SetTeamActivity(ta TeamActivity) error {
	if r.teamActivity != nil {
		return ErrTeamActivitySet
	}
	r.teamActivity = &ta
	return nil
}

// EscalateStatus raises the status to the given one if it is more severe than
// the current status. Downgrades are ignored.
func (r *Response) EscalateStatus(s Status) *Response {
	if statusRank[s] > statusRank[r.status] {
		r.status = s
	}
	return r
}

// TransformData is the one sanctioned way to replace the payload after
// creation. Enhancers must not call it; it exists for the creating handler.
func (r *Response) TransformData(fn func(any) any) *Response {
	r.data = fn(r.data)
	return r
}

// Text returns the primary flattened text for the transport boundary: the
// message when set, otherwise a JSON serialization of the payload.
func (r *Response) Text() string {
	if r.message != "" {
		return r.message
	}
	if r.data == nil {
		return ""
	}
	b, err := json.Marshal(r.data)
	if err != nil {
		return ""
	}
	return string(b)
}

// Envelope is the exported projection of a Response for structured transport
// output and JSON serialization.
type Envelope struct {
	Status       Status         `json:"status"`
	Message      string         `json:"message,omitempty"`
	Data         any            `json:"data,omitempty"`
	Suggestions  []Suggestion   `json:"suggestions,omitempty"`
	Risks        []Risk         `json:"risks,omitempty"`
	RiskLevel    RiskLevel      `json:"risk_level"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	TeamActivity *TeamActivity  `json:"team_activity,omitempty"`
	Timestamp    string         `json:"timestamp"`
}

// Envelope projects the response to its transport form.
func (r *Response) Envelope() Envelope {
	return Envelope{
		Status:       r.status,
		Message:      r.message,
		Data:         r.data,
		Suggestions:  r.Suggestions(),
		Risks:        r.Risks(),
		RiskLevel:    r.RiskLevel(),
		Metadata:     r.Metadata(),
		TeamActivity: r.teamActivity,
		Timestamp:    r.created.UTC().Format(time.RFC3339),
	}
}

// MarshalJSON serializes the response as its envelope projection.
func (r *Response) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Envelope())
}
