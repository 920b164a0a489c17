// Package enhance implements the response-enhancement pipeline: the Enhancer
// contract, the Registry that resolves a deterministic execution order from
// declared priorities and dependencies, and the built-in enhancers that stamp
// metadata, assess risk, generate suggestions, and attach team activity.
package enhance

import (
	"context"

	"github.com/flowkit-dev/gitflow-mcp/pkg/response"
)

// Priority orders enhancers that have no dependency edge between them.
// Higher runs earlier.
type Priority int

const (
	PriorityHighest Priority = 100
	PriorityHigh    Priority = 80
	PriorityMedium  Priority = 50
	PriorityLow     Priority = 20
	PriorityLowest  Priority = 0
)

// Metadata is the introspection snapshot an enhancer exposes for tooling.
type Metadata struct {
	Name         string   `json:"name"`
	Priority     Priority `json:"priority"`
	Dependencies []string `json:"dependencies,omitempty"`
	Enabled      bool     `json:"enabled"`
	Description  string   `json:"description,omitempty"`
	Version      string   `json:"version,omitempty"`
	Author       string   `json:"author,omitempty"`
}

// Enhancer is a named, orderable unit of enrichment logic. Implementations
// are constructed once at startup, registered into a Registry, and live for
// the process lifetime. Enabled may be toggled between pipeline runs;
// registry mutation during an in-flight Enhance call is undefined behavior.
type Enhancer interface {
	// Name returns the unique registry name.
	Name() string

	// Priority returns the tie-break priority.
	Priority() Priority

	// Dependencies returns the names of enhancers that must run first.
	Dependencies() []string

	// CanEnhance reports whether Enhance should run for this response. It
	// must return false rather than panic when disabled, when resp is nil,
	// or when validation of resp/ectx fails for any reason.
	CanEnhance(resp *response.Response, ectx *Context) bool

	// Enhance performs the enrichment and returns the (possibly same,
	// mutated) response. Callers must only invoke it after CanEnhance
	// returned true.
	Enhance(ctx context.Context, resp *response.Response, ectx *Context) (*response.Response, error)

	// Enabled reports the current lifecycle toggle.
	Enabled() bool
	Enable()
	Disable()
	SetEnabled(enabled bool)

	// Metadata returns the introspection snapshot.
	Metadata() Metadata
}

// Info carries the descriptive fields of an enhancer's metadata snapshot.
type Info struct {
	Description string
	Version     string
	Author      string
}

// Base provides the common contract plumbing. Its Enhance is a pass-through,
// so every concrete enhancer embeds Base and overrides Enhance.
type Base struct {
	name     string
	priority Priority
	deps     []string
	enabled  bool
	info     Info
}

// NewBase creates the embedded contract state. Enhancers start enabled.
func NewBase(name string, priority Priority, deps []string, info Info) Base {
	return Base{
		name:     name,
		priority: priority,
		deps:     deps,
		enabled:  true,
		info:     info,
	}
}

func (b *Base) Name() string       { return b.name }
func (b *Base) Priority() Priority { return b.priority }

func (b *Base) Dependencies() []string {
	out := make([]string, len(b.deps))
	copy(out, b.deps)
	return out
}

func (b *Base) Enabled() bool           { return b.enabled }
func (b *Base) Enable()                 { b.enabled = true }
func (b *Base) Disable()                { b.enabled = false }
func (b *Base) SetEnabled(enabled bool) { b.enabled = enabled }

// CanEnhance implements the default applicability check: enabled and a
// non-nil response. Concrete enhancers with stricter validation override
// this and should fold their own failures into false.
func (b *Base) CanEnhance(resp *response.Response, _ *Context) bool {
	return b.enabled && resp != nil
}

// Enhance is a no-op pass-through; concrete enhancers override it.
func (b *Base) Enhance(_ context.Context, resp *response.Response, _ *Context) (*response.Response, error) {
	return resp, nil
}

// Metadata returns the introspection snapshot.
func (b *Base) Metadata() Metadata {
	return Metadata{
		Name:         b.name,
		Priority:     b.priority,
		Dependencies: b.Dependencies(),
		Enabled:      b.enabled,
		Description:  b.info.Description,
		Version:      b.info.Version,
		Author:       b.info.Author,
	}
}
