package enhance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/flowkit-dev/gitflow-mcp/internal/observability"
	"github.com/flowkit-dev/gitflow-mcp/pkg/response"
)

var (
	// ErrDuplicateEnhancer is returned by Register when the name is taken.
	ErrDuplicateEnhancer = errors.New("duplicate enhancer name")

	// ErrCyclicDependency is returned by ResolveOrder when registered
	// enhancers depend on each other in a cycle.
	ErrCyclicDependency = errors.New("cyclic enhancer dependency")
)

// entry pairs an enhancer with its registration sequence number, the final
// tie-breaker for deterministic ordering.
type entry struct {
	enh Enhancer
	seq int
}

// Registry holds the set of registered enhancers, resolves a deterministic
// execution order from their declared dependencies and priorities, and
// drives sequential execution against one response at a time.
//
// Registration, unregistration, and enable/disable are expected at
// startup/configuration time; mutating the registry while an Enhance call is
// in flight is undefined behavior.
type Registry struct {
	mu      sync.Mutex
	entries []entry
	byName  map[string]Enhancer
	nextSeq int

	// order caches the last resolution; invalidated on any mutation.
	order      []Enhancer
	orderValid bool

	events observability.EventLog
}

// NewRegistry creates an empty registry. events may be nil to disable
// pipeline event logging.
func NewRegistry(events observability.EventLog) *Registry {
	if events == nil {
		events = observability.NopEventLog{}
	}
	return &Registry{
		byName: make(map[string]Enhancer),
		events: events,
	}
}

// Register adds an enhancer. It fails when another enhancer with the same
// name is already registered. Dependencies may name enhancers that are not
// registered yet; they are checked at resolution time, not here.
func (r *Registry) Register(e Enhancer) error {
	if e == nil {
		return fmt.Errorf("registering enhancer: nil enhancer")
	}
	name := e.Name()
	if name == "" {
		return fmt.Errorf("registering enhancer: empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("registering enhancer %q: %w", name, ErrDuplicateEnhancer)
	}

	r.byName[name] = e
	r.entries = append(r.entries, entry{enh: e, seq: r.nextSeq})
	r.nextSeq++
	r.orderValid = false
	return nil
}

// Unregister removes an enhancer by name, reporting whether it was present.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; !exists {
		return false
	}
	delete(r.byName, name)
	for i := range r.entries {
		if r.entries[i].enh.Name() == name {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			break
		}
	}
	r.orderValid = false
	return true
}

// Has reports whether an enhancer with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byName[name]
	return ok
}

// Get returns a registered enhancer by name, or nil.
func (r *Registry) Get(name string) Enhancer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byName[name]
}

// Enhancers returns all registered enhancers in registration order.
func (r *Registry) Enhancers() []Enhancer {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Enhancer, len(r.entries))
	for i, en := range r.entries {
		out[i] = en.enh
	}
	return out
}

// Clear removes every enhancer.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
	r.byName = make(map[string]Enhancer)
	r.order = nil
	r.orderValid = false
}

// Stats summarizes registry state for introspection.
type Stats struct {
	Registered     int `json:"registered"`
	Enabled        int `json:"enabled"`
	PipelineLength int `json:"pipeline_length"`
}

// Stats returns registered/enabled counts and the resolved pipeline length.
// A registry whose order cannot be resolved reports a zero pipeline length.
func (r *Registry) Stats() Stats {
	order, err := r.ResolveOrder()

	r.mu.Lock()
	defer r.mu.Unlock()

	s := Stats{Registered: len(r.entries)}
	for _, en := range r.entries {
		if en.enh.Enabled() {
			s.Enabled++
		}
	}
	if err == nil {
		s.PipelineLength = len(order)
	}
	return s
}

// ResolveOrder produces the linear execution order: a topological sort of
// the dependency graph where an edge A→B means A executes before B. Nodes
// with no ordering constraint between them are tied first by descending
// priority, then by registration order. A dependency name that is not
// registered is treated as already satisfied and logged as a warning. A true
// cycle among registered enhancers is an error.
func (r *Registry) ResolveOrder() ([]Enhancer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveOrderLocked()
}

func (r *Registry) resolveOrderLocked() ([]Enhancer, error) {
	if r.orderValid {
		return r.order, nil
	}

	n := len(r.entries)
	indegree := make(map[string]int, n)
	dependents := make(map[string][]string, n)

	for _, en := range r.entries {
		indegree[en.enh.Name()] = 0
	}
	for _, en := range r.entries {
		name := en.enh.Name()
		for _, dep := range en.enh.Dependencies() {
			if _, registered := r.byName[dep]; !registered {
				_ = r.events.Write(observability.NewEvent("WARN", observability.EventMissingDependency,
					fmt.Sprintf("enhancer %s depends on unregistered %s; treating as satisfied", name, dep),
					map[string]any{"enhancer": name, "dependency": dep}))
				continue
			}
			dependents[dep] = append(dependents[dep], name)
			indegree[name]++
		}
	}

	bySeq := make(map[string]entry, n)
	for _, en := range r.entries {
		bySeq[en.enh.Name()] = en
	}

	// ready holds nodes with no unsatisfied dependencies, kept in
	// registration order; each step picks the highest-priority ready node.
	var ready []entry
	for _, en := range r.entries {
		if indegree[en.enh.Name()] == 0 {
			ready = append(ready, en)
		}
	}

	order := make([]Enhancer, 0, n)
	for len(ready) > 0 {
		best := 0
		for i := 1; i < len(ready); i++ {
			if ready[i].enh.Priority() > ready[best].enh.Priority() {
				best = i
			} else if ready[i].enh.Priority() == ready[best].enh.Priority() && ready[i].seq < ready[best].seq {
				best = i
			}
		}
		picked := ready[best]
		ready = append(ready[:best], ready[best+1:]...)
		order = append(order, picked.enh)

		for _, dep := range dependents[picked.enh.Name()] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, bySeq[dep])
			}
		}
	}

	if len(order) != n {
		var stuck []string
		for name, deg := range indegree {
			if deg > 0 {
				stuck = append(stuck, name)
			}
		}
		sort.Strings(stuck)
		return nil, fmt.Errorf("resolving enhancer order: %w among [%s]", ErrCyclicDependency, strings.Join(stuck, ", "))
	}

	r.order = order
	r.orderValid = true
	return order, nil
}

// Enhance drives one pipeline run over a single response. Enhancers run
// sequentially in resolved order; an enhancer whose CanEnhance returns false
// is skipped, and one whose Enhance fails is logged and skipped without
// aborting the pipeline or blocking its dependents. The error return is
// reserved for order-resolution failure, which callers must treat as fatal
// configuration breakage.
func (r *Registry) Enhance(ctx context.Context, resp *response.Response, ectx *Context) (*response.Response, error) {
	r.mu.Lock()
	order, err := r.resolveOrderLocked()
	r.mu.Unlock()
	if err != nil {
		return resp, err
	}

	start := time.Now()
	executed := make([]string, 0, len(order))

	for _, e := range order {
		if !safeCanEnhance(e, resp, ectx) {
			_ = r.events.Write(observability.NewEvent("INFO", observability.EventEnhancerSkipped,
				fmt.Sprintf("enhancer %s not applicable", e.Name()),
				map[string]any{"enhancer": e.Name()}))
			continue
		}

		out, err := safeEnhance(ctx, e, resp, ectx)
		if err != nil {
			_ = r.events.Write(observability.NewEvent("ERROR", observability.EventEnhancerFailed,
				fmt.Sprintf("enhancer %s failed: %s", e.Name(), err),
				map[string]any{"enhancer": e.Name(), "error": err.Error()}))
			continue
		}
		if out != nil {
			resp = out
		}
		executed = append(executed, e.Name())
	}

	_ = r.events.Write(observability.NewEvent("INFO", observability.EventPipelineRun,
		fmt.Sprintf("pipeline ran %d of %d enhancers", len(executed), len(order)),
		map[string]any{
			"executed":    executed,
			"duration_ms": float64(time.Since(start).Milliseconds()),
		}))

	return resp, nil
}

// safeCanEnhance folds panics from CanEnhance into false, honoring the
// contract that applicability checks never throw.
func safeCanEnhance(e Enhancer, resp *response.Response, ectx *Context) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return e.CanEnhance(resp, ectx)
}

// safeEnhance converts panics from Enhance into errors so one broken
// enhancer cannot take down the pipeline.
func safeEnhance(ctx context.Context, e Enhancer, resp *response.Response, ectx *Context) (out *response.Response, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out, err = nil, fmt.Errorf("enhancer %s panicked: %v", e.Name(), rec)
		}
	}()
	return e.Enhance(ctx, resp, ectx)
}
