package enhance

import (
	"fmt"
	"time"

	"github.com/flowkit-dev/gitflow-mcp/internal/observability"
)

// Config is the typed per-enhancer configuration record. Recognized options
// are explicit fields; anything else the operator supplies lands in Extra
// untouched, for enhancers with bespoke settings.
type Config struct {
	// Enabled toggles the enhancer. Nil leaves the constructed default.
	Enabled *bool `yaml:"enabled" mapstructure:"enabled"`

	// MaxSuggestions bounds how many suggestions an enhancer may append.
	MaxSuggestions int `yaml:"max_suggestions" mapstructure:"max_suggestions"`

	// SuggestionTypes filters generated suggestions to the listed types.
	SuggestionTypes []string `yaml:"suggestion_types" mapstructure:"suggestion_types"`

	// ActivityWindow bounds how far back team-activity signals reach.
	ActivityWindow time.Duration `yaml:"activity_window" mapstructure:"activity_window"`

	// Extra is the pass-through bucket for unvalidated extensions.
	Extra map[string]any `yaml:"extra" mapstructure:"extra"`
}

// Configurable is implemented by enhancers that accept options from the
// configuration surface.
type Configurable interface {
	Configure(cfg Config) error
}

// ApplyConfig applies the name→config mapping to the registry. It is meant
// to run once at startup, before any Enhance call. A name that matches no
// registered enhancer is logged and skipped; a rejected option set is an
// error, since the server must not proceed with a broken pipeline.
func ApplyConfig(r *Registry, cfgs map[string]Config, events observability.EventLog) error {
	if events == nil {
		events = observability.NopEventLog{}
	}

	for name, cfg := range cfgs {
		e := r.Get(name)
		if e == nil {
			_ = events.Write(observability.NewEvent("WARN", "config.unknown_enhancer",
				fmt.Sprintf("configuration names unregistered enhancer %s", name),
				map[string]any{"enhancer": name}))
			continue
		}

		if cfg.Enabled != nil {
			e.SetEnabled(*cfg.Enabled)
		}

		if c, ok := e.(Configurable); ok {
			if err := c.Configure(cfg); err != nil {
				return fmt.Errorf("configuring enhancer %s: %w", name, err)
			}
		}
	}
	return nil
}
