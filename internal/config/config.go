// Package config loads the server configuration file with Viper: data paths
// plus the per-enhancer {enabled, options} mapping applied to the registry
// at startup.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/flowkit-dev/gitflow-mcp/internal/enhance"
	"github.com/spf13/viper"
)

// Config is the merged server configuration.
type Config struct {
	// BasePath is where gitflow-mcp keeps its state files.
	BasePath string

	// RepoDir is the working directory for git operations. Empty means the
	// process working directory.
	RepoDir string

	// EventLogPath is the JSONL pipeline event log location.
	EventLogPath string

	// Enhancers maps enhancer name to its configuration record.
	Enhancers map[string]enhance.Config
}

func defaultConfig(basePath string) *Config {
	return &Config{
		BasePath:     basePath,
		EventLogPath: filepath.Join(basePath, "events.jsonl"),
		Enhancers:    make(map[string]enhance.Config),
	}
}

// Load reads .gitflowrc (YAML) from basePath. A missing file yields defaults.
func Load(basePath string) (*Config, error) {
	cfg := defaultConfig(basePath)

	v := viper.New()
	v.SetConfigName(".gitflowrc")
	v.SetConfigType("yaml")
	v.AddConfigPath(basePath)

	v.SetDefault("repo_dir", "")
	v.SetDefault("event_log", cfg.EventLogPath)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading .gitflowrc: %w", err)
	}

	cfg.RepoDir = v.GetString("repo_dir")
	cfg.EventLogPath = v.GetString("event_log")

	raw := v.GetStringMap("enhancers")
	for name, entry := range raw {
		m, ok := entry.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("parsing .gitflowrc: enhancer %q is not a mapping", name)
		}
		ec, err := parseEnhancerConfig(name, m)
		if err != nil {
			return nil, err
		}
		cfg.Enhancers[name] = ec
	}

	return cfg, nil
}

// parseEnhancerConfig maps one YAML enhancer block to the typed record.
// Unrecognized keys fall through to the Extra bucket.
func parseEnhancerConfig(name string, m map[string]interface{}) (enhance.Config, error) {
	var ec enhance.Config

	for key, val := range m {
		switch key {
		case "enabled":
			b, ok := val.(bool)
			if !ok {
				return ec, fmt.Errorf("parsing .gitflowrc: enhancer %q: enabled must be a boolean", name)
			}
			ec.Enabled = &b
		case "max_suggestions":
			n, ok := toInt(val)
			if !ok {
				return ec, fmt.Errorf("parsing .gitflowrc: enhancer %q: max_suggestions must be an integer", name)
			}
			ec.MaxSuggestions = n
		case "suggestion_types":
			items, ok := val.([]interface{})
			if !ok {
				return ec, fmt.Errorf("parsing .gitflowrc: enhancer %q: suggestion_types must be a list", name)
			}
			for _, item := range items {
				s, ok := item.(string)
				if !ok {
					return ec, fmt.Errorf("parsing .gitflowrc: enhancer %q: suggestion_types entries must be strings", name)
				}
				ec.SuggestionTypes = append(ec.SuggestionTypes, s)
			}
		case "activity_window":
			s, ok := val.(string)
			if !ok {
				return ec, fmt.Errorf("parsing .gitflowrc: enhancer %q: activity_window must be a duration string", name)
			}
			d, err := time.ParseDuration(s)
			if err != nil {
				return ec, fmt.Errorf("parsing .gitflowrc: enhancer %q: activity_window: %w", name, err)
			}
			ec.ActivityWindow = d
		default:
			if ec.Extra == nil {
				ec.Extra = make(map[string]any)
			}
			ec.Extra[key] = val
		}
	}

	return ec, nil
}

func toInt(val interface{}) (int, bool) {
	switch n := val.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
