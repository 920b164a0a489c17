// Package session is the session-store collaborator: it records which
// assistant sessions touched which repositories and branches, and answers
// the team-activity queries the enhancement pipeline asks.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Snapshot is the recorded state of one assistant session.
type Snapshot struct {
	SessionID   string    `yaml:"session_id"`
	Repo        string    `yaml:"repo,omitempty"`
	Branch      string    `yaml:"branch,omitempty"`
	StartedAt   time.Time `yaml:"started_at"`
	LastToolAt  time.Time `yaml:"last_tool_at"`
	ToolCalls   int       `yaml:"tool_calls"`
	RecentTools []string  `yaml:"recent_tools,omitempty"`
}

// Store defines the interface the pipeline depends on. The file-backed
// implementation below is one provider; tests substitute their own.
type Store interface {
	// Record upserts a session snapshot keyed by SessionID.
	Record(snap Snapshot) error

	// Get returns the snapshot for a session, or nil if unknown.
	Get(sessionID string) (*Snapshot, error)

	// List returns all known snapshots, newest activity first.
	List() ([]Snapshot, error)

	// ActiveOnBranch returns sessions active on the given repo/branch since
	// the given time, excluding exceptID.
	ActiveOnBranch(repo, branch string, since time.Time, exceptID string) ([]Snapshot, error)
}

// index is the on-disk YAML shape.
type index struct {
	Version  string     `yaml:"version"`
	Sessions []Snapshot `yaml:"sessions"`
}

// fileStore implements Store with a single YAML index file under basePath.
type fileStore struct {
	basePath string
	mu       sync.Mutex
}

// NewFileStore creates a Store backed by sessions.yaml in basePath.
func NewFileStore(basePath string) Store {
	return &fileStore{basePath: basePath}
}

func (s *fileStore) indexPath() string {
	return filepath.Join(s.basePath, "sessions.yaml")
}

func (s *fileStore) load() (*index, error) {
	idx := &index{Version: "1.0"}
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, fmt.Errorf("reading session index: %w", err)
	}
	if err := yaml.Unmarshal(data, idx); err != nil {
		return nil, fmt.Errorf("parsing session index: %w", err)
	}
	return idx, nil
}

func (s *fileStore) save(idx *index) error {
	if err := os.MkdirAll(s.basePath, 0o755); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	data, err := yaml.Marshal(idx)
	if err != nil {
		return fmt.Errorf("marshalling session index: %w", err)
	}
	if err := os.WriteFile(s.indexPath(), data, 0o644); err != nil {
		return fmt.Errorf("writing session index: %w", err)
	}
	return nil
}

func (s *fileStore) Record(snap Snapshot) error {
	if snap.SessionID == "" {
		return fmt.Errorf("recording session: session ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.load()
	if err != nil {
		return err
	}

	replaced := false
	for i := range idx.Sessions {
		if idx.Sessions[i].SessionID == snap.SessionID {
			idx.Sessions[i] = snap
			replaced = true
			break
		}
	}
	if !replaced {
		idx.Sessions = append(idx.Sessions, snap)
	}

	return s.save(idx)
}

func (s *fileStore) Get(sessionID string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range idx.Sessions {
		if idx.Sessions[i].SessionID == sessionID {
			snap := idx.Sessions[i]
			return &snap, nil
		}
	}
	return nil, nil
}

func (s *fileStore) List() ([]Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]Snapshot, len(idx.Sessions))
	copy(out, idx.Sessions)
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastToolAt.After(out[j].LastToolAt)
	})
	return out, nil
}

func (s *fileStore) ActiveOnBranch(repo, branch string, since time.Time, exceptID string) ([]Snapshot, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}

	var out []Snapshot
	for _, snap := range all {
		if snap.SessionID == exceptID {
			continue
		}
		if snap.LastToolAt.Before(since) {
			continue
		}
		if repo != "" && snap.Repo != repo {
			continue
		}
		if branch != "" && snap.Branch != branch {
			continue
		}
		out = append(out, snap)
	}
	return out, nil
}
