// Package gitops is the thin collaborator wrapping the git and gh CLIs.
// It produces raw textual results and repository state snapshots; it never
// builds response envelopes — that is the tool handlers' job.
package gitops

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Runner executes an external command and returns its combined output.
// Injectable so tests never shell out.
type Runner func(ctx context.Context, name string, args ...string) (string, error)

func execRunner(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// Context is a point-in-time snapshot of repository state, assembled for the
// enhancement pipeline to reason about (divergence, dirtiness, detached HEAD).
type Context struct {
	Branch           string `json:"branch"`
	Ahead            int    `json:"ahead"`
	Behind           int    `json:"behind"`
	Dirty            bool   `json:"dirty"`
	DetachedHEAD     bool   `json:"detached_head"`
	UncommittedFiles int    `json:"uncommitted_files"`
	LastCommit       string `json:"last_commit,omitempty"`
	RemoteURL        string `json:"remote_url,omitempty"`
}

// Client runs git/gh workflow operations in a single working directory.
type Client struct {
	dir string
	run Runner
}

// NewClient creates a Client operating in dir. An empty dir means the
// process working directory.
func NewClient(dir string) *Client {
	return &Client{dir: dir, run: execRunner}
}

// NewClientWithRunner creates a Client with an injectable runner, so tests
// and embedders never shell out.
func NewClientWithRunner(dir string, run Runner) *Client {
	return &Client{dir: dir, run: run}
}

func (c *Client) git(ctx context.Context, args ...string) (string, error) {
	if c.dir != "" {
		args = append([]string{"-C", c.dir}, args...)
	}
	return c.run(ctx, "git", args...)
}

// Snapshot assembles the current repository context. Individual probe
// failures degrade the snapshot instead of failing it: a repo with no
// upstream simply reports zero ahead/behind.
func (c *Client) Snapshot(ctx context.Context) (*Context, error) {
	snap := &Context{}

	branch, err := c.git(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("reading current branch: %w", err)
	}
	snap.Branch = strings.TrimSpace(branch)
	snap.DetachedHEAD = snap.Branch == "HEAD"

	if status, err := c.git(ctx, "status", "--porcelain"); err == nil {
		lines := nonEmptyLines(status)
		snap.UncommittedFiles = len(lines)
		snap.Dirty = len(lines) > 0
	}

	if counts, err := c.git(ctx, "rev-list", "--left-right", "--count", "@{upstream}...HEAD"); err == nil {
		fields := strings.Fields(counts)
		if len(fields) == 2 {
			snap.Behind, _ = strconv.Atoi(fields[0])
			snap.Ahead, _ = strconv.Atoi(fields[1])
		}
	}

	if last, err := c.git(ctx, "log", "-1", "--format=%h %s"); err == nil {
		snap.LastCommit = strings.TrimSpace(last)
	}

	if remote, err := c.git(ctx, "remote", "get-url", "origin"); err == nil {
		snap.RemoteURL = strings.TrimSpace(remote)
	}

	return snap, nil
}

// CreateBranch creates and checks out a branch, optionally from a base ref.
func (c *Client) CreateBranch(ctx context.Context, name, base string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("branch name is required")
	}
	args := []string{"checkout", "-b", name}
	if base != "" {
		args = append(args, base)
	}
	out, err := c.git(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("creating branch %s: %w", name, err)
	}
	return strings.TrimSpace(out), nil
}

// Status returns the porcelain status output.
func (c *Client) Status(ctx context.Context) (string, error) {
	out, err := c.git(ctx, "status", "--porcelain=v1", "--branch")
	if err != nil {
		return "", fmt.Errorf("reading status: %w", err)
	}
	return out, nil
}

// Commit stages (optionally all tracked changes) and commits with the given
// message.
func (c *Client) Commit(ctx context.Context, message string, stageAll bool) (string, error) {
	if message == "" {
		return "", fmt.Errorf("commit message is required")
	}
	if stageAll {
		if _, err := c.git(ctx, "add", "-A"); err != nil {
			return "", fmt.Errorf("staging changes: %w", err)
		}
	}
	out, err := c.git(ctx, "commit", "-m", message)
	if err != nil {
		return "", fmt.Errorf("committing: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Push pushes the current branch. force uses --force-with-lease, never a
// bare --force.
func (c *Client) Push(ctx context.Context, force, setUpstream bool) (string, error) {
	args := []string{"push"}
	if setUpstream {
		args = append(args, "-u", "origin", "HEAD")
	}
	if force {
		args = append(args, "--force-with-lease")
	}
	out, err := c.git(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("pushing: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// CreatePR opens a pull request via the gh CLI and returns its URL.
func (c *Client) CreatePR(ctx context.Context, title, body, base string, draft bool) (string, error) {
	if title == "" {
		return "", fmt.Errorf("pull request title is required")
	}
	args := []string{"pr", "create", "--title", title}
	if body != "" {
		args = append(args, "--body", body)
	}
	if base != "" {
		args = append(args, "--base", base)
	}
	if draft {
		args = append(args, "--draft")
	}
	out, err := c.run(ctx, "gh", args...)
	if err != nil {
		return "", fmt.Errorf("creating pull request: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
