package gitops

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

// fakeRunner records every invocation and answers from a script keyed by the
// joined command line.
type fakeRunner struct {
	calls   []string
	replies map[string]string
	errors  map[string]error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		replies: make(map[string]string),
		errors:  make(map[string]error),
	}
}

func (f *fakeRunner) run(_ context.Context, name string, args ...string) (string, error) {
	key := name + " " + strings.Join(args, " ")
	f.calls = append(f.calls, key)
	if err, ok := f.errors[key]; ok {
		return "", err
	}
	if out, ok := f.replies[key]; ok {
		return out, nil
	}
	return "", fmt.Errorf("unscripted command: %s", key)
}

func (f *fakeRunner) client() *Client {
	return NewClientWithRunner("", f.run)
}

func TestSnapshot_FullProbe(t *testing.T) {
	f := newFakeRunner()
	f.replies["git rev-parse --abbrev-ref HEAD"] = "feature/x\n"
	f.replies["git status --porcelain"] = " M internal/app.go\n?? notes.txt\n"
	f.replies["git rev-list --left-right --count @{upstream}...HEAD"] = "2\t5\n"
	f.replies["git log -1 --format=%h %s"] = "abc1234 add pipeline\n"
	f.replies["git remote get-url origin"] = "git@example.com:org/repo.git\n"

	snap, err := f.client().Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	if snap.Branch != "feature/x" {
		t.Errorf("Branch = %q", snap.Branch)
	}
	if snap.DetachedHEAD {
		t.Error("DetachedHEAD = true for a named branch")
	}
	if !snap.Dirty || snap.UncommittedFiles != 2 {
		t.Errorf("Dirty/UncommittedFiles = %v/%d", snap.Dirty, snap.UncommittedFiles)
	}
	// rev-list --left-right reports behind first, ahead second.
	if snap.Behind != 2 || snap.Ahead != 5 {
		t.Errorf("Behind/Ahead = %d/%d, want 2/5", snap.Behind, snap.Ahead)
	}
	if snap.LastCommit != "abc1234 add pipeline" {
		t.Errorf("LastCommit = %q", snap.LastCommit)
	}
	if snap.RemoteURL != "git@example.com:org/repo.git" {
		t.Errorf("RemoteURL = %q", snap.RemoteURL)
	}
}

func TestSnapshot_DetachedHead(t *testing.T) {
	f := newFakeRunner()
	f.replies["git rev-parse --abbrev-ref HEAD"] = "HEAD\n"
	f.replies["git status --porcelain"] = ""

	snap, err := f.client().Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if !snap.DetachedHEAD {
		t.Error("DetachedHEAD = false for the literal HEAD branch name")
	}
}

func TestSnapshot_ProbeFailuresDegrade(t *testing.T) {
	// No upstream, no remote, no commits yet: only the branch probe answers.
	f := newFakeRunner()
	f.replies["git rev-parse --abbrev-ref HEAD"] = "main\n"

	snap, err := f.client().Snapshot(context.Background())
	if err != nil {
		t.Fatalf("probe failures must degrade, not fail: %v", err)
	}
	if snap.Branch != "main" || snap.Ahead != 0 || snap.Behind != 0 || snap.Dirty {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestSnapshot_BranchProbeFailureIsFatal(t *testing.T) {
	f := newFakeRunner()
	f.errors["git rev-parse --abbrev-ref HEAD"] = fmt.Errorf("not a git repository")

	if _, err := f.client().Snapshot(context.Background()); err == nil {
		t.Error("an unreadable branch must fail the snapshot")
	}
}

func TestCreateBranch(t *testing.T) {
	f := newFakeRunner()
	f.replies["git checkout -b feature/x main"] = "Switched to a new branch 'feature/x'\n"

	out, err := f.client().CreateBranch(context.Background(), "feature/x", "main")
	if err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	if !strings.Contains(out, "feature/x") {
		t.Errorf("output = %q", out)
	}

	if _, err := f.client().CreateBranch(context.Background(), "", ""); err == nil {
		t.Error("empty branch name must be rejected before shelling out")
	}
}

func TestCreateBranch_NoBaseOmitsRef(t *testing.T) {
	f := newFakeRunner()
	f.replies["git checkout -b feature/x"] = "Switched to a new branch 'feature/x'\n"

	if _, err := f.client().CreateBranch(context.Background(), "feature/x", ""); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	if f.calls[0] != "git checkout -b feature/x" {
		t.Errorf("call = %q", f.calls[0])
	}
}

func TestCommit_StageAll(t *testing.T) {
	f := newFakeRunner()
	f.replies["git add -A"] = ""
	f.replies["git commit -m fix parser"] = "[feature/x abc1234] fix parser\n"

	out, err := f.client().Commit(context.Background(), "fix parser", true)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if !strings.Contains(out, "fix parser") {
		t.Errorf("output = %q", out)
	}
	if len(f.calls) != 2 || f.calls[0] != "git add -A" {
		t.Errorf("calls = %v, want add before commit", f.calls)
	}
}

func TestCommit_NoStaging(t *testing.T) {
	f := newFakeRunner()
	f.replies["git commit -m fix parser"] = "[feature/x abc1234] fix parser\n"

	if _, err := f.client().Commit(context.Background(), "fix parser", false); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	for _, call := range f.calls {
		if strings.HasPrefix(call, "git add") {
			t.Errorf("staging ran without stageAll: %v", f.calls)
		}
	}
}

func TestCommit_RequiresMessage(t *testing.T) {
	f := newFakeRunner()
	if _, err := f.client().Commit(context.Background(), "", true); err == nil {
		t.Error("empty commit message must be rejected")
	}
	if len(f.calls) != 0 {
		t.Errorf("validation must happen before any command: %v", f.calls)
	}
}

func TestPush_ForceUsesLease(t *testing.T) {
	f := newFakeRunner()
	f.replies["git push -u origin HEAD --force-with-lease"] = "pushed\n"

	if _, err := f.client().Push(context.Background(), true, true); err != nil {
		t.Fatalf("Push: %v", err)
	}
	call := f.calls[0]
	if strings.Contains(call, "--force ") || strings.HasSuffix(call, "--force") {
		t.Errorf("bare --force must never be used: %q", call)
	}
	if !strings.Contains(call, "--force-with-lease") {
		t.Errorf("call = %q", call)
	}
}

func TestPush_Plain(t *testing.T) {
	f := newFakeRunner()
	f.replies["git push"] = "Everything up-to-date\n"

	out, err := f.client().Push(context.Background(), false, false)
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if out != "Everything up-to-date" {
		t.Errorf("output = %q", out)
	}
}

func TestCreatePR(t *testing.T) {
	f := newFakeRunner()
	f.replies["gh pr create --title Add pipeline --body details --base main --draft"] = "https://example.com/org/repo/pull/7\n"

	url, err := f.client().CreatePR(context.Background(), "Add pipeline", "details", "main", true)
	if err != nil {
		t.Fatalf("CreatePR: %v", err)
	}
	if url != "https://example.com/org/repo/pull/7" {
		t.Errorf("url = %q", url)
	}

	if _, err := f.client().CreatePR(context.Background(), "", "", "", false); err == nil {
		t.Error("empty title must be rejected")
	}
}

func TestClient_DirPrefixesEveryGitCall(t *testing.T) {
	f := newFakeRunner()
	f.replies["git -C /work/repo status --porcelain=v1 --branch"] = "## main\n"

	c := NewClientWithRunner("/work/repo", f.run)
	if _, err := c.Status(context.Background()); err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !strings.HasPrefix(f.calls[0], "git -C /work/repo ") {
		t.Errorf("call = %q, want -C prefix", f.calls[0])
	}
}
