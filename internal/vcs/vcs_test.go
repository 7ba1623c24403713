package vcs

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goplus/sdlpack/internal/shell"
	"github.com/goplus/sdlpack/internal/shell/shelltest"
	"github.com/goplus/sdlpack/internal/version"
)

func TestDescribeTrims(t *testing.T) {
	rec := &shelltest.Recorder{Handler: func(cmd *shell.Cmd) (string, error) {
		return "v1.2.3-4-gabcdef0\n", nil
	}}
	g := NewGit(rec, WithGitPath("/usr/bin/git"))

	got, err := g.Describe(context.Background(), "repo")
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if got != "v1.2.3-4-gabcdef0" {
		t.Errorf("Describe = %q", got)
	}
	c := rec.Calls[0]
	if c.Name != "/usr/bin/git" || c.Dir != "repo" {
		t.Errorf("unexpected command %+v", c)
	}
	if want := "describe --tags --long --always"; strings.Join(c.Args, " ") != want {
		t.Errorf("args = %v, want %s", c.Args, want)
	}
}

func TestSyncInitializesMissingRepo(t *testing.T) {
	rec := &shelltest.Recorder{}
	dir := filepath.Join(t.TempDir(), "SDL")

	if err := NewGit(rec).Sync(context.Background(), "https://example.com/SDL.git", "release-3.2.0", dir); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	want := []string{
		"git init",
		"git fetch --tags --force https://example.com/SDL.git release-3.2.0",
		"git checkout FETCH_HEAD",
	}
	if got := rec.Lines(); strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("commands =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("dir not created: %v", err)
	}
}

func TestSyncExistingRepoSkipsInit(t *testing.T) {
	rec := &shelltest.Recorder{}
	dir := t.TempDir()
	os.Mkdir(filepath.Join(dir, ".git"), 0o755)

	if err := NewGit(rec).Sync(context.Background(), "r", "main", dir); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if rec.Lines()[0] == "git init" {
		t.Error("Sync re-initialized an existing repository")
	}
}

// gitIn returns a helper running git in dir with a fixed identity.
func gitIn(t *testing.T, dir string) func(args ...string) {
	return func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=t", "GIT_AUTHOR_EMAIL=t@example.com",
			"GIT_COMMITTER_NAME=t", "GIT_COMMITTER_EMAIL=t@example.com")
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
}

func TestSyncShallowRepoUnshallows(t *testing.T) {
	rec := &shelltest.Recorder{}
	dir := t.TempDir()
	os.Mkdir(filepath.Join(dir, ".git"), 0o755)
	os.WriteFile(filepath.Join(dir, ".git", "shallow"), []byte("abc\n"), 0o644)

	if err := NewGit(rec).Sync(context.Background(), "r", "main", dir); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if got := rec.Lines()[0]; got != "git fetch --tags --force --unshallow r main" {
		t.Errorf("fetch = %q", got)
	}
}

func TestSyncThenDescribeE2E(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH")
	}
	upstream := t.TempDir()
	run := gitIn(t, upstream)
	run("init", "-q", "-b", "main")
	run("commit", "-q", "--allow-empty", "-m", "one")
	run("tag", "release-3.2.0")
	run("commit", "-q", "--allow-empty", "-m", "two")
	run("commit", "-q", "--allow-empty", "-m", "three")

	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "SDL")
	g := NewGit(&shell.Exec{})
	if err := g.Sync(ctx, upstream, "main", dir); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	got, err := g.Describe(ctx, dir)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if !strings.HasPrefix(got, "release-3.2.0-2-g") {
		t.Errorf("Describe = %q, want release-3.2.0-2-g...", got)
	}
	v, err := version.FromDescribe(got)
	if err != nil || v != "3.2.0-preview.2" {
		t.Errorf("FromDescribe(%q) = %q, %v", got, v, err)
	}
}

func TestDescribeE2E(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH")
	}
	dir := t.TempDir()
	ctx := context.Background()
	run := gitIn(t, dir)
	run("init", "-q")
	run("commit", "-q", "--allow-empty", "-m", "one")
	run("tag", "v0.3.0")
	run("commit", "-q", "--allow-empty", "-m", "two")

	g := NewGit(&shell.Exec{})
	got, err := g.Describe(ctx, dir)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if !strings.HasPrefix(got, "v0.3.0-1-g") {
		t.Errorf("Describe = %q, want v0.3.0-1-g...", got)
	}
	head, err := g.Head(ctx, dir)
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if len(head) != 40 {
		t.Errorf("Head = %q, want 40-char hash", head)
	}
}
