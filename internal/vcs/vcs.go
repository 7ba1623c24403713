package vcs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goplus/sdlpack/internal/shell"
)

// Git runs git through a shell.Runner.
type Git struct {
	runner shell.Runner
	git    string
}

// GitOption configures Git.
type GitOption func(*Git)

// WithGitPath sets a custom git executable path.
func WithGitPath(path string) GitOption {
	return func(g *Git) {
		g.git = path
	}
}

// NewGit creates a Git bound to runner.
func NewGit(runner shell.Runner, opts ...GitOption) *Git {
	g := &Git{runner: runner, git: "git"}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Sync ensures dir holds remote at ref. ref can be a branch, tag or commit.
// A missing repository is initialized first, then ref is fetched with its
// history and the remote tags so Describe can find the release tag.
func (g *Git) Sync(ctx context.Context, remote, ref, dir string) error {
	if err := g.ensureInit(ctx, dir); err != nil {
		return err
	}
	args := []string{"fetch", "--tags", "--force"}
	if _, err := os.Stat(filepath.Join(dir, ".git", "shallow")); err == nil {
		args = append(args, "--unshallow")
	}
	if err := g.run(ctx, dir, append(args, remote, ref)...); err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	if err := g.run(ctx, dir, "checkout", "FETCH_HEAD"); err != nil {
		return fmt.Errorf("checkout %s: %w", ref, err)
	}
	return nil
}

// Describe returns "git describe --tags --long --always" for dir.
func (g *Git) Describe(ctx context.Context, dir string) (string, error) {
	out, err := g.output(ctx, dir, "describe", "--tags", "--long", "--always")
	if err != nil {
		return "", fmt.Errorf("describe: %w", err)
	}
	return out, nil
}

// Head returns the full commit hash checked out in dir.
func (g *Git) Head(ctx context.Context, dir string) (string, error) {
	out, err := g.output(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("rev-parse: %w", err)
	}
	return out, nil
}

func (g *Git) ensureInit(ctx context.Context, dir string) error {
	if _, err := os.Stat(filepath.Join(dir, ".git")); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		return g.run(ctx, dir, "init")
	}
	return nil
}

func (g *Git) run(ctx context.Context, dir string, args ...string) error {
	return g.runner.Run(ctx, shell.Command(g.git, args...).InDir(dir))
}

func (g *Git) output(ctx context.Context, dir string, args ...string) (string, error) {
	out, err := g.runner.Output(ctx, shell.Command(g.git, args...).InDir(dir))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
