package internal

import (
	"context"

	"github.com/goplus/sdlpack/internal/build"
	"github.com/goplus/sdlpack/internal/config"
	"github.com/goplus/sdlpack/internal/env"
	"github.com/goplus/sdlpack/internal/pack"
	"github.com/goplus/sdlpack/internal/platform"
	"github.com/goplus/sdlpack/internal/shell"
	"github.com/goplus/sdlpack/internal/vcs"
	"github.com/goplus/sdlpack/internal/version"
	"github.com/qiniu/x/log"
)

// session holds what every command resolves before doing work.
type session struct {
	cfg    *config.Config
	layout env.Layout
	runner shell.Runner
	git    *vcs.Git
}

func newSession() (*session, error) {
	root := rootDir
	if root == "" {
		root = "."
	}
	root, err := env.FindRoot(root)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	runner := shell.NewExec()
	return &session{
		cfg:    cfg,
		layout: env.New(cfg.Root, cfg.Library),
		runner: runner,
		git:    vcs.NewGit(runner),
	}, nil
}

// applyFlags overrides configuration with the flags given on the command
// line.
func applyFlags(cfg *config.Config) {
	if configuration != "" {
		cfg.Configuration = configuration
	}
	if versionFlag != "" {
		cfg.Version = versionFlag
	}
	if archiver != "" {
		cfg.Archiver = archiver
	}
}

func (s *session) version(ctx context.Context) (string, error) {
	return version.Resolve(ctx, s.git, s.layout.SourceDir(), s.cfg.Version)
}

// assembler returns the packager for the resolved version.
func (s *session) assembler(ctx context.Context) (*pack.Assembler, error) {
	ver, err := s.version(ctx)
	if err != nil {
		return nil, err
	}
	commit, err := s.git.Head(ctx, s.layout.SourceDir())
	if err != nil {
		log.Debugf("no source commit recorded: %v", err)
	}
	log.Infof("%s %s (%s)", s.cfg.Project, ver, s.cfg.Configuration)
	return pack.New(pack.Options{
		Config:   s.cfg,
		Layout:   s.layout,
		Version:  ver,
		Commit:   commit,
		Archiver: pack.NewArchiver(s.cfg.Archiver, s.runner),
	}), nil
}

// builder returns a pipeline for arch on the host OS. With withPackager set,
// the packager is created when the first packaging stage runs, so the version
// is derived from a source tree the source stage may have just fetched.
func (s *session) builder(arch string, withPackager bool) (*build.Builder, error) {
	p, err := platform.Host(arch)
	if err != nil {
		return nil, err
	}
	opts := build.Options{
		Config:   s.cfg,
		Layout:   s.layout,
		Platform: p,
		Runner:   s.runner,
		Git:      s.git,
	}
	if withPackager {
		opts.NewPackager = func(ctx context.Context) (build.Packager, error) {
			a, err := s.assembler(ctx)
			if err != nil {
				return nil, err
			}
			return a, nil
		}
	}
	return build.NewBuilder(opts)
}
