// Package build runs the compile and packaging pipeline for one platform.
package build

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goplus/sdlpack/internal/config"
	"github.com/goplus/sdlpack/internal/deps"
	"github.com/goplus/sdlpack/internal/env"
	"github.com/goplus/sdlpack/internal/platform"
	"github.com/goplus/sdlpack/internal/shell"
	"github.com/goplus/sdlpack/x/cmake"
	"github.com/qiniu/x/log"
)

// Stage is one step of the pipeline.
type Stage string

const (
	StageSource      Stage = "source"
	StageDeps        Stage = "deps"
	StageConfigure   Stage = "configure"
	StageCompile     Stage = "compile"
	StageTest        Stage = "test"
	StageInstall     Stage = "install"
	StagePackRuntime Stage = "pack-runtime"
	StagePackDevel   Stage = "pack-devel"
	StagePackMeta    Stage = "pack-meta"
)

// Stage lists in execution order.
var (
	CompileStages = []Stage{StageSource, StageDeps, StageConfigure, StageCompile, StageTest, StageInstall}
	PackStages    = []Stage{StagePackRuntime, StagePackDevel}
	AllStages     = append(append(append([]Stage(nil), CompileStages...), PackStages...), StagePackMeta)
)

// MinCMakeVersion is the oldest cmake SDL3 configures with.
const MinCMakeVersion = "v3.16"

var (
	ErrNoPlatformFlag = errors.New("no generator platform for architecture")
	ErrNoPackager     = errors.New("packaging stage without packager")
)

// StageError reports the stage that stopped the pipeline.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("stage %s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// Packager assembles packages once the install tree exists.
type Packager interface {
	Runtime(ctx context.Context, p platform.Platform) (string, error)
	Devel(ctx context.Context, p platform.Platform) (string, error)
	Meta(ctx context.Context) (string, error)
}

// Syncer fetches a source tree.
type Syncer interface {
	Sync(ctx context.Context, remote, ref, dir string) error
}

// DepsInstaller installs system build prerequisites.
type DepsInstaller interface {
	Install(ctx context.Context, p platform.Platform) error
}

type Options struct {
	Config   *config.Config
	Layout   env.Layout
	Platform platform.Platform
	Runner   shell.Runner
	Packager Packager      // required by packaging stages unless NewPackager is set
	Git      Syncer        // optional; fetches a missing source tree
	Deps     DepsInstaller // defaults to deps.NewInstaller(Runner)

	// NewPackager creates the packager on the first packaging stage, after
	// the source stage has run.
	NewPackager func(ctx context.Context) (Packager, error)
}

// Builder drives the stages for a single platform.
type Builder struct {
	cfg         *config.Config
	layout      env.Layout
	platform    platform.Platform
	packager    Packager
	newPackager func(ctx context.Context) (Packager, error)
	git         Syncer
	deps        DepsInstaller
	cmake       *cmake.CMake
}

// generators per operating system.
var generators = map[string]string{
	platform.Linux:   "Ninja",
	platform.Windows: "Visual Studio 17 2022",
}

// platformFlags maps architectures to the Visual Studio -A value. Its keys
// match the Windows arches platform.Resolve accepts, so ErrNoPlatformFlag
// only fires for platforms built by hand.
var platformFlags = map[string]string{
	"x64": "x64",
	"x86": "Win32",
}

// installDirs pins the install layout the packagers glob against.
var installDirs = map[string]map[string]string{
	platform.Linux: {
		"CMAKE_INSTALL_BINDIR":     "bin",
		"CMAKE_INSTALL_LIBDIR":     "lib",
		"CMAKE_INSTALL_INCLUDEDIR": "include",
	},
	platform.Windows: {
		"CMAKE_INSTALL_BINDIR":      "bin",
		"CMAKE_INSTALL_LIBDIR":      "lib",
		"CMAKE_INSTALL_INCLUDEDIR":  "include",
		"SDL_INSTALL_CMAKEDIR_ROOT": "cmake",
	},
}

// NewBuilder validates the target and prepares the cmake invocation.
// Architectures without a generator platform fail here, before any process
// runs.
func NewBuilder(opts Options) (*Builder, error) {
	b := &Builder{
		cfg:         opts.Config,
		layout:      opts.Layout,
		platform:    opts.Platform,
		packager:    opts.Packager,
		newPackager: opts.NewPackager,
		git:         opts.Git,
		deps:        opts.Deps,
	}
	if b.deps == nil {
		b.deps = deps.NewInstaller(opts.Runner)
	}
	c, err := b.newCMake(opts.Runner)
	if err != nil {
		return nil, err
	}
	b.cmake = c
	return b, nil
}

func (b *Builder) newCMake(runner shell.Runner) (*cmake.CMake, error) {
	p := b.platform
	rid := p.RID()
	c := cmake.New(runner, b.layout.SourceDir(), b.layout.BuildDir(rid), b.layout.InstallDir(rid))
	c.Generator(generators[p.OS])
	if p.IsWindows() {
		flag, ok := platformFlags[p.Arch]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoPlatformFlag, p.Arch)
		}
		c.Platform(flag)
	}
	c.BuildType(b.cfg.Configuration)
	c.DefineBool("SDL_TESTS", true)
	c.DefineBool("SDL_WERROR", true)
	c.DefineBool("SDL_SHARED", true)
	c.DefineBool("SDL_STATIC", true)
	c.Define("SDL_VENDOR_INFO", b.cfg.Vendor)

	for k, v := range installDirs[p.OS] {
		c.Define(k, v)
	}
	return c, nil
}

// Run executes stages in order and stops at the first failure.
func (b *Builder) Run(ctx context.Context, stages ...Stage) error {
	rid := b.platform.RID()
	for _, s := range stages {
		if reason, skip := b.skip(s); skip {
			log.Infof("==> %s [%s] skipped: %s", s, rid, reason)
			continue
		}
		log.Infof("==> %s [%s]", s, rid)
		if err := b.runStage(ctx, s); err != nil {
			return &StageError{Stage: s, Err: err}
		}
	}
	return nil
}

func (b *Builder) skip(s Stage) (reason string, skip bool) {
	switch s {
	case StageDeps:
		if b.platform.OS != platform.Linux {
			return "system packages are only installed on linux", true
		}
	case StageTest:
		if b.platform.OS == platform.Linux {
			return "tests run on windows only", true
		}
	}
	return "", false
}

func (b *Builder) runStage(ctx context.Context, s Stage) error {
	switch s {
	case StageSource:
		return b.ensureSource(ctx)
	case StageDeps:
		return b.deps.Install(ctx, b.platform)
	case StageConfigure:
		if err := b.cmake.Require(ctx, MinCMakeVersion); err != nil {
			return err
		}
		return b.cmake.Configure(ctx)
	case StageCompile:
		return b.cmake.Build(ctx)
	case StageTest:
		return b.cmake.Test(ctx)
	case StageInstall:
		if err := os.RemoveAll(b.cmake.OutputDir()); err != nil {
			return err
		}
		return b.cmake.Install(ctx)
	case StagePackRuntime, StagePackDevel, StagePackMeta:
		return b.pack(ctx, s)
	}
	return fmt.Errorf("unknown stage %q", s)
}

func (b *Builder) pack(ctx context.Context, s Stage) error {
	if b.packager == nil && b.newPackager != nil {
		p, err := b.newPackager(ctx)
		if err != nil {
			return err
		}
		b.packager = p
	}
	if b.packager == nil {
		return ErrNoPackager
	}
	var err error
	switch s {
	case StagePackRuntime:
		_, err = b.packager.Runtime(ctx, b.platform)
	case StagePackDevel:
		_, err = b.packager.Devel(ctx, b.platform)
	default:
		_, err = b.packager.Meta(ctx)
	}
	return err
}

// ensureSource checks for the source tree and fetches it when a source
// repository is configured.
func (b *Builder) ensureSource(ctx context.Context) error {
	dir := b.layout.SourceDir()
	marker := filepath.Join(dir, "CMakeLists.txt")
	if _, err := os.Stat(marker); err == nil {
		return nil
	}
	if b.cfg.SourceRepo == "" || b.git == nil {
		return fmt.Errorf("source tree %s: %w", marker, fs.ErrNotExist)
	}
	ref := b.cfg.SourceRef
	if ref == "" {
		ref = "main"
	}
	log.Infof("fetching %s@%s into %s", b.cfg.SourceRepo, ref, dir)
	if err := b.git.Sync(ctx, b.cfg.SourceRepo, ref, dir); err != nil {
		return err
	}
	if _, err := os.Stat(marker); err != nil {
		return fmt.Errorf("source tree after fetch: %w", err)
	}
	return nil
}
