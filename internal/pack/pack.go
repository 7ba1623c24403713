// Package pack assembles staging directories and turns them into NuGet
// packages.
package pack

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goplus/sdlpack/internal/config"
	"github.com/goplus/sdlpack/internal/env"
	"github.com/goplus/sdlpack/internal/nuget"
	"github.com/goplus/sdlpack/internal/platform"
	"github.com/qiniu/x/log"
)

// Flavor names one of the three package kinds.
type Flavor string

const (
	Runtime Flavor = "runtime"
	Devel   Flavor = "devel"
	Meta    Flavor = "meta"
)

var ErrNoRuntimePackages = errors.New("no runtime packages found")

type Options struct {
	Config   *config.Config
	Layout   env.Layout
	Version  string
	Commit   string // recorded in the repository element when set
	Archiver Archiver
}

// Assembler builds packages of every flavor.
type Assembler struct {
	cfg      *config.Config
	layout   env.Layout
	version  string
	commit   string
	archiver Archiver
}

func New(opts Options) *Assembler {
	return &Assembler{
		cfg:      opts.Config,
		layout:   opts.Layout,
		version:  opts.Version,
		commit:   opts.Commit,
		archiver: opts.Archiver,
	}
}

// PackageID returns the id of the flavor package for p. p is ignored for
// the meta package.
func (a *Assembler) PackageID(f Flavor, p platform.Platform) string {
	switch f {
	case Runtime:
		return nuget.RuntimeID(a.cfg.Project, p.RID())
	case Devel:
		return nuget.DevelID(a.cfg.Project, p.RID())
	}
	return a.cfg.Project
}

// Manifest returns the package manifest of flavor f for p.
func (a *Assembler) Manifest(f Flavor, p platform.Platform) *nuget.Manifest {
	m := nuget.NewManifest(a.PackageID(f, p), a.version)
	md := &m.Metadata
	md.Authors = a.cfg.Authors
	md.License.Expression = a.cfg.License
	md.ProjectURL = a.cfg.ProjectURL
	md.Copyright = a.cfg.Copyright
	switch f {
	case Runtime:
		md.Description = fmt.Sprintf("%s native runtime for %s. %s", a.cfg.Project, p.RID(), a.cfg.Description)
	case Devel:
		md.Description = fmt.Sprintf("%s headers and import libraries for %s. %s", a.cfg.Project, p.RID(), a.cfg.Description)
	default:
		md.Description = a.cfg.Description
		m.AddGroup(a.cfg.TargetFramework)
	}
	m.SetRepository(a.cfg.RepositoryURL, a.commit)
	return m
}

// Runtime packages the shared libraries installed for p.
func (a *Assembler) Runtime(ctx context.Context, p platform.Platform) (string, error) {
	return a.assemble(ctx, a.Manifest(Runtime, p), func(stage string) error {
		pattern := sharedLibraryGlob(a.layout.InstallDir(p.RID()), a.cfg.Project, p)
		dest := filepath.Join(stage, "runtimes", p.RID(), "native")
		return copyGlob(pattern, dest)
	})
}

// Devel packages the whole install tree for p.
func (a *Assembler) Devel(ctx context.Context, p platform.Platform) (string, error) {
	return a.assemble(ctx, a.Manifest(Devel, p), func(stage string) error {
		return copyTree(a.layout.InstallDir(p.RID()), filepath.Join(stage, "build", "native", p.RID()))
	})
}

// Meta packages the public headers together with a runtime graph pointing
// at every runtime package already built for the current version.
func (a *Assembler) Meta(ctx context.Context) (string, error) {
	pkgs, err := nuget.DiscoverRuntimePackages(a.layout.PackageDir(), a.cfg.Project, a.version)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	if len(pkgs) == 0 {
		return "", fmt.Errorf("%w: %s %s in %s", ErrNoRuntimePackages, a.cfg.Project, a.version, a.layout.PackageDir())
	}
	graph := nuget.BuildRuntimeGraph(a.cfg.Project, a.version, pkgs)
	log.Infof("runtime graph: %v", graph.RIDs())

	return a.assemble(ctx, a.Manifest(Meta, platform.Platform{}), func(stage string) error {
		if err := copyTree(a.layout.HeaderDir(), filepath.Join(stage, "include")); err != nil {
			return err
		}
		// Marks the package compatible with the target framework without
		// shipping managed code.
		placeholder := filepath.Join(stage, "lib", a.cfg.TargetFramework, "_._")
		if err := os.MkdirAll(filepath.Dir(placeholder), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(placeholder, nil, 0o644); err != nil {
			return err
		}
		return graph.WriteFile(filepath.Join(stage, nuget.RuntimeGraphFile))
	})
}

// assemble resets the staging directory, copies docs and payload, writes
// the manifest and archives the result.
func (a *Assembler) assemble(ctx context.Context, m *nuget.Manifest, payload func(stage string) error) (string, error) {
	id := m.Metadata.ID
	log.Infof("packing %s %s", id, m.Metadata.Version)

	stage := a.layout.StagingDir(id)
	if err := resetDir(stage); err != nil {
		return "", err
	}
	for _, doc := range a.cfg.Docs {
		if err := copyFile(filepath.Join(a.layout.SourceDir(), doc), filepath.Join(stage, doc)); err != nil {
			return "", fmt.Errorf("%s: %w", id, err)
		}
	}
	if err := payload(stage); err != nil {
		return "", fmt.Errorf("%s: %w", id, err)
	}
	nuspec := filepath.Join(stage, id+".nuspec")
	if err := m.WriteFile(nuspec); err != nil {
		return "", err
	}

	outDir := a.layout.PackageDir()
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	out, err := a.archiver.Pack(ctx, Job{Manifest: m, Nuspec: nuspec, StageDir: stage, OutputDir: outDir})
	if err != nil {
		return "", fmt.Errorf("pack %s: %w", id, err)
	}
	sum, err := sha256File(out)
	if err != nil {
		return "", err
	}
	log.Infof("wrote %s (sha256 %s)", out, sum)
	return out, nil
}

// sharedLibraryGlob returns the pattern matching the shared libraries the
// install step produces for p.
func sharedLibraryGlob(installDir, name string, p platform.Platform) string {
	if p.IsWindows() {
		return filepath.Join(installDir, "bin", name+".dll")
	}
	return filepath.Join(installDir, "lib", "lib"+name+".so*")
}
