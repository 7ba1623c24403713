// Package env defines where sources, build trees and packages live.
//
// Directory layout, relative to the project root:
//
//	sources/<lib>/                      # library source tree
//	artifacts/build/<lib>/<rid>/        # cmake build tree
//	artifacts/install/<lib>/<rid>/      # cmake install prefix
//	artifacts/staging/<package-id>/     # package contents before archiving
//	artifacts/pkg/                      # finished packages
package env

import (
	"os"
	"path/filepath"
)

// Layout derives every path from the project root and library name.
// It holds no other state.
type Layout struct {
	Root    string
	Library string
}

// New returns a Layout rooted at root.
func New(root, library string) Layout {
	return Layout{Root: filepath.Clean(root), Library: library}
}

func (l Layout) SourceDir() string {
	return filepath.Join(l.Root, "sources", l.Library)
}

// HeaderDir is the public include directory of the source tree.
func (l Layout) HeaderDir() string {
	return filepath.Join(l.SourceDir(), "include")
}

func (l Layout) BuildDir(rid string) string {
	return filepath.Join(l.artifacts(), "build", l.Library, rid)
}

func (l Layout) InstallDir(rid string) string {
	return filepath.Join(l.artifacts(), "install", l.Library, rid)
}

func (l Layout) PackageDir() string {
	return filepath.Join(l.artifacts(), "pkg")
}

func (l Layout) StagingDir(packageID string) string {
	return filepath.Join(l.artifacts(), "staging", packageID)
}

func (l Layout) artifacts() string {
	return filepath.Join(l.Root, "artifacts")
}

// FindRoot walks up from dir to the first directory containing a "sources"
// directory. It returns dir itself when none is found.
func FindRoot(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for d := abs; ; {
		if fi, err := os.Stat(filepath.Join(d, "sources")); err == nil && fi.IsDir() {
			return d, nil
		}
		parent := filepath.Dir(d)
		if parent == d {
			return abs, nil
		}
		d = parent
	}
}
