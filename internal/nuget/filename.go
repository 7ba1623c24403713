package nuget

import (
	"fmt"
	"os"
	"strings"

	"github.com/goplus/sdlpack/internal/platform"
	"github.com/goplus/sdlpack/internal/version"
	"github.com/qiniu/x/log"
)

// PackageExt is the extension of package archives.
const PackageExt = "nupkg"

// RuntimeID is the id of the runtime-only package for rid.
func RuntimeID(project, rid string) string {
	return project + ".runtime." + rid
}

// DevelID is the id of the development package for rid.
func DevelID(project, rid string) string {
	return project + ".devel." + rid
}

// FileName is the archive name NuGet writes for id at version ver.
func FileName(id, ver string) string {
	return id + "." + ver + "." + PackageExt
}

// PackageFile is a parsed runtime package file name following
// {project}.runtime.{rid}.{version}.{ext}.
type PackageFile struct {
	Name    string
	Project string
	RID     string
	Version string
	Ext     string
}

// FilenameError reports a file name that does not follow the runtime
// package grammar.
type FilenameError struct {
	Name   string
	Reason string
}

func (e *FilenameError) Error() string {
	return fmt.Sprintf("runtime package %q: %s", e.Name, e.Reason)
}

// ParseRuntimeFileName parses name against the runtime package grammar for
// project.
func ParseRuntimeFileName(project, name string) (PackageFile, error) {
	fail := func(format string, args ...any) (PackageFile, error) {
		return PackageFile{}, &FilenameError{Name: name, Reason: fmt.Sprintf(format, args...)}
	}
	prefix := project + ".runtime."
	rest, ok := strings.CutPrefix(name, prefix)
	if !ok {
		return fail("missing prefix %q", prefix)
	}
	i := strings.LastIndexByte(rest, '.')
	if i < 0 {
		return fail("missing extension")
	}
	rest, ext := rest[:i], rest[i+1:]
	if ext != PackageExt {
		return fail("extension %q, want %q", ext, PackageExt)
	}
	rid, ver, ok := strings.Cut(rest, ".")
	if !ok || rid == "" || ver == "" {
		return fail("want {rid}.{version} after prefix")
	}
	if _, err := platform.ParseRID(rid); err != nil {
		return fail("%v", err)
	}
	if err := version.Validate(ver); err != nil {
		return fail("%v", err)
	}
	return PackageFile{Name: name, Project: project, RID: rid, Version: ver, Ext: ext}, nil
}

// DiscoverRuntimePackages scans dir for runtime packages of project at
// version ver. Candidate files that fail to parse are errors; packages of
// other versions are left out.
func DiscoverRuntimePackages(dir, project, ver string) ([]PackageFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	prefix := project + ".runtime."
	var pkgs []PackageFile
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, "."+PackageExt) {
			continue
		}
		p, err := ParseRuntimeFileName(project, name)
		if err != nil {
			return nil, err
		}
		if p.Version != ver {
			log.Warnf("ignoring %s: version %s, building %s", name, p.Version, ver)
			continue
		}
		pkgs = append(pkgs, p)
	}
	return pkgs, nil
}
