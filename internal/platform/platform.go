// Package platform maps an operating system and architecture to a runtime
// identifier (RID) such as "linux-x64".
package platform

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"
)

// Supported operating systems, spelled as runtime.GOOS.
const (
	Linux   = "linux"
	Windows = "windows"
)

var (
	ErrUnsupportedOS   = errors.New("unsupported operating system")
	ErrUnsupportedArch = errors.New("unsupported architecture")
	ErrMissingArch     = errors.New("architecture is required")
)

// rid prefix and accepted architectures per operating system.
var targets = map[string]struct {
	prefix string
	arches []string
}{
	Linux:   {prefix: "linux", arches: []string{"x64", "arm64"}},
	Windows: {prefix: "win", arches: []string{"x64", "x86"}},
}

// Platform is a resolved build target.
type Platform struct {
	OS   string
	Arch string
}

// RID returns the runtime identifier, e.g. "win-x64".
func (p Platform) RID() string {
	return targets[p.OS].prefix + "-" + p.Arch
}

func (p Platform) String() string { return p.RID() }

// IsWindows reports whether p targets Windows.
func (p Platform) IsWindows() bool { return p.OS == Windows }

// Resolve validates goos and arch. Unknown combinations are fatal; there is
// no fallback.
func Resolve(goos, arch string) (Platform, error) {
	t, ok := targets[goos]
	if !ok {
		return Platform{}, fmt.Errorf("%w: %s", ErrUnsupportedOS, goos)
	}
	arch = strings.ToLower(strings.TrimSpace(arch))
	if arch == "" {
		return Platform{}, ErrMissingArch
	}
	if !slices.Contains(t.arches, arch) {
		return Platform{}, fmt.Errorf("%w: %s on %s (want one of %s)",
			ErrUnsupportedArch, arch, goos, strings.Join(t.arches, ", "))
	}
	return Platform{OS: goos, Arch: arch}, nil
}

// Host resolves arch against the running operating system. An empty arch
// falls back to the host CPU.
func Host(arch string) (Platform, error) {
	if arch == "" {
		arch = HostArch()
	}
	return Resolve(runtime.GOOS, arch)
}

// HostArch translates runtime.GOARCH to the RID spelling, or "" when the host
// CPU has no RID spelling.
func HostArch() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x64"
	case "386":
		return "x86"
	case "arm64":
		return "arm64"
	}
	return ""
}

// ParseRID is the inverse of Platform.RID.
func ParseRID(rid string) (Platform, error) {
	prefix, arch, ok := strings.Cut(rid, "-")
	if !ok {
		return Platform{}, fmt.Errorf("%w: malformed runtime identifier %q", ErrUnsupportedArch, rid)
	}
	for goos, t := range targets {
		if t.prefix == prefix {
			return Resolve(goos, arch)
		}
	}
	return Platform{}, fmt.Errorf("%w: %s", ErrUnsupportedOS, prefix)
}

// KnownRIDs lists every RID this tool can produce, sorted.
func KnownRIDs() []string {
	var rids []string
	for goos, t := range targets {
		for _, a := range t.arches {
			rids = append(rids, Platform{OS: goos, Arch: a}.RID())
		}
	}
	slices.Sort(rids)
	return rids
}
