// Package version derives the package version from repository history.
package version

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
)

var ErrInvalid = errors.New("invalid version")

// describeRegexp matches "git describe --long" output such as
// "v3.2.0-4-gabc1234" or "release-3.2.0-0-gabc1234".
var describeRegexp = regexp.MustCompile(`^(?:v|release-)?(\d+\.\d+\.\d+)-(\d+)-g([0-9a-f]+)$`)

// FromDescribe turns git describe output into a package version. A commit
// exactly on a tag yields the tag version; commits after it yield a
// prerelease "X.Y.Z-preview.N".
func FromDescribe(describe string) (string, error) {
	m := describeRegexp.FindStringSubmatch(strings.TrimSpace(describe))
	if m == nil {
		return "", fmt.Errorf("%w: git describe output %q has no version tag", ErrInvalid, describe)
	}
	v := m[1]
	if m[2] != "0" {
		v += "-preview." + m[2]
	}
	return v, Validate(v)
}

// Validate checks that v is a semantic version without a "v" prefix.
func Validate(v string) error {
	if strings.HasPrefix(v, "v") || !semver.IsValid("v"+v) {
		return fmt.Errorf("%w: %q", ErrInvalid, v)
	}
	// Shorthand forms and build metadata would break exact version ranges.
	if semver.Canonical("v"+v) != "v"+v {
		return fmt.Errorf("%w: %q is not in MAJOR.MINOR.PATCH[-PRERELEASE] form", ErrInvalid, v)
	}
	return nil
}

// Describer reports git describe output for a directory.
type Describer interface {
	Describe(ctx context.Context, dir string) (string, error)
}

// Resolve returns override when set, otherwise the version described by the
// repository at dir.
func Resolve(ctx context.Context, d Describer, dir, override string) (string, error) {
	if override != "" {
		return override, Validate(override)
	}
	out, err := d.Describe(ctx, dir)
	if err != nil {
		return "", fmt.Errorf("derive version: %w", err)
	}
	return FromDescribe(out)
}
