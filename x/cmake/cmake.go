// Package cmake wraps the cmake configure/build/test/install workflow.
package cmake

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/goplus/sdlpack/internal/shell"
	"golang.org/x/mod/semver"
)

type defineValue struct {
	value    string
	typeName string
}

// CMake drives CMake-based builds.
type CMake struct {
	runner     shell.Runner
	sourceDir  string
	buildDir   string
	installDir string
	generator  string
	platform   string
	buildType  string
	toolchain  string
	defines    map[string]defineValue
}

// New returns a ready-to-use CMake.
func New(runner shell.Runner, sourceDir, buildDir, installDir string) *CMake {
	return &CMake{
		runner:     runner,
		sourceDir:  sourceDir,
		buildDir:   buildDir,
		installDir: installDir,
		defines:    make(map[string]defineValue),
	}
}

// Generator sets the CMake generator (e.g. "Ninja", "Visual Studio 17 2022").
func (c *CMake) Generator(name string) { c.generator = name }

// Platform sets the generator platform passed with -A (e.g. "x64", "Win32").
func (c *CMake) Platform(name string) { c.platform = name }

// BuildType sets CMAKE_BUILD_TYPE and the --config of multi-config generators.
func (c *CMake) BuildType(name string) { c.buildType = name }

// Toolchain sets CMAKE_TOOLCHAIN_FILE.
func (c *CMake) Toolchain(path string) { c.toolchain = path }

// Define adds a -D<key>:STRING=<value> definition.
func (c *CMake) Define(key, value string) {
	c.defines[key] = defineValue{value: value, typeName: "STRING"}
}

// DefineBool adds a -D<key>:BOOL=ON/OFF definition.
func (c *CMake) DefineBool(key string, value bool) {
	v := "OFF"
	if value {
		v = "ON"
	}
	c.defines[key] = defineValue{value: v, typeName: "BOOL"}
}

// ConfigureCmd returns the "cmake -S <source> -B <build>" invocation with all
// configured options. Extra args are appended at the end.
func (c *CMake) ConfigureCmd(args ...string) *shell.Cmd {
	if c.installDir != "" {
		c.Define("CMAKE_INSTALL_PREFIX", c.installDir)
	}
	if c.toolchain != "" {
		c.Define("CMAKE_TOOLCHAIN_FILE", c.toolchain)
	}
	if c.buildType != "" {
		c.Define("CMAKE_BUILD_TYPE", c.buildType)
	}
	return shell.Command("cmake", "-S", c.sourceDir, "-B", c.buildDir).
		ArgIf(c.generator != "", "-G", c.generator).
		ArgIf(c.platform != "", "-A", c.platform).
		Arg(c.definesArgs()...).
		Arg(args...)
}

// Configure generates the build tree.
func (c *CMake) Configure(ctx context.Context, args ...string) error {
	return c.runner.Run(ctx, c.ConfigureCmd(args...))
}

// Build runs "cmake --build <build> --parallel".
func (c *CMake) Build(ctx context.Context, args ...string) error {
	cmd := shell.Command("cmake", "--build", c.buildDir).
		ArgIf(c.buildType != "", "--config", c.buildType).
		Arg("--parallel").
		Arg(args...)
	return c.runner.Run(ctx, cmd)
}

// Test runs ctest against the build tree.
func (c *CMake) Test(ctx context.Context, args ...string) error {
	cmd := shell.Command("ctest", "--test-dir", c.buildDir).
		ArgIf(c.buildType != "", "-C", c.buildType).
		Arg("--output-on-failure").
		Arg(args...)
	return c.runner.Run(ctx, cmd)
}

// Install runs "cmake --install <build>" into the install directory.
func (c *CMake) Install(ctx context.Context, args ...string) error {
	cmd := shell.Command("cmake", "--install", c.buildDir).
		ArgIf(c.buildType != "", "--config", c.buildType).
		ArgIf(c.installDir != "", "--prefix", c.installDir).
		Arg(args...)
	return c.runner.Run(ctx, cmd)
}

// OutputDir returns installDir if set, otherwise buildDir.
func (c *CMake) OutputDir() string {
	if c.installDir != "" {
		return c.installDir
	}
	return c.buildDir
}

var versionRegexp = regexp.MustCompile(`cmake version (\d+\.\d+(?:\.\d+)?)`)

// Version returns the semantic version of the cmake on PATH, e.g. "v3.28.3".
func (c *CMake) Version(ctx context.Context) (string, error) {
	out, err := c.runner.Output(ctx, shell.Command("cmake", "--version"))
	if err != nil {
		return "", err
	}
	m := versionRegexp.FindStringSubmatch(string(out))
	if m == nil {
		return "", fmt.Errorf("cmake: unrecognized version output %q", strings.TrimSpace(string(out)))
	}
	return semver.Canonical("v" + m[1]), nil
}

// Require fails unless the cmake on PATH is at least min (e.g. "v3.16").
func (c *CMake) Require(ctx context.Context, min string) error {
	v, err := c.Version(ctx)
	if err != nil {
		return err
	}
	if semver.Compare(v, min) < 0 {
		return fmt.Errorf("cmake %s is older than required %s", v, min)
	}
	return nil
}

func (c *CMake) definesArgs() []string {
	if len(c.defines) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.defines))
	for k := range c.defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		d := c.defines[k]
		args = append(args, "-D"+k+":"+d.typeName+"="+d.value)
	}
	return args
}
