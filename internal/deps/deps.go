// Package deps installs the native packages needed to compile SDL.
package deps

import (
	"context"
	"fmt"

	"github.com/goplus/sdlpack/internal/platform"
	"github.com/goplus/sdlpack/internal/shell"
	"github.com/qiniu/x/log"
)

// packages lists the apt packages per operating system. Windows builds rely
// on a preinstalled Visual Studio and need nothing here.
var packages = map[string][]string{
	platform.Linux: {
		"build-essential",
		"git",
		"make",
		"pkg-config",
		"cmake",
		"ninja-build",
		"gnome-desktop-testing",
		"libasound2-dev",
		"libpulse-dev",
		"libaudio-dev",
		"libjack-dev",
		"libsndio-dev",
		"libx11-dev",
		"libxext-dev",
		"libxrandr-dev",
		"libxcursor-dev",
		"libxfixes-dev",
		"libxi-dev",
		"libxss-dev",
		"libxkbcommon-dev",
		"libdrm-dev",
		"libgbm-dev",
		"libgl1-mesa-dev",
		"libgles2-mesa-dev",
		"libegl1-mesa-dev",
		"libdbus-1-dev",
		"libibus-1.0-dev",
		"libudev-dev",
		"fcitx-libs-dev",
		"libpipewire-0.3-dev",
		"libwayland-dev",
		"libdecor-0-dev",
		"mono-devel",
	},
}

// Packages returns a copy of the package list for goos.
func Packages(goos string) []string {
	return append([]string(nil), packages[goos]...)
}

// Installer runs the system package manager.
type Installer struct {
	runner  shell.Runner
	elevate bool
}

// NewInstaller returns an Installer that prefixes commands with sudo unless
// the process already runs as root.
func NewInstaller(runner shell.Runner) *Installer {
	return &Installer{runner: runner, elevate: needsElevation()}
}

// Install installs every package listed for p.OS. It is a no-op for
// operating systems without a list.
func (i *Installer) Install(ctx context.Context, p platform.Platform) error {
	pkgs := Packages(p.OS)
	if len(pkgs) == 0 {
		log.Infof("no system packages to install on %s", p.OS)
		return nil
	}
	if err := i.runner.Run(ctx, i.command("apt-get", "update")); err != nil {
		return fmt.Errorf("apt-get update: %w", err)
	}
	cmd := i.command("apt-get", "-y", "install").Arg(pkgs...)
	if err := i.runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("apt-get install: %w", err)
	}
	return nil
}

func (i *Installer) command(name string, args ...string) *shell.Cmd {
	if i.elevate {
		return shell.Command("sudo", name).Arg(args...)
	}
	return shell.Command(name, args...)
}
