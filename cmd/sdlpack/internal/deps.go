package internal

import (
	"runtime"

	"github.com/goplus/sdlpack/internal/deps"
	"github.com/goplus/sdlpack/internal/platform"
	"github.com/goplus/sdlpack/internal/shell"
	"github.com/spf13/cobra"
)

var installDepsCmd = &cobra.Command{
	Use:   "install-deps",
	Short: "Install the system packages needed to compile SDL3",
	Long:  `Install-deps runs apt-get on Linux and does nothing elsewhere.`,
	Args:  cobra.NoArgs,
	RunE:  runInstallDeps,
}

func init() {
	rootCmd.AddCommand(installDepsCmd)
}

func runInstallDeps(cmd *cobra.Command, args []string) error {
	return deps.NewInstaller(shell.NewExec()).Install(cmd.Context(), depsTarget())
}

// depsTarget is the host platform as far as system packages care: the list
// depends on the OS only, so hosts without a RID spelling still qualify.
func depsTarget() platform.Platform {
	return platform.Platform{OS: runtime.GOOS, Arch: platform.HostArch()}
}
