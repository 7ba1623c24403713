package internal

import (
	"github.com/goplus/sdlpack/internal/build"
	"github.com/spf13/cobra"
)

var stageArch string

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Compile and produce every package",
	Long: `All installs dependencies, configures, compiles, tests, installs and
packs the runtime, development and meta packages for one architecture.`,
	Args: cobra.NoArgs,
	RunE: stagesRunner(build.AllStages, true),
}

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile, test and install SDL3",
	Args:  cobra.NoArgs,
	RunE:  stagesRunner(build.CompileStages, false),
}

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Pack the runtime and development packages from an install tree",
	Args:  cobra.NoArgs,
	RunE:  stagesRunner(build.PackStages, true),
}

func init() {
	for _, c := range []*cobra.Command{allCmd, compileCmd, packCmd} {
		c.Flags().StringVarP(&stageArch, "arch", "a", "", "Target architecture: x64, x86 or arm64 (default: host)")
		rootCmd.AddCommand(c)
	}
}

func stagesRunner(stages []build.Stage, withPackager bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		b, err := s.builder(stageArch, withPackager)
		if err != nil {
			return err
		}
		return b.Run(ctx, stages...)
	}
}
