package internal

import (
	"context"
	"os"
	"os/signal"

	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"
)

// Persistent flags shared by every command.
var (
	rootDir       string
	configuration string
	versionFlag   string
	archiver      string
	verbose       bool
)

var rootCmd = &cobra.Command{
	Use:   "sdlpack",
	Short: "sdlpack builds SDL3 and packages it for NuGet",
	Long: `sdlpack compiles SDL3 from source with CMake and assembles runtime,
development and multi-platform NuGet packages from the install tree.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetOutputLevel(log.Ldebug)
		} else {
			log.SetOutputLevel(log.Linfo)
		}
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&rootDir, "root", "", "Project root containing sources/ (default: nearest parent with sources/)")
	f.StringVarP(&configuration, "configuration", "c", "", "Build configuration: Debug or Release")
	f.StringVar(&versionFlag, "version", "", "Package version (default: derived from git describe)")
	f.StringVar(&archiver, "archiver", "", "Package archiver: nuget or zip")
	f.BoolVarP(&verbose, "verbose", "v", false, "Log every command line")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Fatal(err)
	}
}
