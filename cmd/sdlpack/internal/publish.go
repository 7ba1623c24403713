package internal

import (
	"github.com/goplus/sdlpack/internal/publish"
	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Upload built packages to S3 compatible storage",
	Long: `Publish uploads every package in artifacts/pkg to the bucket configured
by the SDLPACK_S3_* settings. Packages already in the bucket are skipped.`,
	Args: cobra.NoArgs,
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	p, err := publish.New(s.cfg.Publish)
	if err != nil {
		return err
	}
	res, err := p.Publish(cmd.Context(), s.layout.PackageDir())
	if err != nil {
		return err
	}
	log.Infof("published %d packages, %d already present", len(res.Uploaded), len(res.Skipped))
	return nil
}
