package internal

import (
	"fmt"

	"github.com/spf13/cobra"
)

var packMetaCmd = &cobra.Command{
	Use:   "pack-meta",
	Short: "Pack the multi-platform meta package",
	Long: `Pack-meta collects the runtime packages already built for the current
version and writes a meta package whose runtime graph points at them.`,
	Args: cobra.NoArgs,
	RunE: runPackMeta,
}

func init() {
	rootCmd.AddCommand(packMetaCmd)
}

func runPackMeta(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := s.assembler(ctx)
	if err != nil {
		return err
	}
	out, err := a.Meta(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
