package commands

import (
	"github.com/spf13/cobra"

	"github.com/caphtech/state-gate/internal/transport/stdio"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the engine over newline-delimited JSON on stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := newEngine(flags)
			if err != nil {
				return err
			}
			return stdio.Serve(cmd.InOrStdin(), cmd.OutOrStdout(), eng)
		},
	}
	return cmd
}
