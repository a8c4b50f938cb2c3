package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListRunsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list-runs",
		Short: "List every known run, its process and current state",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := newEngine(flags)
			if err != nil {
				return err
			}
			runs, err := eng.ListRuns()
			if err != nil {
				return printEngineError(cmd, err)
			}
			out := cmd.OutOrStdout()
			for _, r := range runs {
				fmt.Fprintf(out, "%s\tprocess=%s\tstate=%s\trevision=%d\n", r.RunID, r.ProcessID, r.CurrentState, r.Revision)
			}
			return nil
		},
	}
	return cmd
}
