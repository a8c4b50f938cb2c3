package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListEventsCmd(flags *globalFlags) *cobra.Command {
	var runID, role string
	var includeBlocked bool

	cmd := &cobra.Command{
		Use:   "list-events",
		Short: "List events legal for a role in a run's current state",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveRunID(flags, runID)
			if err != nil {
				return err
			}
			r, err := resolveRole(flags, role)
			if err != nil {
				return err
			}
			eng, err := newEngine(flags)
			if err != nil {
				return err
			}
			result, err := eng.ListEvents(id, r, includeBlocked)
			if err != nil {
				return printEngineError(cmd, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "current_state=%s\n", result.CurrentState)
			for _, e := range result.Events {
				if e.Allowed {
					fmt.Fprintf(out, "  %s: allowed\n", e.Name)
				} else {
					fmt.Fprintf(out, "  %s: blocked (%s)\n", e.Name, e.BlockedReason)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "run id (defaults to the configured default run)")
	cmd.Flags().StringVar(&role, "role", "", "caller role (defaults to the role recorded with the default run)")
	cmd.Flags().BoolVar(&includeBlocked, "include-blocked", false, "include events that are currently blocked, with a reason")
	return cmd
}
