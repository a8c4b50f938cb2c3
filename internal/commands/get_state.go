package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGetStateCmd(flags *globalFlags) *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "get-state",
		Short: "Show a run's current state, revision and context",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveRunID(flags, runID)
			if err != nil {
				return err
			}
			eng, err := newEngine(flags)
			if err != nil {
				return err
			}
			state, err := eng.GetState(id)
			if err != nil {
				return printEngineError(cmd, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run_id=%s process_id=%s state=%s revision=%d\n", id, state.ProcessID, state.CurrentState, state.Revision)
			if state.CurrentStatePrompt != "" {
				fmt.Fprintf(out, "prompt: %s\n", state.CurrentStatePrompt)
			}
			if len(state.MissingArtifacts) > 0 {
				fmt.Fprintf(out, "missing_artifacts: %v\n", state.MissingArtifacts)
			}
			fmt.Fprintf(out, "allowed_events: %v\n", state.AllowedEvents)
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "run id (defaults to the configured default run)")
	return cmd
}
