package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newEventHistoryCmd(flags *globalFlags) *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "event-history",
		Short: "Print a run's append-only log in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveRunID(flags, runID)
			if err != nil {
				return err
			}
			eng, err := newEngine(flags)
			if err != nil {
				return err
			}
			entries, err := eng.GetEventHistory(id)
			if err != nil {
				return printEngineError(cmd, err)
			}

			out := cmd.OutOrStdout()
			for _, entry := range entries {
				fmt.Fprintf(out, "%s\trevision=%d\tstate=%s\tevent=%s\tartifacts=%v\n",
					entry.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
					entry.Revision, entry.State, entry.Event, entry.ArtifactPaths)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "run id (defaults to the configured default run)")
	return cmd
}
