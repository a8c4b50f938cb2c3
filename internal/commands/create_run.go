package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newCreateRunCmd(flags *globalFlags) *cobra.Command {
	var contextJSON string
	var setDefault bool

	cmd := &cobra.Command{
		Use:   "create-run <process_id>",
		Short: "Create a new run of a process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := newEngine(flags)
			if err != nil {
				return err
			}

			var initialContext map[string]any
			if contextJSON != "" {
				if err := json.Unmarshal([]byte(contextJSON), &initialContext); err != nil {
					return fmt.Errorf("parse --context: %w", err)
				}
			}

			result, err := eng.CreateRun(args[0], initialContext)
			if err != nil {
				return printEngineError(cmd, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "run_id=%s initial_state=%s revision=%d\n", result.RunID, result.InitialState, result.Revision)

			if setDefault {
				if err := saveDefaultRun(flags, result.RunID, ""); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&contextJSON, "context", "", "initial context as a JSON object, merged over the process's own initial_context")
	cmd.Flags().BoolVar(&setDefault, "set-default", false, "record the new run as the default run for subsequent commands")
	return cmd
}
