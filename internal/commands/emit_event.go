package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/caphtech/state-gate/internal/engine"
)

func newEmitEventCmd(flags *globalFlags) *cobra.Command {
	var runID, role, idempotencyKey, payloadJSON string
	var expectedRevision int
	var artifactPaths []string

	cmd := &cobra.Command{
		Use:   "emit-event <event_name>",
		Short: "Emit an event against a run, advancing it if legal",
		Args:  cobra.ExactArgs(1),
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

			var payload map[string]any
			if payloadJSON != "" {
				if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
					return fmt.Errorf("parse --payload: %w", err)
				}
			}

			result, err := eng.EmitEvent(engine.EmitEventRequest{
				RunID:            id,
				EventName:        args[0],
				ExpectedRevision: expectedRevision,
				IdempotencyKey:   idempotencyKey,
				Role:             r,
				Payload:          payload,
				ArtifactPaths:    artifactPaths,
			})
			if err != nil {
				return printEngineError(cmd, err)
			}

			out := cmd.OutOrStdout()
			if result.Replayed {
				fmt.Fprintf(out, "replayed=true new_revision=%d original_state=%s\n", result.NewRevision, result.ReplayOriginalState)
				return nil
			}
			fmt.Fprintf(out, "accepted: %s -> %s, new_revision=%d\n", result.From, result.To, result.NewRevision)
			if result.NewStatePrompt != "" {
				fmt.Fprintf(out, "prompt: %s\n", result.NewStatePrompt)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "run id (defaults to the configured default run)")
	cmd.Flags().StringVar(&role, "role", "", "caller role (defaults to the role recorded with the default run)")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "idempotency key; required")
	cmd.Flags().IntVar(&expectedRevision, "expected-revision", 0, "the revision the caller believes the run is at")
	cmd.Flags().StringVar(&payloadJSON, "payload", "", "context merge payload as a JSON object")
	cmd.Flags().StringSliceVar(&artifactPaths, "artifact", nil, "artifact path to attach, relative to the run's artifact base; may be repeated")
	_ = cmd.MarkFlagRequired("idempotency-key")
	return cmd
}
