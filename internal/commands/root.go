// Package commands implements the stategatectl CLI front end: a thin,
// scriptable surface over internal/engine, holding no engine-internal
// state of its own. One newXCmd() constructor per subcommand file,
// persistent global flags on the root command, SilenceUsage so RunE
// errors don't also dump usage text.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/caphtech/state-gate/internal/config"
	"github.com/caphtech/state-gate/internal/engine"
)

// globalFlags holds the persistent flags every subcommand reads to
// build an *engine.Engine rooted at the caller's chosen directory.
type globalFlags struct {
	root string
}

// NewRootCmd constructs the stategatectl root command and every
// subcommand.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:          "stategatectl",
		Short:        "Declarative per-run state gate for autonomous agent tool use",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flags.root, "root", ".", "state-gate root directory (contains .state_gate/)")

	root.AddCommand(
		newCreateRunCmd(flags),
		newGetStateCmd(flags),
		newListEventsCmd(flags),
		newEmitEventCmd(flags),
		newListRunsCmd(flags),
		newEventHistoryCmd(flags),
		newServeCmd(flags),
		newValidateCmd(flags),
	)
	return root
}

// newEngine loads the layout config rooted at flags.root and constructs
// an engine.Engine over it.
func newEngine(flags *globalFlags) (*engine.Engine, error) {
	layout, err := config.LoadLayout(flags.root)
	if err != nil {
		return nil, fmt.Errorf("load layout config: %w", err)
	}
	return engine.New(layout), nil
}

// printEngineError renders an *engine.Error the way every subcommand's
// RunE surfaces a facade failure: the closed code, message, and any
// structured detail, to the command's error stream.
func printEngineError(cmd *cobra.Command, err error) error {
	if ee, ok := err.(*engine.Error); ok {
		fmt.Fprintf(cmd.ErrOrStderr(), "error: %s: %s\n", ee.Code, ee.Message)
		switch ee.Code {
		case engine.CodeRevisionConflict:
			fmt.Fprintf(cmd.ErrOrStderr(), "  current_revision=%d expected_revision=%d\n", ee.CurrentRevision, ee.ExpectedRevision)
		case engine.CodeGuardFailed:
			fmt.Fprintf(cmd.ErrOrStderr(), "  guard=%s\n", ee.GuardName)
			for _, r := range ee.MissingRequirements {
				fmt.Fprintf(cmd.ErrOrStderr(), "  - %s\n", r)
			}
		case engine.CodeInvalidPayload:
			for _, v := range ee.ValidationErrors {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", v.Path, v.Message)
			}
		}
		return fmt.Errorf("%s", ee.Code)
	}
	return err
}
