package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/caphtech/state-gate/internal/cueschema"
	"github.com/caphtech/state-gate/internal/processdef"
	"github.com/caphtech/state-gate/internal/validate"
)

func newValidateCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <process_definition_file>",
		Short: "Run structural and semantic validation over a process definition file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()

			if err := cueschema.Validate(data); err != nil {
				fmt.Fprintf(out, "structural validation failed: %v\n", err)
				return fmt.Errorf("structural validation failed")
			}

			raw, err := processdef.Decode(data)
			if err != nil {
				fmt.Fprintf(out, "decode failed: %v\n", err)
				return fmt.Errorf("decode failed")
			}

			proc, errs := validate.Validate(raw)
			if len(errs) > 0 {
				for _, e := range errs {
					fmt.Fprintf(out, "%s: %s: %s\n", e.Code, e.Path, e.Message)
				}
				return fmt.Errorf("semantic validation failed with %d error(s)", len(errs))
			}

			fmt.Fprintf(out, "ok: process %q version %q is valid (%d states, %d transitions)\n",
				proc.ID, proc.Version, len(proc.States), len(proc.Transitions))
			return nil
		},
	}
	return cmd
}
