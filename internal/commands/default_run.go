package commands

import (
	"fmt"

	"github.com/caphtech/state-gate/internal/config"
)

// resolveRunID returns explicit if non-empty, otherwise falls back to
// the default-run pointer file multiple subcommands share.
func resolveRunID(flags *globalFlags, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	layout, err := config.LoadLayout(flags.root)
	if err != nil {
		return "", fmt.Errorf("load layout config: %w", err)
	}
	dr, err := config.LoadDefaultRun(layout)
	if err != nil {
		if err == config.ErrNoDefaultRun {
			return "", fmt.Errorf("no --run given and no default run is configured (see create-run --set-default)")
		}
		return "", err
	}
	return dr.RunID, nil
}

// resolveRole returns explicit if non-empty, otherwise the role recorded
// alongside the default run, if any.
func resolveRole(flags *globalFlags, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	layout, err := config.LoadLayout(flags.root)
	if err != nil {
		return "", fmt.Errorf("load layout config: %w", err)
	}
	dr, err := config.LoadDefaultRun(layout)
	if err != nil {
		return "", nil // no default run recorded; role stays empty
	}
	return dr.Role, nil
}

func saveDefaultRun(flags *globalFlags, runID, role string) error {
	layout, err := config.LoadLayout(flags.root)
	if err != nil {
		return fmt.Errorf("load layout config: %w", err)
	}
	return config.SaveDefaultRun(layout, &config.DefaultRun{RunID: runID, Role: role})
}
