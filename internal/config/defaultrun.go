package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrNoDefaultRun is returned by LoadDefaultRun when the pointer file
// does not exist: callers (the CLI) must require an explicit --run /
// run_id in that case.
var ErrNoDefaultRun = errors.New("config: no default run configured")

// DefaultRun is the shape of the default-run pointer file. Role is
// optional: a caller may still need to pass one explicitly per
// invocation even with a default run selected.
type DefaultRun struct {
	RunID string `json:"run_id"`
	Role  string `json:"role,omitempty"`
}

// LoadDefaultRun reads the default-run pointer from l.DefaultRunPointerPath().
func LoadDefaultRun(l *Layout) (*DefaultRun, error) {
	data, err := os.ReadFile(l.DefaultRunPointerPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoDefaultRun
		}
		return nil, fmt.Errorf("config: read default run pointer: %w", err)
	}
	var dr DefaultRun
	if err := json.Unmarshal(data, &dr); err != nil {
		return nil, fmt.Errorf("config: parse default run pointer: %w", err)
	}
	if dr.RunID == "" {
		return nil, fmt.Errorf("config: default run pointer missing run_id")
	}
	return &dr, nil
}

// SaveDefaultRun writes the default-run pointer, creating the state-gate
// directory if needed.
func SaveDefaultRun(l *Layout, dr *DefaultRun) error {
	if err := os.MkdirAll(l.StateGateDir(), 0o755); err != nil {
		return fmt.Errorf("config: create state-gate dir: %w", err)
	}
	data, err := json.MarshalIndent(dr, "", "  ")
	if err != nil {
		return fmt.Errorf("config: encode default run pointer: %w", err)
	}
	if err := os.WriteFile(l.DefaultRunPointerPath(), data, 0o644); err != nil {
		return fmt.Errorf("config: write default run pointer: %w", err)
	}
	return nil
}
