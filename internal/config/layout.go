// Package config loads the on-disk layout of a state-gate root and the
// default-run pointer file collaborators share: a defaults-applying
// Layout struct, loaded from an optional YAML file that falls back to
// defaults rather than erroring when absent.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidYAML = errors.New("config: invalid YAML syntax")
)

const (
	// DefaultStateGateDir is the directory name holding all state-gate
	// data, relative to a configurable root.
	DefaultStateGateDir = ".state_gate"

	// DefaultLogExt is the run log file extension (without the dot).
	DefaultLogExt = "csv"

	// DefaultRunsSubdir, DefaultMetadataSubdir, DefaultArtifactsSubdir and
	// DefaultProcessesSubdir are the fixed subdirectory names.
	DefaultRunsSubdir      = "runs"
	DefaultMetadataSubdir  = "metadata"
	DefaultArtifactsSubdir = "artifacts"
	DefaultProcessesSubdir = "processes"

	// DefaultRunPointerFile is the optional default-run pointer.
	DefaultRunPointerFile = "state.json"

	// ConfigFileName is the layout config file itself, read from inside
	// the state-gate directory.
	ConfigFileName = "config.yaml"
)

// Layout names every path of the on-disk tree, rooted under Root.
type Layout struct {
	// Root is the directory containing the state-gate dir (".state_gate").
	// The directory paths are always computed from it; LogExt is the only
	// value config.yaml can override.
	Root string `yaml:"-"`

	LogExt string `yaml:"log_ext"`

	runsDir      string
	metadataDir  string
	artifactsDir string
	processesDir string
	stateGateDir string
}

// DefaultLayout returns a Layout with every default applied, rooted at
// root.
func DefaultLayout(root string) *Layout {
	l := &Layout{Root: root}
	ApplyDefaults(l)
	return l
}

// ApplyDefaults fills in any zero-valued field of l with its default,
// so a partial configuration is always usable.
func ApplyDefaults(l *Layout) {
	if l.LogExt == "" {
		l.LogExt = DefaultLogExt
	}
	l.stateGateDir = filepath.Join(l.Root, DefaultStateGateDir)
	l.runsDir = filepath.Join(l.stateGateDir, DefaultRunsSubdir)
	l.metadataDir = filepath.Join(l.stateGateDir, DefaultMetadataSubdir)
	l.artifactsDir = filepath.Join(l.stateGateDir, DefaultArtifactsSubdir)
	l.processesDir = filepath.Join(l.stateGateDir, DefaultProcessesSubdir)
}

// StateGateDir is "<Root>/.state_gate".
func (l *Layout) StateGateDir() string { return l.stateGateDir }

// RunsDir is "<Root>/.state_gate/runs".
func (l *Layout) RunsDir() string { return l.runsDir }

// MetadataDir is "<Root>/.state_gate/metadata".
func (l *Layout) MetadataDir() string { return l.metadataDir }

// ArtifactsDir is "<Root>/.state_gate/artifacts".
func (l *Layout) ArtifactsDir() string { return l.artifactsDir }

// RunArtifactsDir is "<Root>/.state_gate/artifacts/<run_id>".
func (l *Layout) RunArtifactsDir(runID string) string {
	return filepath.Join(l.artifactsDir, runID)
}

// ProcessesDir is "<Root>/.state_gate/processes".
func (l *Layout) ProcessesDir() string { return l.processesDir }

// DefaultRunPointerPath is "<Root>/.state_gate/state.json".
func (l *Layout) DefaultRunPointerPath() string {
	return filepath.Join(l.stateGateDir, DefaultRunPointerFile)
}

func (l *Layout) configPath() string {
	return filepath.Join(l.stateGateDir, ConfigFileName)
}

// LoadLayout loads "<root>/.state_gate/config.yaml", applying defaults
// for any value it doesn't specify. A missing config file is not an
// error; it returns DefaultLayout(root).
func LoadLayout(root string) (*Layout, error) {
	l := &Layout{Root: root}
	ApplyDefaults(l)

	data, err := os.ReadFile(l.configPath())
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, fmt.Errorf("config: read layout config: %w", err)
	}
	return LoadLayoutFromBytes(root, data)
}

// LoadLayoutFromBytes parses layout config YAML bytes, applying
// defaults for any value it doesn't specify.
func LoadLayoutFromBytes(root string, data []byte) (*Layout, error) {
	l := &Layout{Root: root}
	if len(bytes.TrimSpace(data)) == 0 {
		ApplyDefaults(l)
		return l, nil
	}
	if err := yaml.Unmarshal(data, l); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	ApplyDefaults(l)
	return l, nil
}
