// Package metadata implements the per-run JSON metadata sidecar:
// process id, creation time, context variables, and an optional
// artifact base path. Writes are whole-file, taken under the same
// per-path file lock internal/runlog uses, and made atomic by writing a
// temp file and renaming it; reads distinguish a missing file from one
// that fails shape validation.
package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/caphtech/state-gate/internal/filelock"
)

// ErrNotFound is returned by Load/Delete when a run has no metadata file.
var ErrNotFound = errors.New("metadata: run not found")

// ErrInvalid wraps a metadata shape-validation failure. It is a
// structured error, never silently swallowed.
type ErrInvalid struct {
	RunID  string
	Reason string
}

func (e *ErrInvalid) Error() string {
	return fmt.Sprintf("metadata: %s: invalid metadata: %s", e.RunID, e.Reason)
}

// Metadata is a run's mutable sidecar.
// Context values are plain decoded-JSON values (string, float64, bool,
// nil, []any, map[string]any): internal/guard's Context.ContextVars is
// built from these via model.FromAny/model.Opaque at evaluation time.
type Metadata struct {
	RunID            string         `json:"run_id"`
	ProcessID        string         `json:"process_id"`
	CreatedAt        time.Time      `json:"created_at"`
	Context          map[string]any `json:"context"`
	ArtifactBasePath string         `json:"artifact_base_path,omitempty"`
}

// wireMetadata mirrors Metadata's JSON shape with CreatedAt as a raw
// string, so shape validation can distinguish "not a string" from "not a
// valid timestamp".
type wireMetadata struct {
	RunID            string         `json:"run_id"`
	ProcessID        string         `json:"process_id"`
	CreatedAt        string         `json:"created_at"`
	Context          map[string]any `json:"context"`
	ArtifactBasePath string         `json:"artifact_base_path,omitempty"`
}

// Store is a directory of per-run JSON metadata files.
type Store struct {
	Dir string
}

// New constructs a Store rooted at dir.
func New(dir string) *Store {
	return &Store{Dir: dir}
}

func (s *Store) path(runID string) string {
	return filepath.Join(s.Dir, runID+".json")
}

// Exists reports whether runID has a metadata file.
func (s *Store) Exists(runID string) bool {
	_, err := os.Stat(s.path(runID))
	return err == nil
}

// Save writes m's metadata whole, under the per-path lock, atomically
// (temp file + rename) so a reader never observes a partially written
// file.
func (s *Store) Save(m *Metadata) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("metadata: create metadata dir: %w", err)
	}

	path := s.path(m.RunID)
	lock, err := filelock.Acquire(path, filelock.Options{})
	if err != nil {
		return fmt.Errorf("metadata: acquire lock: %w", err)
	}
	defer lock.Release()

	wire := wireMetadata{
		RunID:            m.RunID,
		ProcessID:        m.ProcessID,
		CreatedAt:        m.CreatedAt.UTC().Format(time.RFC3339),
		Context:          m.Context,
		ArtifactBasePath: m.ArtifactBasePath,
	}
	data, err := json.MarshalIndent(wire, "", "  ")
	if err != nil {
		return fmt.Errorf("metadata: encode: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("metadata: write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("metadata: rename temp file: %w", err)
	}
	return nil
}

// Load reads and shape-validates runID's metadata. A missing file returns
// ErrNotFound; a file that exists but fails shape validation returns
// *ErrInvalid, distinguishable by errors.As.
func (s *Store) Load(runID string) (*Metadata, error) {
	data, err := os.ReadFile(s.path(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("metadata: read file: %w", err)
	}
	return decode(runID, data)
}

func decode(runID string, data []byte) (*Metadata, error) {
	var wire wireMetadata
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, &ErrInvalid{RunID: runID, Reason: err.Error()}
	}
	if wire.RunID == "" {
		return nil, &ErrInvalid{RunID: runID, Reason: "run_id must be a non-empty string"}
	}
	if wire.ProcessID == "" {
		return nil, &ErrInvalid{RunID: runID, Reason: "process_id must be a non-empty string"}
	}
	if wire.Context == nil {
		return nil, &ErrInvalid{RunID: runID, Reason: "context must be an object"}
	}
	createdAt, err := time.Parse(time.RFC3339, wire.CreatedAt)
	if err != nil {
		return nil, &ErrInvalid{RunID: runID, Reason: fmt.Sprintf("created_at is not a valid ISO-8601 timestamp: %v", err)}
	}
	return &Metadata{
		RunID:            wire.RunID,
		ProcessID:        wire.ProcessID,
		CreatedAt:        createdAt,
		Context:          wire.Context,
		ArtifactBasePath: wire.ArtifactBasePath,
	}, nil
}

// ListAll returns every run's metadata found in Dir, ordered by run id.
// A file that fails shape validation is skipped rather than aborting the
// whole listing; callers that need to surface the failure should Load
// the specific run id directly.
func (s *Store) ListAll() ([]*Metadata, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("metadata: list dir: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if filepath.Ext(name) == ".json" {
			ids = append(ids, name[:len(name)-len(".json")])
		}
	}
	sort.Strings(ids)

	out := make([]*Metadata, 0, len(ids))
	for _, id := range ids {
		m, err := s.Load(id)
		if err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// Delete removes runID's metadata file.
func (s *Store) Delete(runID string) error {
	if err := os.Remove(s.path(runID)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("metadata: delete: %w", err)
	}
	return nil
}
