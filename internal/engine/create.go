package engine

import (
	"time"

	"github.com/caphtech/state-gate/internal/idgen"
	"github.com/caphtech/state-gate/internal/metadata"
	"github.com/caphtech/state-gate/internal/runlog"
)

// InitEventName is the synthetic event recorded as a run's first log
// row, at revision 1 with no artifacts.
const InitEventName = "__init__"

// CreateRunResult is CreateRun's success value.
type CreateRunResult struct {
	RunID        string         `json:"run_id"`
	InitialState string         `json:"initial_state"`
	Revision     int            `json:"revision"`
	Context      map[string]any `json:"context,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// CreateRun resolves the process, allocates a run id, composes the
// effective initial context (caller-supplied keys win over the
// process's initial_context), and persists the log then metadata.
func (e *Engine) CreateRun(processID string, initialContext map[string]any) (*CreateRunResult, error) {
	proc, err := e.Registry.GetAsync(processID)
	if err != nil {
		return nil, newError(CodeProcessNotFound, "process %q not found", processID)
	}

	runID, err := idgen.NewRunID()
	if err != nil {
		return nil, internalError("allocate run id", err)
	}

	base := make(map[string]any, len(proc.InitialContext))
	for k, v := range proc.InitialContext {
		base[k] = v.Any()
	}
	effective := mergeContext(base, initialContext)

	now := time.Now().UTC()
	init := runlog.Entry{
		Timestamp:      now,
		State:          proc.InitialState,
		Revision:       1,
		Event:          InitEventName,
		IdempotencyKey: InitEventName + ":" + runID,
		ArtifactPaths:  nil,
	}
	if err := e.Runs.CreateRun(runID, init); err != nil {
		return nil, internalError("create run log", err)
	}

	if err := e.Metadata.Save(&metadata.Metadata{
		RunID:            runID,
		ProcessID:        processID,
		CreatedAt:        now,
		Context:          effective,
		ArtifactBasePath: e.Layout.RunArtifactsDir(runID),
	}); err != nil {
		return nil, internalError("save run metadata", err)
	}

	return &CreateRunResult{
		RunID:        runID,
		InitialState: proc.InitialState,
		Revision:     1,
		Context:      effective,
		CreatedAt:    now,
	}, nil
}
