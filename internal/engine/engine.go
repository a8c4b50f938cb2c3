package engine

import (
	"github.com/caphtech/state-gate/internal/artifact"
	"github.com/caphtech/state-gate/internal/config"
	"github.com/caphtech/state-gate/internal/idgen"
	"github.com/caphtech/state-gate/internal/metadata"
	"github.com/caphtech/state-gate/internal/model"
	"github.com/caphtech/state-gate/internal/registry"
	"github.com/caphtech/state-gate/internal/runlog"
)

// Engine wires together the process registry, run log store and
// metadata store behind the use-case facade. It holds no per-request
// state; every method reloads whatever it needs from disk, so an
// Engine is safe to share across concurrent callers and processes.
type Engine struct {
	Layout   *config.Layout
	Registry *registry.Registry
	Runs     *runlog.Store
	Metadata *metadata.Store
}

// New constructs an Engine rooted at layout's directories.
func New(layout *config.Layout) *Engine {
	return &Engine{
		Layout:   layout,
		Registry: registry.New(layout.ProcessesDir()),
		Runs:     runlog.New(layout.RunsDir(), layout.LogExt),
		Metadata: metadata.New(layout.MetadataDir()),
	}
}

// checkRunID rejects a caller-supplied run id that does not match the
// run-id grammar. Beyond being a correctness check, this keeps a hostile
// id (e.g. one containing path separators) from ever being joined into a
// store path.
func checkRunID(runID string) *Error {
	if !idgen.ValidRunID(runID) {
		return newError(CodeInvalidInput, "run id %q is not a valid run identifier", runID)
	}
	return nil
}

// contextVars converts a metadata.Metadata's raw JSON context map into
// the model.Value map internal/guard evaluates against: primitive
// scalars convert directly, arrays and objects become model.Opaque()
// (present, but never equal to anything).
func contextVars(ctx map[string]any) map[string]model.Value {
	out := make(map[string]model.Value, len(ctx))
	for k, v := range ctx {
		val, err := model.FromAny(v)
		if err != nil {
			out[k] = model.Opaque()
			continue
		}
		out[k] = val
	}
	return out
}

// artifactChecker builds a checker rooted at base for the read-only
// query paths (GetState's missing-artifacts projection).
func artifactChecker(base string) *artifact.Checker {
	return artifact.New(base)
}

// filterArtifacts narrows paths to those matching artifactType, per
// internal/artifact's basename convention.
func filterArtifacts(paths []string, artifactType string) []string {
	return artifact.FilterByType(paths, artifactType)
}

// mergeContext applies payload on top of base, payload winning on
// conflicting keys. Neither map is mutated; a new map is returned.
func mergeContext(base, payload map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(payload))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range payload {
		out[k] = v
	}
	return out
}
