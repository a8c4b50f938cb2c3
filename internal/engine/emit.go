package engine

import (
	"fmt"
	"time"

	"github.com/caphtech/state-gate/internal/artifact"
	"github.com/caphtech/state-gate/internal/guard"
	"github.com/caphtech/state-gate/internal/idgen"
	"github.com/caphtech/state-gate/internal/metadata"
	"github.com/caphtech/state-gate/internal/model"
	"github.com/caphtech/state-gate/internal/role"
	"github.com/caphtech/state-gate/internal/runlog"
)

// EmitEventRequest carries every argument of EmitEvent.
type EmitEventRequest struct {
	RunID            string
	EventName        string
	ExpectedRevision int
	IdempotencyKey   string
	Role             string
	Payload          map[string]any
	ArtifactPaths    []string
}

// EmitEventResult is EmitEvent's success value, covering both a freshly
// accepted transition and an idempotent replay.
type EmitEventResult struct {
	EventID        string `json:"event_id"`
	Accepted       bool   `json:"accepted"`
	Replayed       bool   `json:"replayed"`
	From           string `json:"from"`
	To             string `json:"to"`
	NewRevision    int    `json:"new_revision"`
	NewStatePrompt string `json:"new_state_prompt,omitempty"`

	// ReplayOriginalTimestamp/ReplayOriginalState are populated only when
	// Replayed is true.
	ReplayOriginalTimestamp time.Time `json:"replay_original_timestamp,omitempty"`
	ReplayOriginalState     string    `json:"replay_original_state,omitempty"`
}

// guardFailure remembers the last unsatisfied guard encountered while
// walking guarded transitions, for GUARD_FAILED diagnostics.
type guardFailure struct {
	name    string
	reasons []string
}

// EmitEvent runs the ordered dispatch algorithm: idempotency lookup
// first, then revision check, permissions, guard evaluation, and the
// revision-checked commit. Only the commit (step 12) mutates the log;
// the context merge of step 11 is computed early but persisted after
// the commit succeeds, so a reader never observes a context that
// reflects an event whose log row does not exist.
func (e *Engine) EmitEvent(req EmitEventRequest) (*EmitEventResult, error) {
	// Step 1: idempotency key non-empty, run id well formed.
	if req.IdempotencyKey == "" {
		return nil, newError(CodeInvalidPayload, "idempotency_key must be non-empty")
	}
	if err := checkRunID(req.RunID); err != nil {
		return nil, err
	}

	// Step 2: load metadata.
	md, err := e.Metadata.Load(req.RunID)
	if err != nil {
		if err == metadata.ErrNotFound {
			return nil, newError(CodeRunNotFound, "run %q not found", req.RunID)
		}
		return nil, internalError("load run metadata", err)
	}

	// Step 3: resolve process.
	proc, err := e.Registry.GetAsync(md.ProcessID)
	if err != nil {
		return nil, newError(CodeProcessNotFound, "process %q not found", md.ProcessID)
	}

	// Step 4: idempotent replay, before any permission/guard evaluation
	// and even if expected_revision would otherwise conflict.
	if existing, found, err := e.Runs.GetEntryByIdempotencyKey(req.RunID, req.IdempotencyKey); err != nil {
		if err == runlog.ErrNotFound {
			return nil, newError(CodeRunNotFound, "run %q has no log", req.RunID)
		}
		return nil, internalError("look up idempotency key", err)
	} else if found {
		return &EmitEventResult{
			EventID:                 mustEventID(),
			Accepted:                true,
			Replayed:                true,
			From:                    existing.State,
			To:                      existing.State,
			NewRevision:             existing.Revision,
			ReplayOriginalTimestamp: existing.Timestamp,
			ReplayOriginalState:     existing.State,
		}, nil
	}

	// Step 5: validate artifact_paths.
	if verrs := validateArtifactPaths(req.ArtifactPaths); len(verrs) > 0 {
		return nil, &Error{Code: CodeInvalidPayload, Message: "invalid artifact_paths", ValidationErrors: verrs}
	}

	// Step 6: fetch latest entry.
	latest, err := e.Runs.GetLatestEntry(req.RunID)
	if err != nil {
		if err == runlog.ErrNotFound {
			return nil, newError(CodeRunNotFound, "run %q has no log entries", req.RunID)
		}
		return nil, internalError("load latest run entry", err)
	}

	// Step 7: optimistic revision check.
	if latest.Revision != req.ExpectedRevision {
		return nil, &Error{
			Code:             CodeRevisionConflict,
			Message:          "expected revision does not match current revision",
			CurrentRevision:  latest.Revision,
			ExpectedRevision: req.ExpectedRevision,
		}
	}

	// Step 8: event exists.
	eventDef, ok := proc.Event(req.EventName)
	if !ok {
		return nil, newError(CodeInvalidEvent, "event %q is not defined", req.EventName)
	}

	// Step 9: event-level permission.
	if ok, reason := role.CheckEvent(req.Role, eventDef); !ok {
		return nil, newError(CodeForbidden, "%s", reason)
	}

	// Step 10: transition selection.
	candidates := proc.TransitionsFrom(latest.State)
	var fromStateCandidates []*model.Transition
	for _, t := range candidates {
		if t.Event == req.EventName {
			fromStateCandidates = append(fromStateCandidates, t)
		}
	}
	if len(fromStateCandidates) == 0 {
		return nil, newError(CodeInvalidEvent, "event %q is not legal in state %q", req.EventName, latest.State)
	}

	wouldBeArtifacts := runlog.UnionArtifacts(latest.ArtifactPaths, req.ArtifactPaths)
	guardCtx := guard.Context{
		ArtifactPaths:    wouldBeArtifacts,
		ContextVars:      contextVars(md.Context),
		ArtifactBasePath: md.ArtifactBasePath,
	}

	var guarded, guardless []*model.Transition
	for _, t := range fromStateCandidates {
		if t.Guard != "" {
			guarded = append(guarded, t)
		} else {
			guardless = append(guardless, t)
		}
	}

	var selected *model.Transition
	var lastFailure *guardFailure
	for _, t := range guarded {
		if ok, _ := role.CheckTransition(req.Role, t); !ok {
			continue
		}
		result := guard.EvaluateNamed(proc, t.Guard, guardCtx)
		if result.Satisfied {
			selected = t
			break
		}
		lastFailure = &guardFailure{name: t.Guard, reasons: result.Reasons}
	}
	if selected == nil {
		for _, t := range guardless {
			if ok, _ := role.CheckTransition(req.Role, t); ok {
				selected = t
				break
			}
		}
	}
	if selected == nil {
		if lastFailure != nil {
			return nil, &Error{
				Code:                CodeGuardFailed,
				Message:             fmt.Sprintf("guard %q not satisfied", lastFailure.name),
				GuardName:           lastFailure.name,
				MissingRequirements: lastFailure.reasons,
			}
		}
		return nil, newError(CodeForbidden, "role %q is not permitted to take any transition for event %q", req.Role, req.EventName)
	}

	// Step 11 (computed here, persisted after step 12 succeeds): context
	// merge, payload wins on conflict.
	mergedContext := md.Context
	if len(req.Payload) > 0 {
		mergedContext = mergeContext(md.Context, req.Payload)
	}

	now := time.Now().UTC()
	newRevision := req.ExpectedRevision + 1
	entry := runlog.Entry{
		Timestamp:      now,
		State:          selected.To,
		Revision:       newRevision,
		Event:          req.EventName,
		IdempotencyKey: req.IdempotencyKey,
		ArtifactPaths:  wouldBeArtifacts,
	}

	// Step 12: commit.
	result, err := e.Runs.AppendWithRevisionCheck(req.RunID, entry, req.ExpectedRevision)
	if err != nil {
		return nil, internalError("append run log entry", err)
	}
	if result.Conflict {
		return nil, &Error{
			Code:             CodeRevisionConflict,
			Message:          "revision changed concurrently",
			CurrentRevision:  result.CurrentRevision,
			ExpectedRevision: req.ExpectedRevision,
		}
	}

	// Step 11 (deferred write): persist the context merge now that the
	// log row it corresponds to is durable. A failure here is reported
	// as INTERNAL_ERROR but the transition itself has already committed;
	// context is advisory to future guard evaluations, not part of the
	// audit record.
	if mergedContext != nil {
		md.Context = mergedContext
		if err := e.Metadata.Save(md); err != nil {
			return nil, internalError("save merged context after commit", err)
		}
	}

	var prompt string
	if s, ok := proc.State(selected.To); ok {
		prompt = s.Prompt
	}

	// Step 13.
	return &EmitEventResult{
		EventID:        mustEventID(),
		Accepted:       true,
		From:           latest.State,
		To:             selected.To,
		NewRevision:    newRevision,
		NewStatePrompt: prompt,
	}, nil
}

func validateArtifactPaths(paths []string) []ValidationError {
	var errs []ValidationError
	for i, p := range paths {
		if err := artifact.ValidatePath(p); err != nil {
			errs = append(errs, ValidationError{
				Path:    fmt.Sprintf("/artifact_paths/%d", i),
				Message: err.Error(),
			})
		}
	}
	return errs
}

func mustEventID() string {
	id, err := idgen.NewEventID()
	if err != nil {
		// idgen only fails if the system's random source is broken; in
		// that case no UUID allocation in the process can succeed, so
		// surfacing a non-UUID placeholder is strictly better than
		// panicking (on the commit path the log append has already
		// succeeded by the time this is called; on the replay path
		// nothing is written either way).
		return "event-id-unavailable"
	}
	return id
}
