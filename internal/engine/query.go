package engine

import (
	"sort"
	"strings"
	"time"

	"github.com/caphtech/state-gate/internal/guard"
	"github.com/caphtech/state-gate/internal/metadata"
	"github.com/caphtech/state-gate/internal/model"
	"github.com/caphtech/state-gate/internal/role"
	"github.com/caphtech/state-gate/internal/runlog"
)

// GetStateResult is GetState's success value. MissingArtifacts
// serializes as "missing_guards" on the wire: the current state's
// required_artifacts types for which no present file in the cumulative
// artifact set matches. Transition guards are not consulted for it.
type GetStateResult struct {
	ProcessID          string         `json:"process_id"`
	ProcessVersion     string         `json:"process_version"`
	CurrentState       string         `json:"current_state"`
	CurrentStatePrompt string         `json:"current_state_prompt,omitempty"`
	Revision           int            `json:"revision"`
	Context            map[string]any `json:"context,omitempty"`
	MissingArtifacts   []string       `json:"missing_guards,omitempty"`
	RequiredArtifacts  []string       `json:"required_artifacts,omitempty"`
	AllowedEvents      []string       `json:"allowed_events"`
	UpdatedAt          time.Time      `json:"updated_at"`
	ArtifactBasePath   string         `json:"artifact_base_path,omitempty"`
}

// GetState is a read-only projection: it never mutates. AllowedEvents
// and MissingArtifacts are reported structurally (by current state and
// the cumulative artifact set), independent of any one caller's role —
// ListEvents is the role-aware projection for deciding what a specific
// caller may do next.
func (e *Engine) GetState(runID string) (*GetStateResult, error) {
	md, latest, proc, err := e.loadRunTriple(runID)
	if err != nil {
		return nil, err
	}

	state, ok := proc.State(latest.State)
	if !ok {
		return nil, newError(CodeInternalError, "state %q is not defined by process %q", latest.State, proc.ID)
	}
	checker := artifactChecker(md.ArtifactBasePath)

	var missing []string
	for _, t := range state.RequiredArtifacts {
		matches := filterArtifacts(latest.ArtifactPaths, t)
		ok, _ := checker.AnyPresent(matches)
		if !ok {
			missing = append(missing, t)
		}
	}

	guardCtx := guard.Context{
		ArtifactPaths:    latest.ArtifactPaths,
		ContextVars:      contextVars(md.Context),
		ArtifactBasePath: md.ArtifactBasePath,
	}
	allowed, err := permittedEventNames(proc, latest.State, "", guardCtx)
	if err != nil {
		return nil, internalError("compute allowed events", err)
	}
	sort.Strings(allowed)

	return &GetStateResult{
		ProcessID:          proc.ID,
		ProcessVersion:     proc.Version,
		CurrentState:       latest.State,
		CurrentStatePrompt: state.Prompt,
		Revision:           latest.Revision,
		Context:            md.Context,
		MissingArtifacts:   missing,
		RequiredArtifacts:  state.RequiredArtifacts,
		AllowedEvents:      allowed,
		UpdatedAt:          latest.Timestamp,
		ArtifactBasePath:   md.ArtifactBasePath,
	}, nil
}

// EventInfo is one entry of ListEvents's result.
type EventInfo struct {
	Name          string `json:"name"`
	Allowed       bool   `json:"allowed"`
	BlockedReason string `json:"blocked_reason,omitempty"`
}

// ListEventsResult is ListEvents's success value.
type ListEventsResult struct {
	CurrentState string      `json:"current_state"`
	Events       []EventInfo `json:"events"`
}

// ListEvents determines, for each event with at least one transition
// from the current state, whether callerRole may fire it now: allowed
// when the event's own allowed_roles admit callerRole and some
// legal-for-role transition's guard is satisfied (or that transition has
// no guard), blocked otherwise. A permission failure (the event denies
// the role, or no transition is legal for the role at all) outranks a
// guard failure (a legal transition exists but no candidate's guard is
// satisfied) when picking the blocked reason. With an empty callerRole,
// no role check of either kind is applied to Allowed.
func (e *Engine) ListEvents(runID, callerRole string, includeBlocked bool) (*ListEventsResult, error) {
	md, latest, proc, err := e.loadRunTriple(runID)
	if err != nil {
		return nil, err
	}

	guardCtx := guard.Context{
		ArtifactPaths:    latest.ArtifactPaths,
		ContextVars:      contextVars(md.Context),
		ArtifactBasePath: md.ArtifactBasePath,
	}

	var eventNames []string
	byEvent := map[string][]*model.Transition{}
	for _, t := range proc.TransitionsFrom(latest.State) {
		if _, ok := byEvent[t.Event]; !ok {
			eventNames = append(eventNames, t.Event)
		}
		byEvent[t.Event] = append(byEvent[t.Event], t)
	}
	sort.Strings(eventNames)

	// Allowed is decided by the same read-model stateless.StateMachine
	// GetState uses, scoped to callerRole's transition-level permissions
	// (internal/engine/readmodel.go); the loop below additionally applies
	// the event-level allowed_roles check and recovers a diagnostic reason
	// for the events that didn't make the cut.
	allowedNames, err := permittedEventNames(proc, latest.State, callerRole, guardCtx)
	if err != nil {
		return nil, internalError("compute permitted events", err)
	}
	allowedSet := make(map[string]bool, len(allowedNames))
	for _, n := range allowedNames {
		allowedSet[n] = true
	}

	var out []EventInfo
	for _, name := range eventNames {
		info := EventInfo{Name: name, Allowed: allowedSet[name]}

		eventDenied := ""
		if callerRole != "" {
			if def, ok := proc.Event(name); ok {
				if ok, reason := role.CheckEvent(callerRole, def); !ok {
					eventDenied = reason
				}
			}
		}

		if eventDenied != "" {
			info.Allowed = false
			info.BlockedReason = eventDenied
		} else if !info.Allowed {
			sawRoleAllowed := false
			var guardReasons []string
			for _, t := range byEvent[name] {
				if ok, _ := role.CheckTransition(callerRole, t); !ok {
					continue
				}
				sawRoleAllowed = true
				result := guard.EvaluateNamed(proc, t.Guard, guardCtx)
				if !result.Satisfied {
					guardReasons = append(guardReasons, result.Reasons...)
				}
			}
			if !sawRoleAllowed {
				info.BlockedReason = "role " + callerRole + " is not permitted to take any transition for this event"
			} else {
				info.BlockedReason = "guard not satisfied: " + strings.Join(guardReasons, "; ")
			}
		}

		if info.Allowed || includeBlocked {
			out = append(out, info)
		}
	}

	return &ListEventsResult{CurrentState: latest.State, Events: out}, nil
}

// RunSummary is one entry of ListRuns's result.
type RunSummary struct {
	RunID        string    `json:"run_id"`
	ProcessID    string    `json:"process_id"`
	CurrentState string    `json:"current_state"`
	Revision     int       `json:"revision"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ListRuns enumerates every run with both metadata and a log, projecting
// each to its current state and revision.
func (e *Engine) ListRuns() ([]RunSummary, error) {
	all, err := e.Metadata.ListAll()
	if err != nil {
		return nil, internalError("list run metadata", err)
	}

	out := make([]RunSummary, 0, len(all))
	for _, md := range all {
		latest, err := e.Runs.GetLatestEntry(md.RunID)
		if err != nil {
			continue
		}
		out = append(out, RunSummary{
			RunID:        md.RunID,
			ProcessID:    md.ProcessID,
			CurrentState: latest.State,
			Revision:     latest.Revision,
			CreatedAt:    md.CreatedAt,
			UpdatedAt:    latest.Timestamp,
		})
	}
	return out, nil
}

// GetEventHistory returns every log row for runID in file order.
func (e *Engine) GetEventHistory(runID string) ([]runlog.Entry, error) {
	if err := checkRunID(runID); err != nil {
		return nil, err
	}
	if !e.Metadata.Exists(runID) {
		return nil, newError(CodeRunNotFound, "run %q not found", runID)
	}
	entries, err := e.Runs.ReadEntries(runID)
	if err != nil {
		if err == runlog.ErrNotFound {
			return nil, newError(CodeRunNotFound, "run %q not found", runID)
		}
		return nil, internalError("read run log", err)
	}
	return entries, nil
}

func (e *Engine) loadRunTriple(runID string) (*metadata.Metadata, runlog.Entry, *model.Process, error) {
	if err := checkRunID(runID); err != nil {
		return nil, runlog.Entry{}, nil, err
	}

	md, err := e.Metadata.Load(runID)
	if err != nil {
		if err == metadata.ErrNotFound {
			return nil, runlog.Entry{}, nil, newError(CodeRunNotFound, "run %q not found", runID)
		}
		return nil, runlog.Entry{}, nil, internalError("load run metadata", err)
	}

	latest, err := e.Runs.GetLatestEntry(runID)
	if err != nil {
		if err == runlog.ErrNotFound {
			return nil, runlog.Entry{}, nil, newError(CodeRunNotFound, "run %q has no log entries", runID)
		}
		return nil, runlog.Entry{}, nil, internalError("load latest run entry", err)
	}

	proc, err := e.Registry.GetAsync(md.ProcessID)
	if err != nil {
		return nil, runlog.Entry{}, nil, newError(CodeProcessNotFound, "process %q not found", md.ProcessID)
	}

	return md, latest, proc, nil
}
