package engine

import (
	"context"

	"github.com/qmuntal/stateless"

	"github.com/caphtech/state-gate/internal/guard"
	"github.com/caphtech/state-gate/internal/model"
	"github.com/caphtech/state-gate/internal/role"
)

// buildReadModel constructs an ephemeral stateless.StateMachine rooted at
// currentState, with one Permit per distinct (event, destination) pair of
// the transitions defined from that state for proc. It exists only for the lifetime of a single read-only query
// (ListEvents and GetState's allowed-events projection) and is never
// used for the commit path: EmitEvent's guarded-then-guardless
// tie-break with per-guard failure diagnostics is more specific than a
// generic FSM library's boolean CanFire.
//
// callerRole, when non-empty, restricts each Permit's guard to also check
// role legality for that specific transition, so PermittedTriggers reports
// only events at least one legal-for-role transition can satisfy.
func buildReadModel(proc *model.Process, currentState, callerRole string, guardCtx guard.Context) *stateless.StateMachine {
	sm := stateless.NewStateMachine(currentState)
	cfg := sm.Configure(currentState)

	// Transitions sharing an (event, destination) pair are folded into a
	// single Permit whose guard passes when any one of them would.
	var keys []string
	grouped := map[string][]*model.Transition{}
	for _, t := range proc.TransitionsFrom(currentState) {
		key := t.Event + "\x00" + t.To
		if _, ok := grouped[key]; !ok {
			keys = append(keys, key)
		}
		grouped[key] = append(grouped[key], t)
	}

	for _, key := range keys {
		group := grouped[key]
		cfg.Permit(group[0].Event, group[0].To, func(_ context.Context, _ ...any) bool {
			for _, t := range group {
				if callerRole != "" {
					if ok, _ := role.CheckTransition(callerRole, t); !ok {
						continue
					}
				}
				if t.Guard == "" || guard.EvaluateNamed(proc, t.Guard, guardCtx).Satisfied {
					return true
				}
			}
			return false
		})
	}
	return sm
}

// permittedEventNames reports every event name stateless considers
// fireable from currentState under guardCtx — restricted to callerRole
// when non-empty, or role-agnostic (structural) when empty, matching
// GetState's AllowedEvents projection.
func permittedEventNames(proc *model.Process, currentState, callerRole string, guardCtx guard.Context) ([]string, error) {
	sm := buildReadModel(proc, currentState, callerRole, guardCtx)
	triggers, err := sm.PermittedTriggers()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(triggers))
	for _, tr := range triggers {
		if name, ok := tr.(string); ok {
			names = append(names, name)
		}
	}
	return names, nil
}
