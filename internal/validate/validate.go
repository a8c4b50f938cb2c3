// Package validate implements the static process validator: the
// structural CUE pre-check (internal/cueschema) has already run by the
// time Validate is called, so this package focuses on the
// semantic invariants that require inspecting the definition as a whole
// graph. Validation is total and order of reported errors is not
// guaranteed, but no error is reported twice for the same cause.
package validate

import (
	"fmt"

	"github.com/caphtech/state-gate/internal/model"
	"github.com/caphtech/state-gate/internal/processdef"
)

// Validate runs every static integrity check against a decoded process
// definition and either returns a Process with its indexes built
// (ready for internal/registry to cache) or a non-empty Errors list.
func Validate(raw *processdef.Raw) (*model.Process, Errors) {
	var errs Errors

	p := &model.Process{
		ID:           raw.ID,
		Version:      raw.Version,
		InitialState: raw.InitialState,
	}

	stateNames := make(map[string]bool, len(raw.States))
	for i, rs := range raw.States {
		path := fmt.Sprintf("/states/%d/name", i)
		if stateNames[rs.Name] {
			errs = append(errs, Error{CodeDuplicateStateName, path, fmt.Sprintf("duplicate state name %q", rs.Name)})
		}
		stateNames[rs.Name] = true

		policy := make(map[string]model.PermissionDecision, len(rs.ToolPolicy))
		for tool, decision := range rs.ToolPolicy {
			policy[tool] = model.PermissionDecision(decision)
		}
		p.States = append(p.States, model.State{
			Name:              rs.Name,
			Prompt:            rs.Prompt,
			RequiredArtifacts: rs.RequiredArtifacts,
			ToolPolicy:        policy,
			IsFinal:           rs.IsFinal,
		})
	}

	roleNames := make(map[string]bool, len(raw.Roles))
	for i, rr := range raw.Roles {
		path := fmt.Sprintf("/roles/%d/name", i)
		if roleNames[rr.Name] {
			errs = append(errs, Error{CodeDuplicateRoleName, path, fmt.Sprintf("duplicate role name %q", rr.Name)})
		}
		roleNames[rr.Name] = true
		p.Roles = append(p.Roles, model.RoleDefinition{Name: rr.Name, Description: rr.Description})
	}

	artifactTypes := make(map[string]bool, len(raw.Artifacts))
	for i, ra := range raw.Artifacts {
		path := fmt.Sprintf("/artifacts/%d/type", i)
		if artifactTypes[ra.Type] {
			errs = append(errs, Error{CodeDuplicateArtifactType, path, fmt.Sprintf("duplicate artifact type %q", ra.Type)})
		}
		artifactTypes[ra.Type] = true
		p.Artifacts = append(p.Artifacts, model.ArtifactDefinition{Type: ra.Type, Description: ra.Description})
	}

	eventNames := make(map[string]bool, len(raw.Events))
	for i, re := range raw.Events {
		path := fmt.Sprintf("/events/%d", i)
		if eventNames[re.Name] {
			errs = append(errs, Error{CodeDuplicateEventName, path + "/name", fmt.Sprintf("duplicate event name %q", re.Name)})
		}
		eventNames[re.Name] = true
		errs = append(errs, checkWildcardRoles(re.AllowedRoles, path+"/allowed_roles")...)
		errs = append(errs, checkRoleRefs(re.AllowedRoles, roleNames, path+"/allowed_roles")...)
		p.Events = append(p.Events, model.EventDefinition{Name: re.Name, AllowedRoles: re.AllowedRoles})
	}

	guardNames := make(map[string]bool, len(raw.Guards))
	for i, rg := range raw.Guards {
		path := fmt.Sprintf("/guards/%d", i)
		if guardNames[rg.Name] {
			errs = append(errs, Error{CodeDuplicateGuardName, path + "/name", fmt.Sprintf("duplicate guard name %q", rg.Name)})
		}
		guardNames[rg.Name] = true

		g, gerrs := buildGuard(rg, path)
		errs = append(errs, gerrs...)
		if g != nil {
			if g.ArtifactType != "" && !artifactTypes[g.ArtifactType] {
				errs = append(errs, Error{CodeInvalidArtifactTypeRef, path + "/artifact_type", fmt.Sprintf("guard %q references undefined artifact type %q", rg.Name, g.ArtifactType)})
			}
			p.Guards = append(p.Guards, *g)
		}
	}

	for i, rt := range raw.Transitions {
		path := fmt.Sprintf("/transitions/%d", i)
		if !stateNames[rt.From] {
			errs = append(errs, Error{CodeInvalidTransitionFrom, path + "/from", fmt.Sprintf("transition references undefined state %q", rt.From)})
		}
		if !stateNames[rt.To] {
			errs = append(errs, Error{CodeInvalidTransitionTo, path + "/to", fmt.Sprintf("transition references undefined state %q", rt.To)})
		}
		if !eventNames[rt.Event] {
			errs = append(errs, Error{CodeInvalidEventReference, path + "/event", fmt.Sprintf("transition references undefined event %q", rt.Event)})
		}
		if rt.Guard != "" && !guardNames[rt.Guard] {
			errs = append(errs, Error{CodeInvalidGuardReference, path + "/guard", fmt.Sprintf("transition references undefined guard %q", rt.Guard)})
		}
		errs = append(errs, checkWildcardRoles(rt.AllowedRoles, path+"/allowed_roles")...)
		errs = append(errs, checkRoleRefs(rt.AllowedRoles, roleNames, path+"/allowed_roles")...)
		p.Transitions = append(p.Transitions, model.Transition{
			From: rt.From, Event: rt.Event, To: rt.To,
			Guard: rt.Guard, AllowedRoles: rt.AllowedRoles,
		})
	}

	for i, rs := range raw.States {
		path := fmt.Sprintf("/states/%d/required_artifacts", i)
		for _, t := range rs.RequiredArtifacts {
			if !artifactTypes[t] {
				errs = append(errs, Error{CodeInvalidRequiredArtifact, path, fmt.Sprintf("state %q requires undefined artifact type %q", rs.Name, t)})
			}
		}
	}

	if raw.InitialState == "" || !stateNames[raw.InitialState] {
		errs = append(errs, Error{CodeInvalidInitialState, "/initial_state", fmt.Sprintf("initial_state %q is not a defined state", raw.InitialState)})
	}

	finalCount := 0
	for _, s := range p.States {
		if s.IsFinal {
			finalCount++
		}
	}
	if finalCount == 0 {
		errs = append(errs, Error{CodeNoFinalState, "/states", "process has no state with is_final = true"})
	}

	if raw.InitialState != "" && stateNames[raw.InitialState] {
		errs = append(errs, checkReachability(p)...)
	}

	p.InitialContext = make(map[string]model.Value, len(raw.InitialContext))
	for k, v := range raw.InitialContext {
		val, err := model.FromAny(v)
		if err != nil {
			errs = append(errs, Error{CodeInvalidContextValue, "/initial_context/" + k, err.Error()})
			continue
		}
		p.InitialContext[k] = val
	}

	if len(errs) > 0 {
		return nil, errs
	}

	p.BuildIndexes()
	return p, nil
}

func buildGuard(rg processdef.RawGuard, path string) (*model.Guard, Errors) {
	var errs Errors
	g := &model.Guard{Name: rg.Name, Var: rg.Var, ArtifactType: rg.ArtifactType}

	switch rg.Type {
	case "artifact_exists":
		g.Kind = model.GuardArtifactExists
	case "artifact_count":
		g.Kind = model.GuardArtifactCount
		if rg.Min == nil || *rg.Min < 0 {
			errs = append(errs, Error{CodeInvalidMinCount, path + "/min", fmt.Sprintf("guard %q has invalid min count", rg.Name)})
		} else {
			g.Min = *rg.Min
		}
	case "context_equals":
		g.Kind = model.GuardContextEquals
		g.Value = mustValue(rg.Value)
	case "context_not_equals":
		g.Kind = model.GuardContextNotEquals
		g.Value = mustValue(rg.Value)
	case "context_in":
		g.Kind = model.GuardContextIn
		g.Values = mustValues(rg.Values)
	case "context_not_in":
		g.Kind = model.GuardContextNotIn
		g.Values = mustValues(rg.Values)
	case "context_exists":
		g.Kind = model.GuardContextExists
	case "context_not_exists":
		g.Kind = model.GuardContextNotExists
	default:
		errs = append(errs, Error{CodeUnknownGuardKind, path + "/type", fmt.Sprintf("guard %q has unrecognized type %q", rg.Name, rg.Type)})
		return nil, errs
	}
	return g, errs
}

func mustValue(v any) model.Value {
	val, err := model.FromAny(v)
	if err != nil {
		return model.Null
	}
	return val
}

func mustValues(vs []any) []model.Value {
	out := make([]model.Value, 0, len(vs))
	for _, v := range vs {
		out = append(out, mustValue(v))
	}
	return out
}

func checkWildcardRoles(roles []string, path string) Errors {
	if len(roles) <= 1 {
		return nil
	}
	hasWildcard := false
	for _, r := range roles {
		if r == "*" {
			hasWildcard = true
			break
		}
	}
	if hasWildcard {
		return Errors{{CodeInvalidWildcardRole, path, "allowed_roles mixes wildcard \"*\" with concrete role names"}}
	}
	return nil
}

func checkRoleRefs(roles []string, known map[string]bool, path string) Errors {
	var errs Errors
	for _, r := range roles {
		if r == "*" {
			continue
		}
		if !known[r] {
			errs = append(errs, Error{CodeInvalidRoleReference, path, fmt.Sprintf("role %q is not defined", r)})
		}
	}
	return errs
}

// checkReachability performs a BFS from initial_state over the directed
// edge set {(t.From -> t.To)} and reports every state not reached.
func checkReachability(p *model.Process) Errors {
	adj := make(map[string][]string)
	for _, t := range p.Transitions {
		adj[t.From] = append(adj[t.From], t.To)
	}

	visited := map[string]bool{p.InitialState: true}
	queue := []string{p.InitialState}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adj[cur] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	var errs Errors
	for i, s := range p.States {
		if !visited[s.Name] {
			errs = append(errs, Error{CodeUnreachableState, fmt.Sprintf("/states/%d", i), fmt.Sprintf("state %q is not reachable from initial_state %q", s.Name, p.InitialState)})
		}
	}
	return errs
}
