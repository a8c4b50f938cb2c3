// Package role evaluates role membership against an event's or
// transition's allowed_roles list.
package role

import "github.com/caphtech/state-gate/internal/model"

const wildcard = "*"

// CheckEvent reports whether role may emit event, per event.AllowedRoles.
func CheckEvent(role string, event *model.EventDefinition) (bool, string) {
	if contains(event.AllowedRoles, wildcard) || contains(event.AllowedRoles, role) {
		return true, ""
	}
	return false, "role " + role + " is not permitted to emit event " + event.Name
}

// CheckTransition reports whether role may take transition. A transition
// with no AllowedRoles inherits whatever the event already allowed.
func CheckTransition(role string, t *model.Transition) (bool, string) {
	if len(t.AllowedRoles) == 0 {
		return true, ""
	}
	if contains(t.AllowedRoles, wildcard) || contains(t.AllowedRoles, role) {
		return true, ""
	}
	return false, "role " + role + " is not permitted to take this transition"
}

// CheckFull is the conjunction of CheckEvent and CheckTransition,
// short-circuiting on the event-level check.
func CheckFull(role string, event *model.EventDefinition, t *model.Transition) (bool, string) {
	if ok, reason := CheckEvent(role, event); !ok {
		return false, reason
	}
	return CheckTransition(role, t)
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
