// Package hookadapter is the decision function a tool-gating hook calls
// after consulting GetState: given the run's current state and a tool
// name, decide allow/deny/ask. This package implements only the pure
// decision function; the process that intercepts a tool call and
// actually enforces the decision lives outside the engine.
package hookadapter

import "github.com/caphtech/state-gate/internal/model"

// Decide consults state's per-state tool-permission policy for
// toolName. A tool with
// no explicit entry defaults to "ask": the policy is opt-in allow/deny,
// so an unlisted tool is neither silently trusted nor silently blocked.
// role is accepted for forward compatibility with a per-role policy but
// is not consulted by the current data model, which keys the policy by
// tool name alone.
func Decide(state *model.State, toolName, role string) model.PermissionDecision {
	_ = role
	if state == nil || state.ToolPolicy == nil {
		return model.PermissionAsk
	}
	if decision, ok := state.ToolPolicy[toolName]; ok {
		return decision
	}
	return model.PermissionAsk
}
