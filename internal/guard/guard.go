// Package guard evaluates a single model.Guard against a run context:
// the cumulative artifact set, the context variable map, and an
// optional artifact base path.
//
// Context predicates are deliberately asymmetric around missing
// variables: an undefined variable leaves every comparison predicate
// unsatisfied, including NotEquals and NotIn, which require the
// variable to be defined. Only NotExists is satisfied by absence.
package guard

import (
	"fmt"

	"github.com/caphtech/state-gate/internal/artifact"
	"github.com/caphtech/state-gate/internal/model"
)

// Context is the evaluation context a guard is checked against.
type Context struct {
	ArtifactPaths   []string
	ContextVars     map[string]model.Value
	ArtifactBasePath string
}

// Result is the outcome of evaluating one guard.
type Result struct {
	Satisfied bool
	Reasons   []string
}

// Evaluate applies one of the eight guard predicates. The switch over
// g.Kind is exhaustive; an unrecognized Kind cannot occur here because
// internal/validate rejects it before a Process is ever constructed.
func Evaluate(g *model.Guard, ctx Context) Result {
	checker := artifact.New(ctx.ArtifactBasePath)

	switch g.Kind {
	case model.GuardArtifactExists:
		matches := artifact.FilterByType(ctx.ArtifactPaths, g.ArtifactType)
		ok, err := checker.AnyPresent(matches)
		if err != nil || !ok {
			return unsatisfied(fmt.Sprintf("no present artifact of type %q", g.ArtifactType))
		}
		return satisfied()

	case model.GuardArtifactCount:
		if g.Min == 0 {
			return satisfied()
		}
		matches := artifact.FilterByType(ctx.ArtifactPaths, g.ArtifactType)
		n, err := checker.CountPresent(matches)
		if err != nil || n < g.Min {
			return unsatisfied(fmt.Sprintf("only %d present artifact(s) of type %q, need %d", n, g.ArtifactType, g.Min))
		}
		return satisfied()

	case model.GuardContextEquals:
		v, ok := ctx.ContextVars[g.Var]
		if !ok || !v.Equal(g.Value) {
			return unsatisfied(fmt.Sprintf("context.%s does not equal expected value", g.Var))
		}
		return satisfied()

	case model.GuardContextNotEquals:
		// An undefined variable is unsatisfied for NotEquals too.
		v, ok := ctx.ContextVars[g.Var]
		if !ok {
			return unsatisfied(fmt.Sprintf("context.%s is not defined", g.Var))
		}
		if v.Equal(g.Value) {
			return unsatisfied(fmt.Sprintf("context.%s equals the excluded value", g.Var))
		}
		return satisfied()

	case model.GuardContextIn:
		v, ok := ctx.ContextVars[g.Var]
		if !ok || !valueIn(v, g.Values) {
			return unsatisfied(fmt.Sprintf("context.%s is not in the allowed set", g.Var))
		}
		return satisfied()

	case model.GuardContextNotIn:
		v, ok := ctx.ContextVars[g.Var]
		if !ok {
			return unsatisfied(fmt.Sprintf("context.%s is not defined", g.Var))
		}
		if valueIn(v, g.Values) {
			return unsatisfied(fmt.Sprintf("context.%s is in the excluded set", g.Var))
		}
		return satisfied()

	case model.GuardContextExists:
		if _, ok := ctx.ContextVars[g.Var]; !ok {
			return unsatisfied(fmt.Sprintf("context.%s is not defined", g.Var))
		}
		return satisfied()

	case model.GuardContextNotExists:
		if _, ok := ctx.ContextVars[g.Var]; ok {
			return unsatisfied(fmt.Sprintf("context.%s is defined", g.Var))
		}
		return satisfied()

	default:
		return unsatisfied("unrecognized guard kind")
	}
}

func valueIn(v model.Value, set []model.Value) bool {
	for _, s := range set {
		if v.Equal(s) {
			return true
		}
	}
	return false
}

func satisfied() Result { return Result{Satisfied: true} }

func unsatisfied(reason string) Result {
	return Result{Satisfied: false, Reasons: []string{reason}}
}

// EvaluateNamed evaluates a transition-level guard reference: an empty
// name is trivially satisfied, and an unknown name is an unsatisfied
// result, not a runtime error, since static validation should already
// have prevented it.
func EvaluateNamed(p *model.Process, guardName string, ctx Context) Result {
	if guardName == "" {
		return satisfied()
	}
	g, ok := p.GuardByName(guardName)
	if !ok {
		return unsatisfied("guard not defined")
	}
	return Evaluate(g, ctx)
}
