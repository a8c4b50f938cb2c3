// Package processdef decodes on-disk process definition files (YAML) into
// the raw shape consumed by internal/cueschema (structural check) and
// internal/validate (semantic check + model.Process construction). The
// decode step is a plain gopkg.in/yaml.v3 Unmarshal into a typed Go
// struct, with no business logic performed during decode.
package processdef

import "gopkg.in/yaml.v3"

// Raw is the as-parsed shape of a `.state_gate/processes/<id>.yaml` file.
// Field types deliberately stay close to YAML's own primitive set so that
// internal/cueschema can unify the decoded value against the CUE schema
// before any Go-level semantic interpretation happens.
type Raw struct {
	ID      string `yaml:"id"`
	Version string `yaml:"version"`

	InitialState   string         `yaml:"initial_state"`
	InitialContext map[string]any `yaml:"initial_context"`

	States      []RawState      `yaml:"states"`
	Events      []RawEvent      `yaml:"events"`
	Transitions []RawTransition `yaml:"transitions"`
	Guards      []RawGuard      `yaml:"guards"`
	Artifacts   []RawArtifact   `yaml:"artifacts"`
	Roles       []RawRole       `yaml:"roles"`
}

// RawState is one entry of Raw.States.
type RawState struct {
	Name              string            `yaml:"name"`
	Prompt            string            `yaml:"prompt"`
	RequiredArtifacts []string          `yaml:"required_artifacts"`
	ToolPolicy        map[string]string `yaml:"tool_policy"`
	IsFinal           bool              `yaml:"is_final"`
}

// RawEvent is one entry of Raw.Events.
type RawEvent struct {
	Name         string   `yaml:"name"`
	AllowedRoles []string `yaml:"allowed_roles"`
}

// RawTransition is one entry of Raw.Transitions.
type RawTransition struct {
	From         string   `yaml:"from"`
	Event        string   `yaml:"event"`
	To           string   `yaml:"to"`
	Guard        string   `yaml:"guard"`
	AllowedRoles []string `yaml:"allowed_roles"`
}

// RawGuard is one entry of Raw.Guards, keyed by Name. Type selects which
// kind-specific fields are meaningful: ArtifactType (plus Min for
// artifact_count) for the artifact kinds, Var (plus Value or Values
// where the kind compares) for the context kinds.
type RawGuard struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"` // one of the eight guard kinds

	ArtifactType string `yaml:"artifact_type"`
	Min          *int   `yaml:"min"`

	Var    string `yaml:"var"`
	Value  any    `yaml:"value"`
	Values []any  `yaml:"values"`
}

// RawArtifact is one entry of Raw.Artifacts.
type RawArtifact struct {
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
}

// RawRole is one entry of Raw.Roles.
type RawRole struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Decode parses raw process definition bytes.
func Decode(data []byte) (*Raw, error) {
	var r Raw
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
