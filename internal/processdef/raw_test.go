package processdef

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
id: review
version: "1.0.0"
initial_state: drafting
initial_context:
  owner: alice
  attempts: 0
states:
  - name: drafting
    prompt: "write the draft"
    required_artifacts: ["document"]
    tool_policy:
      bash: denied
      read: allowed
  - name: done
    is_final: true
events:
  - name: submit
    allowed_roles: ["agent"]
transitions:
  - from: drafting
    event: submit
    to: done
    guard: has_document
guards:
  - name: has_document
    type: artifact_exists
    artifact_type: document
artifacts:
  - type: document
    description: "the draft"
roles:
  - name: agent
    description: "the drafting agent"
`

func TestDecode_FullShape(t *testing.T) {
	raw, err := Decode([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "review", raw.ID)
	assert.Equal(t, "1.0.0", raw.Version)
	assert.Equal(t, "drafting", raw.InitialState)
	assert.Equal(t, "alice", raw.InitialContext["owner"])
	assert.EqualValues(t, 0, raw.InitialContext["attempts"])

	require.Len(t, raw.States, 2)
	assert.Equal(t, "drafting", raw.States[0].Name)
	assert.Equal(t, []string{"document"}, raw.States[0].RequiredArtifacts)
	assert.Equal(t, "denied", raw.States[0].ToolPolicy["bash"])
	assert.True(t, raw.States[1].IsFinal)

	require.Len(t, raw.Transitions, 1)
	assert.Equal(t, "has_document", raw.Transitions[0].Guard)

	require.Len(t, raw.Guards, 1)
	assert.Equal(t, "artifact_exists", raw.Guards[0].Type)
	assert.Equal(t, "document", raw.Guards[0].ArtifactType)

	require.Len(t, raw.Roles, 1)
	assert.Equal(t, "agent", raw.Roles[0].Name)
}

func TestDecode_InvalidYAMLReturnsError(t *testing.T) {
	_, err := Decode([]byte("id: [this is not valid"))
	assert.Error(t, err)
}

func TestDecode_EmptyInputIsZeroValue(t *testing.T) {
	raw, err := Decode([]byte(""))
	require.NoError(t, err)
	assert.Empty(t, raw.ID)
	assert.Nil(t, raw.States)
}
