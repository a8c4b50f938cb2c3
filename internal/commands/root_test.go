package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const simpleProcessYAML = `
id: simple-process
version: "1.0.0"
initial_state: start
states:
  - name: start
  - name: end
    is_final: true
events:
  - name: finish
    allowed_roles: ["agent"]
transitions:
  - from: start
    event: finish
    to: end
roles:
  - name: agent
`

// newTestRoot writes simpleProcessYAML into a fresh .state_gate root and
// returns the root directory path.
func newTestRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	processesDir := filepath.Join(root, ".state_gate", "processes")
	require.NoError(t, os.MkdirAll(processesDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(processesDir, "simple-process.yaml"), []byte(simpleProcessYAML), 0o644))
	return root
}

func run(t *testing.T, root string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--root", root}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCLI_CreateRunThenEmitEventThenGetState(t *testing.T) {
	root := newTestRoot(t)

	createOut, _, err := run(t, root, "create-run", "simple-process", "--set-default")
	require.NoError(t, err)
	assert.Contains(t, createOut, "initial_state=start")
	assert.Contains(t, createOut, "revision=1")

	emitOut, _, err := run(t, root, "emit-event", "finish", "--role", "agent", "--expected-revision", "1", "--idempotency-key", "k1")
	require.NoError(t, err)
	assert.Contains(t, emitOut, "start -> end")
	assert.Contains(t, emitOut, "new_revision=2")

	stateOut, _, err := run(t, root, "get-state")
	require.NoError(t, err)
	assert.Contains(t, stateOut, "state=end")
	assert.Contains(t, stateOut, "revision=2")
}

func TestCLI_EmitEvent_RevisionConflictSurfacesEngineError(t *testing.T) {
	root := newTestRoot(t)

	_, _, err := run(t, root, "create-run", "simple-process", "--set-default")
	require.NoError(t, err)

	_, errOut, err := run(t, root, "emit-event", "finish", "--role", "agent", "--expected-revision", "99", "--idempotency-key", "k1")
	require.Error(t, err)
	assert.Contains(t, errOut, "REVISION_CONFLICT")
}

func TestCLI_EmitEvent_RequiresIdempotencyKey(t *testing.T) {
	root := newTestRoot(t)
	_, _, err := run(t, root, "create-run", "simple-process", "--set-default")
	require.NoError(t, err)

	_, _, err = run(t, root, "emit-event", "finish", "--role", "agent", "--expected-revision", "1")
	assert.Error(t, err)
}

func TestCLI_GetState_NoDefaultRunConfigured(t *testing.T) {
	root := newTestRoot(t)
	_, _, err := run(t, root, "get-state")
	assert.Error(t, err)
}

func TestCLI_ListRuns(t *testing.T) {
	root := newTestRoot(t)
	_, _, err := run(t, root, "create-run", "simple-process")
	require.NoError(t, err)
	_, _, err = run(t, root, "create-run", "simple-process")
	require.NoError(t, err)

	out, _, err := run(t, root, "list-runs")
	require.NoError(t, err)
	assert.Equal(t, 2, bytes.Count([]byte(out), []byte("simple-process")))
}
