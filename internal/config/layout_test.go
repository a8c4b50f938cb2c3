package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLayout_Paths(t *testing.T) {
	l := DefaultLayout("/root/project")
	assert.Equal(t, "/root/project/.state_gate", l.StateGateDir())
	assert.Equal(t, "/root/project/.state_gate/runs", l.RunsDir())
	assert.Equal(t, "/root/project/.state_gate/metadata", l.MetadataDir())
	assert.Equal(t, "/root/project/.state_gate/artifacts", l.ArtifactsDir())
	assert.Equal(t, "/root/project/.state_gate/artifacts/run-abc", l.RunArtifactsDir("run-abc"))
	assert.Equal(t, "/root/project/.state_gate/processes", l.ProcessesDir())
	assert.Equal(t, "/root/project/.state_gate/state.json", l.DefaultRunPointerPath())
	assert.Equal(t, DefaultLogExt, l.LogExt)
}

func TestLoadLayout_MissingConfigFileIsNotAnError(t *testing.T) {
	root := t.TempDir()
	l, err := LoadLayout(root)
	require.NoError(t, err)
	assert.Equal(t, DefaultLogExt, l.LogExt)
}

func TestLoadLayout_AppliesOverridesFromConfigFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, DefaultStateGateDir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, DefaultStateGateDir, ConfigFileName), []byte("log_ext: jsonl\n"), 0o644))

	l, err := LoadLayout(root)
	require.NoError(t, err)
	assert.Equal(t, "jsonl", l.LogExt)
}

func TestLoadLayoutFromBytes_InvalidYAML(t *testing.T) {
	_, err := LoadLayoutFromBytes(t.TempDir(), []byte("log_ext: [this is not valid"))
	assert.ErrorIs(t, err, ErrInvalidYAML)
}

func TestLoadLayoutFromBytes_EmptyIsDefaults(t *testing.T) {
	l, err := LoadLayoutFromBytes(t.TempDir(), nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultLogExt, l.LogExt)
}

func TestApplyDefaults_DoesNotOverrideExplicitValues(t *testing.T) {
	l := &Layout{Root: "/x", LogExt: "jsonl"}
	ApplyDefaults(l)
	assert.Equal(t, "jsonl", l.LogExt)
}
