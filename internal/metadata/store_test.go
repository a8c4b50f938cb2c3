package metadata

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveLoad_RoundTrip(t *testing.T) {
	s := New(t.TempDir())
	m := &Metadata{
		RunID:            "run-abc",
		ProcessID:        "review",
		CreatedAt:        time.Date(2026, 7, 29, 9, 0, 0, 0, time.UTC),
		Context:          map[string]any{"reviewer": "alice"},
		ArtifactBasePath: "/runs/run-abc/artifacts",
	}
	require.NoError(t, s.Save(m))
	assert.True(t, s.Exists("run-abc"))

	got, err := s.Load("run-abc")
	require.NoError(t, err)
	assert.Equal(t, m.RunID, got.RunID)
	assert.Equal(t, m.ProcessID, got.ProcessID)
	assert.True(t, m.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, m.Context, got.Context)
	assert.Equal(t, m.ArtifactBasePath, got.ArtifactBasePath)
}

func TestStore_Load_NotFound(t *testing.T) {
	s := New(t.TempDir())
	_, err := s.Load("run-missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Load_InvalidShape(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run-bad.json"), []byte(`{"run_id": "", "process_id": "x", "context": {}, "created_at": "2026-07-29T00:00:00Z"}`), 0o644))

	_, err := s.Load("run-bad")
	var invalid *ErrInvalid
	assert.ErrorAs(t, err, &invalid)
}

func TestStore_Load_MalformedJSON(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run-bad.json"), []byte("not json"), 0o644))

	_, err := s.Load("run-bad")
	var invalid *ErrInvalid
	assert.ErrorAs(t, err, &invalid)
}

func TestStore_ListAll_SkipsInvalidFiles(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	good := &Metadata{RunID: "run-aaa", ProcessID: "review", CreatedAt: time.Now().UTC().Truncate(time.Second), Context: map[string]any{}}
	require.NoError(t, s.Save(good))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run-bbb.json"), []byte("not json"), 0o644))

	all, err := s.ListAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "run-aaa", all[0].RunID)
}

func TestStore_ListAll_MissingDirIsNotAnError(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "does-not-exist"))
	all, err := s.ListAll()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStore_Delete(t *testing.T) {
	s := New(t.TempDir())
	m := &Metadata{RunID: "run-abc", ProcessID: "review", CreatedAt: time.Now().UTC(), Context: map[string]any{}}
	require.NoError(t, s.Save(m))

	require.NoError(t, s.Delete("run-abc"))
	assert.False(t, s.Exists("run-abc"))

	err := s.Delete("run-abc")
	assert.ErrorIs(t, err, ErrNotFound)
}
