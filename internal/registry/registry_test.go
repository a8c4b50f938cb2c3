package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalValidYAML = `
id: review
version: "1.0.0"
initial_state: drafting
states:
  - name: drafting
  - name: done
    is_final: true
events:
  - name: submit
transitions:
  - from: drafting
    event: submit
    to: done
`

func TestRegistry_Get_NonBlockingMiss(t *testing.T) {
	r := New(t.TempDir())
	_, ok := r.Get("review")
	assert.False(t, ok)
}

func TestRegistry_GetAsync_LoadsYAMLExtension(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "review.yaml"), []byte(minimalValidYAML), 0o644))
	r := New(dir)

	p, err := r.GetAsync("review")
	require.NoError(t, err)
	assert.Equal(t, "review", p.ID)

	cached, ok := r.Get("review")
	require.True(t, ok)
	assert.Same(t, p, cached)
}

func TestRegistry_GetAsync_FallsBackToYmlExtension(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "review.yml"), []byte(minimalValidYAML), 0o644))
	r := New(dir)

	p, err := r.GetAsync("review")
	require.NoError(t, err)
	assert.Equal(t, "review", p.ID)
}

func TestRegistry_GetAsync_MissingFileIsNotFound(t *testing.T) {
	r := New(t.TempDir())
	_, err := r.GetAsync("review")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_GetAsync_StructurallyInvalidFileIsNotFound(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "review.yaml"), []byte("id: [this is not valid"), 0o644))
	r := New(dir)

	_, err := r.GetAsync("review")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_GetAsync_SemanticallyInvalidFileIsNotFound(t *testing.T) {
	dir := t.TempDir()
	const noFinalState = `
id: review
version: "1.0.0"
initial_state: drafting
states:
  - name: drafting
events:
  - name: submit
transitions: []
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "review.yaml"), []byte(noFinalState), 0o644))
	r := New(dir)

	_, err := r.GetAsync("review")
	assert.ErrorIs(t, err, ErrNotFound)

	_, ok := r.Get("review")
	assert.False(t, ok, "an invalid definition must never be memoized")
}
