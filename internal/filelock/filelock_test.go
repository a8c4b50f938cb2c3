package filelock

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireRelease_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run-x.csv")

	h, err := Acquire(path, Options{RetryAttempts: 5, RetryInterval: time.Millisecond})
	require.NoError(t, err)
	_, statErr := os.Stat(path + ".lock")
	assert.NoError(t, statErr, "sentinel file must exist while held")

	require.NoError(t, h.Release())
	_, statErr = os.Stat(path + ".lock")
	assert.True(t, os.IsNotExist(statErr), "sentinel file must be removed on release")
}

func TestRelease_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run-x.csv")
	h, err := Acquire(path, Options{})
	require.NoError(t, err)
	require.NoError(t, h.Release())
	assert.NoError(t, h.Release(), "a second Release call must not error")
}

func TestAcquire_CrossProcessSentinelBlocksUntilReleased(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run-x.csv")

	// Simulate another process's live sentinel by writing one directly,
	// bypassing this process's in-process mutex.
	sentinelPath := path + ".lock"
	require.NoError(t, os.WriteFile(sentinelPath, []byte(`{"owner":"other","acquired_at":"`+time.Now().UTC().Format(time.RFC3339Nano)+`"}`), 0o644))

	start := time.Now()
	_, err := Acquire(path, Options{RetryAttempts: 3, RetryInterval: 10 * time.Millisecond, StaleAfter: time.Hour})
	assert.ErrorIs(t, err, ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestAcquire_ReclaimsStaleSentinel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run-x.csv")
	sentinelPath := path + ".lock"

	staleTimestamp := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339Nano)
	require.NoError(t, os.WriteFile(sentinelPath, []byte(`{"owner":"other","acquired_at":"`+staleTimestamp+`"}`), 0o644))

	h, err := Acquire(path, Options{RetryAttempts: 5, RetryInterval: time.Millisecond, StaleAfter: time.Second})
	require.NoError(t, err, "a sentinel older than StaleAfter must be reclaimable")
	require.NoError(t, h.Release())
}

func TestAcquire_InProcessSerialization(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run-x.csv")

	h1, err := Acquire(path, Options{})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		h2, err := Acquire(path, Options{RetryAttempts: 200, RetryInterval: 5 * time.Millisecond})
		if err != nil {
			done <- err
			return
		}
		done <- h2.Release()
	}()

	select {
	case <-done:
		t.Fatal("second Acquire must block until the first is released")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, h1.Release())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("second Acquire never completed after release")
	}
}
