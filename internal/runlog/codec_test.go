package runlog

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntry() Entry {
	return Entry{
		Timestamp:      time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC),
		State:          "drafting",
		Revision:       1,
		Event:          "submit",
		IdempotencyKey: "idem-1",
		ArtifactPaths:  []string{"document_v1.md"},
	}
}

func TestEncodeDecodeRecord_RoundTrip(t *testing.T) {
	e := sampleEntry()
	got, err := decodeRecord(encodeRecord(e))
	require.NoError(t, err)
	assert.True(t, got.Timestamp.Equal(e.Timestamp))
	assert.Equal(t, e.State, got.State)
	assert.Equal(t, e.Revision, got.Revision)
	assert.Equal(t, e.Event, got.Event)
	assert.Equal(t, e.IdempotencyKey, got.IdempotencyKey)
	assert.Equal(t, e.ArtifactPaths, got.ArtifactPaths)
}

func TestEncodeDecodeRecord_RFC4180Quoting(t *testing.T) {
	e := sampleEntry()
	e.Event = `submit, "final" review` + "\nwith a newline"

	var buf bytes.Buffer
	require.NoError(t, writeRows(&buf, e))

	entries, err := readRows(&buf)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, e.Event, entries[0].Event)
}

func TestDecodeRecord_WrongFieldCount(t *testing.T) {
	_, err := decodeRecord([]string{"a", "b"})
	assert.Error(t, err)
}

func TestDecodeRecord_EmptyArtifactPathsBecomesNil(t *testing.T) {
	e := sampleEntry()
	e.ArtifactPaths = nil
	got, err := decodeRecord(encodeRecord(e))
	require.NoError(t, err)
	assert.Nil(t, got.ArtifactPaths)
}

func TestReadRows_MissingHeaderOnEmptyFile(t *testing.T) {
	_, err := readRows(strings.NewReader(""))
	assert.Error(t, err)
}

func TestReadRows_HeaderThenEntries(t *testing.T) {
	var buf bytes.Buffer
	e1 := sampleEntry()
	e2 := sampleEntry()
	e2.Revision = 2
	e2.Event = "approve"
	require.NoError(t, writeRows(&buf, e1))
	require.NoError(t, appendRow(&buf, e2))

	entries, err := readRows(&buf)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Revision)
	assert.Equal(t, 2, entries[1].Revision)
}

func TestReadRows_WrongFieldCountPropagatesAsError(t *testing.T) {
	raw := strings.Join(Header, ",") + "\n" + "2026-07-29T12:00:00Z,state,1\n"
	_, err := readRows(strings.NewReader(raw))
	assert.Error(t, err)
}
