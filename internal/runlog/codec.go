package runlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

const timeLayout = time.RFC3339

// encodeRecord renders an Entry as a six-field record. Quoting and
// escaping (comma/quote/newline -> double-quoted, internal quote
// doubled) is delegated to encoding/csv's RFC-4180 rules, which is
// also what the parser accepts, so operator-edited files round-trip.
func encodeRecord(e Entry) []string {
	return []string{
		e.Timestamp.UTC().Format(timeLayout),
		e.State,
		strconv.Itoa(e.Revision),
		e.Event,
		e.IdempotencyKey,
		joinArtifacts(e.ArtifactPaths),
	}
}

func decodeRecord(rec []string) (Entry, error) {
	if len(rec) != 6 {
		return Entry{}, fmt.Errorf("runlog: record has %d fields, want 6", len(rec))
	}
	ts, err := time.Parse(timeLayout, rec[0])
	if err != nil {
		return Entry{}, fmt.Errorf("runlog: parse timestamp %q: %w", rec[0], err)
	}
	rev, err := strconv.Atoi(rec[2])
	if err != nil {
		return Entry{}, fmt.Errorf("runlog: parse revision %q: %w", rec[2], err)
	}
	return Entry{
		Timestamp:      ts,
		State:          rec[1],
		Revision:       rev,
		Event:          rec[3],
		IdempotencyKey: rec[4],
		ArtifactPaths:  splitArtifacts(rec[5]),
	}, nil
}

// writeRows writes the header followed by each entry to w as a single
// logical write, used for CreateRun's atomic header+init-row write.
func writeRows(w io.Writer, entries ...Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("runlog: write header: %w", err)
	}
	for _, e := range entries {
		if err := cw.Write(encodeRecord(e)); err != nil {
			return fmt.Errorf("runlog: write entry: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// appendRow appends one entry's encoded record to w.
func appendRow(w io.Writer, e Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(encodeRecord(e)); err != nil {
		return fmt.Errorf("runlog: write entry: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// readRows parses every row after the header from r. A record with the
// wrong column count fails parsing hard, propagating encoding/csv's own
// field-count error since FieldsPerRecord is pinned to len(Header).
func readRows(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("runlog: empty log file, missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("runlog: read header: %w", err)
	}
	if len(header) != len(Header) {
		return nil, fmt.Errorf("runlog: unexpected header shape")
	}

	var entries []Entry
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("runlog: read row: %w", err)
		}
		e, err := decodeRecord(rec)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
