// Package runlog implements the append-only run log store: one
// CSV-shaped file per run, atomic creation, lock-protected
// revision-checked append, and streaming/convenience readers. The log
// is the durable source of truth for a run's current state and
// revision, and stays human-readable so operators can inspect it.
package runlog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/caphtech/state-gate/internal/filelock"
)

// ErrAlreadyExists is returned by CreateRun when the run's log file
// already exists.
var ErrAlreadyExists = errors.New("runlog: run already exists")

// ErrNotFound is returned by operations on a run whose log file is
// absent.
var ErrNotFound = errors.New("runlog: run not found")

// Store is a directory of per-run CSV log files.
type Store struct {
	Dir string
	Ext string // file extension without the dot, e.g. "csv"
}

// New constructs a Store rooted at dir, using ext (default "csv" if
// empty) as the log file extension.
func New(dir, ext string) *Store {
	if ext == "" {
		ext = "csv"
	}
	return &Store{Dir: dir, Ext: ext}
}

func (s *Store) path(runID string) string {
	return filepath.Join(s.Dir, runID+"."+s.Ext)
}

// Exists reports whether runID has a log file.
func (s *Store) Exists(runID string) bool {
	_, err := os.Stat(s.path(runID))
	return err == nil
}

// CreateRun writes the header and the synthetic init entry in a single
// write, failing if the file already exists.
func (s *Store) CreateRun(runID string, init Entry) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("runlog: create runs dir: %w", err)
	}

	path := s.path(runID)
	lock, err := filelock.Acquire(path, filelock.Options{})
	if err != nil {
		return fmt.Errorf("runlog: acquire lock: %w", err)
	}
	defer lock.Release()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("runlog: create log file: %w", err)
	}
	defer f.Close()

	if err := writeRows(f, init); err != nil {
		return err
	}
	return f.Sync()
}

// AppendEntry appends one row unconditionally; it fails if the run's log
// file is absent.
func (s *Store) AppendEntry(runID string, e Entry) error {
	path := s.path(runID)
	if !s.Exists(runID) {
		return ErrNotFound
	}

	lock, err := filelock.Acquire(path, filelock.Options{})
	if err != nil {
		return fmt.Errorf("runlog: acquire lock: %w", err)
	}
	defer lock.Release()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("runlog: open log file: %w", err)
	}
	defer f.Close()

	if err := appendRow(f, e); err != nil {
		return err
	}
	return f.Sync()
}

// AppendResult is the outcome of AppendWithRevisionCheck.
type AppendResult struct {
	Conflict        bool
	CurrentRevision int
}

// AppendWithRevisionCheck is the commit primitive: under an exclusive
// per-run lock, it re-reads the latest entry and compares its revision
// against expectedRevision before appending. This re-read-then-append
// under lock is the single linearization point; comparing outside the
// lock would reintroduce the TOCTOU hazard between the revision check
// and the write.
func (s *Store) AppendWithRevisionCheck(runID string, e Entry, expectedRevision int) (AppendResult, error) {
	path := s.path(runID)
	if !s.Exists(runID) {
		return AppendResult{}, ErrNotFound
	}

	lock, err := filelock.Acquire(path, filelock.Options{})
	if err != nil {
		return AppendResult{}, fmt.Errorf("runlog: acquire lock: %w", err)
	}
	defer lock.Release()

	entries, err := s.readEntriesUnlocked(runID)
	if err != nil {
		return AppendResult{}, err
	}
	if len(entries) == 0 {
		return AppendResult{}, ErrNotFound
	}
	latest := entries[len(entries)-1]
	if latest.Revision != expectedRevision {
		return AppendResult{Conflict: true, CurrentRevision: latest.Revision}, nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return AppendResult{}, fmt.Errorf("runlog: open log file: %w", err)
	}
	defer f.Close()

	if err := appendRow(f, e); err != nil {
		return AppendResult{}, err
	}
	if err := f.Sync(); err != nil {
		return AppendResult{}, err
	}
	return AppendResult{Conflict: false}, nil
}

// ReadEntries streams (eagerly, into a slice) all parsed entries for
// runID in file order.
func (s *Store) ReadEntries(runID string) ([]Entry, error) {
	if !s.Exists(runID) {
		return nil, ErrNotFound
	}
	return s.readEntriesUnlocked(runID)
}

func (s *Store) readEntriesUnlocked(runID string) ([]Entry, error) {
	f, err := os.Open(s.path(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("runlog: open log file: %w", err)
	}
	defer f.Close()
	return readRows(f)
}

// GetLatestEntry returns the last row of runID's log.
func (s *Store) GetLatestEntry(runID string) (Entry, error) {
	entries, err := s.ReadEntries(runID)
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, ErrNotFound
	}
	return entries[len(entries)-1], nil
}

// GetEntryByIdempotencyKey finds the (first, and by invariant only) entry
// whose IdempotencyKey matches key.
func (s *Store) GetEntryByIdempotencyKey(runID, key string) (Entry, bool, error) {
	entries, err := s.ReadEntries(runID)
	if err != nil {
		return Entry{}, false, err
	}
	for _, e := range entries {
		if e.IdempotencyKey == key {
			return e, true, nil
		}
	}
	return Entry{}, false, nil
}

// ListRunIDs enumerates files matching "run-*.<ext>" in Dir.
func (s *Store) ListRunIDs() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.Dir, "run-*."+s.Ext))
	if err != nil {
		return nil, fmt.Errorf("runlog: list run ids: %w", err)
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		base := filepath.Base(m)
		ids = append(ids, base[:len(base)-len(s.Ext)-1])
	}
	sort.Strings(ids)
	return ids, nil
}
