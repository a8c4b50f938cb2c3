package runlog

import (
	"strings"
	"time"
)

// Entry is one row of a run's append-only log.
type Entry struct {
	Timestamp      time.Time `json:"timestamp"`
	State          string    `json:"state"`
	Revision       int       `json:"revision"`
	Event          string    `json:"event"`
	IdempotencyKey string    `json:"idempotency_key"`
	ArtifactPaths  []string  `json:"artifact_paths,omitempty"`
}

// Header is the fixed six-column header row.
var Header = []string{"timestamp", "state", "revision", "event", "idempotency_key", "artifact_paths"}

const artifactSep = ";"

// joinArtifacts renders an artifact path list as a single
// semicolon-delimited field; an empty list renders as the empty string.
func joinArtifacts(paths []string) string {
	return strings.Join(paths, artifactSep)
}

// splitArtifacts parses the semicolon-delimited artifact_paths field. An
// empty string parses to an empty (nil) list; any other value, including
// one made entirely of separators, splits on ";" literally, so "a;;b"
// yields ["a", "", "b"].
func splitArtifacts(field string) []string {
	if field == "" {
		return nil
	}
	return strings.Split(field, artifactSep)
}

// UnionArtifacts computes the order-preserving, deduplicated union of a
// prior artifact set and a newly attached set. Deduplication is by
// exact string, keeping first-seen order.
func UnionArtifacts(prior, next []string) []string {
	seen := make(map[string]bool, len(prior)+len(next))
	out := make([]string, 0, len(prior)+len(next))
	for _, p := range prior {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, p := range next {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
