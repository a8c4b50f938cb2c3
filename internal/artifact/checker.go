// Package artifact implements the filesystem-backed artifact presence
// checker: path safety, existence probing, and artifact-type filtering
// by basename convention.
package artifact

import (
	"os"
	"path/filepath"
	"strings"
)

// ErrPathInvalid is returned when a candidate path fails the path-safety
// check, before any I/O is attempted.
type ErrPathInvalid struct {
	Path   string
	Reason string
}

func (e *ErrPathInvalid) Error() string {
	return "artifact: path " + e.Path + " invalid: " + e.Reason
}

// ValidatePath enforces the path-safety rule: non-empty, no ".."
// segment, not absolute, and not a drive-letter path (e.g. "C:\...").
func ValidatePath(path string) error {
	if path == "" {
		return &ErrPathInvalid{path, "empty path"}
	}
	if strings.HasPrefix(path, "/") {
		return &ErrPathInvalid{path, "absolute path"}
	}
	if len(path) >= 2 && path[1] == ':' && isASCIILetter(path[0]) {
		return &ErrPathInvalid{path, "drive-letter path"}
	}
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if seg == ".." {
			return &ErrPathInvalid{path, "contains \"..\" segment"}
		}
	}
	return nil
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// Checker resolves artifact paths against an optional base directory and
// probes presence on disk.
type Checker struct {
	// BasePath is the directory paths are resolved under. When empty,
	// paths are treated as process-relative (resolved against the
	// current working directory).
	BasePath string
}

// New constructs a Checker rooted at base (may be empty).
func New(base string) *Checker {
	return &Checker{BasePath: base}
}

func (c *Checker) resolve(path string) string {
	if c.BasePath == "" {
		return path
	}
	return filepath.Join(c.BasePath, path)
}

// Present reports whether path exists on disk, after validating path
// safety. A validation failure is returned as an error; a clean
// not-found is reported as (false, nil).
func (c *Checker) Present(path string) (bool, error) {
	if err := ValidatePath(path); err != nil {
		return false, err
	}
	_, err := os.Stat(c.resolve(path))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// AnyPresent reports whether at least one of paths is present on disk.
func (c *Checker) AnyPresent(paths []string) (bool, error) {
	for _, p := range paths {
		ok, err := c.Present(p)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// CountPresent counts how many of paths are present on disk.
func (c *Checker) CountPresent(paths []string) (int, error) {
	n := 0
	for _, p := range paths {
		ok, err := c.Present(p)
		if err != nil {
			return 0, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

// FilterByType keeps paths whose basename (stripped of its final
// extension) case-insensitively equals artifactType, or begins/ends with
// artifactType followed/preceded by "_" or "-". It does
// not match a basename that merely contains the type as a substring
// without one of those separators (e.g. type "document" must not match
// "documents.md" or "mydocument.md").
func FilterByType(paths []string, artifactType string) []string {
	t := strings.ToLower(artifactType)
	var out []string
	for _, p := range paths {
		base := filepath.Base(p)
		ext := filepath.Ext(base)
		stem := strings.ToLower(strings.TrimSuffix(base, ext))

		switch {
		case stem == t:
			out = append(out, p)
		case strings.HasPrefix(stem, t+"_") || strings.HasPrefix(stem, t+"-"):
			out = append(out, p)
		case strings.HasSuffix(stem, "_"+t) || strings.HasSuffix(stem, "-"+t):
			out = append(out, p)
		}
	}
	return out
}
