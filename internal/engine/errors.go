// Package engine implements the state engine facade: the orchestration
// of create-run, emit-event and the read-only query use-cases over the
// process registry, run log store and metadata store.
package engine

import "fmt"

// Code is the closed error-code taxonomy surfaced verbatim to callers.
type Code string

const (
	CodeRunNotFound       Code = "RUN_NOT_FOUND"
	CodeProcessNotFound   Code = "PROCESS_NOT_FOUND"
	CodeRevisionConflict  Code = "REVISION_CONFLICT"
	CodeForbidden         Code = "FORBIDDEN"
	CodeGuardFailed       Code = "GUARD_FAILED"
	CodeInvalidEvent      Code = "INVALID_EVENT"
	CodeInvalidPayload    Code = "INVALID_PAYLOAD"
	CodeInvalidInput      Code = "INVALID_INPUT"
	CodeInternalError     Code = "INTERNAL_ERROR"
)

// ValidationError is one entry of an INVALID_PAYLOAD error's details.
// Path is a JSON-Pointer into the offending request field.
type ValidationError struct {
	Path    string
	Message string
}

// Error is the structured failure type every engine use-case returns on
// predictable-failure paths. Unexpected failures (I/O errors, malformed
// log rows, metadata shape breaks) are wrapped as CodeInternalError
// with the underlying detail attached; transports are expected to
// redact Internal when relaying to a caller.
type Error struct {
	Code    Code
	Message string

	// REVISION_CONFLICT detail.
	CurrentRevision  int
	ExpectedRevision int

	// GUARD_FAILED detail.
	GuardName         string
	MissingRequirements []string

	// INVALID_PAYLOAD detail.
	ValidationErrors []ValidationError

	// Internal is the underlying error for CodeInternalError, logged but
	// not necessarily surfaced to a remote caller.
	Internal error
}

func (e *Error) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Internal }

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func internalError(context string, err error) *Error {
	return &Error{Code: CodeInternalError, Message: context, Internal: err}
}
