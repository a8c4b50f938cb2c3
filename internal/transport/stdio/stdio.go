// Package stdio implements the "stategatectl serve" transport: a
// newline-delimited JSON request/response loop over the engine's six
// operations, exposing internal/engine to an agent-tool-use client one
// line at a time. The loop holds no engine-internal state; every
// request reloads state through the engine facade.
package stdio

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/caphtech/state-gate/internal/engine"
)

// Request is one line of request input.
type Request struct {
	ID     string          `json:"id,omitempty"`
	Op     string          `json:"op"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is one line of response output.
type Response struct {
	ID     string         `json:"id,omitempty"`
	Result any            `json:"result,omitempty"`
	Error  *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse mirrors engine.Error's closed code taxonomy.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Serve reads newline-delimited JSON requests from r, dispatches each to
// eng, and writes one newline-delimited JSON response per request to w.
// It returns when r is exhausted. A line that fails to decode as a
// Request is NOT fatal to the loop, in case of stray output from an
// upstream pipe: it is answered with an INVALID_INPUT response and the
// loop continues. A read error on r, or a failure to write a response,
// is returned to the caller.
func Serve(r io.Reader, w io.Writer, eng *engine.Engine) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	enc := json.NewEncoder(w)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			_ = enc.Encode(Response{Error: &ErrorResponse{Code: "INVALID_INPUT", Message: fmt.Sprintf("malformed request: %v", err)}})
			continue
		}

		resp := dispatch(eng, req)
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("stdio: write response: %w", err)
		}
	}
	return scanner.Err()
}

func dispatch(eng *engine.Engine, req Request) Response {
	resp := Response{ID: req.ID}

	result, err := call(eng, req.Op, req.Params)
	if err != nil {
		resp.Error = toErrorResponse(err)
		return resp
	}
	resp.Result = result
	return resp
}

func call(eng *engine.Engine, op string, params json.RawMessage) (any, error) {
	switch op {
	case "create_run":
		var p struct {
			ProcessID string         `json:"process_id"`
			Context   map[string]any `json:"context"`
		}
		if err := unmarshalParams(params, &p); err != nil {
			return nil, err
		}
		return eng.CreateRun(p.ProcessID, p.Context)

	case "get_state":
		var p struct {
			RunID string `json:"run_id"`
		}
		if err := unmarshalParams(params, &p); err != nil {
			return nil, err
		}
		return eng.GetState(p.RunID)

	case "list_events":
		var p struct {
			RunID          string `json:"run_id"`
			Role           string `json:"role"`
			IncludeBlocked bool   `json:"include_blocked"`
		}
		if err := unmarshalParams(params, &p); err != nil {
			return nil, err
		}
		return eng.ListEvents(p.RunID, p.Role, p.IncludeBlocked)

	case "emit_event":
		var p struct {
			RunID            string         `json:"run_id"`
			EventName        string         `json:"event_name"`
			ExpectedRevision int            `json:"expected_revision"`
			IdempotencyKey   string         `json:"idempotency_key"`
			Role             string         `json:"role"`
			Payload          map[string]any `json:"payload"`
			ArtifactPaths    []string       `json:"artifact_paths"`
		}
		if err := unmarshalParams(params, &p); err != nil {
			return nil, err
		}
		return eng.EmitEvent(engine.EmitEventRequest{
			RunID:            p.RunID,
			EventName:        p.EventName,
			ExpectedRevision: p.ExpectedRevision,
			IdempotencyKey:   p.IdempotencyKey,
			Role:             p.Role,
			Payload:          p.Payload,
			ArtifactPaths:    p.ArtifactPaths,
		})

	case "list_runs":
		return eng.ListRuns()

	case "get_event_history":
		var p struct {
			RunID string `json:"run_id"`
		}
		if err := unmarshalParams(params, &p); err != nil {
			return nil, err
		}
		return eng.GetEventHistory(p.RunID)

	default:
		return nil, &engine.Error{Code: engine.CodeInvalidInput, Message: fmt.Sprintf("unknown op %q", op)}
	}
}

func unmarshalParams(params json.RawMessage, v any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return &engine.Error{Code: engine.CodeInvalidInput, Message: fmt.Sprintf("malformed params: %v", err)}
	}
	return nil
}

func toErrorResponse(err error) *ErrorResponse {
	if ee, ok := err.(*engine.Error); ok {
		resp := &ErrorResponse{Code: string(ee.Code), Message: ee.Message}
		switch ee.Code {
		case engine.CodeRevisionConflict:
			resp.Details = map[string]int{"current_revision": ee.CurrentRevision, "expected_revision": ee.ExpectedRevision}
		case engine.CodeGuardFailed:
			resp.Details = map[string]any{"guard_name": ee.GuardName, "missing_requirements": ee.MissingRequirements}
		case engine.CodeInvalidPayload:
			resp.Details = ee.ValidationErrors
		}
		return resp
	}
	return &ErrorResponse{Code: string(engine.CodeInternalError), Message: err.Error()}
}
