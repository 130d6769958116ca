package tools

import (
	"bytes"
	"encoding/json"
)

// Result is the outcome of one invocation: a JSON payload or a failure message.
type Result struct {
	payload json.RawMessage
	message string
	failed  bool
}

// Success wraps an upstream payload.
func Success(payload json.RawMessage) Result {
	return Result{payload: payload}
}

// Failure wraps an error message.
func Failure(message string) Result {
	return Result{message: message, failed: true}
}

// IsError reports whether the invocation failed.
func (r Result) IsError() bool { return r.failed }

// Payload is the JSON payload of a successful result.
func (r Result) Payload() json.RawMessage { return r.payload }

// Message is the failure text of a failed result.
func (r Result) Message() string { return r.message }

// Text renders the result for the caller: indented JSON, or "Error: <message>".
func (r Result) Text() string {
	if r.failed {
		return "Error: " + r.message
	}
	if len(r.payload) == 0 {
		return "null"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, r.payload, "", "  "); err != nil {
		return string(r.payload)
	}
	return buf.String()
}
