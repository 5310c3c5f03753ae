// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler in this application sends JSON back to the client.
// Rather than repeating the same three lines (set header, set status,
// encode JSON) in every handler, we centralise them here.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/aanand-mishra/cantine-students-api/internal/validation"
)

// MsgNotFound is the body of every 404 for an unknown matrNum.
const MsgNotFound = "This student was not found"

// Response is the standard envelope returned for error cases.
//
// Success responses may return any JSON shape (a student, a list…).
// Error responses always look like:
//
//	{ "error": "\"firstName\" is required" }
type Response struct {
	Error string `json:"error"`
}

// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called (or the first Write), headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// GeneralError wraps any Go error into our standard Response shape.
// Use this for unexpected errors (store failures, decode errors, etc.)
func GeneralError(err error) Response {
	return Response{Error: err.Error()}
}

// Message wraps a fixed message into the standard Response shape.
func Message(msg string) Response {
	return Response{Error: msg}
}

// NotFound is the body sent when no student has the requested matrNum.
func NotFound() Response {
	return Message(MsgNotFound)
}

// ValidationError reports the first violated constraint. Clients only see
// one message at a time, in field order.
func ValidationError(res validation.Result) Response {
	return Response{Error: res.First().Message}
}
