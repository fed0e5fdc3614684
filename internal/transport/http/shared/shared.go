// Package shared holds response helpers used by every handler so error
// envelopes and JSON encoding stay consistent across modules.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "prophecy/pkg/domain-errors"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the HTTP error envelope. Unknown
// errors surface as internal without leaking their message.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	message := ""
	var dErr *dErrors.Error
	if errors.As(err, &dErr) {
		message = dErr.Message
	}
	if code == dErrors.CodeInternal {
		message = "internal error"
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), ErrorResponse{
		Error:   string(code),
		Message: message,
	})
}
