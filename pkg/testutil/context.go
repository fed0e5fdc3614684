package testutil

import (
	"net/http"
	"time"

	id "prophecy/pkg/domain"
	"prophecy/pkg/requestcontext"
)

// WithCaller adds an authenticated caller identity to the request context.
// This simulates what the auth middleware would do for authenticated
// requests. Invalid identities are silently ignored.
func WithCaller(req *http.Request, caller string) *http.Request {
	parsed, err := id.ParseIdentity(caller)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithCallerID(req.Context(), parsed))
}

// WithRequestTime pins the request-scoped clock so handler output timestamps
// are deterministic.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}

// WithRequestID adds a request ID to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
