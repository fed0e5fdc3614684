package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors with the right
// protocol code.
//
// These represent factual states about records, not validation failures:
// - ErrNotFound: no record exists at the derived address
// - ErrConflict: a record already exists at the derived address
// - ErrUnavailable: backing store temporarily unreachable
//
// For validation errors (bad input, limits), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
