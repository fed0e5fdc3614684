// Package domainerrors defines the enumerable failure codes surfaced by the
// prophecy ledger. Every failed protocol operation aborts with exactly one of
// these codes; nothing is retried or swallowed inside the core. Stores return
// pkg/platform/sentinel errors and services translate them here.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a failure category. The set is closed: callers can switch
// on codes without worrying about new ad-hoc values appearing at runtime.
type Code string

const (
	// Validation failures.
	CodeBadRequest      Code = "bad_request"
	CodeClaimRefTooLong Code = "claim_ref_too_long"
	CodeMarketIDTooLong Code = "market_id_too_long"
	CodeCIDTooLong      Code = "evidence_cid_too_long"
	CodeInvalidAmount   Code = "invalid_amount"
	CodeInvalidOutcome  Code = "invalid_outcome"
	CodeInvalidMethod   Code = "invalid_earn_method"
	CodeEvidenceLimit   Code = "evidence_limit"

	// Lifecycle state failures.
	CodeMarketNotOpen     Code = "market_not_open"
	CodeMarketNotResolved Code = "market_not_resolved"
	CodeConflict          Code = "conflict"
	CodeNotFound          Code = "not_found"

	// Authorization failures.
	CodeUnauthorized Code = "unauthorized"
	CodeNotExecutor  Code = "not_executor_authority"
	CodeNotMinter    Code = "not_minter_authority"

	// Economic failures.
	CodeInsufficientCred Code = "insufficient_cred"
	CodeDidNotWin        Code = "did_not_win"

	// Arithmetic failures.
	CodeOverflow Code = "overflow"

	// Everything else.
	CodeInternal Code = "internal"
)

// Error is a coded domain error. It wraps an optional cause for diagnostics
// while keeping the code as the contract with callers.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error with no cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
	}
	return false
}

// CodeOf returns the outermost code on err, or CodeInternal for uncoded errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to the HTTP status the transport layer responds with.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeClaimRefTooLong, CodeMarketIDTooLong, CodeCIDTooLong,
		CodeInvalidAmount, CodeInvalidOutcome, CodeInvalidMethod:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotExecutor, CodeNotMinter:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeMarketNotOpen, CodeMarketNotResolved, CodeEvidenceLimit:
		return http.StatusConflict
	case CodeInsufficientCred, CodeDidNotWin, CodeOverflow:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
