// Package domain holds the shared value types of the prophecy ledger:
// caller identities, market identifiers and Cred amounts. Keeping them in
// one dependency-free package lets stores, services and transport share the
// same vocabulary without import cycles.
package domain

import (
	"strings"

	dErrors "prophecy/pkg/domain-errors"
)

const (
	// MaxMarketIDLen bounds the opaque market identifier used as the
	// record derivation key.
	MaxMarketIDLen = 32

	// MaxClaimRefLen bounds the claim reference text attached to a market.
	MaxClaimRefLen = 280

	// MaxEvidenceCIDLen bounds off-chain evidence content identifiers.
	MaxEvidenceCIDLen = 64
)

// Identity is an already-authenticated caller identity supplied by the host
// authentication layer. The ledger never verifies signatures itself; it only
// compares identities against stored authority fields.
type Identity string

// IsZero reports whether the identity is unset.
func (i Identity) IsZero() bool { return i == "" }

func (i Identity) String() string { return string(i) }

// ParseIdentity validates an identity string from an untrusted source.
func ParseIdentity(s string) (Identity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "identity is required")
	}
	if len(s) > 64 {
		return "", dErrors.New(dErrors.CodeBadRequest, "identity must be 64 characters or less")
	}
	return Identity(s), nil
}

// MarketID is the caller-chosen opaque market identifier. Uniqueness is
// structural: the market record address is derived from it.
type MarketID string

func (m MarketID) IsZero() bool { return m == "" }

func (m MarketID) String() string { return string(m) }

// ParseMarketID validates a market identifier from an untrusted source.
func ParseMarketID(s string) (MarketID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "market id is required")
	}
	if len(s) > MaxMarketIDLen {
		return "", dErrors.New(dErrors.CodeMarketIDTooLong, "market id must be 32 characters or less")
	}
	return MarketID(s), nil
}
