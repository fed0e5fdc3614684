package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	dErrors "prophecy/pkg/domain-errors"
)

// CredDecimals is the number of implied decimal places in a Cred amount.
const CredDecimals = 6

// credUnit is the raw value of 1 Cred.
const credUnit = 1_000_000

// InitialCredGrant is the balance granted when a reputation vault is
// initialized: 100.000000 Cred.
const InitialCredGrant Cred = 100 * credUnit

// Cred is a non-transferable reputation credit amount. The raw value carries
// six implied decimal places, so 1.000000 Cred == Cred(1_000_000). All
// mutations of ledger counters go through CheckedAdd/CheckedSub so that an
// overflow or underflow aborts the whole operation instead of wrapping.
type Cred uint64

// CheckedAdd returns c+other, or an overflow error leaving no doubt the
// operation must abort.
func (c Cred) CheckedAdd(other Cred) (Cred, error) {
	if uint64(other) > math.MaxUint64-uint64(c) {
		return 0, dErrors.New(dErrors.CodeOverflow, "cred amount overflow")
	}
	return c + other, nil
}

// CheckedSub returns c-other, or an overflow error when the subtraction
// would drive the value negative.
func (c Cred) CheckedSub(other Cred) (Cred, error) {
	if other > c {
		return 0, dErrors.New(dErrors.CodeOverflow, "cred amount underflow")
	}
	return c - other, nil
}

// IsZero reports whether the amount is zero.
func (c Cred) IsZero() bool { return c == 0 }

// String renders the amount with the implied decimal point, e.g. "40.000000".
func (c Cred) String() string {
	return fmt.Sprintf("%d.%06d", uint64(c)/credUnit, uint64(c)%credUnit)
}

// ParseCred parses a decimal Cred amount ("40", "40.5", "40.000001"). More
// than six fractional digits is a validation error, not a silent truncation.
func ParseCred(s string) (Cred, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidAmount, "amount is required")
	}
	whole, frac, _ := strings.Cut(s, ".")

	units, err := strconv.ParseUint(whole, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidAmount, "invalid cred amount")
	}
	if len(frac) > CredDecimals {
		return 0, dErrors.New(dErrors.CodeInvalidAmount, "cred amounts carry at most 6 decimal places")
	}
	fracPadded := frac + strings.Repeat("0", CredDecimals-len(frac))
	var fracRaw uint64
	if frac != "" {
		fracRaw, err = strconv.ParseUint(fracPadded, 10, 64)
		if err != nil {
			return 0, dErrors.New(dErrors.CodeInvalidAmount, "invalid cred amount")
		}
	}
	if units > math.MaxUint64/credUnit {
		return 0, dErrors.New(dErrors.CodeOverflow, "cred amount overflow")
	}
	raw := units * credUnit
	if fracRaw > math.MaxUint64-raw {
		return 0, dErrors.New(dErrors.CodeOverflow, "cred amount overflow")
	}
	return Cred(raw + fracRaw), nil
}
