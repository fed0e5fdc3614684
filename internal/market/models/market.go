// Package models holds the Market and CredStake records and the pure
// state-transition rules between them. All mutation is split into Can* checks
// that may fail and Apply* steps that cannot, so services can validate an
// entire operation before touching storage.
package models

import (
	"time"

	id "prophecy/pkg/domain"
	dErrors "prophecy/pkg/domain-errors"
	"prophecy/pkg/platform/keys"
)

// MaxEvidenceCount bounds the evidence references attached to one market.
const MaxEvidenceCount = 10

// Status is the market lifecycle state.
type Status string

const (
	StatusOpen     Status = "open"
	StatusResolved Status = "resolved"
	StatusDisputed Status = "disputed"
)

// Outcome values for a resolved binary market.
const (
	OutcomeNo  uint8 = 0
	OutcomeYes uint8 = 1
)

// Market is one binary prediction market over an off-ledger claim.
type Market struct {
	Address        keys.Address `json:"address"`
	MarketID       id.MarketID  `json:"market_id"`
	Creator        id.Identity  `json:"creator"`
	ClaimRef       string       `json:"claim_ref"`
	Status         Status       `json:"status"`
	Outcome        *uint8       `json:"outcome,omitempty"`
	TranscriptHash string       `json:"transcript_hash,omitempty"`
	EvidenceCIDs   []string     `json:"evidence_cids,omitempty"`
	TotalStakedYes id.Cred      `json:"total_staked_yes"`
	TotalStakedNo  id.Cred      `json:"total_staked_no"`
	StakeCount     uint64       `json:"stake_count"`
	CreatedAt      time.Time    `json:"created_at"`
	ResolvedAt     *time.Time   `json:"resolved_at,omitempty"`
}

// NewMarket validates the inputs and builds an open market record.
func NewMarket(marketID id.MarketID, creator id.Identity, claimRef string, now time.Time) (*Market, error) {
	if marketID.IsZero() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "market id is required")
	}
	if creator.IsZero() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "market creator is required")
	}
	if claimRef == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "claim reference is required")
	}
	if len(claimRef) > id.MaxClaimRefLen {
		return nil, dErrors.New(dErrors.CodeClaimRefTooLong, "claim reference must be 280 characters or less")
	}
	return &Market{
		Address:   keys.Market(marketID),
		MarketID:  marketID,
		Creator:   creator,
		ClaimRef:  claimRef,
		Status:    StatusOpen,
		CreatedAt: now,
	}, nil
}

// CanStake checks a stake of amount on direction can be recorded.
func (m *Market) CanStake(amount id.Cred, direction bool) error {
	if m.Status != StatusOpen {
		return dErrors.New(dErrors.CodeMarketNotOpen, "market is not open for staking")
	}
	total := m.TotalStakedNo
	if direction {
		total = m.TotalStakedYes
	}
	if _, err := total.CheckedAdd(amount); err != nil {
		return err
	}
	if m.StakeCount == ^uint64(0) {
		return dErrors.New(dErrors.CodeOverflow, "stake counter overflow")
	}
	return nil
}

// ApplyStake records the stake totals. Call CanStake first.
func (m *Market) ApplyStake(amount id.Cred, direction bool) {
	if direction {
		m.TotalStakedYes += amount
	} else {
		m.TotalStakedNo += amount
	}
	m.StakeCount++
}

// CanSubmitEvidence checks one more evidence reference fits.
func (m *Market) CanSubmitEvidence(cid string) error {
	if m.Status != StatusOpen {
		return dErrors.New(dErrors.CodeMarketNotOpen, "market is not open for evidence")
	}
	if cid == "" {
		return dErrors.New(dErrors.CodeBadRequest, "evidence cid is required")
	}
	if len(cid) > id.MaxEvidenceCIDLen {
		return dErrors.New(dErrors.CodeCIDTooLong, "evidence cid must be 64 characters or less")
	}
	if len(m.EvidenceCIDs) >= MaxEvidenceCount {
		return dErrors.New(dErrors.CodeEvidenceLimit, "market already holds the maximum evidence references")
	}
	return nil
}

// ApplyEvidence appends the reference and returns the one-based evidence
// count, which doubles as the index of the new entry.
func (m *Market) ApplyEvidence(cid string) uint8 {
	m.EvidenceCIDs = append(m.EvidenceCIDs, cid)
	return uint8(len(m.EvidenceCIDs))
}

// CanResolve checks the market can move to resolved with outcome.
func (m *Market) CanResolve(outcome uint8) error {
	if m.Status != StatusOpen {
		return dErrors.New(dErrors.CodeMarketNotOpen, "market is not open for resolution")
	}
	if outcome != OutcomeNo && outcome != OutcomeYes {
		return dErrors.New(dErrors.CodeInvalidOutcome, "outcome must be 0 or 1")
	}
	return nil
}

// ApplyResolve pins the outcome and transcript hash. Call CanResolve first.
func (m *Market) ApplyResolve(outcome uint8, transcriptHash string, now time.Time) {
	o := outcome
	t := now
	m.Status = StatusResolved
	m.Outcome = &o
	m.TranscriptHash = transcriptHash
	m.ResolvedAt = &t
}

// CanDispute checks a resolved market can be flagged.
func (m *Market) CanDispute() error {
	if m.Status != StatusResolved {
		return dErrors.New(dErrors.CodeMarketNotResolved, "only resolved markets can be disputed")
	}
	return nil
}

// ApplyDispute moves the market to disputed. The recorded outcome is kept;
// the flag is a social signal, not a reversal.
func (m *Market) ApplyDispute() {
	m.Status = StatusDisputed
}

// Clone deep-copies the market so stores can hand out mutation-safe records.
func (m *Market) Clone() *Market {
	cp := *m
	if m.Outcome != nil {
		o := *m.Outcome
		cp.Outcome = &o
	}
	if m.ResolvedAt != nil {
		t := *m.ResolvedAt
		cp.ResolvedAt = &t
	}
	if m.EvidenceCIDs != nil {
		cp.EvidenceCIDs = append([]string(nil), m.EvidenceCIDs...)
	}
	return &cp
}

// UserWon reports whether a stake direction matches a resolved outcome.
func UserWon(direction bool, outcome uint8) bool {
	return (direction && outcome == OutcomeYes) || (!direction && outcome == OutcomeNo)
}
