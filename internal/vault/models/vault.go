package models

import (
	"time"

	id "prophecy/pkg/domain"
	dErrors "prophecy/pkg/domain-errors"
	"prophecy/pkg/platform/keys"
)

// EarnMethod tags how Cred was earned. The set is closed; it is recorded on
// the CredEarned event for audit, never interpreted by the ledger itself.
type EarnMethod string

const (
	EarnInitialGrant          EarnMethod = "initial_grant"
	EarnEvidenceSubmission    EarnMethod = "evidence_submission"
	EarnCorrectPrediction     EarnMethod = "correct_prediction"
	EarnReferral              EarnMethod = "referral"
	EarnIdentityVerification  EarnMethod = "identity_verification"
	EarnCommunityContribution EarnMethod = "community_contribution"
)

var validEarnMethods = map[EarnMethod]struct{}{
	EarnInitialGrant:          {},
	EarnEvidenceSubmission:    {},
	EarnCorrectPrediction:     {},
	EarnReferral:              {},
	EarnIdentityVerification:  {},
	EarnCommunityContribution: {},
}

// ParseEarnMethod validates an earn method from an untrusted source.
func ParseEarnMethod(s string) (EarnMethod, error) {
	m := EarnMethod(s)
	if _, ok := validEarnMethods[m]; !ok {
		return "", dErrors.New(dErrors.CodeInvalidMethod, "unknown earn method")
	}
	return m, nil
}

// ReputationVault is the per-user Cred ledger.
//
// Invariants:
//   - CredBalance is never negative (checked subtraction only)
//   - TotalEarned is monotonically non-decreasing
//   - Created once per owner, never destroyed
type ReputationVault struct {
	Address            keys.Address `json:"address"`
	Owner              id.Identity  `json:"owner"`
	CredBalance        id.Cred      `json:"cred_balance"`
	TotalEarned        id.Cred      `json:"total_earned"`
	TotalStaked        id.Cred      `json:"total_staked"`
	ParticipationCount uint64       `json:"participation_count"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// NewReputationVault creates a vault with the initial Cred grant.
func NewReputationVault(owner id.Identity, now time.Time) (*ReputationVault, error) {
	if owner.IsZero() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "vault owner is required")
	}
	return &ReputationVault{
		Address:     keys.ReputationVault(owner),
		Owner:       owner,
		CredBalance: id.InitialCredGrant,
		TotalEarned: id.InitialCredGrant,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// CanEarn checks that crediting amount cannot overflow any counter.
// Use with ApplyEarn in Execute callbacks.
func (v *ReputationVault) CanEarn(amount id.Cred) error {
	if amount.IsZero() {
		return dErrors.New(dErrors.CodeInvalidAmount, "earn amount must be positive")
	}
	if _, err := v.CredBalance.CheckedAdd(amount); err != nil {
		return err
	}
	if _, err := v.TotalEarned.CheckedAdd(amount); err != nil {
		return err
	}
	return nil
}

// ApplyEarn credits the vault. Call CanEarn first; the additions here cannot
// overflow once it has passed.
func (v *ReputationVault) ApplyEarn(amount id.Cred, now time.Time) {
	v.CredBalance += amount
	v.TotalEarned += amount
	v.UpdatedAt = now
}

// CanStakeDebit checks that debiting amount is covered by the balance and
// that the staking counters cannot overflow.
func (v *ReputationVault) CanStakeDebit(amount id.Cred) error {
	if amount.IsZero() {
		return dErrors.New(dErrors.CodeInvalidAmount, "stake amount must be positive")
	}
	if v.CredBalance < amount {
		return dErrors.New(dErrors.CodeInsufficientCred, "insufficient cred balance")
	}
	if _, err := v.TotalStaked.CheckedAdd(amount); err != nil {
		return err
	}
	if v.ParticipationCount == ^uint64(0) {
		return dErrors.New(dErrors.CodeOverflow, "participation count overflow")
	}
	return nil
}

// ApplyStakeDebit moves amount from the balance into the staked counters.
// Call CanStakeDebit first.
func (v *ReputationVault) ApplyStakeDebit(amount id.Cred, now time.Time) {
	v.CredBalance -= amount
	v.TotalStaked += amount
	v.ParticipationCount++
	v.UpdatedAt = now
}
