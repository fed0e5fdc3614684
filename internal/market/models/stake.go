package models

import (
	"time"

	id "prophecy/pkg/domain"
	dErrors "prophecy/pkg/domain-errors"
	"prophecy/pkg/platform/keys"
)

// CredStake is one user's position on one market, immutable after creation.
// The derived address makes the (market, user) pair unique: a second stake by
// the same user collides at creation instead of needing a lookup index.
type CredStake struct {
	Address   keys.Address `json:"address"`
	Market    keys.Address `json:"market"`
	Staker    id.Identity  `json:"staker"`
	Amount    id.Cred      `json:"amount"`
	Direction bool         `json:"direction"`
	CreatedAt time.Time    `json:"created_at"`
}

// NewCredStake validates the inputs and builds a stake record.
func NewCredStake(marketID id.MarketID, staker id.Identity, amount id.Cred, direction bool, now time.Time) (*CredStake, error) {
	if staker.IsZero() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "staker identity is required")
	}
	if amount == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidAmount, "stake amount must be greater than zero")
	}
	return &CredStake{
		Address:   keys.CredStake(keys.Market(marketID), staker),
		Market:    keys.Market(marketID),
		Staker:    staker,
		Amount:    amount,
		Direction: direction,
		CreatedAt: now,
	}, nil
}

// CanReceivePayout checks the stake is a winning position for outcome.
// Rewards are paid in installments, so a winning stake stays eligible
// across repeated distributions.
func (s *CredStake) CanReceivePayout(outcome uint8) error {
	if !UserWon(s.Direction, outcome) {
		return dErrors.New(dErrors.CodeDidNotWin, "stake direction does not match the resolved outcome")
	}
	return nil
}
