package handler

import (
	"time"

	"prophecy/internal/market/models"
)

// MarketResponse is the wire shape of a market record. Cred totals are
// decimal strings.
type MarketResponse struct {
	Address        string     `json:"address"`
	MarketID       string     `json:"market_id"`
	Creator        string     `json:"creator"`
	ClaimRef       string     `json:"claim_ref"`
	Status         string     `json:"status"`
	Outcome        *uint8     `json:"outcome,omitempty"`
	TranscriptHash string     `json:"transcript_hash,omitempty"`
	EvidenceCIDs   []string   `json:"evidence_cids,omitempty"`
	TotalStakedYes string     `json:"total_staked_yes"`
	TotalStakedNo  string     `json:"total_staked_no"`
	StakeCount     uint64     `json:"stake_count"`
	CreatedAt      time.Time  `json:"created_at"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
}

func toMarketResponse(m *models.Market) MarketResponse {
	return MarketResponse{
		Address:        m.Address.String(),
		MarketID:       m.MarketID.String(),
		Creator:        m.Creator.String(),
		ClaimRef:       m.ClaimRef,
		Status:         string(m.Status),
		Outcome:        m.Outcome,
		TranscriptHash: m.TranscriptHash,
		EvidenceCIDs:   m.EvidenceCIDs,
		TotalStakedYes: m.TotalStakedYes.String(),
		TotalStakedNo:  m.TotalStakedNo.String(),
		StakeCount:     m.StakeCount,
		CreatedAt:      m.CreatedAt,
		ResolvedAt:     m.ResolvedAt,
	}
}

// StakeResponse is the wire shape of a stake record.
type StakeResponse struct {
	Address   string    `json:"address"`
	Market    string    `json:"market"`
	Staker    string    `json:"staker"`
	Amount    string    `json:"amount"`
	Direction bool      `json:"direction"`
	CreatedAt time.Time `json:"created_at"`
}

func toStakeResponse(s *models.CredStake) StakeResponse {
	return StakeResponse{
		Address:   s.Address.String(),
		Market:    s.Market.String(),
		Staker:    s.Staker.String(),
		Amount:    s.Amount.String(),
		Direction: s.Direction,
		CreatedAt: s.CreatedAt,
	}
}

// EvidenceResponse reports a submitted evidence reference and its index.
type EvidenceResponse struct {
	Market MarketResponse `json:"market"`
	Index  uint8          `json:"index"`
}
