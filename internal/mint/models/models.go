// Package models holds the proof record subsystem's records: the singleton
// MinterConfig and one ProofRecord per resolved market.
package models

import (
	"fmt"
	"time"

	id "prophecy/pkg/domain"
	dErrors "prophecy/pkg/domain-errors"
	"prophecy/pkg/platform/keys"
)

// MinterConfig is the singleton configuration for proof record minting. The
// authority is rotatable, unlike the executor authority.
type MinterConfig struct {
	Address    keys.Address `json:"address"`
	Authority  id.Identity  `json:"authority"`
	MintsCount uint64       `json:"mints_count"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

func NewMinterConfig(authority id.Identity, now time.Time) (*MinterConfig, error) {
	if authority.IsZero() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "minter authority is required")
	}
	return &MinterConfig{
		Address:   keys.MinterConfig(),
		Authority: authority,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CanCountMint checks the mint counter cannot overflow.
func (c *MinterConfig) CanCountMint() error {
	if c.MintsCount == ^uint64(0) {
		return dErrors.New(dErrors.CodeOverflow, "mints counter overflow")
	}
	return nil
}

// ApplyCountMint increments the counter. Call CanCountMint first.
func (c *MinterConfig) ApplyCountMint(now time.Time) {
	c.MintsCount++
	c.UpdatedAt = now
}

// CanUpdateAuthority checks the new authority is usable.
func (c *MinterConfig) CanUpdateAuthority(newAuthority id.Identity) error {
	if newAuthority.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "new minter authority is required")
	}
	return nil
}

// ApplyUpdateAuthority rotates the authority. Call CanUpdateAuthority first.
func (c *MinterConfig) ApplyUpdateAuthority(newAuthority id.Identity, now time.Time) {
	c.Authority = newAuthority
	c.UpdatedAt = now
}

// ProofRecord is the durable proof-of-truth artifact minted for a resolved
// market. One per market, addressed by the market it proves.
type ProofRecord struct {
	Address        keys.Address `json:"address"`
	Market         keys.Address `json:"market"`
	MarketID       id.MarketID  `json:"market_id"`
	Outcome        uint8        `json:"outcome"`
	TranscriptHash string       `json:"transcript_hash"`
	MetadataURI    string       `json:"metadata_uri"`
	MintedAt       time.Time    `json:"minted_at"`
}

// NewProofRecord builds the proof record for a resolved market.
func NewProofRecord(market keys.Address, marketID id.MarketID, outcome uint8, transcriptHash string, now time.Time) (*ProofRecord, error) {
	if market.IsZero() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "market address is required")
	}
	if transcriptHash == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "transcript hash is required")
	}
	return &ProofRecord{
		Address:        keys.ProofRecord(market),
		Market:         market,
		MarketID:       marketID,
		Outcome:        outcome,
		TranscriptHash: transcriptHash,
		MetadataURI:    fmt.Sprintf("prophecy://proof/%s", market.String()),
		MintedAt:       now,
	}, nil
}
