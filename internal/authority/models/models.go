package models

import (
	"time"

	id "prophecy/pkg/domain"
	dErrors "prophecy/pkg/domain-errors"
	"prophecy/pkg/platform/keys"
)

// AgentExecutor is the singleton trust anchor: the one identity permitted to
// resolve markets and mint Cred through privileged paths. The authority field
// is fixed at creation; no rotation operation exists in the core.
type AgentExecutor struct {
	Address         keys.Address `json:"address"`
	Authority       id.Identity  `json:"authority"`
	MarketsResolved uint64       `json:"markets_resolved"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

func NewAgentExecutor(authority id.Identity, now time.Time) (*AgentExecutor, error) {
	if authority.IsZero() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "executor authority is required")
	}
	return &AgentExecutor{
		Address:   keys.AgentExecutor(),
		Authority: authority,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CanCountResolution checks the resolution counter cannot overflow.
func (e *AgentExecutor) CanCountResolution() error {
	if e.MarketsResolved == ^uint64(0) {
		return dErrors.New(dErrors.CodeOverflow, "markets resolved counter overflow")
	}
	return nil
}

// ApplyCountResolution increments the counter. Call CanCountResolution first.
func (e *AgentExecutor) ApplyCountResolution(now time.Time) {
	e.MarketsResolved++
	e.UpdatedAt = now
}

// InsightPool is the singleton bookkeeping record for cumulative redistributed
// Cred. TotalCredits only ever grows; LastDistribution tracks the most recent
// distribution call.
type InsightPool struct {
	Address            keys.Address `json:"address"`
	Authority          id.Identity  `json:"authority"`
	TotalCredits       id.Cred      `json:"total_credits"`
	DistributionsCount uint64       `json:"distributions_count"`
	LastDistribution   time.Time    `json:"last_distribution"`
	CreatedAt          time.Time    `json:"created_at"`
}

func NewInsightPool(authority id.Identity, now time.Time) (*InsightPool, error) {
	if authority.IsZero() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "pool authority is required")
	}
	return &InsightPool{
		Address:          keys.InsightPool(),
		Authority:        authority,
		LastDistribution: now,
		CreatedAt:        now,
	}, nil
}

// CanRecordDistribution checks the pool counters cannot overflow when
// recording a distribution of amount.
func (p *InsightPool) CanRecordDistribution(amount id.Cred) error {
	if _, err := p.TotalCredits.CheckedAdd(amount); err != nil {
		return err
	}
	if p.DistributionsCount == ^uint64(0) {
		return dErrors.New(dErrors.CodeOverflow, "distributions counter overflow")
	}
	return nil
}

// ApplyRecordDistribution records a distribution. Call CanRecordDistribution first.
func (p *InsightPool) ApplyRecordDistribution(amount id.Cred, now time.Time) {
	p.TotalCredits += amount
	p.DistributionsCount++
	p.LastDistribution = now
}
