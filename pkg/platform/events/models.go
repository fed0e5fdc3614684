// Package events defines the append-only ledger event log. One event is
// emitted per successful mutating protocol operation; the log is the system's
// durable audit trail and the only channel to downstream consumers (indexers,
// the proof-record minter).
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	id "prophecy/pkg/domain"
	"prophecy/pkg/platform/keys"
)

// Category classifies events by their downstream consumer. Categories route
// to separate broker topics so the minter does not have to filter the full
// ledger firehose.
type Category string

const (
	// CategoryLedger covers every core protocol mutation. Indexers consume
	// this stream to materialize market and vault state off-ledger.
	CategoryLedger Category = "ledger"

	// CategoryMint covers the mint-request signal and the minter's own
	// completion event. The minting subsystem is the only consumer.
	CategoryMint Category = "mint"
)

// EventType enumerates every event the ledger can emit.
type EventType string

const (
	EventMarketCreated            EventType = "market_created"
	EventCredStaked               EventType = "cred_staked"
	EventEvidenceSubmitted        EventType = "evidence_submitted"
	EventMarketResolved           EventType = "market_resolved"
	EventProofRecordMintRequested EventType = "proof_record_mint_requested"
	EventCredDistributed          EventType = "cred_distributed"
	EventCredEarned               EventType = "cred_earned"
	EventMarketDisputed           EventType = "market_disputed"

	// EventProofRecordMinted is emitted by the minting subsystem, not the
	// core; it shares the log so indexers see the full story.
	EventProofRecordMinted EventType = "proof_record_minted"
)

var eventCategories = map[EventType]Category{
	EventMarketCreated:            CategoryLedger,
	EventCredStaked:               CategoryLedger,
	EventEvidenceSubmitted:        CategoryLedger,
	EventMarketResolved:           CategoryLedger,
	EventCredDistributed:          CategoryLedger,
	EventCredEarned:               CategoryLedger,
	EventMarketDisputed:           CategoryLedger,
	EventProofRecordMintRequested: CategoryMint,
	EventProofRecordMinted:        CategoryMint,
}

// Category returns the routing category for the event type.
func (t EventType) Category() Category {
	if c, ok := eventCategories[t]; ok {
		return c
	}
	return CategoryLedger
}

// Event is emitted from protocol operations to capture each mutation. Keep it
// transport-agnostic so stores and sinks can fan out. Fields that do not
// apply to a given type stay zero and are omitted from the wire payload.
type Event struct {
	Type      EventType    `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	Market    keys.Address `json:"market,omitempty"`
	MarketID  id.MarketID  `json:"market_id,omitempty"`
	// User is the identity the event is about: creator, staker, earner,
	// recipient, resolver or disputer depending on the type.
	User           id.Identity `json:"user,omitempty"`
	Amount         id.Cred     `json:"amount,omitempty"`
	Direction      *bool       `json:"direction,omitempty"`
	Outcome        *uint8      `json:"outcome,omitempty"`
	Method         string      `json:"method,omitempty"`
	CID            string      `json:"cid,omitempty"`
	EvidenceIndex  uint8       `json:"evidence_index,omitempty"`
	TranscriptHash string      `json:"transcript_hash,omitempty"`
	MetadataURI    string      `json:"metadata_uri,omitempty"`
	RequestID      string      `json:"request_id,omitempty"`
}

// MarshalPayload renders the broker/outbox wire payload.
func MarshalPayload(e Event) ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalPayload parses a wire payload back into an event.
func UnmarshalPayload(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}

// Store persists events append-only. Implementations must never mutate or
// delete previously appended events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// OutboxEntry is one committed-but-unpublished event row, as handed from an
// outbox-backed store to the relay worker.
type OutboxEntry struct {
	ID       uuid.UUID
	Type     EventType
	Category Category
	Payload  []byte
}
