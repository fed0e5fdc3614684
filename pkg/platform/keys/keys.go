// Package keys derives deterministic record addresses. Every ledger record is
// located by a function of a type-specific tag plus its identifying fields;
// the derivation doubles as the uniqueness constraint (creating a record at an
// existing address fails) and as the discovery mechanism (no lookup tables).
package keys

import (
	"crypto/sha256"
	"encoding/hex"

	id "prophecy/pkg/domain"
)

// Address is a derived record location, stable across processes and stores.
type Address string

func (a Address) String() string { return string(a) }

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool { return a == "" }

// Record type tags. Changing a tag changes every derived address of that
// type, so treat them as part of the wire format.
const (
	tagReputationVault = "reputation_vault"
	tagMarket          = "market"
	tagCredStake       = "cred_stake"
	tagInsightPool     = "insight_pool"
	tagAgentExecutor   = "agent_executor"
	tagMinterConfig    = "minter_config"
	tagProofRecord     = "proof_record"
)

// derive hashes the tag and fields with a NUL separator so that field
// boundaries cannot be forged by concatenation.
func derive(tag string, fields ...string) Address {
	h := sha256.New()
	h.Write([]byte(tag))
	for _, f := range fields {
		h.Write([]byte{0})
		h.Write([]byte(f))
	}
	return Address(hex.EncodeToString(h.Sum(nil)))
}

// ReputationVault derives the vault address for an owner identity.
func ReputationVault(owner id.Identity) Address {
	return derive(tagReputationVault, owner.String())
}

// Market derives the market address for a market identifier.
func Market(marketID id.MarketID) Address {
	return derive(tagMarket, marketID.String())
}

// CredStake derives the stake address for a (market, user) pair. The pair
// key is what makes re-staking on the same market structurally impossible.
func CredStake(market Address, user id.Identity) Address {
	return derive(tagCredStake, market.String(), user.String())
}

// InsightPool derives the singleton pool address.
func InsightPool() Address { return derive(tagInsightPool) }

// AgentExecutor derives the singleton executor address.
func AgentExecutor() Address { return derive(tagAgentExecutor) }

// MinterConfig derives the singleton minter configuration address.
func MinterConfig() Address { return derive(tagMinterConfig) }

// ProofRecord derives the proof record address for a resolved market. One
// record per market: duplicate mint requests collide here.
func ProofRecord(market Address) Address {
	return derive(tagProofRecord, market.String())
}
