package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerivationIsDeterministic(t *testing.T) {
	assert.Equal(t, Market("mkt-1"), Market("mkt-1"))
	assert.Equal(t, ReputationVault("alice"), ReputationVault("alice"))
	assert.Equal(t, CredStake(Market("mkt-1"), "alice"), CredStake(Market("mkt-1"), "alice"))
	assert.Equal(t, InsightPool(), InsightPool())
	assert.Equal(t, AgentExecutor(), AgentExecutor())
	assert.Equal(t, MinterConfig(), MinterConfig())
}

func TestDerivationSeparatesInputs(t *testing.T) {
	t.Run("different identifiers give different addresses", func(t *testing.T) {
		assert.NotEqual(t, Market("mkt-1"), Market("mkt-2"))
		assert.NotEqual(t, ReputationVault("alice"), ReputationVault("bob"))
	})

	t.Run("different record types never collide on the same input", func(t *testing.T) {
		assert.NotEqual(t, Market("alice"), ReputationVault("alice"))
		assert.NotEqual(t, InsightPool(), AgentExecutor())
		assert.NotEqual(t, AgentExecutor(), MinterConfig())
	})

	t.Run("field boundaries cannot be forged by concatenation", func(t *testing.T) {
		// ("ab", "c") and ("a", "bc") must land at different addresses.
		assert.NotEqual(t, CredStake(Address("ab"), "c"), CredStake(Address("a"), "bc"))
	})

	t.Run("stake address depends on both market and user", func(t *testing.T) {
		m := Market("mkt-1")
		assert.NotEqual(t, CredStake(m, "alice"), CredStake(m, "bob"))
		assert.NotEqual(t, CredStake(Market("mkt-1"), "alice"), CredStake(Market("mkt-2"), "alice"))
	})
}

func TestProofRecordAddressedByMarket(t *testing.T) {
	m := Market("mkt-1")
	assert.Equal(t, ProofRecord(m), ProofRecord(m))
	assert.NotEqual(t, ProofRecord(m), ProofRecord(Market("mkt-2")))
	assert.NotEqual(t, ProofRecord(m), m)
}
