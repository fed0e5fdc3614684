package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "prophecy/pkg/domain"
	dErrors "prophecy/pkg/domain-errors"
	"prophecy/pkg/platform/keys"
)

func newVault(t *testing.T) *ReputationVault {
	t.Helper()
	v, err := NewReputationVault("alice", time.Now())
	require.NoError(t, err)
	return v
}

func TestNewReputationVault(t *testing.T) {
	t.Run("grants the initial balance", func(t *testing.T) {
		v := newVault(t)
		assert.Equal(t, id.InitialCredGrant, v.CredBalance)
		assert.Equal(t, id.InitialCredGrant, v.TotalEarned)
		assert.Equal(t, id.Cred(0), v.TotalStaked)
		assert.Equal(t, uint64(0), v.ParticipationCount)
		assert.Equal(t, keys.ReputationVault("alice"), v.Address)
	})

	t.Run("rejects empty owner", func(t *testing.T) {
		_, err := NewReputationVault("", time.Now())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func TestVaultEarn(t *testing.T) {
	t.Run("credits balance and total earned", func(t *testing.T) {
		v := newVault(t)
		now := time.Now()

		require.NoError(t, v.CanEarn(10_000_000))
		v.ApplyEarn(10_000_000, now)

		assert.Equal(t, id.InitialCredGrant+10_000_000, v.CredBalance)
		assert.Equal(t, id.InitialCredGrant+10_000_000, v.TotalEarned)
		assert.Equal(t, now, v.UpdatedAt)
	})

	t.Run("rejects zero amount", func(t *testing.T) {
		v := newVault(t)
		err := v.CanEarn(0)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidAmount))
	})

	t.Run("rejects earn that would overflow the balance", func(t *testing.T) {
		v := newVault(t)
		v.CredBalance = ^id.Cred(0)
		err := v.CanEarn(1)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeOverflow))
	})

	t.Run("rejects earn that would overflow total earned", func(t *testing.T) {
		v := newVault(t)
		v.TotalEarned = ^id.Cred(0)
		err := v.CanEarn(1)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeOverflow))
	})
}

func TestVaultStakeDebit(t *testing.T) {
	t.Run("moves balance into staked counters", func(t *testing.T) {
		v := newVault(t)
		now := time.Now()

		require.NoError(t, v.CanStakeDebit(40_000_000))
		v.ApplyStakeDebit(40_000_000, now)

		assert.Equal(t, id.InitialCredGrant-40_000_000, v.CredBalance)
		assert.Equal(t, id.Cred(40_000_000), v.TotalStaked)
		assert.Equal(t, uint64(1), v.ParticipationCount)
	})

	t.Run("rejects debit over the balance", func(t *testing.T) {
		v := newVault(t)
		err := v.CanStakeDebit(id.InitialCredGrant + 1)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInsufficientCred))
	})

	t.Run("allows debit of the entire balance", func(t *testing.T) {
		v := newVault(t)
		assert.NoError(t, v.CanStakeDebit(id.InitialCredGrant))
	})

	t.Run("rejects zero amount", func(t *testing.T) {
		v := newVault(t)
		err := v.CanStakeDebit(0)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidAmount))
	})
}

func TestParseEarnMethod(t *testing.T) {
	for _, m := range []string{
		"initial_grant", "evidence_submission", "correct_prediction",
		"referral", "identity_verification", "community_contribution",
	} {
		method, err := ParseEarnMethod(m)
		assert.NoError(t, err, m)
		assert.Equal(t, EarnMethod(m), method)
	}

	_, err := ParseEarnMethod("mining")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidMethod))
}
