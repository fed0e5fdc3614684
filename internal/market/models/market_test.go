package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "prophecy/pkg/domain"
	dErrors "prophecy/pkg/domain-errors"
)

func newOpenMarket(t *testing.T) *Market {
	t.Helper()
	m, err := NewMarket("mkt-1", "creator-1", "will it rain tomorrow", time.Now())
	require.NoError(t, err)
	return m
}

func TestNewMarket(t *testing.T) {
	now := time.Now()

	t.Run("creates open market with derived address", func(t *testing.T) {
		m, err := NewMarket("mkt-1", "creator-1", "will it rain tomorrow", now)
		require.NoError(t, err)
		assert.Equal(t, StatusOpen, m.Status)
		assert.False(t, m.Address.IsZero())
		assert.Nil(t, m.Outcome)
		assert.Empty(t, m.EvidenceCIDs)
		assert.Equal(t, now, m.CreatedAt)
	})

	t.Run("rejects empty claim reference", func(t *testing.T) {
		_, err := NewMarket("mkt-1", "creator-1", "", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("rejects claim reference over 280 characters", func(t *testing.T) {
		_, err := NewMarket("mkt-1", "creator-1", strings.Repeat("x", id.MaxClaimRefLen+1), now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeClaimRefTooLong))
	})

	t.Run("accepts claim reference at exactly 280 characters", func(t *testing.T) {
		_, err := NewMarket("mkt-1", "creator-1", strings.Repeat("x", id.MaxClaimRefLen), now)
		assert.NoError(t, err)
	})
}

func TestMarketStake(t *testing.T) {
	t.Run("accumulates per-direction totals and stake count", func(t *testing.T) {
		m := newOpenMarket(t)

		require.NoError(t, m.CanStake(40_000_000, true))
		m.ApplyStake(40_000_000, true)
		require.NoError(t, m.CanStake(15_000_000, false))
		m.ApplyStake(15_000_000, false)

		assert.Equal(t, id.Cred(40_000_000), m.TotalStakedYes)
		assert.Equal(t, id.Cred(15_000_000), m.TotalStakedNo)
		assert.Equal(t, uint64(2), m.StakeCount)
	})

	t.Run("rejects stake on resolved market", func(t *testing.T) {
		m := newOpenMarket(t)
		m.ApplyResolve(OutcomeYes, "hash", time.Now())

		err := m.CanStake(1_000_000, true)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMarketNotOpen))
	})

	t.Run("rejects stake that would overflow the side total", func(t *testing.T) {
		m := newOpenMarket(t)
		m.TotalStakedYes = ^id.Cred(0)

		err := m.CanStake(1, true)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeOverflow))
	})

	t.Run("rejects stake at counter limit", func(t *testing.T) {
		m := newOpenMarket(t)
		m.StakeCount = ^uint64(0)

		err := m.CanStake(1, false)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeOverflow))
	})
}

func TestMarketEvidence(t *testing.T) {
	t.Run("appends and returns one-based count", func(t *testing.T) {
		m := newOpenMarket(t)

		require.NoError(t, m.CanSubmitEvidence("QmFirst"))
		assert.Equal(t, uint8(1), m.ApplyEvidence("QmFirst"))
		assert.Equal(t, uint8(2), m.ApplyEvidence("QmSecond"))
		assert.Equal(t, []string{"QmFirst", "QmSecond"}, m.EvidenceCIDs)
	})

	t.Run("rejects eleventh reference", func(t *testing.T) {
		m := newOpenMarket(t)
		for i := 0; i < MaxEvidenceCount; i++ {
			require.NoError(t, m.CanSubmitEvidence("Qm"))
			m.ApplyEvidence("Qm")
		}

		err := m.CanSubmitEvidence("QmEleventh")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeEvidenceLimit))
	})

	t.Run("rejects cid over 64 characters", func(t *testing.T) {
		m := newOpenMarket(t)
		err := m.CanSubmitEvidence(strings.Repeat("a", id.MaxEvidenceCIDLen+1))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeCIDTooLong))
	})

	t.Run("rejects evidence on non-open market", func(t *testing.T) {
		m := newOpenMarket(t)
		m.ApplyResolve(OutcomeNo, "hash", time.Now())

		err := m.CanSubmitEvidence("Qm")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMarketNotOpen))
	})
}

func TestMarketResolve(t *testing.T) {
	t.Run("pins outcome, hash and timestamp", func(t *testing.T) {
		m := newOpenMarket(t)
		now := time.Now()

		require.NoError(t, m.CanResolve(OutcomeYes))
		m.ApplyResolve(OutcomeYes, "sha256:abc", now)

		assert.Equal(t, StatusResolved, m.Status)
		require.NotNil(t, m.Outcome)
		assert.Equal(t, OutcomeYes, *m.Outcome)
		assert.Equal(t, "sha256:abc", m.TranscriptHash)
		require.NotNil(t, m.ResolvedAt)
		assert.Equal(t, now, *m.ResolvedAt)
	})

	t.Run("rejects outcome outside 0 and 1", func(t *testing.T) {
		m := newOpenMarket(t)
		err := m.CanResolve(2)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidOutcome))
	})

	t.Run("rejects double resolution", func(t *testing.T) {
		m := newOpenMarket(t)
		m.ApplyResolve(OutcomeNo, "hash", time.Now())

		err := m.CanResolve(OutcomeYes)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMarketNotOpen))
	})
}

func TestMarketDispute(t *testing.T) {
	t.Run("flags resolved market and keeps the outcome", func(t *testing.T) {
		m := newOpenMarket(t)
		m.ApplyResolve(OutcomeYes, "hash", time.Now())

		require.NoError(t, m.CanDispute())
		m.ApplyDispute()

		assert.Equal(t, StatusDisputed, m.Status)
		require.NotNil(t, m.Outcome)
		assert.Equal(t, OutcomeYes, *m.Outcome)
	})

	t.Run("rejects dispute of open market", func(t *testing.T) {
		m := newOpenMarket(t)
		err := m.CanDispute()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMarketNotResolved))
	})

	t.Run("rejects double dispute", func(t *testing.T) {
		m := newOpenMarket(t)
		m.ApplyResolve(OutcomeYes, "hash", time.Now())
		m.ApplyDispute()

		err := m.CanDispute()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMarketNotResolved))
	})
}

func TestMarketClone(t *testing.T) {
	m := newOpenMarket(t)
	m.ApplyEvidence("QmFirst")
	m.ApplyResolve(OutcomeYes, "hash", time.Now())

	cp := m.Clone()
	cp.ApplyDispute()
	*cp.Outcome = OutcomeNo
	cp.EvidenceCIDs[0] = "tampered"

	assert.Equal(t, StatusResolved, m.Status)
	assert.Equal(t, OutcomeYes, *m.Outcome)
	assert.Equal(t, "QmFirst", m.EvidenceCIDs[0])
}

func TestUserWon(t *testing.T) {
	tests := []struct {
		name      string
		direction bool
		outcome   uint8
		won       bool
	}{
		{"yes stake on yes outcome wins", true, OutcomeYes, true},
		{"yes stake on no outcome loses", true, OutcomeNo, false},
		{"no stake on no outcome wins", false, OutcomeNo, true},
		{"no stake on yes outcome loses", false, OutcomeYes, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.won, UserWon(tt.direction, tt.outcome))
		})
	}
}
