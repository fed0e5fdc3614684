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

func TestAgentExecutor(t *testing.T) {
	now := time.Now()

	t.Run("new executor binds authority at a fixed address", func(t *testing.T) {
		e, err := NewAgentExecutor("executor-1", now)
		require.NoError(t, err)
		assert.Equal(t, keys.AgentExecutor(), e.Address)
		assert.Equal(t, id.Identity("executor-1"), e.Authority)
		assert.Equal(t, uint64(0), e.MarketsResolved)
	})

	t.Run("rejects empty authority", func(t *testing.T) {
		_, err := NewAgentExecutor("", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("counts resolutions until the counter is exhausted", func(t *testing.T) {
		e, err := NewAgentExecutor("executor-1", now)
		require.NoError(t, err)

		require.NoError(t, e.CanCountResolution())
		e.ApplyCountResolution(now)
		assert.Equal(t, uint64(1), e.MarketsResolved)

		e.MarketsResolved = ^uint64(0)
		assert.True(t, dErrors.HasCode(e.CanCountResolution(), dErrors.CodeOverflow))
	})
}

func TestInsightPool(t *testing.T) {
	now := time.Now()

	t.Run("records cumulative distributions", func(t *testing.T) {
		p, err := NewInsightPool("executor-1", now)
		require.NoError(t, err)
		assert.Equal(t, keys.InsightPool(), p.Address)

		require.NoError(t, p.CanRecordDistribution(10_000_000))
		p.ApplyRecordDistribution(10_000_000, now.Add(time.Minute))

		assert.Equal(t, id.Cred(10_000_000), p.TotalCredits)
		assert.Equal(t, uint64(1), p.DistributionsCount)
		assert.Equal(t, now.Add(time.Minute), p.LastDistribution)
	})

	t.Run("rejects distribution that would overflow total credits", func(t *testing.T) {
		p, err := NewInsightPool("executor-1", now)
		require.NoError(t, err)
		p.TotalCredits = ^id.Cred(0)

		err = p.CanRecordDistribution(1)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeOverflow))
	})
}
