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

func TestMinterConfig(t *testing.T) {
	now := time.Now()

	t.Run("new config binds the initial authority", func(t *testing.T) {
		c, err := NewMinterConfig("minter-1", now)
		require.NoError(t, err)
		assert.Equal(t, keys.MinterConfig(), c.Address)
		assert.Equal(t, id.Identity("minter-1"), c.Authority)
		assert.Equal(t, uint64(0), c.MintsCount)
	})

	t.Run("rejects empty authority", func(t *testing.T) {
		_, err := NewMinterConfig("", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("counts mints and guards the counter", func(t *testing.T) {
		c, err := NewMinterConfig("minter-1", now)
		require.NoError(t, err)

		require.NoError(t, c.CanCountMint())
		c.ApplyCountMint(now)
		assert.Equal(t, uint64(1), c.MintsCount)

		c.MintsCount = ^uint64(0)
		assert.True(t, dErrors.HasCode(c.CanCountMint(), dErrors.CodeOverflow))
	})

	t.Run("rotates authority", func(t *testing.T) {
		c, err := NewMinterConfig("minter-1", now)
		require.NoError(t, err)

		require.NoError(t, c.CanUpdateAuthority("minter-2"))
		c.ApplyUpdateAuthority("minter-2", now.Add(time.Minute))

		assert.Equal(t, id.Identity("minter-2"), c.Authority)
		assert.True(t, dErrors.HasCode(c.CanUpdateAuthority(""), dErrors.CodeBadRequest))
	})
}

func TestNewProofRecord(t *testing.T) {
	now := time.Now()
	market := keys.Market("mkt-1")

	t.Run("builds record addressed by the proven market", func(t *testing.T) {
		rec, err := NewProofRecord(market, "mkt-1", 1, "sha256:abc", now)
		require.NoError(t, err)
		assert.Equal(t, keys.ProofRecord(market), rec.Address)
		assert.Equal(t, "prophecy://proof/"+market.String(), rec.MetadataURI)
		assert.Equal(t, uint8(1), rec.Outcome)
	})

	t.Run("rejects missing transcript hash", func(t *testing.T) {
		_, err := NewProofRecord(market, "mkt-1", 1, "", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("rejects missing market address", func(t *testing.T) {
		_, err := NewProofRecord("", "mkt-1", 1, "sha256:abc", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}
