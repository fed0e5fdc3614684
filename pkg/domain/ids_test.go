package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "prophecy/pkg/domain-errors"
)

func TestParseIdentity(t *testing.T) {
	t.Run("accepts and trims a plain identity", func(t *testing.T) {
		got, err := ParseIdentity("  alice  ")
		require.NoError(t, err)
		assert.Equal(t, Identity("alice"), got)
		assert.False(t, got.IsZero())
	})

	t.Run("rejects empty identity", func(t *testing.T) {
		_, err := ParseIdentity("   ")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("rejects identity over 64 characters", func(t *testing.T) {
		_, err := ParseIdentity(strings.Repeat("a", 65))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func TestParseMarketID(t *testing.T) {
	t.Run("accepts identifier at the limit", func(t *testing.T) {
		got, err := ParseMarketID(strings.Repeat("m", MaxMarketIDLen))
		require.NoError(t, err)
		assert.Len(t, got.String(), MaxMarketIDLen)
	})

	t.Run("rejects empty identifier", func(t *testing.T) {
		_, err := ParseMarketID("")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("rejects identifier over 32 characters", func(t *testing.T) {
		_, err := ParseMarketID(strings.Repeat("m", MaxMarketIDLen+1))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMarketIDTooLong))
	})
}
