package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "prophecy/pkg/domain-errors"
)

func TestParseCred(t *testing.T) {
	tests := []struct {
		in   string
		want Cred
	}{
		{"0", 0},
		{"40", 40_000_000},
		{"40.5", 40_500_000},
		{"40.000001", 40_000_001},
		{"0.000001", 1},
		{"100.000000", 100_000_000},
		{" 7 ", 7_000_000},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCred(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCredRejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
		code dErrors.Code
	}{
		{"empty string", "", dErrors.CodeInvalidAmount},
		{"seven fractional digits", "1.0000001", dErrors.CodeInvalidAmount},
		{"negative", "-1", dErrors.CodeInvalidAmount},
		{"not a number", "forty", dErrors.CodeInvalidAmount},
		{"whole part overflow", "18446744073709551616", dErrors.CodeInvalidAmount},
		{"unit overflow", "18446744073710", dErrors.CodeOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCred(tt.in)
			assert.True(t, dErrors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestCredString(t *testing.T) {
	assert.Equal(t, "40.000000", Cred(40_000_000).String())
	assert.Equal(t, "0.000001", Cred(1).String())
	assert.Equal(t, "0.000000", Cred(0).String())
	assert.Equal(t, "110.000000", Cred(110_000_000).String())
}

func TestCredCheckedMath(t *testing.T) {
	t.Run("add within range", func(t *testing.T) {
		sum, err := Cred(40_000_000).CheckedAdd(10_000_000)
		require.NoError(t, err)
		assert.Equal(t, Cred(50_000_000), sum)
	})

	t.Run("add overflow", func(t *testing.T) {
		_, err := Cred(math.MaxUint64).CheckedAdd(1)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeOverflow))
	})

	t.Run("sub within range", func(t *testing.T) {
		diff, err := Cred(40_000_000).CheckedSub(40_000_000)
		require.NoError(t, err)
		assert.Equal(t, Cred(0), diff)
	})

	t.Run("sub underflow", func(t *testing.T) {
		_, err := Cred(1).CheckedSub(2)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeOverflow))
	})
}
