package server

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterAllowsWithinLimit(t *testing.T) {
	rl := NewRateLimiter(3)
	for range 3 {
		require.NoError(t, rl.Check("client-a"))
	}
}

func TestRateLimiterRejectsOverLimit(t *testing.T) {
	rl := NewRateLimiter(1)
	require.NoError(t, rl.Check("client-a"))

	err := rl.Check("client-a")
	require.Error(t, err)

	var rle *RateLimitError
	require.True(t, errors.As(err, &rle))
	assert.Equal(t, 1, rle.Limit)
	assert.Positive(t, rle.RetryAfter)
}

func TestRateLimiterTracksClientsIndependently(t *testing.T) {
	rl := NewRateLimiter(1)
	require.NoError(t, rl.Check("client-a"))
	require.NoError(t, rl.Check("client-b"))
	require.Error(t, rl.Check("client-a"))
}

func TestRateLimiterZeroLimitDisables(t *testing.T) {
	rl := NewRateLimiter(0)
	for range 100 {
		require.NoError(t, rl.Check("client-a"))
	}
}
