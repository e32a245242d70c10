package pricing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCost_KnownModel(t *testing.T) {
	// claude-sonnet-4-5: $3/MTok input, $15/MTok output
	cost, err := Cost("claude-sonnet-4-5", 1000, 500)
	require.NoError(t, err)
	assert.Equal(t, 0.0105, cost)
}

func TestCost_UnknownModelFailsLoudly(t *testing.T) {
	_, err := Cost("gpt-99-ultra", 1000, 500)
	require.Error(t, err)

	var unknownErr *UnknownModelError
	require.True(t, errors.As(err, &unknownErr))
	assert.Equal(t, "gpt-99-ultra", unknownErr.Model)
}

func TestLookup_ExactMatchWinsOverFamily(t *testing.T) {
	p, err := Lookup("claude-opus-4-6")
	require.NoError(t, err)
	assert.Equal(t, 5.0, p.InputPerMTok)
	assert.Equal(t, 25.0, p.OutputPerMTok)
}

func TestLookup_LongestPrefixWins(t *testing.T) {
	// A dated opus-4-6 snapshot must resolve through the opus-4-6 family,
	// not the broad (and far more expensive) claude-opus family.
	p, err := Lookup("claude-opus-4-6-20260115")
	require.NoError(t, err)
	assert.Equal(t, 5.0, p.InputPerMTok)
}

func TestCost_RoundingToFourPlaces(t *testing.T) {
	// 1 input token of sonnet = $0.000003, which rounds to zero at 4dp.
	cost, err := Cost("claude-sonnet-4-5", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cost)

	// 111 output tokens = $0.001665 -> 0.0017
	cost, err = Cost("claude-sonnet-4-5", 0, 111)
	require.NoError(t, err)
	assert.Equal(t, 0.0017, cost)
}

func TestRegister(t *testing.T) {
	Register("standard-tier", ModelPricing{InputPerMTok: 3, OutputPerMTok: 15})

	cost, err := Cost("standard-tier", 1000, 500)
	require.NoError(t, err)
	assert.Equal(t, 0.0105, cost)
}
