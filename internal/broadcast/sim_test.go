package broadcast

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grouk-eth/PumpBot/internal/config"
)

func TestSimulator_DeterministicReceipts(t *testing.T) {
	sim := NewSimulator()
	ctx := context.Background()

	buy, err := sim.SubmitBuy(ctx, "MintAddr456XYZ", 0.01)
	require.NoError(t, err)
	assert.Equal(t, "SIM-BUY-MintAddr-000001", buy.TxRef)
	assert.Equal(t, config.PlaceholderTokenAmount, buy.TokensDelta)
	assert.True(t, buy.Simulated)

	sell, err := sim.SubmitSell(ctx, "MintAddr456XYZ")
	require.NoError(t, err)
	assert.Equal(t, "SIM-SELL-MintAddr-000002", sell.TxRef)
	assert.Zero(t, sell.TokensDelta)
	assert.True(t, sell.Simulated)
}

func TestSimulator_ShortMint(t *testing.T) {
	sim := NewSimulator()

	buy, err := sim.SubmitBuy(context.Background(), "abc", 0.01)
	require.NoError(t, err)
	assert.Equal(t, "SIM-BUY-abc-000001", buy.TxRef)
}

func TestError_Unwrap(t *testing.T) {
	inner := assert.AnError
	err := &Error{Op: "buy", Mint: "MintA", Err: inner}

	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "broadcast buy for MintA")
}
