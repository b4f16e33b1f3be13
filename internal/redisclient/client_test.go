package redisclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjustStockClampsAtZero(t *testing.T) {
	t.Skip("Integration test - requires Redis")

	client, err := NewClient("localhost:6379", "", 0)
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	const productID = int64(9001)

	require.NoError(t, client.SetStock(ctx, productID, 5))

	stock, clamped, err := client.AdjustStock(ctx, productID, -3)
	require.NoError(t, err)
	assert.Equal(t, 2, stock)
	assert.False(t, clamped)

	// Over-decrement floors at zero and reports the clamp.
	stock, clamped, err = client.AdjustStock(ctx, productID, -10)
	require.NoError(t, err)
	assert.Equal(t, 0, stock)
	assert.True(t, clamped)

	mirrored, err := client.GetStock(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 0, mirrored)
}
