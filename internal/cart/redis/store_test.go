package redis

import (
	"context"
	"testing"
	"time"

	"ms-campus/internal/models"
	"ms-campus/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartStore(t *testing.T) {
	client, mr := testutil.NewTestRedis(t)
	store := NewCartStore(client, time.Hour)
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Put(ctx, "u-1", models.CartLine{Kind: models.LineKindItem, RefID: "i-1", Quantity: 1, AddedAt: at.Add(time.Minute)}))
	require.NoError(t, store.Put(ctx, "u-1", models.CartLine{Kind: models.LineKindTicket, RefID: "t-1", Quantity: 2, AddedAt: at}))

	lines, err := store.Lines(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "ticket:t-1", lines[0].ID())
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, time.Hour, mr.TTL("cart:u-1"))

	mr.HSet("cart:u-1", "item:broken", "{not json")
	lines, err = store.Lines(ctx, "u-1")
	require.NoError(t, err)
	assert.Len(t, lines, 2)
	assert.Empty(t, mr.HGet("cart:u-1", "item:broken"))

	removed, err := store.Remove(ctx, "u-1", "item:i-1")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = store.Remove(ctx, "u-1", "item:i-1")
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, store.Clear(ctx, "u-1"))
	lines, err = store.Lines(ctx, "u-1")
	require.NoError(t, err)
	assert.Empty(t, lines)
}
