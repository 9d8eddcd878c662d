package db_test

import (
	"context"
	"testing"
	"time"

	"ms-campus/internal/models"
	"ms-campus/internal/order/db"
	"ms-campus/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newOrder(id, user string, expires time.Time) *models.Order {
	return &models.Order{
		OrderID:       id,
		UserID:        user,
		Status:        models.OrderStatusPending,
		Lines:         []models.OrderLine{{Kind: models.LineKindTicket, RefID: "tier-1", EventID: "evt-1", Name: "GA", UnitPriceCents: 1000, Quantity: 2}},
		SubtotalCents: 2000,
		TotalCents:    2000,
		Currency:      "usd",
		ExpiresAt:     expires,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestCreateAndGetOrder(t *testing.T) {
	d := &db.DB{Bun: testutil.NewTestDB(t)}
	ctx := context.Background()

	require.NoError(t, d.CreateOrder(ctx, newOrder("o-1", "u-1", now.Add(30*time.Minute))))
	require.NoError(t, d.SetCheckoutSession(ctx, "o-1", "cs_test_1", "https://pay.test/cs_test_1", now))

	got, err := d.GetOrderByID(ctx, "o-1")
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, 2, got.Lines[0].Quantity)
	assert.Equal(t, "cs_test_1", got.CheckoutSessionID)

	bySession, err := d.GetOrderByCheckoutSession(ctx, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, "o-1", bySession.OrderID)

	_, err = d.GetOrderByID(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrOrderNotFound)
}

func TestTransitionStatusHasOneWinner(t *testing.T) {
	d := &db.DB{Bun: testutil.NewTestDB(t)}
	ctx := context.Background()
	require.NoError(t, d.CreateOrder(ctx, newOrder("o-1", "u-1", now.Add(time.Minute))))

	ok, err := d.TransitionStatus(ctx, "o-1", models.OrderStatusPending, models.OrderStatusCompleted, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = d.TransitionStatus(ctx, "o-1", models.OrderStatusPending, models.OrderStatusExpired, now)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := d.GetOrderByID(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, got.Status)
	assert.False(t, got.CompletedAt.IsZero())
}

func TestListQueries(t *testing.T) {
	d := &db.DB{Bun: testutil.NewTestDB(t)}
	ctx := context.Background()

	require.NoError(t, d.CreateOrder(ctx, newOrder("o-old", "u-1", now.Add(-time.Minute))))
	require.NoError(t, d.CreateOrder(ctx, newOrder("o-new", "u-1", now.Add(time.Hour))))
	require.NoError(t, d.CreateOrder(ctx, newOrder("o-paid", "u-2", now.Add(-time.Hour))))
	_, err := d.TransitionStatus(ctx, "o-paid", models.OrderStatusPending, models.OrderStatusCompleted, now)
	require.NoError(t, err)

	expired, err := d.ListExpiredPending(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "o-old", expired[0].OrderID)

	mine, err := d.ListByUser(ctx, "u-1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, err = d.Bun.NewInsert().Model(&models.Ticket{
		TicketID: "t-1", OrderID: "o-paid", EventID: "evt-1", TierID: "tier-1",
		HolderID: "u-2", Status: models.TicketStatusValid, IssuedAt: now,
	}).Exec(ctx)
	require.NoError(t, err)

	byEvent, err := d.ListCompletedByEvent(ctx, "evt-1")
	require.NoError(t, err)
	require.Len(t, byEvent, 1)
	assert.Equal(t, "o-paid", byEvent[0].OrderID)
}
