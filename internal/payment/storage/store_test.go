package storage

import (
	"context"
	"testing"
	"time"

	"ms-campus/internal/logger"
	"ms-campus/internal/models"
	"ms-campus/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentsLedger(t *testing.T) {
	store := NewStore(testutil.NewTestDB(t), logger.NewNop())
	ctx := context.Background()
	at := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.SavePayment(ctx, &models.Payment{PaymentID: "p2", OrderID: "o1", Kind: models.PaymentKindRefund,
		AmountCents: 1500, Currency: "usd", ProviderRef: "pi_1", CreatedAt: at.Add(time.Hour)}))
	require.NoError(t, store.SavePayment(ctx, &models.Payment{PaymentID: "p1", OrderID: "o1", Kind: models.PaymentKindCharge,
		AmountCents: 1500, Currency: "usd", ProviderRef: "pi_1", CreatedAt: at}))
	require.NoError(t, store.SavePayment(ctx, &models.Payment{PaymentID: "p3", OrderID: "o2", Kind: models.PaymentKindCharge,
		AmountCents: 700, Currency: "usd", CreatedAt: at}))

	payments, err := store.ListPaymentsByOrder(ctx, "o1")
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, models.PaymentKindCharge, payments[0].Kind)
	assert.Equal(t, models.PaymentKindRefund, payments[1].Kind)

	assert.Error(t, store.SavePayment(ctx, &models.Payment{PaymentID: "p1", OrderID: "o1", Kind: models.PaymentKindCharge, Currency: "usd", CreatedAt: at}))

	empty, err := store.ListPaymentsByOrder(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestWebhookReceipts(t *testing.T) {
	store := NewStore(testutil.NewTestDB(t), logger.NewNop())
	ctx := context.Background()
	at := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	seen, err := store.WebhookProcessed(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, store.MarkWebhookProcessed(ctx, "evt_1", "checkout.session.completed", at))
	require.NoError(t, store.MarkWebhookProcessed(ctx, "evt_1", "checkout.session.completed", at))

	seen, err = store.WebhookProcessed(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, seen)
}
