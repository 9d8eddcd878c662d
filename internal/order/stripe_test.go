package order

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"ms-campus/internal/logger"
	"ms-campus/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
)

const testWebhookSecret = "whsec_test_secret"

func signedPayload(t *testing.T, body string) ([]byte, string) {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(body),
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header
}

func TestParseWebhookCheckoutSession(t *testing.T) {
	g := NewStripeGateway("sk_test", testWebhookSecret, "", "", logger.NewNop())
	body := `{
		"id": "evt_1",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_test_1",
			"object": "checkout.session",
			"client_reference_id": "ORD-1",
			"payment_intent": "pi_1",
			"payment_status": "paid"
		}}
	}`
	payload, header := signedPayload(t, body)

	ev, err := g.ParseWebhook(payload, header)
	require.NoError(t, err)
	assert.Equal(t, "checkout.session.completed", ev.Type)
	assert.Equal(t, "cs_test_1", ev.SessionID)
	assert.Equal(t, "ORD-1", ev.OrderID)
	assert.Equal(t, "pi_1", ev.PaymentIntentID)
	assert.True(t, ev.Paid)
}

func TestParseWebhookOtherEvent(t *testing.T) {
	g := NewStripeGateway("sk_test", testWebhookSecret, "", "", logger.NewNop())
	payload, header := signedPayload(t, `{"id":"evt_2","object":"event","type":"charge.refunded","data":{"object":{"id":"ch_1"}}}`)

	ev, err := g.ParseWebhook(payload, header)
	require.NoError(t, err)
	assert.Equal(t, "charge.refunded", ev.Type)
	assert.Empty(t, ev.OrderID)
}

func TestParseWebhookRejectsBadSignature(t *testing.T) {
	g := NewStripeGateway("sk_test", testWebhookSecret, "", "", logger.NewNop())
	payload, _ := signedPayload(t, `{"id":"evt_3","object":"event","type":"checkout.session.completed"}`)

	_, err := g.ParseWebhook(payload, "t=1,v1=deadbeef")
	var whErr *WebhookError
	require.True(t, errors.As(err, &whErr))
	assert.Equal(t, http.StatusBadRequest, whErr.StatusCode)
	assert.ErrorIs(t, err, models.ErrInvalidWebhook)
}

func TestParseWebhookWithoutSecret(t *testing.T) {
	g := NewStripeGateway("sk_test", "", "", "", logger.NewNop())
	_, err := g.ParseWebhook([]byte("{}"), "sig")
	var whErr *WebhookError
	require.True(t, errors.As(err, &whErr))
	assert.Equal(t, "configuration", whErr.Category)
}

func TestSessionLineItems(t *testing.T) {
	o := &models.Order{
		OrderID:  "ORD-1",
		Currency: "usd",
		Lines: []models.OrderLine{
			{Kind: models.LineKindTicket, Name: "General", UnitPriceCents: 1000, Quantity: 2},
			{Kind: models.LineKindItem, Name: "Desk lamp", UnitPriceCents: 500, Quantity: 1},
		},
		SubtotalCents: 2500,
		TotalCents:    2500,
	}

	items := sessionLineItems(o)
	require.Len(t, items, 2)
	assert.Equal(t, int64(1000), *items[0].PriceData.UnitAmount)
	assert.Equal(t, int64(2), *items[0].Quantity)
	assert.Equal(t, "Desk lamp", *items[1].PriceData.ProductData.Name)

	o.DiscountCents = 700
	o.TotalCents = 1800
	o.PromoCode = "SPRING"
	items = sessionLineItems(o)
	require.Len(t, items, 1)
	assert.Equal(t, int64(1800), *items[0].PriceData.UnitAmount)
	assert.Equal(t, fmt.Sprintf("Campus order %s (promo %s)", o.OrderID, o.PromoCode), *items[0].PriceData.ProductData.Name)
}
