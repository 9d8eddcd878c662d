package order_api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"ms-campus/internal/order"
)

// Stripe payloads are far below this.
const maxWebhookBytes = 64 << 10

// StripeWebhook handles webhook events from Stripe
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		h.Logger.Warn("WEBHOOK", fmt.Sprintf("StripeWebhook: failed to read body: %v", err))
		http.Error(w, "Failed to read request body", http.StatusRequestEntityTooLarge)
		return
	}

	err = h.OrderService.HandleStripeWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.Logger.Error("WEBHOOK", fmt.Sprintf("StripeWebhook: failed to process webhook: %v", err))

		var webhookErr *order.WebhookError
		if errors.As(err, &webhookErr) {
			http.Error(w, webhookErr.PublicError, webhookErr.StatusCode)
			return
		}
		http.Error(w, "Webhook processing error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
