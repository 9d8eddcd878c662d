package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"ms-campus/internal/models"
)

// HandleStripeWebhook verifies a payment notification and drives the order
// it refers to. Errors that Stripe should retry come back as a WebhookError
// with a 5xx status.
func (s *OrderService) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.Payments == nil {
		return &WebhookError{
			Category:      "configuration",
			StatusCode:    http.StatusServiceUnavailable,
			PublicError:   "Payments are not configured",
			InternalError: "webhook received without a payment gateway",
		}
	}

	event, err := s.Payments.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}
	s.Logger.Info("WEBHOOK", fmt.Sprintf("Received %s (%s)", event.Type, event.ID))

	if s.Ledger != nil && event.ID != "" {
		seen, err := s.Ledger.WebhookProcessed(ctx, event.ID)
		if err != nil {
			s.Logger.Warn("WEBHOOK", fmt.Sprintf("failed to check receipt of %s: %v", event.ID, err))
		} else if seen {
			s.Logger.Info("WEBHOOK", fmt.Sprintf("%s already processed", event.ID))
			return nil
		}
	}

	if err := s.dispatchWebhook(ctx, event); err != nil {
		return err
	}

	if s.Ledger != nil && event.ID != "" {
		if err := s.Ledger.MarkWebhookProcessed(ctx, event.ID, event.Type, s.Clock.Now()); err != nil {
			s.Logger.Warn("WEBHOOK", fmt.Sprintf("failed to record receipt of %s: %v", event.ID, err))
		}
	}
	return nil
}

func (s *OrderService) dispatchWebhook(ctx context.Context, event *WebhookEvent) error {
	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		if !event.Paid {
			s.Logger.Info("WEBHOOK", fmt.Sprintf("session %s completed without payment yet, waiting", event.SessionID))
			return nil
		}
		order, err := s.webhookOrder(ctx, event)
		if err != nil {
			return err
		}
		_, err = s.Complete(ctx, order.OrderID, event.PaymentIntentID)
		return s.webhookResult(event, order.OrderID, err)

	case "checkout.session.expired", "checkout.session.async_payment_failed":
		order, err := s.webhookOrder(ctx, event)
		if err != nil {
			return err
		}
		return s.webhookResult(event, order.OrderID, s.Expire(ctx, order.OrderID))

	default:
		s.Logger.Debug("WEBHOOK", fmt.Sprintf("ignoring event type %s", event.Type))
		return nil
	}
}

func (s *OrderService) webhookOrder(ctx context.Context, event *WebhookEvent) (*models.Order, error) {
	var (
		order *models.Order
		err   error
	)
	if event.OrderID != "" {
		order, err = s.DB.GetOrderByID(ctx, event.OrderID)
	} else {
		order, err = s.DB.GetOrderByCheckoutSession(ctx, event.SessionID)
	}
	if errors.Is(err, models.ErrOrderNotFound) {
		return nil, &WebhookError{
			Category:      "validation",
			StatusCode:    http.StatusNotFound,
			PublicError:   "Order not found",
			InternalError: fmt.Sprintf("no order for session %s / reference %s", event.SessionID, event.OrderID),
			OriginalErr:   err,
		}
	}
	if err != nil {
		return nil, &WebhookError{
			Category:      "processing",
			StatusCode:    http.StatusInternalServerError,
			PublicError:   "Failed to load order",
			InternalError: err.Error(),
			OriginalErr:   err,
		}
	}
	return order, nil
}

// webhookResult acknowledges events for orders that already moved on and
// asks Stripe to retry real failures.
func (s *OrderService) webhookResult(event *WebhookEvent, orderID string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, models.ErrOrderNotPending) {
		s.Logger.Info("WEBHOOK", fmt.Sprintf("%s for order %s ignored, order is no longer pending", event.Type, orderID))
		return nil
	}
	return &WebhookError{
		Category:      "processing",
		StatusCode:    http.StatusInternalServerError,
		PublicError:   "Failed to process webhook",
		InternalError: fmt.Sprintf("%s for order %s: %v", event.Type, orderID, err),
		OriginalErr:   err,
	}
}
