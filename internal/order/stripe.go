package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ms-campus/internal/logger"
	"ms-campus/internal/models"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Stripe refuses checkout sessions that expire sooner than this.
const minSessionLifetime = 31 * time.Minute

// CheckoutSession is the hosted payment page created for a pending order.
type CheckoutSession struct {
	ID  string
	URL string
}

// WebhookEvent is the part of a verified payment notification the order
// flow acts on.
type WebhookEvent struct {
	ID              string
	Type            string
	SessionID       string
	OrderID         string
	PaymentIntentID string
	Paid            bool
}

// PaymentGateway is the payment provider behind checkout.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, order *models.Order) (*CheckoutSession, error)
	Refund(ctx context.Context, order *models.Order) error
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

// WebhookError represents an error that occurred during webhook processing
type WebhookError struct {
	Category      string // "configuration", "validation", "processing"
	StatusCode    int    // HTTP status code
	PublicError   string // Safe to expose to clients
	InternalError string // Detailed error for logs only
	OriginalErr   error  // Underlying error
}

func (e *WebhookError) Error() string {
	return fmt.Sprintf("%s: %s", e.Category, e.InternalError)
}

func (e *WebhookError) Unwrap() error {
	return e.OriginalErr
}

type StripeGateway struct {
	client        *client.API
	webhookSecret string
	successURL    string
	cancelURL     string
	logger        *logger.Logger
}

func NewStripeGateway(secretKey, webhookSecret, successURL, cancelURL string, log *logger.Logger) *StripeGateway {
	return &StripeGateway{
		client:        client.New(secretKey, nil),
		webhookSecret: webhookSecret,
		successURL:    successURL,
		cancelURL:     cancelURL,
		logger:        log,
	}
}

// sessionLineItems mirrors the order lines. A discounted order is sent as a
// single line for the total since Checkout has no ad-hoc discount amount.
func sessionLineItems(order *models.Order) []*stripe.CheckoutSessionLineItemParams {
	if order.DiscountCents > 0 {
		name := fmt.Sprintf("Campus order %s", order.OrderID)
		if order.PromoCode != "" {
			name += fmt.Sprintf(" (promo %s)", order.PromoCode)
		}
		return []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(order.Currency),
				UnitAmount:  stripe.Int64(order.TotalCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{Name: stripe.String(name)},
			},
			Quantity: stripe.Int64(1),
		}}
	}

	items := make([]*stripe.CheckoutSessionLineItemParams, 0, len(order.Lines))
	for _, line := range order.Lines {
		items = append(items, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(order.Currency),
				UnitAmount:  stripe.Int64(line.UnitPriceCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{Name: stripe.String(line.Name)},
			},
			Quantity: stripe.Int64(int64(line.Quantity)),
		})
	}
	return items
}

// CreateCheckoutSession opens a hosted checkout for a pending order. The
// session expires with the order hold when Stripe allows it.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, order *models.Order) (*CheckoutSession, error) {
	g.logger.Info("PAYMENT", fmt.Sprintf("Creating checkout session for order: %s", order.OrderID))

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(order.OrderID),
		SuccessURL:        stripe.String(strings.ReplaceAll(g.successURL, "{ORDER_ID}", order.OrderID)),
		CancelURL:         stripe.String(g.cancelURL),
		LineItems:         sessionLineItems(order),
	}
	if time.Until(order.ExpiresAt) >= minSessionLifetime {
		params.ExpiresAt = stripe.Int64(order.ExpiresAt.Unix())
	}
	params.Context = ctx
	params.AddMetadata("order_id", order.OrderID)
	params.AddMetadata("user_id", order.UserID)
	params.SetIdempotencyKey("checkout-" + order.OrderID)

	sess, err := g.client.CheckoutSessions.New(params)
	if err != nil {
		g.logger.Error("PAYMENT", fmt.Sprintf("Failed to create checkout session for order %s: %v", order.OrderID, err))
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	g.logger.Info("PAYMENT", fmt.Sprintf("Checkout session %s created for order %s", sess.ID, order.OrderID))
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// Refund returns the full amount of a paid order.
func (g *StripeGateway) Refund(ctx context.Context, order *models.Order) error {
	if order.PaymentIntentID == "" {
		return fmt.Errorf("order %s has no payment to refund", order.OrderID)
	}
	g.logger.Info("PAYMENT", fmt.Sprintf("Refunding payment %s for order %s", order.PaymentIntentID, order.OrderID))

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(order.PaymentIntentID),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.Context = ctx
	params.AddMetadata("order_id", order.OrderID)
	params.SetIdempotencyKey("refund-" + order.OrderID)

	if _, err := g.client.Refunds.New(params); err != nil {
		g.logger.Error("PAYMENT", fmt.Sprintf("Failed to refund order %s: %v", order.OrderID, err))
		return fmt.Errorf("failed to refund payment: %w", err)
	}
	return nil
}

// ParseWebhook verifies the Stripe signature and decodes checkout session
// events. Other event types come back with only ID and Type set.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if g.webhookSecret == "" {
		return nil, &WebhookError{
			Category:      "configuration",
			StatusCode:    http.StatusInternalServerError,
			PublicError:   "Webhook processing is not configured",
			InternalError: "STRIPE_WEBHOOK_SECRET is not set",
		}
	}

	opts := webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true}
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, opts)
	if err != nil {
		g.logger.LogSecurity("WEBHOOK_SIGNATURE", fmt.Sprintf("rejected webhook: %v", err))
		return nil, &WebhookError{
			Category:      "validation",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Invalid webhook signature",
			InternalError: fmt.Sprintf("signature verification failed: %v", err),
			OriginalErr:   errors.Join(models.ErrInvalidWebhook, err),
		}
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if !strings.HasPrefix(out.Type, "checkout.session.") {
		return out, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, &WebhookError{
			Category:      "validation",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Malformed checkout session payload",
			InternalError: fmt.Sprintf("decode checkout session: %v", err),
			OriginalErr:   err,
		}
	}

	out.SessionID = sess.ID
	out.OrderID = sess.ClientReferenceID
	if out.OrderID == "" {
		out.OrderID = sess.Metadata["order_id"]
	}
	if sess.PaymentIntent != nil {
		out.PaymentIntentID = sess.PaymentIntent.ID
	}
	out.Paid = sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
		sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired
	return out, nil
}
