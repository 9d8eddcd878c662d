package models

import (
	"time"

	"github.com/uptrace/bun"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusExpired   OrderStatus = "expired"
	OrderStatusRefunded  OrderStatus = "refunded"
)

// OrderLine is a priced snapshot of a cart line taken at checkout.
type OrderLine struct {
	Kind           LineKind `json:"kind"`
	RefID          string   `json:"ref_id"`
	EventID        string   `json:"event_id,omitempty"`
	Name           string   `json:"name"`
	UnitPriceCents int64    `json:"unit_price_cents"`
	Quantity       int      `json:"quantity"`
}

func (l OrderLine) TotalCents() int64 {
	return l.UnitPriceCents * int64(l.Quantity)
}

type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	OrderID           string      `bun:"order_id,pk" json:"order_id"`
	UserID            string      `bun:"user_id,notnull" json:"user_id"`
	Status            OrderStatus `bun:"status,notnull" json:"status"`
	Lines             []OrderLine `bun:"lines,type:jsonb" json:"lines"`
	SubtotalCents     int64       `bun:"subtotal_cents,notnull" json:"subtotal_cents"`
	DiscountCents     int64       `bun:"discount_cents,notnull" json:"discount_cents"`
	TotalCents        int64       `bun:"total_cents,notnull" json:"total_cents"`
	Currency          string      `bun:"currency,notnull" json:"currency"`
	PromoCode         string      `bun:"promo_code,nullzero" json:"promo_code,omitempty"`
	PromoID           string      `bun:"promo_id,nullzero" json:"-"`
	CheckoutSessionID string      `bun:"checkout_session_id,nullzero" json:"checkout_session_id,omitempty"`
	CheckoutURL       string      `bun:"checkout_url,nullzero" json:"checkout_url,omitempty"`
	PaymentIntentID   string      `bun:"payment_intent_id,nullzero" json:"-"`
	ExpiresAt         time.Time   `bun:"expires_at,notnull" json:"expires_at"`
	CreatedAt         time.Time   `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt         time.Time   `bun:"updated_at,notnull" json:"updated_at"`
	CompletedAt       time.Time   `bun:"completed_at,nullzero" json:"completed_at,omitempty"`
}

// EventIDs returns the distinct events the order buys tickets for.
func (o *Order) EventIDs() []string {
	seen := map[string]bool{}
	var ids []string
	for _, l := range o.Lines {
		if l.Kind == LineKindTicket && l.EventID != "" && !seen[l.EventID] {
			seen[l.EventID] = true
			ids = append(ids, l.EventID)
		}
	}
	return ids
}

type CheckoutRequest struct {
	PromoCode string `json:"promo_code" validate:"max=40"`
}

type CheckoutResponse struct {
	Order       *Order `json:"order"`
	CheckoutURL string `json:"checkout_url,omitempty"`
}

type OrderWithTickets struct {
	Order
	Tickets []Ticket `json:"tickets"`
}
