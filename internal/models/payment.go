package models

import (
	"time"

	"github.com/uptrace/bun"
)

type PaymentKind string

const (
	PaymentKindCharge PaymentKind = "charge"
	PaymentKindRefund PaymentKind = "refund"
)

// Payment is one money movement recorded against an order.
type Payment struct {
	bun.BaseModel `bun:"table:payments"`

	PaymentID   string      `bun:"payment_id,pk" json:"payment_id"`
	OrderID     string      `bun:"order_id,notnull" json:"order_id"`
	Kind        PaymentKind `bun:"kind,notnull" json:"kind"`
	AmountCents int64       `bun:"amount_cents,notnull" json:"amount_cents"`
	Currency    string      `bun:"currency,notnull" json:"currency"`
	ProviderRef string      `bun:"provider_ref" json:"provider_ref,omitempty"`
	CreatedAt   time.Time   `bun:"created_at,notnull" json:"created_at"`
}

// WebhookReceipt marks a payment provider event as handled.
type WebhookReceipt struct {
	bun.BaseModel `bun:"table:webhook_events"`

	EventID     string    `bun:"event_id,pk"`
	Type        string    `bun:"type,notnull"`
	ProcessedAt time.Time `bun:"processed_at,notnull"`
}
