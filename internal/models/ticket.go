package models

import (
	"time"

	"github.com/uptrace/bun"
)

// TicketTier is a priced block of capacity for an event.
type TicketTier struct {
	bun.BaseModel `bun:"table:ticket_tiers"`

	ID          string    `bun:"id,pk" json:"id"`
	EventID     string    `bun:"event_id,notnull" json:"event_id"`
	Name        string    `bun:"name,notnull" json:"name"`
	Description string    `bun:"description" json:"description,omitempty"`
	PriceCents  int64     `bun:"price_cents,notnull" json:"price_cents"`
	Currency    string    `bun:"currency,notnull" json:"currency"`
	Capacity    int       `bun:"capacity,notnull" json:"capacity"`
	Sold        int       `bun:"sold,notnull" json:"sold"`
	Reserved    int       `bun:"reserved,notnull" json:"reserved"`
	MaxPerOrder int       `bun:"max_per_order,notnull" json:"max_per_order"`
	SalesStart  time.Time `bun:"sales_start,nullzero" json:"sales_start,omitempty"`
	SalesEnd    time.Time `bun:"sales_end,nullzero" json:"sales_end,omitempty"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at,notnull" json:"updated_at"`

	Remaining int  `bun:"-" json:"remaining"`
	SoldOut   bool `bun:"-" json:"sold_out"`
}

// Available is the number of tickets that can still be reserved.
func (t *TicketTier) Available() int {
	n := t.Capacity - t.Sold - t.Reserved
	if n < 0 {
		return 0
	}
	return n
}

// OnSale reports whether now falls inside the sales window. Unset bounds are
// open.
func (t *TicketTier) OnSale(now time.Time) bool {
	if !t.SalesStart.IsZero() && now.Before(t.SalesStart) {
		return false
	}
	if !t.SalesEnd.IsZero() && !now.Before(t.SalesEnd) {
		return false
	}
	return true
}

// Fill sets the derived fields before the tier is sent to a client.
func (t *TicketTier) Fill() {
	t.Remaining = t.Available()
	t.SoldOut = t.Remaining == 0
}

func (t *TicketTier) IsFree() bool {
	return t.PriceCents == 0
}

type TierRequest struct {
	Name        string    `json:"name" validate:"required,min=1,max=80"`
	Description string    `json:"description" validate:"max=500"`
	PriceCents  int64     `json:"price_cents" validate:"gte=0,lte=10000000"`
	Currency    string    `json:"currency" validate:"omitempty,len=3"`
	Capacity    int       `json:"capacity" validate:"gte=1,lte=100000"`
	MaxPerOrder int       `json:"max_per_order" validate:"gte=0,lte=100"`
	SalesStart  time.Time `json:"sales_start"`
	SalesEnd    time.Time `json:"sales_end"`
}

type TicketStatus string

const (
	TicketStatusValid TicketStatus = "valid"
	TicketStatusVoid  TicketStatus = "void"
)

type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	TicketID      string       `bun:"ticket_id,pk" json:"ticket_id"`
	OrderID       string       `bun:"order_id,notnull" json:"order_id"`
	EventID       string       `bun:"event_id,notnull" json:"event_id"`
	TierID        string       `bun:"tier_id,notnull" json:"tier_id"`
	HolderID      string       `bun:"holder_id,notnull" json:"holder_id"`
	TierName      string       `bun:"tier_name" json:"tier_name"`
	PriceCents    int64        `bun:"price_cents,notnull" json:"price_cents"`
	Status        TicketStatus `bun:"status,notnull" json:"status"`
	QRCode        []byte       `bun:"qr_code" json:"qr_code,omitempty"`
	QRPayload     string       `bun:"qr_payload" json:"qr_payload,omitempty"`
	IssuedAt      time.Time    `bun:"issued_at,notnull" json:"issued_at"`
	CheckedIn     bool         `bun:"checked_in,notnull" json:"checked_in"`
	CheckedInTime time.Time    `bun:"checked_in_time,nullzero" json:"checked_in_time,omitempty"`
}

// TicketClaims is the plaintext sealed inside a ticket QR code.
type TicketClaims struct {
	TicketID string    `json:"tid"`
	EventID  string    `json:"eid"`
	HolderID string    `json:"hid"`
	IssuedAt time.Time `json:"iat"`
}

type CheckinRequest struct {
	EncryptedQR string `json:"encrypted_qr" validate:"required"`
}
