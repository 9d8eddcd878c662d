package models

import "time"

// EventMessage is published when an event changes state.
type EventMessage struct {
	EventID     string      `json:"event_id"`
	OrganizerID string      `json:"organizer_id"`
	Title       string      `json:"title"`
	Status      EventStatus `json:"status"`
	StartsAt    time.Time   `json:"starts_at"`
	OccurredAt  time.Time   `json:"occurred_at"`
}

// OrderMessage is published for every order state change.
type OrderMessage struct {
	OrderID    string      `json:"order_id"`
	UserID     string      `json:"user_id"`
	Status     OrderStatus `json:"status"`
	Lines      []OrderLine `json:"lines"`
	TotalCents int64       `json:"total_cents"`
	Currency   string      `json:"currency"`
	OccurredAt time.Time   `json:"occurred_at"`
}

func NewOrderMessage(o *Order, at time.Time) OrderMessage {
	return OrderMessage{
		OrderID:    o.OrderID,
		UserID:     o.UserID,
		Status:     o.Status,
		Lines:      o.Lines,
		TotalCents: o.TotalCents,
		Currency:   o.Currency,
		OccurredAt: at,
	}
}

// SaleEvent is pushed to organizers watching an event's live sales stream.
type SaleEvent struct {
	EventID     string    `json:"event_id"`
	OrderID     string    `json:"order_id"`
	TierID      string    `json:"tier_id"`
	TierName    string    `json:"tier_name"`
	Quantity    int       `json:"quantity"`
	AmountCents int64     `json:"amount_cents"`
	OccurredAt  time.Time `json:"occurred_at"`
}
