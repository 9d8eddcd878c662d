package models

import (
	"time"

	"github.com/uptrace/bun"
)

// TicketCount is the number of tickets issued for a tier on one UTC day.
type TicketCount struct {
	bun.BaseModel `bun:"table:ticket_counts"`

	ID      int64     `bun:"id,pk,autoincrement" json:"-"`
	EventID string    `bun:"event_id,notnull" json:"event_id"`
	TierID  string    `bun:"tier_id,notnull,unique:tier_day" json:"tier_id"`
	Count   int       `bun:"count,notnull" json:"count"`
	Date    time.Time `bun:"date,notnull,unique:tier_day" json:"date"`
}
