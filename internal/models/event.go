package models

import (
	"time"

	"github.com/uptrace/bun"
)

type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusCancelled EventStatus = "cancelled"
)

type Venue struct {
	Name      string  `bun:"name" json:"name"`
	Address   string  `bun:"address" json:"address"`
	Latitude  float64 `bun:"latitude" json:"latitude"`
	Longitude float64 `bun:"longitude" json:"longitude"`
}

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID          string      `bun:"id,pk" json:"id"`
	OrganizerID string      `bun:"organizer_id,notnull" json:"organizer_id"`
	Title       string      `bun:"title,notnull" json:"title"`
	Summary     string      `bun:"summary" json:"summary,omitempty"`
	Description string      `bun:"description" json:"description,omitempty"`
	Category    string      `bun:"category,notnull" json:"category"`
	Venue       Venue       `bun:"embed:venue_" json:"venue"`
	ImageURL    string      `bun:"image_url" json:"image_url,omitempty"`
	StartsAt    time.Time   `bun:"starts_at,notnull" json:"starts_at"`
	EndsAt      time.Time   `bun:"ends_at,notnull" json:"ends_at"`
	Timezone    string      `bun:"timezone,notnull" json:"timezone"`
	Status      EventStatus `bun:"status,notnull" json:"status"`
	PublishedAt time.Time   `bun:"published_at,nullzero" json:"published_at,omitempty"`
	CreatedAt   time.Time   `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt   time.Time   `bun:"updated_at,notnull" json:"updated_at"`
}

type VenueInput struct {
	Name      string  `json:"name" validate:"required,max=120"`
	Address   string  `json:"address" validate:"max=300"`
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

// EventRequest is the body of both create and update calls.
type EventRequest struct {
	Title       string     `json:"title" validate:"required,min=3,max=120"`
	Summary     string     `json:"summary" validate:"max=280"`
	Description string     `json:"description" validate:"max=10000"`
	Category    string     `json:"category" validate:"required,max=40"`
	Venue       VenueInput `json:"venue"`
	ImageURL    string     `json:"image_url" validate:"omitempty,http_url,max=500"`
	StartsAt    time.Time  `json:"starts_at" validate:"required"`
	EndsAt      time.Time  `json:"ends_at" validate:"required,gtfield=StartsAt"`
	Timezone    string     `json:"timezone" validate:"omitempty,timezone"`
}

type EventFilter struct {
	Category string
	Query    string
	From     time.Time
	To       time.Time
	Page     int
	Limit    int
}

type EventPage struct {
	Events []Event `json:"events"`
	Total  int     `json:"total"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}
