package models

import (
	"time"

	"github.com/uptrace/bun"
)

type DiscountType string

const (
	PERCENTAGE       DiscountType = "PERCENTAGE"
	FLAT_OFF         DiscountType = "FLAT_OFF"
	BUY_N_GET_N_FREE DiscountType = "BUY_N_GET_N_FREE"
)

// DiscountParameters holds the knobs for each DiscountType. Only the fields
// relevant to Type are set. Money values are in cents.
type DiscountParameters struct {
	Type        DiscountType `json:"type" validate:"required,oneof=PERCENTAGE FLAT_OFF BUY_N_GET_N_FREE"`
	Percentage  *float64     `json:"percentage,omitempty" validate:"omitempty,gt=0,lte=100"`
	Amount      *int64       `json:"amount,omitempty" validate:"omitempty,gt=0"`
	MinSpend    *int64       `json:"min_spend,omitempty" validate:"omitempty,gte=0"`
	MaxDiscount *int64       `json:"max_discount,omitempty" validate:"omitempty,gt=0"`
	BuyQuantity *int         `json:"buy_quantity,omitempty" validate:"omitempty,gte=1"`
	GetQuantity *int         `json:"get_quantity,omitempty" validate:"omitempty,gte=1"`
}

type PromoCode struct {
	bun.BaseModel `bun:"table:promo_codes"`

	ID              string             `bun:"id,pk" json:"id"`
	EventID         string             `bun:"event_id,notnull" json:"event_id"`
	Code            string             `bun:"code,notnull" json:"code"`
	Parameters      DiscountParameters `bun:"parameters,type:jsonb" json:"parameters"`
	ApplicableTiers []string           `bun:"applicable_tiers,type:jsonb" json:"applicable_tiers"`
	MaxUsage        int                `bun:"max_usage,notnull" json:"max_usage"`
	CurrentUsage    int                `bun:"current_usage,notnull" json:"current_usage"`
	ActiveFrom      time.Time          `bun:"active_from,notnull" json:"active_from"`
	ExpiresAt       time.Time          `bun:"expires_at,notnull" json:"expires_at"`
	Active          bool               `bun:"active,notnull" json:"active"`
	CreatedAt       time.Time          `bun:"created_at,notnull" json:"created_at"`
}

type PromoRequest struct {
	Code            string             `json:"code" validate:"required,alphanum,min=3,max=40"`
	Parameters      DiscountParameters `json:"parameters"`
	ApplicableTiers []string           `json:"applicable_tiers"`
	MaxUsage        int                `json:"max_usage" validate:"gte=0"`
	ActiveFrom      time.Time          `json:"active_from" validate:"required"`
	ExpiresAt       time.Time          `json:"expires_at" validate:"required,gtfield=ActiveFrom"`
	Active          *bool              `json:"active"`
}
