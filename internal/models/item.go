package models

import (
	"time"

	"github.com/uptrace/bun"
)

type ItemCondition string

const (
	ConditionNew     ItemCondition = "new"
	ConditionLikeNew ItemCondition = "like_new"
	ConditionGood    ItemCondition = "good"
	ConditionFair    ItemCondition = "fair"
)

type ItemStatus string

const (
	ItemStatusActive  ItemStatus = "active"
	ItemStatusSold    ItemStatus = "sold"
	ItemStatusRemoved ItemStatus = "removed"
)

// Item is a marketplace listing. Quantity counts unsold units; Reserved
// counts units held by pending orders.
type Item struct {
	bun.BaseModel `bun:"table:items"`

	ID          string        `bun:"id,pk" json:"id"`
	SellerID    string        `bun:"seller_id,notnull" json:"seller_id"`
	Title       string        `bun:"title,notnull" json:"title"`
	Description string        `bun:"description" json:"description,omitempty"`
	Category    string        `bun:"category,notnull" json:"category"`
	Condition   ItemCondition `bun:"condition,notnull" json:"condition"`
	PriceCents  int64         `bun:"price_cents,notnull" json:"price_cents"`
	Currency    string        `bun:"currency,notnull" json:"currency"`
	Quantity    int           `bun:"quantity,notnull" json:"quantity"`
	Reserved    int           `bun:"reserved,notnull" json:"-"`
	ImageURLs   []string      `bun:"image_urls,type:jsonb" json:"image_urls"`
	Location    string        `bun:"location" json:"location,omitempty"`
	Status      ItemStatus    `bun:"status,notnull" json:"status"`
	CreatedAt   time.Time     `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt   time.Time     `bun:"updated_at,notnull" json:"updated_at"`

	Available int `bun:"-" json:"available"`
}

func (i *Item) AvailableUnits() int {
	n := i.Quantity - i.Reserved
	if n < 0 {
		return 0
	}
	return n
}

func (i *Item) Fill() {
	i.Available = i.AvailableUnits()
	if i.ImageURLs == nil {
		i.ImageURLs = []string{}
	}
}

type ItemRequest struct {
	Title       string        `json:"title" validate:"required,min=3,max=120"`
	Description string        `json:"description" validate:"max=5000"`
	Category    string        `json:"category" validate:"required,max=40"`
	Condition   ItemCondition `json:"condition" validate:"required,oneof=new like_new good fair"`
	PriceCents  int64         `json:"price_cents" validate:"gte=0,lte=100000000"`
	Currency    string        `json:"currency" validate:"omitempty,len=3"`
	Quantity    int           `json:"quantity" validate:"gte=1,lte=1000"`
	ImageURLs   []string      `json:"image_urls" validate:"max=8,dive,http_url"`
	Location    string        `json:"location" validate:"max=120"`
}

const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
)

type ItemFilter struct {
	Category  string
	Condition ItemCondition
	Query     string
	MinPrice  *int64
	MaxPrice  *int64
	SellerID  string
	Sort      string
	Page      int
	Limit     int
}

type ItemPage struct {
	Items []Item `json:"items"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}
