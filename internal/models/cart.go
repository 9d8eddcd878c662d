package models

import (
	"fmt"
	"strings"
	"time"
)

type LineKind string

const (
	LineKindTicket LineKind = "ticket"
	LineKindItem   LineKind = "item"
)

// CartLine is what the cart store keeps. Prices are looked up on read.
type CartLine struct {
	Kind     LineKind  `json:"kind"`
	RefID    string    `json:"ref_id"`
	Quantity int       `json:"quantity"`
	AddedAt  time.Time `json:"added_at"`
}

func (l CartLine) ID() string {
	return LineID(l.Kind, l.RefID)
}

func LineID(kind LineKind, refID string) string {
	return fmt.Sprintf("%s:%s", kind, refID)
}

func ParseLineID(id string) (LineKind, string, error) {
	kind, ref, ok := strings.Cut(id, ":")
	if !ok || ref == "" {
		return "", "", ErrCartLineNotFound
	}
	switch LineKind(kind) {
	case LineKindTicket, LineKindItem:
		return LineKind(kind), ref, nil
	}
	return "", "", ErrCartLineNotFound
}

type PricedCartLine struct {
	LineID         string   `json:"line_id"`
	Kind           LineKind `json:"kind"`
	RefID          string   `json:"ref_id"`
	EventID        string   `json:"event_id,omitempty"`
	SellerID       string   `json:"seller_id,omitempty"`
	Name           string   `json:"name"`
	UnitPriceCents int64    `json:"unit_price_cents"`
	Currency       string   `json:"currency"`
	Quantity       int      `json:"quantity"`
	LineTotalCents int64    `json:"line_total_cents"`
	Available      int      `json:"available"`
}

func (l PricedCartLine) OrderLine() OrderLine {
	return OrderLine{
		Kind:           l.Kind,
		RefID:          l.RefID,
		EventID:        l.EventID,
		Name:           l.Name,
		UnitPriceCents: l.UnitPriceCents,
		Quantity:       l.Quantity,
	}
}

type CartView struct {
	UserID        string           `json:"user_id"`
	Lines         []PricedCartLine `json:"lines"`
	SubtotalCents int64            `json:"subtotal_cents"`
	Currency      string           `json:"currency,omitempty"`
	ItemCount     int              `json:"item_count"`
	// MixedCurrency is set when a tier or item changed currency after it
	// was added. Such a cart has no subtotal and cannot be checked out.
	MixedCurrency bool `json:"mixed_currency,omitempty"`
}

// SameCurrency reports ErrCurrencyMismatch unless every line uses the
// cart currency.
func (v *CartView) SameCurrency() error {
	for _, line := range v.Lines {
		if line.Currency != v.Lines[0].Currency {
			return ErrCurrencyMismatch
		}
	}
	return nil
}

type AddLineRequest struct {
	Kind     LineKind `json:"kind" validate:"required,oneof=ticket item"`
	RefID    string   `json:"ref_id" validate:"required"`
	Quantity int      `json:"quantity" validate:"gte=1,lte=100"`
}

type UpdateLineRequest struct {
	Quantity int `json:"quantity" validate:"gte=0,lte=100"`
}
