package analytics

import (
	"context"

	"ms-campus/internal/models"

	"github.com/uptrace/bun"
)

// DB handles analytics database operations
type DB struct {
	Bun *bun.DB
}

// NewDB creates a new analytics DB handler
func NewDB(db *bun.DB) *DB {
	return &DB{Bun: db}
}

// TierTotals are the aggregated valid tickets of one tier.
type TierTotals struct {
	TierID       string `bun:"tier_id"`
	TicketsSold  int    `bun:"tickets_sold"`
	RevenueCents int64  `bun:"revenue_cents"`
	CheckedIn    int    `bun:"checked_in"`
}

// GetTiersByEventID returns the tiers of an event in creation order.
func (db *DB) GetTiersByEventID(ctx context.Context, eventID string) ([]models.TicketTier, error) {
	tiers := []models.TicketTier{}
	err := db.Bun.NewSelect().
		Model(&tiers).
		Where("event_id = ?", eventID).
		Order("created_at ASC", "id ASC").
		Scan(ctx)
	return tiers, err
}

// GetTierTotalsByEventID aggregates valid tickets per tier. Void tickets are
// excluded so refunds drop out of revenue.
func (db *DB) GetTierTotalsByEventID(ctx context.Context, eventID string) ([]TierTotals, error) {
	var totals []TierTotals
	err := db.Bun.NewSelect().
		Model((*models.Ticket)(nil)).
		ColumnExpr("tier_id").
		ColumnExpr("COUNT(*) AS tickets_sold").
		ColumnExpr("COALESCE(SUM(price_cents), 0) AS revenue_cents").
		ColumnExpr("COALESCE(SUM(CASE WHEN checked_in THEN 1 ELSE 0 END), 0) AS checked_in").
		Where("event_id = ?", eventID).
		Where("status = ?", models.TicketStatusValid).
		Group("tier_id").
		Scan(ctx, &totals)
	return totals, err
}

// GetTicketCountsByEventID returns the daily issue counters of an event.
func (db *DB) GetTicketCountsByEventID(ctx context.Context, eventID string) ([]models.TicketCount, error) {
	counts := []models.TicketCount{}
	err := db.Bun.NewSelect().
		Model(&counts).
		Where("event_id = ?", eventID).
		Order("date ASC").
		Scan(ctx)
	return counts, err
}

// DiscountTotals is the usage of one promo code on completed orders.
type DiscountTotals struct {
	PromoCode     string `bun:"promo_code" json:"promo_code"`
	UsageCount    int    `bun:"usage_count" json:"usage_count"`
	DiscountCents int64  `bun:"discount_cents" json:"discount_cents"`
}

// GetDiscountTotalsByEventID sums discounts granted by the event's promo codes.
func (db *DB) GetDiscountTotalsByEventID(ctx context.Context, eventID string) ([]DiscountTotals, error) {
	totals := []DiscountTotals{}
	promoIDs := db.Bun.NewSelect().
		Model((*models.PromoCode)(nil)).
		Column("id").
		Where("event_id = ?", eventID)

	err := db.Bun.NewSelect().
		Model((*models.Order)(nil)).
		ColumnExpr("promo_code").
		ColumnExpr("COUNT(*) AS usage_count").
		ColumnExpr("COALESCE(SUM(discount_cents), 0) AS discount_cents").
		Where("status = ?", models.OrderStatusCompleted).
		Where("promo_id IN (?)", promoIDs).
		Group("promo_code").
		Order("promo_code ASC").
		Scan(ctx, &totals)
	return totals, err
}
