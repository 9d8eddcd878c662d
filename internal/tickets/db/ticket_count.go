package db

import (
	"context"
	"time"

	"ms-campus/internal/models"
)

// GetTotalTicketsCount returns the number of valid tickets ever issued.
func (d *DB) GetTotalTicketsCount(ctx context.Context) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Ticket)(nil)).
		Where("status = ?", models.TicketStatusValid).
		Count(ctx)
}

// IncrementTicketCount adds n to the tier's counter for the UTC day of at.
func (d *DB) IncrementTicketCount(ctx context.Context, eventID, tierID string, n int, at time.Time) error {
	date := at.UTC().Truncate(24 * time.Hour)

	row := &models.TicketCount{EventID: eventID, TierID: tierID, Date: date}
	if _, err := d.Bun.NewInsert().
		Model(row).
		On("CONFLICT (tier_id, date) DO NOTHING").
		Exec(ctx); err != nil {
		return err
	}

	_, err := d.Bun.NewUpdate().
		Model((*models.TicketCount)(nil)).
		Set("count = count + ?", n).
		Where("tier_id = ?", tierID).
		Where("date = ?", date).
		Exec(ctx)
	return err
}

// GetTicketCountsForEvent returns the daily counters of every tier of an
// event.
func (d *DB) GetTicketCountsForEvent(ctx context.Context, eventID string) ([]models.TicketCount, error) {
	counts := []models.TicketCount{}
	err := d.Bun.NewSelect().
		Model(&counts).
		Where("event_id = ?", eventID).
		Order("date ASC", "tier_id ASC").
		Scan(ctx)
	return counts, err
}
