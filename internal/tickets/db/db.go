package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ms-campus/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateTier(ctx context.Context, tier *models.TicketTier) error {
	_, err := d.Bun.NewInsert().Model(tier).Exec(ctx)
	return err
}

func (d *DB) GetTier(ctx context.Context, id string) (*models.TicketTier, error) {
	var tier models.TicketTier
	err := d.Bun.NewSelect().
		Model(&tier).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrTierNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

func (d *DB) ListTiers(ctx context.Context, eventID string) ([]models.TicketTier, error) {
	tiers := []models.TicketTier{}
	err := d.Bun.NewSelect().
		Model(&tiers).
		Where("event_id = ?", eventID).
		Order("price_cents ASC", "created_at ASC").
		Scan(ctx)
	return tiers, err
}

// UpdateTier writes the editable columns. The capacity guard is repeated in
// SQL so a concurrent reservation cannot push sold+reserved past it.
func (d *DB) UpdateTier(ctx context.Context, tier *models.TicketTier) error {
	res, err := d.Bun.NewUpdate().
		Model(tier).
		Column("name", "description", "price_cents", "currency", "capacity", "max_per_order", "sales_start", "sales_end", "updated_at").
		WherePK().
		Where("sold + reserved <= ?", tier.Capacity).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrCapacityBelowSold
	}
	return nil
}

// DeleteTier removes a tier that has never sold or reserved a ticket.
func (d *DB) DeleteTier(ctx context.Context, id string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.TicketTier)(nil)).
		Where("id = ?", id).
		Where("sold = 0").
		Where("reserved = 0").
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrTierHasSales
	}
	return nil
}

func (d *DB) CountTiers(ctx context.Context, eventID string) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.TicketTier)(nil)).
		Where("event_id = ?", eventID).
		Count(ctx)
}

// HasSales reports whether any tier of the event has sold or reserved
// tickets.
func (d *DB) HasSales(ctx context.Context, eventID string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.TicketTier)(nil)).
		Where("event_id = ?", eventID).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("sold > 0").WhereOr("reserved > 0")
		}).
		Exists(ctx)
}

// Reserve holds n tickets of a tier. It fails with ErrTierSoldOut when the
// remaining capacity is smaller than n.
func (d *DB) Reserve(ctx context.Context, tierID string, n int, now time.Time) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.TicketTier)(nil)).
		Set("reserved = reserved + ?", n).
		Set("updated_at = ?", now.UTC()).
		Where("id = ?", tierID).
		Where("sold + reserved + ? <= capacity", n).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to reserve %d tickets of tier %s: %w", n, tierID, err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return models.ErrTierSoldOut
	}
	return nil
}

// Release gives n reserved tickets back. Reserved never drops below zero.
func (d *DB) Release(ctx context.Context, tierID string, n int, now time.Time) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.TicketTier)(nil)).
		Set("reserved = CASE WHEN reserved >= ? THEN reserved - ? ELSE 0 END", n, n).
		Set("updated_at = ?", now.UTC()).
		Where("id = ?", tierID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to release %d tickets of tier %s: %w", n, tierID, err)
	}
	return nil
}

// Confirm turns n reserved tickets into sold ones.
func (d *DB) Confirm(ctx context.Context, tierID string, n int, now time.Time) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.TicketTier)(nil)).
		Set("reserved = reserved - ?", n).
		Set("sold = sold + ?", n).
		Set("updated_at = ?", now.UTC()).
		Where("id = ?", tierID).
		Where("reserved >= ?", n).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to confirm %d tickets of tier %s: %w", n, tierID, err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return fmt.Errorf("%w: tier %s has fewer than %d reserved tickets", models.ErrConflict, tierID, n)
	}
	return nil
}

func (d *DB) CreateTickets(ctx context.Context, tickets []models.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	_, err := d.Bun.NewInsert().Model(&tickets).Exec(ctx)
	return err
}

func (d *DB) GetTicket(ctx context.Context, id string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Where("ticket_id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (d *DB) ListByHolder(ctx context.Context, holderID string) ([]models.Ticket, error) {
	tickets := []models.Ticket{}
	err := d.Bun.NewSelect().
		Model(&tickets).
		ExcludeColumn("qr_code").
		Where("holder_id = ?", holderID).
		Order("issued_at DESC").
		Scan(ctx)
	return tickets, err
}

func (d *DB) ListByOrder(ctx context.Context, orderID string) ([]models.Ticket, error) {
	tickets := []models.Ticket{}
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("order_id = ?", orderID).
		Order("ticket_id ASC").
		Scan(ctx)
	return tickets, err
}

// VoidByOrder invalidates every ticket issued for an order and returns how
// many were changed.
func (d *DB) VoidByOrder(ctx context.Context, orderID string) (int, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("status = ?", models.TicketStatusVoid).
		Where("order_id = ?", orderID).
		Where("status = ?", models.TicketStatusValid).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// CheckIn marks a valid ticket as used. It reports false when the ticket was
// already checked in or void.
func (d *DB) CheckIn(ctx context.Context, ticketID string, at time.Time) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("checked_in = ?", true).
		Set("checked_in_time = ?", at.UTC()).
		Where("ticket_id = ?", ticketID).
		Where("checked_in = ?", false).
		Where("status = ?", models.TicketStatusValid).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

func (d *DB) CountCheckedIn(ctx context.Context, eventID string) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Ticket)(nil)).
		Where("event_id = ?", eventID).
		Where("checked_in = ?", true).
		Count(ctx)
}
