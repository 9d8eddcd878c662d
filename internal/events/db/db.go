package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"ms-campus/internal/models"
	"ms-campus/internal/utils"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- EVENTS ----------------

// CreateEvent → insert new event
func (d *DB) CreateEvent(ctx context.Context, event *models.Event) error {
	_, err := d.Bun.NewInsert().Model(event).Exec(ctx)
	return err
}

// GetEventByID → fetch one event by its ID
func (d *DB) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// UpdateEvent → write every mutable column
func (d *DB) UpdateEvent(ctx context.Context, event *models.Event) error {
	res, err := d.Bun.NewUpdate().
		Model(event).
		ExcludeColumn("id", "organizer_id", "created_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrEventNotFound
	}
	return nil
}

// DeleteEvent → remove an event and its tiers
func (d *DB) DeleteEvent(ctx context.Context, id string) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*models.PromoCode)(nil)).
			Where("event_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().
			Model((*models.TicketTier)(nil)).
			Where("event_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		res, err := tx.NewDelete().
			Model((*models.Event)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return models.ErrEventNotFound
		}
		return nil
	})
}

// ListPublished → published events matching filter, ordered by start time
func (d *DB) ListPublished(ctx context.Context, f models.EventFilter) ([]models.Event, int, error) {
	var events []models.Event
	q := d.Bun.NewSelect().
		Model(&events).
		Where("status = ?", models.EventStatusPublished)

	if f.Category != "" {
		q = q.Where("LOWER(category) = ?", strings.ToLower(f.Category))
	}
	if f.Query != "" {
		like := utils.ContainsPattern(f.Query)
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("LOWER(title) LIKE ? ESCAPE '!'", like).
				WhereOr("LOWER(summary) LIKE ? ESCAPE '!'", like)
		})
	}
	if !f.From.IsZero() {
		q = q.Where("ends_at > ?", f.From.UTC())
	}
	if !f.To.IsZero() {
		q = q.Where("starts_at < ?", f.To.UTC())
	}

	total, err := q.
		Order("starts_at ASC", "id ASC").
		Limit(f.Limit).
		Offset((f.Page - 1) * f.Limit).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// ListByOrganizer → every event an organizer owns, newest first
func (d *DB) ListByOrganizer(ctx context.Context, organizerID string) ([]models.Event, error) {
	var events []models.Event
	err := d.Bun.NewSelect().
		Model(&events).
		Where("organizer_id = ?", organizerID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// ListPublishedBetween → published events overlapping [from, to)
func (d *DB) ListPublishedBetween(ctx context.Context, from, to time.Time) ([]models.Event, error) {
	var events []models.Event
	err := d.Bun.NewSelect().
		Model(&events).
		Where("status = ?", models.EventStatusPublished).
		Where("starts_at < ?", to.UTC()).
		Where("ends_at > ?", from.UTC()).
		Order("starts_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}
