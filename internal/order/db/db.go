package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ms-campus/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- ORDERS ----------------

// CreateOrder → insert new order
func (d *DB) CreateOrder(ctx context.Context, order *models.Order) error {
	_, err := d.Bun.NewInsert().Model(order).Exec(ctx)
	return err
}

// GetOrderByID → fetch one order by its ID
func (d *DB) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("order_id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByCheckoutSession → find the order a Stripe session belongs to
func (d *DB) GetOrderByCheckoutSession(ctx context.Context, sessionID string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("checkout_session_id = ?", sessionID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// SetCheckoutSession → attach the payment session to a pending order
func (d *DB) SetCheckoutSession(ctx context.Context, id, sessionID, url string, now time.Time) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("checkout_session_id = ?", sessionID).
		Set("checkout_url = ?", url).
		Set("updated_at = ?", now.UTC()).
		Where("order_id = ?", id).
		Exec(ctx)
	return err
}

// SetPaymentIntent → remember the payment used to pay the order
func (d *DB) SetPaymentIntent(ctx context.Context, id, paymentIntentID string, now time.Time) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("payment_intent_id = ?", paymentIntentID).
		Set("updated_at = ?", now.UTC()).
		Where("order_id = ?", id).
		Exec(ctx)
	return err
}

// TransitionStatus → move an order from one status to another. It reports
// false when the order was not in the expected status, so concurrent
// transitions resolve to exactly one winner.
func (d *DB) TransitionStatus(ctx context.Context, id string, from, to models.OrderStatus, now time.Time) (bool, error) {
	q := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("status = ?", to).
		Set("updated_at = ?", now.UTC()).
		Where("order_id = ?", id).
		Where("status = ?", from)
	if to == models.OrderStatusCompleted {
		q = q.Set("completed_at = ?", now.UTC())
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// ListByUser → a user's orders, newest first
func (d *DB) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	orders := []models.Order{}
	err := d.Bun.NewSelect().
		Model(&orders).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	return orders, err
}

// ListExpiredPending → pending orders whose hold ran out before now
func (d *DB) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]models.Order, error) {
	orders := []models.Order{}
	err := d.Bun.NewSelect().
		Model(&orders).
		Where("status = ?", models.OrderStatusPending).
		Where("expires_at <= ?", now.UTC()).
		Order("expires_at ASC").
		Limit(limit).
		Scan(ctx)
	return orders, err
}

// ---------------- RELATION QUERIES ----------------

// ListCompletedByEvent → completed orders holding valid tickets for an event
func (d *DB) ListCompletedByEvent(ctx context.Context, eventID string) ([]models.Order, error) {
	orders := []models.Order{}
	sub := d.Bun.NewSelect().
		Model((*models.Ticket)(nil)).
		Column("order_id").
		Where("event_id = ?", eventID).
		Where("status = ?", models.TicketStatusValid)

	err := d.Bun.NewSelect().
		Model(&orders).
		Where("status = ?", models.OrderStatusCompleted).
		Where("order_id IN (?)", sub).
		Order("created_at ASC").
		Scan(ctx)
	return orders, err
}
