package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"ms-campus/internal/models"
	"ms-campus/internal/utils"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateItem(ctx context.Context, item *models.Item) error {
	_, err := d.Bun.NewInsert().Model(item).Exec(ctx)
	return err
}

func (d *DB) GetItem(ctx context.Context, id string) (*models.Item, error) {
	var item models.Item
	err := d.Bun.NewSelect().
		Model(&item).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem writes the seller-editable columns. Quantity may not drop
// below what pending orders hold.
func (d *DB) UpdateItem(ctx context.Context, item *models.Item) error {
	res, err := d.Bun.NewUpdate().
		Model(item).
		Column("title", "description", "category", "condition", "price_cents", "currency", "quantity", "image_urls", "location", "status", "updated_at").
		WherePK().
		Where("reserved <= ?", item.Quantity).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: quantity cannot go below units held by pending orders", models.ErrConflict)
	}
	return nil
}

// RemoveItem soft-deletes a listing.
func (d *DB) RemoveItem(ctx context.Context, id string, now time.Time) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Item)(nil)).
		Set("status = ?", models.ItemStatusRemoved).
		Set("updated_at = ?", now.UTC()).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func applySort(q *bun.SelectQuery, sort string) *bun.SelectQuery {
	switch sort {
	case models.SortPriceAsc:
		return q.Order("price_cents ASC", "created_at DESC", "id ASC")
	case models.SortPriceDesc:
		return q.Order("price_cents DESC", "created_at DESC", "id ASC")
	default:
		return q.Order("created_at DESC", "id ASC")
	}
}

// ListItems returns active listings matching the filter.
func (d *DB) ListItems(ctx context.Context, f models.ItemFilter) ([]models.Item, int, error) {
	items := []models.Item{}
	q := d.Bun.NewSelect().
		Model(&items).
		Where("status = ?", models.ItemStatusActive)

	if f.Category != "" {
		q = q.Where("LOWER(category) = ?", strings.ToLower(f.Category))
	}
	if f.Condition != "" {
		q = q.Where("condition = ?", f.Condition)
	}
	if f.SellerID != "" {
		q = q.Where("seller_id = ?", f.SellerID)
	}
	if f.MinPrice != nil {
		q = q.Where("price_cents >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price_cents <= ?", *f.MaxPrice)
	}
	if f.Query != "" {
		like := utils.ContainsPattern(f.Query)
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("LOWER(title) LIKE ? ESCAPE '!'", like).
				WhereOr("LOWER(description) LIKE ? ESCAPE '!'", like)
		})
	}

	total, err := applySort(q, f.Sort).
		Limit(f.Limit).
		Offset((f.Page - 1) * f.Limit).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListBySeller returns every listing of a seller that was not removed.
func (d *DB) ListBySeller(ctx context.Context, sellerID string) ([]models.Item, error) {
	items := []models.Item{}
	err := d.Bun.NewSelect().
		Model(&items).
		Where("seller_id = ?", sellerID).
		Where("status != ?", models.ItemStatusRemoved).
		Order("created_at DESC").
		Scan(ctx)
	return items, err
}

// ReserveStock holds n units of an active listing.
func (d *DB) ReserveStock(ctx context.Context, id string, n int, now time.Time) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Item)(nil)).
		Set("reserved = reserved + ?", n).
		Set("updated_at = ?", now.UTC()).
		Where("id = ?", id).
		Where("status = ?", models.ItemStatusActive).
		Where("quantity - reserved >= ?", n).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to reserve %d units of item %s: %w", n, id, err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return models.ErrInsufficientStock
	}
	return nil
}

func (d *DB) ReleaseStock(ctx context.Context, id string, n int, now time.Time) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Item)(nil)).
		Set("reserved = CASE WHEN reserved >= ? THEN reserved - ? ELSE 0 END", n, n).
		Set("updated_at = ?", now.UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to release %d units of item %s: %w", n, id, err)
	}
	return nil
}

// ConfirmStock removes n sold units. The listing flips to sold when none
// are left.
func (d *DB) ConfirmStock(ctx context.Context, id string, n int, now time.Time) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Item)(nil)).
		Set("quantity = quantity - ?", n).
		Set("reserved = reserved - ?", n).
		Set("status = CASE WHEN status <> ? AND quantity - ? <= 0 THEN ? ELSE status END", models.ItemStatusRemoved, n, models.ItemStatusSold).
		Set("updated_at = ?", now.UTC()).
		Where("id = ?", id).
		Where("reserved >= ?", n).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to confirm %d units of item %s: %w", n, id, err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return fmt.Errorf("%w: item %s has fewer than %d reserved units", models.ErrConflict, id, n)
	}
	return nil
}
