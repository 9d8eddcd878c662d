package discount

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"ms-campus/internal/models"

	"github.com/uptrace/bun"
)

// Store persists promo codes. Codes are stored upper-cased.
type Store struct {
	Bun *bun.DB
}

func (s *Store) Create(ctx context.Context, promo *models.PromoCode) error {
	promo.Code = strings.ToUpper(promo.Code)
	_, err := s.Bun.NewInsert().Model(promo).Exec(ctx)
	return err
}

func (s *Store) Get(ctx context.Context, id string) (*models.PromoCode, error) {
	var promo models.PromoCode
	err := s.Bun.NewSelect().Model(&promo).Where("id = ?", id).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrPromoNotFound
	}
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

// ListByCode returns every event's promo using code.
func (s *Store) ListByCode(ctx context.Context, code string) ([]models.PromoCode, error) {
	promos := []models.PromoCode{}
	err := s.Bun.NewSelect().
		Model(&promos).
		Where("code = ?", strings.ToUpper(code)).
		Scan(ctx)
	return promos, err
}

func (s *Store) CodeExists(ctx context.Context, eventID, code, exceptID string) (bool, error) {
	q := s.Bun.NewSelect().
		Model((*models.PromoCode)(nil)).
		Where("event_id = ?", eventID).
		Where("code = ?", strings.ToUpper(code))
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	return q.Exists(ctx)
}

func (s *Store) ListByEvent(ctx context.Context, eventID string) ([]models.PromoCode, error) {
	promos := []models.PromoCode{}
	err := s.Bun.NewSelect().
		Model(&promos).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Scan(ctx)
	return promos, err
}

func (s *Store) Update(ctx context.Context, promo *models.PromoCode) error {
	promo.Code = strings.ToUpper(promo.Code)
	res, err := s.Bun.NewUpdate().
		Model(promo).
		Column("code", "parameters", "applicable_tiers", "max_usage", "active_from", "expires_at", "active").
		WherePK().
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrPromoNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.Bun.NewDelete().Model((*models.PromoCode)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrPromoNotFound
	}
	return nil
}

// IncrementUsage counts one redemption. It reports false once the usage
// limit has been reached.
func (s *Store) IncrementUsage(ctx context.Context, id string) (bool, error) {
	res, err := s.Bun.NewUpdate().
		Model((*models.PromoCode)(nil)).
		Set("current_usage = current_usage + 1").
		Where("id = ?", id).
		Where("max_usage = 0 OR current_usage < max_usage").
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}
