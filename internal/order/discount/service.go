package discount

import (
	"context"
	"fmt"
	"strings"

	"ms-campus/internal/clock"
	"ms-campus/internal/logger"
	"ms-campus/internal/models"
	"ms-campus/internal/utils"
)

type PromoStore interface {
	Create(ctx context.Context, promo *models.PromoCode) error
	Get(ctx context.Context, id string) (*models.PromoCode, error)
	ListByCode(ctx context.Context, code string) ([]models.PromoCode, error)
	CodeExists(ctx context.Context, eventID, code, exceptID string) (bool, error)
	ListByEvent(ctx context.Context, eventID string) ([]models.PromoCode, error)
	Update(ctx context.Context, promo *models.PromoCode) error
	Delete(ctx context.Context, id string) error
	IncrementUsage(ctx context.Context, id string) (bool, error)
}

// EventOwnership resolves an event the caller organizes.
type EventOwnership interface {
	GetOwnedEvent(ctx context.Context, userID, eventID string) (*models.Event, error)
}

// DiscountService manages promo codes and prices them against orders
type DiscountService struct {
	Store  PromoStore
	Events EventOwnership
	Clock  clock.Clock
	Logger *logger.Logger
}

func NewDiscountService(store PromoStore, events EventOwnership, clk clock.Clock, log *logger.Logger) *DiscountService {
	return &DiscountService{Store: store, Events: events, Clock: clk, Logger: log}
}

func (s *DiscountService) apply(promo *models.PromoCode, req models.PromoRequest) {
	promo.Code = strings.ToUpper(req.Code)
	promo.Parameters = req.Parameters
	promo.ApplicableTiers = req.ApplicableTiers
	if promo.ApplicableTiers == nil {
		promo.ApplicableTiers = []string{}
	}
	promo.MaxUsage = req.MaxUsage
	promo.ActiveFrom = req.ActiveFrom.UTC()
	promo.ExpiresAt = req.ExpiresAt.UTC()
	promo.Active = req.Active == nil || *req.Active
}

func (s *DiscountService) checkRequest(ctx context.Context, eventID, exceptID string, req models.PromoRequest) error {
	if err := utils.Validate(req.Parameters); err != nil {
		return err
	}
	if err := CheckParameters(req.Parameters); err != nil {
		return err
	}
	taken, err := s.Store.CodeExists(ctx, eventID, req.Code, exceptID)
	if err != nil {
		return fmt.Errorf("failed to check promo code: %w", err)
	}
	if taken {
		return models.ErrPromoCodeTaken
	}
	return nil
}

func (s *DiscountService) CreatePromo(ctx context.Context, userID, eventID string, req models.PromoRequest) (*models.PromoCode, error) {
	if _, err := s.Events.GetOwnedEvent(ctx, userID, eventID); err != nil {
		return nil, err
	}
	if err := s.checkRequest(ctx, eventID, "", req); err != nil {
		return nil, err
	}

	promo := &models.PromoCode{
		ID:        utils.NewID(),
		EventID:   eventID,
		CreatedAt: s.Clock.Now(),
	}
	s.apply(promo, req)
	if err := s.Store.Create(ctx, promo); err != nil {
		return nil, fmt.Errorf("failed to create promo code: %w", err)
	}
	s.Logger.LogEvent("PROMO_CREATE", eventID, fmt.Sprintf("promo %s (%s)", promo.Code, promo.Parameters.Type))
	return promo, nil
}

func (s *DiscountService) ownedPromo(ctx context.Context, userID, eventID, promoID string) (*models.PromoCode, error) {
	if _, err := s.Events.GetOwnedEvent(ctx, userID, eventID); err != nil {
		return nil, err
	}
	promo, err := s.Store.Get(ctx, promoID)
	if err != nil {
		return nil, err
	}
	if promo.EventID != eventID {
		return nil, models.ErrPromoNotFound
	}
	return promo, nil
}

func (s *DiscountService) UpdatePromo(ctx context.Context, userID, eventID, promoID string, req models.PromoRequest) (*models.PromoCode, error) {
	promo, err := s.ownedPromo(ctx, userID, eventID, promoID)
	if err != nil {
		return nil, err
	}
	if err := s.checkRequest(ctx, eventID, promoID, req); err != nil {
		return nil, err
	}
	s.apply(promo, req)
	if err := s.Store.Update(ctx, promo); err != nil {
		return nil, err
	}
	return promo, nil
}

func (s *DiscountService) DeletePromo(ctx context.Context, userID, eventID, promoID string) error {
	if _, err := s.ownedPromo(ctx, userID, eventID, promoID); err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, promoID); err != nil {
		return err
	}
	s.Logger.LogEvent("PROMO_DELETE", eventID, promoID)
	return nil
}

func (s *DiscountService) ListPromos(ctx context.Context, userID, eventID string) ([]models.PromoCode, error) {
	if _, err := s.Events.GetOwnedEvent(ctx, userID, eventID); err != nil {
		return nil, err
	}
	return s.Store.ListByEvent(ctx, eventID)
}

// Resolve prices code against the order lines. When several events use the
// same code the one giving the largest discount wins. An unknown or
// inapplicable code yields ErrPromoInvalid with the reason.
func (s *DiscountService) Resolve(ctx context.Context, code string, lines []models.OrderLine) (*models.PromoCode, int64, error) {
	promos, err := s.Store.ListByCode(ctx, code)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to look up promo code: %w", err)
	}
	if len(promos) == 0 {
		return nil, 0, fmt.Errorf("%w: unknown code %q", models.ErrPromoInvalid, code)
	}

	now := s.Clock.Now()
	var best *models.PromoCode
	var bestCents int64
	reason := ""
	for i := range promos {
		res, err := Evaluate(&promos[i], lines, now)
		if err != nil {
			s.Logger.Warn("PROMO", fmt.Sprintf("promo %s is misconfigured: %v", promos[i].ID, err))
			continue
		}
		if !res.IsValid {
			reason = res.Reason
			continue
		}
		if best == nil || res.DiscountCents > bestCents {
			best = &promos[i]
			bestCents = res.DiscountCents
		}
	}
	if best == nil {
		if reason == "" {
			reason = "code does not apply"
		}
		return nil, 0, fmt.Errorf("%w: %s", models.ErrPromoInvalid, reason)
	}
	return best, bestCents, nil
}

// RecordUsage counts a completed redemption. Reaching the limit after the
// order was priced is logged, not failed, since the buyer already paid.
func (s *DiscountService) RecordUsage(ctx context.Context, promoID string) {
	ok, err := s.Store.IncrementUsage(ctx, promoID)
	if err != nil {
		s.Logger.Error("PROMO", fmt.Sprintf("failed to record usage of %s: %v", promoID, err))
		return
	}
	if !ok {
		s.Logger.Warn("PROMO", fmt.Sprintf("promo %s redeemed past its usage limit", promoID))
	}
}
