package cart

import (
	"context"
	"errors"
	"fmt"

	"ms-campus/internal/clock"
	"ms-campus/internal/logger"
	"ms-campus/internal/models"
)

type Store interface {
	Lines(ctx context.Context, userID string) ([]models.CartLine, error)
	Put(ctx context.Context, userID string, line models.CartLine) error
	Remove(ctx context.Context, userID, lineID string) (bool, error)
	Clear(ctx context.Context, userID string) error
}

// TierSource prices ticket lines.
type TierSource interface {
	GetTier(ctx context.Context, tierID string) (*models.TicketTier, error)
	CheckPurchasable(ctx context.Context, tier *models.TicketTier, n int) error
}

// ItemSource prices marketplace lines.
type ItemSource interface {
	GetItem(ctx context.Context, itemID string) (*models.Item, error)
	CheckPurchasable(item *models.Item, buyerID string, n int) error
}

type CartService struct {
	Store  Store
	Tiers  TierSource
	Items  ItemSource
	Clock  clock.Clock
	Logger *logger.Logger
}

func NewCartService(store Store, tiers TierSource, items ItemSource, clk clock.Clock, log *logger.Logger) *CartService {
	return &CartService{Store: store, Tiers: tiers, Items: items, Clock: clk, Logger: log}
}

// price looks up the current price and availability of a line. It returns
// a not-found error when the tier or item no longer exists.
func (s *CartService) price(ctx context.Context, line models.CartLine) (models.PricedCartLine, error) {
	p := models.PricedCartLine{
		LineID:   line.ID(),
		Kind:     line.Kind,
		RefID:    line.RefID,
		Quantity: line.Quantity,
	}
	switch line.Kind {
	case models.LineKindTicket:
		tier, err := s.Tiers.GetTier(ctx, line.RefID)
		if err != nil {
			return p, err
		}
		p.EventID = tier.EventID
		p.Name = tier.Name
		p.UnitPriceCents = tier.PriceCents
		p.Currency = tier.Currency
		p.Available = tier.Available()
	case models.LineKindItem:
		item, err := s.Items.GetItem(ctx, line.RefID)
		if err != nil {
			return p, err
		}
		if item.Status != models.ItemStatusActive {
			return p, models.ErrItemNotFound
		}
		p.SellerID = item.SellerID
		p.Name = item.Title
		p.UnitPriceCents = item.PriceCents
		p.Currency = item.Currency
		p.Available = item.AvailableUnits()
	default:
		return p, models.ErrCartLineNotFound
	}
	p.LineTotalCents = p.UnitPriceCents * int64(p.Quantity)
	return p, nil
}

// Get returns the cart priced from current tier and item data. Lines whose
// tier or item disappeared are removed from the cart.
func (s *CartService) Get(ctx context.Context, userID string) (*models.CartView, error) {
	lines, err := s.Store.Lines(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &models.CartView{UserID: userID, Lines: []models.PricedCartLine{}}
	for _, line := range lines {
		priced, err := s.price(ctx, line)
		if errors.Is(err, models.ErrNotFound) {
			if _, err := s.Store.Remove(ctx, userID, line.ID()); err != nil {
				s.Logger.Warn("CART", fmt.Sprintf("failed to drop stale line %s for %s: %v", line.ID(), userID, err))
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		view.Lines = append(view.Lines, priced)
		view.SubtotalCents += priced.LineTotalCents
		view.ItemCount += priced.Quantity
	}
	if len(view.Lines) > 0 {
		view.Currency = view.Lines[0].Currency
	}
	if err := view.SameCurrency(); err != nil {
		s.Logger.Warn("CART", fmt.Sprintf("cart of %s mixes currencies", userID))
		view.MixedCurrency = true
		view.Currency = ""
		view.SubtotalCents = 0
	}
	return view, nil
}

// checkLine validates a line of quantity n against the source's rules and
// the currency of the other lines in the cart.
func (s *CartService) checkLine(ctx context.Context, userID string, line models.CartLine, others []models.CartLine) error {
	priced, err := s.price(ctx, line)
	if err != nil {
		return err
	}

	switch line.Kind {
	case models.LineKindTicket:
		tier, err := s.Tiers.GetTier(ctx, line.RefID)
		if err != nil {
			return err
		}
		if err := s.Tiers.CheckPurchasable(ctx, tier, line.Quantity); err != nil {
			return err
		}
		if tier.Available() < line.Quantity {
			return models.ErrTierSoldOut
		}
	case models.LineKindItem:
		item, err := s.Items.GetItem(ctx, line.RefID)
		if err != nil {
			return err
		}
		if err := s.Items.CheckPurchasable(item, userID, line.Quantity); err != nil {
			return err
		}
	}

	for _, other := range others {
		if other.ID() == line.ID() {
			continue
		}
		op, err := s.price(ctx, other)
		if err != nil {
			continue
		}
		if op.Currency != priced.Currency {
			return models.ErrCurrencyMismatch
		}
	}
	return nil
}

// AddLine adds quantity to a line, merging with an existing line for the
// same tier or item.
func (s *CartService) AddLine(ctx context.Context, userID string, req models.AddLineRequest) (*models.CartView, error) {
	if req.Quantity <= 0 {
		return nil, models.ErrInvalidQuantity
	}
	lines, err := s.Store.Lines(ctx, userID)
	if err != nil {
		return nil, err
	}

	line := models.CartLine{Kind: req.Kind, RefID: req.RefID, Quantity: req.Quantity, AddedAt: s.Clock.Now()}
	for _, existing := range lines {
		if existing.ID() == line.ID() {
			line.Quantity += existing.Quantity
			line.AddedAt = existing.AddedAt
		}
	}

	if err := s.checkLine(ctx, userID, line, lines); err != nil {
		return nil, err
	}
	if err := s.Store.Put(ctx, userID, line); err != nil {
		return nil, err
	}
	s.Logger.LogCheckout(userID, fmt.Sprintf("cart line %s now x%d", line.ID(), line.Quantity))
	return s.Get(ctx, userID)
}

// UpdateLine sets the quantity of a line. Zero removes it.
func (s *CartService) UpdateLine(ctx context.Context, userID, lineID string, quantity int) (*models.CartView, error) {
	if _, _, err := models.ParseLineID(lineID); err != nil {
		return nil, err
	}
	if quantity < 0 {
		return nil, models.ErrInvalidQuantity
	}
	if quantity == 0 {
		return s.RemoveLine(ctx, userID, lineID)
	}

	lines, err := s.Store.Lines(ctx, userID)
	if err != nil {
		return nil, err
	}
	var line *models.CartLine
	for i := range lines {
		if lines[i].ID() == lineID {
			line = &lines[i]
		}
	}
	if line == nil {
		return nil, models.ErrCartLineNotFound
	}

	line.Quantity = quantity
	if err := s.checkLine(ctx, userID, *line, lines); err != nil {
		return nil, err
	}
	if err := s.Store.Put(ctx, userID, *line); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *CartService) RemoveLine(ctx context.Context, userID, lineID string) (*models.CartView, error) {
	removed, err := s.Store.Remove(ctx, userID, lineID)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, models.ErrCartLineNotFound
	}
	return s.Get(ctx, userID)
}

func (s *CartService) Clear(ctx context.Context, userID string) error {
	return s.Store.Clear(ctx, userID)
}
