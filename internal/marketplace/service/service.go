package marketplace

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ms-campus/internal/clock"
	"ms-campus/internal/logger"
	"ms-campus/internal/models"
	"ms-campus/internal/utils"
)

type DBLayer interface {
	CreateItem(ctx context.Context, item *models.Item) error
	GetItem(ctx context.Context, id string) (*models.Item, error)
	UpdateItem(ctx context.Context, item *models.Item) error
	RemoveItem(ctx context.Context, id string, now time.Time) error
	ListItems(ctx context.Context, f models.ItemFilter) ([]models.Item, int, error)
	ListBySeller(ctx context.Context, sellerID string) ([]models.Item, error)
	ReserveStock(ctx context.Context, id string, n int, now time.Time) error
	ReleaseStock(ctx context.Context, id string, n int, now time.Time) error
	ConfirmStock(ctx context.Context, id string, n int, now time.Time) error
}

type MarketplaceService struct {
	DB              DBLayer
	Clock           clock.Clock
	Logger          *logger.Logger
	DefaultCurrency string
}

func NewMarketplaceService(db DBLayer, clk clock.Clock, log *logger.Logger, currency string) *MarketplaceService {
	return &MarketplaceService{DB: db, Clock: clk, Logger: log, DefaultCurrency: strings.ToLower(currency)}
}

func (s *MarketplaceService) apply(item *models.Item, req models.ItemRequest) {
	item.Title = strings.TrimSpace(req.Title)
	item.Description = req.Description
	item.Category = strings.ToLower(strings.TrimSpace(req.Category))
	item.Condition = req.Condition
	item.PriceCents = req.PriceCents
	item.Currency = strings.ToLower(req.Currency)
	if item.Currency == "" {
		item.Currency = s.DefaultCurrency
	}
	item.Quantity = req.Quantity
	item.ImageURLs = req.ImageURLs
	if item.ImageURLs == nil {
		item.ImageURLs = []string{}
	}
	item.Location = req.Location
}

func (s *MarketplaceService) CreateItem(ctx context.Context, sellerID string, req models.ItemRequest) (*models.Item, error) {
	now := s.Clock.Now()
	item := &models.Item{
		ID:        utils.NewID(),
		SellerID:  sellerID,
		Status:    models.ItemStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.apply(item, req)

	if err := s.DB.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	s.Logger.LogDatabase("INSERT", "items", fmt.Sprintf("item %s listed by %s", item.ID, sellerID))
	item.Fill()
	return item, nil
}

func (s *MarketplaceService) ownedItem(ctx context.Context, sellerID, id string) (*models.Item, error) {
	item, err := s.DB.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.Status == models.ItemStatusRemoved {
		return nil, models.ErrItemNotFound
	}
	if item.SellerID != sellerID {
		return nil, models.ErrNotOwner
	}
	return item, nil
}

// UpdateItem edits a listing. Restocking a sold listing makes it active
// again.
func (s *MarketplaceService) UpdateItem(ctx context.Context, sellerID, id string, req models.ItemRequest) (*models.Item, error) {
	item, err := s.ownedItem(ctx, sellerID, id)
	if err != nil {
		return nil, err
	}
	s.apply(item, req)
	if item.Status == models.ItemStatusSold && item.Quantity > 0 {
		item.Status = models.ItemStatusActive
	}
	item.UpdatedAt = s.Clock.Now()

	if err := s.DB.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	item.Fill()
	return item, nil
}

// DeleteItem hides a listing. Pending orders holding units still complete.
func (s *MarketplaceService) DeleteItem(ctx context.Context, sellerID, id string) error {
	if _, err := s.ownedItem(ctx, sellerID, id); err != nil {
		return err
	}
	if err := s.DB.RemoveItem(ctx, id, s.Clock.Now()); err != nil {
		return fmt.Errorf("failed to remove item %s: %w", id, err)
	}
	s.Logger.LogDatabase("UPDATE", "items", fmt.Sprintf("item %s removed", id))
	return nil
}

// GetItem returns a listing. Removed listings are gone for everyone.
func (s *MarketplaceService) GetItem(ctx context.Context, id string) (*models.Item, error) {
	item, err := s.DB.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.Status == models.ItemStatusRemoved {
		return nil, models.ErrItemNotFound
	}
	item.Fill()
	return item, nil
}

func (s *MarketplaceService) ListItems(ctx context.Context, f models.ItemFilter) (*models.ItemPage, error) {
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return nil, fmt.Errorf("%w: min_price is greater than max_price", models.ErrInvalidInput)
	}
	switch f.Sort {
	case "", models.SortNewest, models.SortPriceAsc, models.SortPriceDesc:
	default:
		return nil, fmt.Errorf("%w: unknown sort %q", models.ErrInvalidInput, f.Sort)
	}
	f.Page, f.Limit = utils.NormalizePage(f.Page, f.Limit)

	items, total, err := s.DB.ListItems(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	for i := range items {
		items[i].Fill()
	}
	return &models.ItemPage{Items: items, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

func (s *MarketplaceService) ListMyItems(ctx context.Context, sellerID string) ([]models.Item, error) {
	items, err := s.DB.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items of %s: %w", sellerID, err)
	}
	for i := range items {
		items[i].Fill()
	}
	return items, nil
}

// CheckPurchasable validates that buyerID may buy n units of the item
// without touching stock.
func (s *MarketplaceService) CheckPurchasable(item *models.Item, buyerID string, n int) error {
	if n <= 0 {
		return models.ErrInvalidQuantity
	}
	if item.Status != models.ItemStatusActive {
		return models.ErrItemUnavailable
	}
	if item.SellerID == buyerID {
		return models.ErrOwnItem
	}
	if item.AvailableUnits() < n {
		return models.ErrInsufficientStock
	}
	return nil
}

// ReserveStock holds n units of a listing for a pending order of buyerID.
func (s *MarketplaceService) ReserveStock(ctx context.Context, buyerID, itemID string, n int) (*models.Item, error) {
	item, err := s.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.CheckPurchasable(item, buyerID, n); err != nil {
		return nil, err
	}
	if err := s.DB.ReserveStock(ctx, itemID, n, s.Clock.Now()); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *MarketplaceService) ReleaseStock(ctx context.Context, itemID string, n int) error {
	return s.DB.ReleaseStock(ctx, itemID, n, s.Clock.Now())
}

func (s *MarketplaceService) ConfirmStock(ctx context.Context, itemID string, n int) error {
	return s.DB.ConfirmStock(ctx, itemID, n, s.Clock.Now())
}
