package tickets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ms-campus/internal/clock"
	"ms-campus/internal/logger"
	"ms-campus/internal/models"
	qr "ms-campus/internal/tickets/qr_genrator"
	"ms-campus/internal/utils"
)

type TicketDBLayer interface {
	CreateTier(ctx context.Context, tier *models.TicketTier) error
	GetTier(ctx context.Context, id string) (*models.TicketTier, error)
	ListTiers(ctx context.Context, eventID string) ([]models.TicketTier, error)
	UpdateTier(ctx context.Context, tier *models.TicketTier) error
	DeleteTier(ctx context.Context, id string) error
	CountTiers(ctx context.Context, eventID string) (int, error)

	Reserve(ctx context.Context, tierID string, n int, now time.Time) error
	Release(ctx context.Context, tierID string, n int, now time.Time) error
	Confirm(ctx context.Context, tierID string, n int, now time.Time) error

	CreateTickets(ctx context.Context, tickets []models.Ticket) error
	GetTicket(ctx context.Context, id string) (*models.Ticket, error)
	ListByHolder(ctx context.Context, holderID string) ([]models.Ticket, error)
	ListByOrder(ctx context.Context, orderID string) ([]models.Ticket, error)
	VoidByOrder(ctx context.Context, orderID string) (int, error)
	CheckIn(ctx context.Context, ticketID string, at time.Time) (bool, error)

	GetTotalTicketsCount(ctx context.Context) (int, error)
	IncrementTicketCount(ctx context.Context, eventID, tierID string, n int, at time.Time) error
	GetTicketCountsForEvent(ctx context.Context, eventID string) ([]models.TicketCount, error)
}

// EventLookup is the part of the event service ticketing depends on.
type EventLookup interface {
	GetEvent(ctx context.Context, viewerID, eventID string) (*models.Event, error)
	GetOwnedEvent(ctx context.Context, userID, eventID string) (*models.Event, error)
	GetPublishedEvent(ctx context.Context, eventID string) (*models.Event, error)
	SetTicketsStep(ctx context.Context, eventID string, done bool) error
}

type TicketService struct {
	DB              TicketDBLayer
	Events          EventLookup
	QRGenerator     *qr.QRGenerator
	Clock           clock.Clock
	Logger          *logger.Logger
	DefaultCurrency string
}

func NewTicketService(db TicketDBLayer, events EventLookup, qrGen *qr.QRGenerator, clk clock.Clock, log *logger.Logger, currency string) *TicketService {
	return &TicketService{
		DB:              db,
		Events:          events,
		QRGenerator:     qrGen,
		Clock:           clk,
		Logger:          log,
		DefaultCurrency: strings.ToLower(currency),
	}
}

func (s *TicketService) checkTierRequest(req models.TierRequest) error {
	if !req.SalesStart.IsZero() && !req.SalesEnd.IsZero() && !req.SalesEnd.After(req.SalesStart) {
		return fmt.Errorf("%w: sales_end must be after sales_start", models.ErrInvalidInput)
	}
	return nil
}

func (s *TicketService) currency(c string) string {
	if c == "" {
		return s.DefaultCurrency
	}
	return strings.ToLower(c)
}

// CreateTier adds a tier to an event the caller organizes and completes the
// tickets step of the wizard.
func (s *TicketService) CreateTier(ctx context.Context, userID, eventID string, req models.TierRequest) (*models.TicketTier, error) {
	event, err := s.Events.GetOwnedEvent(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status == models.EventStatusCancelled {
		return nil, models.ErrEventNotEditable
	}
	if err := s.checkTierRequest(req); err != nil {
		return nil, err
	}

	now := s.Clock.Now()
	tier := &models.TicketTier{
		ID:          utils.NewID(),
		EventID:     eventID,
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Currency:    s.currency(req.Currency),
		Capacity:    req.Capacity,
		MaxPerOrder: req.MaxPerOrder,
		SalesStart:  req.SalesStart,
		SalesEnd:    req.SalesEnd,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.DB.CreateTier(ctx, tier); err != nil {
		return nil, fmt.Errorf("failed to create tier for event %s: %w", eventID, err)
	}
	if err := s.Events.SetTicketsStep(ctx, eventID, true); err != nil {
		s.Logger.Warn("TICKET", fmt.Sprintf("failed to record tickets step for %s: %v", eventID, err))
	}

	s.Logger.LogEvent("TIER_CREATE", eventID, fmt.Sprintf("tier %s (%s) capacity %d", tier.ID, tier.Name, tier.Capacity))
	tier.Fill()
	return tier, nil
}

func (s *TicketService) ownedTier(ctx context.Context, userID, eventID, tierID string) (*models.Event, *models.TicketTier, error) {
	event, err := s.Events.GetOwnedEvent(ctx, userID, eventID)
	if err != nil {
		return nil, nil, err
	}
	tier, err := s.DB.GetTier(ctx, tierID)
	if err != nil {
		return nil, nil, err
	}
	if tier.EventID != eventID {
		return nil, nil, models.ErrTierNotFound
	}
	return event, tier, nil
}

func (s *TicketService) UpdateTier(ctx context.Context, userID, eventID, tierID string, req models.TierRequest) (*models.TicketTier, error) {
	event, tier, err := s.ownedTier(ctx, userID, eventID, tierID)
	if err != nil {
		return nil, err
	}
	if event.Status == models.EventStatusCancelled {
		return nil, models.ErrEventNotEditable
	}
	if err := s.checkTierRequest(req); err != nil {
		return nil, err
	}

	currency := s.currency(req.Currency)
	if tier.Sold > 0 && (req.PriceCents != tier.PriceCents || currency != tier.Currency) {
		return nil, models.ErrPriceLocked
	}
	if req.Capacity < tier.Sold+tier.Reserved {
		return nil, models.ErrCapacityBelowSold
	}

	tier.Name = req.Name
	tier.Description = req.Description
	tier.PriceCents = req.PriceCents
	tier.Currency = currency
	tier.Capacity = req.Capacity
	tier.MaxPerOrder = req.MaxPerOrder
	tier.SalesStart = req.SalesStart
	tier.SalesEnd = req.SalesEnd
	tier.UpdatedAt = s.Clock.Now()

	if err := s.DB.UpdateTier(ctx, tier); err != nil {
		if errors.Is(err, models.ErrCapacityBelowSold) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update tier %s: %w", tierID, err)
	}
	s.Logger.LogEvent("TIER_UPDATE", eventID, fmt.Sprintf("tier %s updated", tierID))
	tier.Fill()
	return tier, nil
}

// DeleteTier removes an unsold tier. Removing the last tier reopens the
// tickets step of the wizard.
func (s *TicketService) DeleteTier(ctx context.Context, userID, eventID, tierID string) error {
	if _, _, err := s.ownedTier(ctx, userID, eventID, tierID); err != nil {
		return err
	}
	if err := s.DB.DeleteTier(ctx, tierID); err != nil {
		if errors.Is(err, models.ErrTierHasSales) {
			return err
		}
		return fmt.Errorf("failed to delete tier %s: %w", tierID, err)
	}

	left, err := s.DB.CountTiers(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to count tiers for %s: %w", eventID, err)
	}
	if left == 0 {
		if err := s.Events.SetTicketsStep(ctx, eventID, false); err != nil {
			s.Logger.Warn("TICKET", fmt.Sprintf("failed to reset tickets step for %s: %v", eventID, err))
		}
	}
	s.Logger.LogEvent("TIER_DELETE", eventID, fmt.Sprintf("tier %s deleted", tierID))
	return nil
}

// ListTiers returns the tiers of an event visible to viewerID with their
// remaining capacity filled in.
func (s *TicketService) ListTiers(ctx context.Context, viewerID, eventID string) ([]models.TicketTier, error) {
	if _, err := s.Events.GetEvent(ctx, viewerID, eventID); err != nil {
		return nil, err
	}
	tiers, err := s.DB.ListTiers(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tiers for %s: %w", eventID, err)
	}
	for i := range tiers {
		tiers[i].Fill()
	}
	return tiers, nil
}

// GetTier returns a single tier with derived fields. Used for cart pricing.
func (s *TicketService) GetTier(ctx context.Context, tierID string) (*models.TicketTier, error) {
	tier, err := s.DB.GetTier(ctx, tierID)
	if err != nil {
		return nil, err
	}
	tier.Fill()
	return tier, nil
}

// CheckPurchasable validates that n tickets of the tier may be bought right
// now without touching capacity.
func (s *TicketService) CheckPurchasable(ctx context.Context, tier *models.TicketTier, n int) error {
	if n <= 0 {
		return models.ErrInvalidQuantity
	}
	event, err := s.Events.GetPublishedEvent(ctx, tier.EventID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrEventNotPublished) {
			return models.ErrSalesClosed
		}
		return err
	}
	now := s.Clock.Now()
	if !event.EndsAt.After(now) || !tier.OnSale(now) {
		return models.ErrSalesClosed
	}
	if tier.MaxPerOrder > 0 && n > tier.MaxPerOrder {
		return models.ErrPerOrderLimit
	}
	return nil
}

// Reserve holds n tickets of a tier for a pending order.
func (s *TicketService) Reserve(ctx context.Context, tierID string, n int) (*models.TicketTier, error) {
	tier, err := s.DB.GetTier(ctx, tierID)
	if err != nil {
		return nil, err
	}
	if err := s.CheckPurchasable(ctx, tier, n); err != nil {
		return nil, err
	}
	if err := s.DB.Reserve(ctx, tierID, n, s.Clock.Now()); err != nil {
		return nil, err
	}
	s.Logger.Debug("TICKET", fmt.Sprintf("reserved %d of tier %s", n, tierID))
	return tier, nil
}

func (s *TicketService) Release(ctx context.Context, tierID string, n int) error {
	return s.DB.Release(ctx, tierID, n, s.Clock.Now())
}

func (s *TicketService) Confirm(ctx context.Context, tierID string, n int) error {
	return s.DB.Confirm(ctx, tierID, n, s.Clock.Now())
}
