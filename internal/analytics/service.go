package analytics

import (
	"context"
	"sort"
	"time"

	"ms-campus/internal/logger"
	"ms-campus/internal/models"
)

// EventOwnership resolves an event the caller organizes.
type EventOwnership interface {
	GetOwnedEvent(ctx context.Context, userID, eventID string) (*models.Event, error)
}

type OrganizerEvents interface {
	ListMyEvents(ctx context.Context, organizerID string) ([]models.Event, error)
}

// AnalyticsService builds organizer dashboards
type AnalyticsService struct {
	DB        *DB
	Events    EventOwnership
	Organizer OrganizerEvents
	Logger    *logger.Logger
}

func NewAnalyticsService(db *DB, events EventOwnership, organizer OrganizerEvents, log *logger.Logger) *AnalyticsService {
	return &AnalyticsService{DB: db, Events: events, Organizer: organizer, Logger: log}
}

// EventAnalytics is the dashboard of one event
type EventAnalytics struct {
	EventID            string              `json:"event_id"`
	Title              string              `json:"title"`
	Status             models.EventStatus  `json:"status"`
	Capacity           int                 `json:"capacity"`
	TotalTicketsSold   int                 `json:"total_tickets_sold"`
	TotalRevenueCents  int64               `json:"total_revenue_cents"`
	TotalDiscountCents int64               `json:"total_discount_cents"`
	CheckedIn          int                 `json:"checked_in"`
	SalesByTier        []TierSalesMetrics  `json:"sales_by_tier"`
	DailySales         []DailySalesMetrics `json:"daily_sales"`
	DiscountUsage      []DiscountTotals    `json:"discount_usage"`
}

// TierSalesMetrics contains sales metrics for a specific tier
type TierSalesMetrics struct {
	TierID       string `json:"tier_id"`
	TierName     string `json:"tier_name"`
	PriceCents   int64  `json:"price_cents"`
	Capacity     int    `json:"capacity"`
	TicketsSold  int    `json:"tickets_sold"`
	Remaining    int    `json:"remaining"`
	RevenueCents int64  `json:"revenue_cents"`
	CheckedIn    int    `json:"checked_in"`
}

// DailySalesMetrics contains ticket counts for a single UTC day
type DailySalesMetrics struct {
	Date        string         `json:"date"`
	TicketsSold int            `json:"tickets_sold"`
	ByTier      map[string]int `json:"by_tier"`
}

// GetEventAnalytics returns the dashboard for an event the caller organizes.
func (s *AnalyticsService) GetEventAnalytics(ctx context.Context, userID, eventID string) (*EventAnalytics, error) {
	event, err := s.Events.GetOwnedEvent(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	return s.buildEventAnalytics(ctx, event)
}

func (s *AnalyticsService) buildEventAnalytics(ctx context.Context, event *models.Event) (*EventAnalytics, error) {
	tiers, err := s.DB.GetTiersByEventID(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	totals, err := s.DB.GetTierTotalsByEventID(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	counts, err := s.DB.GetTicketCountsByEventID(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	discounts, err := s.DB.GetDiscountTotalsByEventID(ctx, event.ID)
	if err != nil {
		return nil, err
	}

	byTier := make(map[string]TierTotals, len(totals))
	for _, t := range totals {
		byTier[t.TierID] = t
	}

	result := &EventAnalytics{
		EventID:       event.ID,
		Title:         event.Title,
		Status:        event.Status,
		SalesByTier:   make([]TierSalesMetrics, 0, len(tiers)),
		DailySales:    dailySales(counts),
		DiscountUsage: discounts,
	}
	for _, tier := range tiers {
		tier.Fill()
		t := byTier[tier.ID]
		result.SalesByTier = append(result.SalesByTier, TierSalesMetrics{
			TierID:       tier.ID,
			TierName:     tier.Name,
			PriceCents:   tier.PriceCents,
			Capacity:     tier.Capacity,
			TicketsSold:  t.TicketsSold,
			Remaining:    tier.Remaining,
			RevenueCents: t.RevenueCents,
			CheckedIn:    t.CheckedIn,
		})
		result.Capacity += tier.Capacity
		result.TotalTicketsSold += t.TicketsSold
		result.TotalRevenueCents += t.RevenueCents
		result.CheckedIn += t.CheckedIn
	}
	for _, d := range discounts {
		result.TotalDiscountCents += d.DiscountCents
	}
	result.TotalRevenueCents -= result.TotalDiscountCents
	if result.TotalRevenueCents < 0 {
		result.TotalRevenueCents = 0
	}

	s.Logger.LogEvent("ANALYTICS", event.ID, "dashboard built")
	return result, nil
}

func dailySales(counts []models.TicketCount) []DailySalesMetrics {
	days := map[string]*DailySalesMetrics{}
	for _, c := range counts {
		key := c.Date.UTC().Format(time.DateOnly)
		day, ok := days[key]
		if !ok {
			day = &DailySalesMetrics{Date: key, ByTier: map[string]int{}}
			days[key] = day
		}
		day.TicketsSold += c.Count
		day.ByTier[c.TierID] += c.Count
	}

	out := make([]DailySalesMetrics, 0, len(days))
	for _, d := range days {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
