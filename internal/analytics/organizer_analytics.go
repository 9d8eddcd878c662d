package analytics

import (
	"context"
)

// EventSummary is one row of the organizer overview.
type EventSummary struct {
	EventID      string `json:"event_id"`
	Title        string `json:"title"`
	Status       string `json:"status"`
	TicketsSold  int    `json:"tickets_sold"`
	RevenueCents int64  `json:"revenue_cents"`
	CheckedIn    int    `json:"checked_in"`
	Capacity     int    `json:"capacity"`
}

// OrganizerAnalytics aggregates every event an organizer owns
type OrganizerAnalytics struct {
	OrganizerID       string         `json:"organizer_id"`
	TotalRevenueCents int64          `json:"total_revenue_cents"`
	TotalTicketsSold  int            `json:"total_tickets_sold"`
	TotalCheckedIn    int            `json:"total_checked_in"`
	Events            []EventSummary `json:"events"`
}

// GetOrganizerAnalytics returns revenue totals across the caller's events.
func (s *AnalyticsService) GetOrganizerAnalytics(ctx context.Context, organizerID string) (*OrganizerAnalytics, error) {
	events, err := s.Organizer.ListMyEvents(ctx, organizerID)
	if err != nil {
		return nil, err
	}

	result := &OrganizerAnalytics{OrganizerID: organizerID, Events: make([]EventSummary, 0, len(events))}
	for i := range events {
		dash, err := s.buildEventAnalytics(ctx, &events[i])
		if err != nil {
			return nil, err
		}
		result.Events = append(result.Events, EventSummary{
			EventID:      dash.EventID,
			Title:        dash.Title,
			Status:       string(dash.Status),
			TicketsSold:  dash.TotalTicketsSold,
			RevenueCents: dash.TotalRevenueCents,
			CheckedIn:    dash.CheckedIn,
			Capacity:     dash.Capacity,
		})
		result.TotalRevenueCents += dash.TotalRevenueCents
		result.TotalTicketsSold += dash.TotalTicketsSold
		result.TotalCheckedIn += dash.CheckedIn
	}
	return result, nil
}
