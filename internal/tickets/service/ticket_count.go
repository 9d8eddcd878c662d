package tickets

import (
	"context"

	"ms-campus/internal/models"
)

// GetTotalTicketsCount returns the total count of valid tickets.
func (s *TicketService) GetTotalTicketsCount(ctx context.Context) (int, error) {
	return s.DB.GetTotalTicketsCount(ctx)
}

// CountsForEvent returns the daily sales counters of an event to its
// organizer.
func (s *TicketService) CountsForEvent(ctx context.Context, userID, eventID string) ([]models.TicketCount, error) {
	if _, err := s.Events.GetOwnedEvent(ctx, userID, eventID); err != nil {
		return nil, err
	}
	return s.DB.GetTicketCountsForEvent(ctx, eventID)
}
