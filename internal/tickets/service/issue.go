package tickets

import (
	"context"
	"errors"
	"fmt"

	"ms-campus/internal/models"
	"ms-campus/internal/utils"
)

// IssueTickets creates one ticket with a sealed QR code per purchased seat
// of every ticket line in the order and bumps the daily sales counters.
// Calling it again for the same order returns the tickets already issued.
func (s *TicketService) IssueTickets(ctx context.Context, order *models.Order) ([]models.Ticket, error) {
	existing, err := s.DB.ListByOrder(ctx, order.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up tickets of order %s: %w", order.OrderID, err)
	}
	if len(existing) > 0 {
		return existing, nil
	}

	now := s.Clock.Now()
	var issued []models.Ticket
	for _, line := range order.Lines {
		if line.Kind != models.LineKindTicket {
			continue
		}
		for i := 0; i < line.Quantity; i++ {
			ticket := models.Ticket{
				TicketID:   utils.NewID(),
				OrderID:    order.OrderID,
				EventID:    line.EventID,
				TierID:     line.RefID,
				HolderID:   order.UserID,
				TierName:   line.Name,
				PriceCents: line.UnitPriceCents,
				Status:     models.TicketStatusValid,
				IssuedAt:   now,
			}
			png, payload, err := s.QRGenerator.GenerateEncryptedQR(models.TicketClaims{
				TicketID: ticket.TicketID,
				EventID:  ticket.EventID,
				HolderID: ticket.HolderID,
				IssuedAt: now,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to generate QR for order %s: %w", order.OrderID, err)
			}
			ticket.QRCode = png
			ticket.QRPayload = payload
			issued = append(issued, ticket)
		}
	}

	if err := s.DB.CreateTickets(ctx, issued); err != nil {
		return nil, fmt.Errorf("failed to store tickets of order %s: %w", order.OrderID, err)
	}

	for _, line := range order.Lines {
		if line.Kind != models.LineKindTicket {
			continue
		}
		if err := s.DB.IncrementTicketCount(ctx, line.EventID, line.RefID, line.Quantity, now); err != nil {
			s.Logger.Warn("TICKET", fmt.Sprintf("failed to bump daily count for tier %s: %v", line.RefID, err))
		}
	}

	s.Logger.LogOrder("TICKETS", order.OrderID, fmt.Sprintf("issued %d tickets", len(issued)))
	return issued, nil
}

// VoidOrderTickets invalidates the tickets of a refunded order.
func (s *TicketService) VoidOrderTickets(ctx context.Context, orderID string) error {
	n, err := s.DB.VoidByOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to void tickets of order %s: %w", orderID, err)
	}
	s.Logger.LogOrder("TICKETS", orderID, fmt.Sprintf("voided %d tickets", n))
	return nil
}

func (s *TicketService) ListOrderTickets(ctx context.Context, orderID string) ([]models.Ticket, error) {
	return s.DB.ListByOrder(ctx, orderID)
}

func (s *TicketService) ListMyTickets(ctx context.Context, userID string) ([]models.Ticket, error) {
	tickets, err := s.DB.ListByHolder(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tickets for user %s: %w", userID, err)
	}
	return tickets, nil
}

// GetTicket returns a ticket to its holder or to the organizer of its
// event. Anyone else gets ErrTicketNotFound.
func (s *TicketService) GetTicket(ctx context.Context, userID, ticketID string) (*models.Ticket, error) {
	ticket, err := s.DB.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.HolderID == userID {
		return ticket, nil
	}
	if _, err := s.Events.GetOwnedEvent(ctx, userID, ticket.EventID); err != nil {
		return nil, models.ErrTicketNotFound
	}
	return ticket, nil
}

// CheckIn admits the holder of an encrypted QR payload. Only the organizer
// of the ticket's event may scan it and each ticket is admitted once.
func (s *TicketService) CheckIn(ctx context.Context, scannerID, encryptedQR string) (*models.Ticket, error) {
	claims, err := s.QRGenerator.DecryptPayload(encryptedQR)
	if err != nil {
		s.Logger.LogSecurity("QR_REJECTED", fmt.Sprintf("scanner %s presented an invalid QR code", scannerID))
		return nil, err
	}

	ticket, err := s.DB.GetTicket(ctx, claims.TicketID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidQR
		}
		return nil, err
	}
	if ticket.EventID != claims.EventID || ticket.HolderID != claims.HolderID {
		s.Logger.LogSecurity("QR_MISMATCH", fmt.Sprintf("ticket %s claims do not match", ticket.TicketID))
		return nil, models.ErrInvalidQR
	}

	if _, err := s.Events.GetOwnedEvent(ctx, scannerID, ticket.EventID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotOrganizer
		}
		return nil, err
	}
	if ticket.Status == models.TicketStatusVoid {
		return nil, models.ErrTicketVoid
	}

	now := s.Clock.Now()
	ok, err := s.DB.CheckIn(ctx, ticket.TicketID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to check in ticket %s: %w", ticket.TicketID, err)
	}
	if !ok {
		return nil, models.ErrAlreadyCheckedIn
	}

	ticket.CheckedIn = true
	ticket.CheckedInTime = now
	s.Logger.LogEvent("CHECKIN", ticket.EventID, fmt.Sprintf("ticket %s admitted by %s", ticket.TicketID, scannerID))
	return ticket, nil
}
