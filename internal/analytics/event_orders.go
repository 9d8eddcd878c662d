package analytics

import (
	"context"
	"fmt"
	"strings"

	"ms-campus/internal/models"

	"github.com/uptrace/bun"
)

// OrderSortField defines the valid fields for sorting orders
type OrderSortField string

const (
	OrderSortByTotal     OrderSortField = "total"
	OrderSortByCreatedAt OrderSortField = "created_at"
)

// EventOrderOptions contains options for filtering and sorting orders
type EventOrderOptions struct {
	Status   models.OrderStatus
	SortBy   string
	SortDesc bool
	Limit    int
	Offset   int
}

const maxOrderPage = 200

// GetEventOrders lists the orders that bought tickets for an event the caller
// organizes. Each order carries only its tickets for that event.
func (s *AnalyticsService) GetEventOrders(ctx context.Context, userID, eventID string, options EventOrderOptions) ([]models.OrderWithTickets, error) {
	if _, err := s.Events.GetOwnedEvent(ctx, userID, eventID); err != nil {
		return nil, err
	}
	return s.DB.GetEventOrders(ctx, eventID, options)
}

func (db *DB) GetEventOrders(ctx context.Context, eventID string, options EventOrderOptions) ([]models.OrderWithTickets, error) {
	orderIDs := db.Bun.NewSelect().
		Model((*models.Ticket)(nil)).
		Column("order_id").
		Where("event_id = ?", eventID)

	q := db.Bun.NewSelect().
		Model((*models.Order)(nil)).
		Where("order_id IN (?)", orderIDs)

	if options.Status != "" {
		q = q.Where("status = ?", options.Status)
	}

	direction := "ASC"
	if options.SortDesc || options.SortBy == "" {
		direction = "DESC"
	}
	switch OrderSortField(strings.ToLower(options.SortBy)) {
	case OrderSortByTotal:
		q = q.Order("total_cents "+direction, "order_id ASC")
	case OrderSortByCreatedAt, "":
		q = q.Order("created_at "+direction, "order_id ASC")
	default:
		return nil, fmt.Errorf("%w: cannot sort orders by %q", models.ErrInvalidInput, options.SortBy)
	}

	if options.Limit <= 0 || options.Limit > maxOrderPage {
		options.Limit = maxOrderPage
	}
	q = q.Limit(options.Limit)
	if options.Offset > 0 {
		q = q.Offset(options.Offset)
	}

	var orders []models.Order
	if err := q.Scan(ctx, &orders); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return []models.OrderWithTickets{}, nil
	}

	ids := make([]string, len(orders))
	for i, order := range orders {
		ids[i] = order.OrderID
	}

	var tickets []models.Ticket
	err := db.Bun.NewSelect().
		Model(&tickets).
		Where("order_id IN (?)", bun.In(ids)).
		Where("event_id = ?", eventID).
		Order("issued_at ASC", "ticket_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	byOrder := make(map[string][]models.Ticket)
	for _, ticket := range tickets {
		ticket.QRCode = nil
		ticket.QRPayload = ""
		byOrder[ticket.OrderID] = append(byOrder[ticket.OrderID], ticket)
	}

	result := make([]models.OrderWithTickets, len(orders))
	for i, order := range orders {
		result[i] = models.OrderWithTickets{Order: order, Tickets: byOrder[order.OrderID]}
		if result[i].Tickets == nil {
			result[i].Tickets = []models.Ticket{}
		}
	}
	return result, nil
}
