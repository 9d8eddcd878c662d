package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ms-campus/internal/kafka"
	"ms-campus/internal/models"

	kafkago "github.com/segmentio/kafka-go"
)

// Refund returns a completed order's payment when one of its events was
// cancelled. The buyer or the organizer of one of its events may ask.
func (s *OrderService) Refund(ctx context.Context, callerID, orderID string) (*models.Order, error) {
	order, err := s.DB.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	allowed := order.UserID == callerID
	cancelled := false
	for _, eventID := range order.EventIDs() {
		event, err := s.Events.GetEvent(ctx, "", eventID)
		if errors.Is(err, models.ErrEventNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if event.OrganizerID == callerID {
			allowed = true
		}
		if event.Status == models.EventStatusCancelled {
			cancelled = true
		}
	}
	if !allowed {
		return nil, models.ErrOrderNotFound
	}
	if order.Status != models.OrderStatusCompleted || !cancelled {
		return nil, models.ErrOrderNotRefundable
	}

	if err := s.refundOrder(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) refundOrder(ctx context.Context, order *models.Order) error {
	if order.TotalCents > 0 {
		if s.Payments == nil {
			return fmt.Errorf("%w: payments are not configured", models.ErrConflict)
		}
		if err := s.Payments.Refund(ctx, order); err != nil {
			return err
		}
	}

	now := s.Clock.Now()
	ok, err := s.DB.TransitionStatus(ctx, order.OrderID, models.OrderStatusCompleted, models.OrderStatusRefunded, now)
	if err != nil {
		return fmt.Errorf("failed to mark order %s refunded: %w", order.OrderID, err)
	}
	if !ok {
		return models.ErrOrderNotRefundable
	}
	order.Status = models.OrderStatusRefunded
	order.UpdatedAt = now
	if order.TotalCents > 0 {
		s.recordPayment(ctx, order, models.PaymentKindRefund, order.PaymentIntentID)
	}

	if err := s.Tickets.VoidOrderTickets(ctx, order.OrderID); err != nil {
		s.Logger.Error("ORDER", err.Error())
	}
	s.Logger.LogOrder("REFUND", order.OrderID, fmt.Sprintf("refunded %d %s", order.TotalCents, order.Currency))
	s.publish(ctx, kafka.TopicOrderCancelled, order)
	return nil
}

// RefundEventOrders refunds every completed order holding tickets for a
// cancelled event. It keeps going past individual failures and returns how
// many orders were refunded.
func (s *OrderService) RefundEventOrders(ctx context.Context, eventID string) (int, error) {
	orders, err := s.DB.ListCompletedByEvent(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("failed to list orders of event %s: %w", eventID, err)
	}

	refunded := 0
	var errs []error
	for i := range orders {
		err := s.refundOrder(ctx, &orders[i])
		if errors.Is(err, models.ErrOrderNotRefundable) {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("order %s: %w", orders[i].OrderID, err))
			continue
		}
		refunded++
	}
	s.Logger.LogEvent("REFUND", eventID, fmt.Sprintf("refunded %d of %d orders", refunded, len(orders)))
	return refunded, errors.Join(errs...)
}

// HandleEventCancelled consumes event cancellation messages.
func (s *OrderService) HandleEventCancelled(ctx context.Context, msg kafkago.Message) error {
	var event models.EventMessage
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("decode event message: %w", err)
	}
	if event.Status != models.EventStatusCancelled {
		return nil
	}
	_, err := s.RefundEventOrders(ctx, event.EventID)
	return err
}
