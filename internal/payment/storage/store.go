package storage

import (
	"context"
	"fmt"
	"time"

	"ms-campus/internal/logger"
	"ms-campus/internal/models"

	"github.com/uptrace/bun"
)

// Store is the payments ledger: charges and refunds per order, plus the
// provider events already handled.
type Store struct {
	Bun *bun.DB
	log *logger.Logger
}

func NewStore(db *bun.DB, log *logger.Logger) *Store {
	return &Store{Bun: db, log: log}
}

func (s *Store) SavePayment(ctx context.Context, payment *models.Payment) error {
	s.log.LogDatabase("INSERT", "payments", fmt.Sprintf("Saving %s %s for order %s", payment.Kind, payment.PaymentID, payment.OrderID))
	_, err := s.Bun.NewInsert().Model(payment).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save payment %s: %w", payment.PaymentID, err)
	}
	return nil
}

// ListPaymentsByOrder returns the ledger of an order, oldest first.
func (s *Store) ListPaymentsByOrder(ctx context.Context, orderID string) ([]models.Payment, error) {
	payments := []models.Payment{}
	err := s.Bun.NewSelect().
		Model(&payments).
		Where("order_id = ?", orderID).
		Order("created_at ASC", "payment_id ASC").
		Scan(ctx)
	return payments, err
}

func (s *Store) WebhookProcessed(ctx context.Context, eventID string) (bool, error) {
	return s.Bun.NewSelect().
		Model((*models.WebhookReceipt)(nil)).
		Where("event_id = ?", eventID).
		Exists(ctx)
}

// MarkWebhookProcessed records eventID. Marking an event twice is not an
// error.
func (s *Store) MarkWebhookProcessed(ctx context.Context, eventID, eventType string, at time.Time) error {
	_, err := s.Bun.NewInsert().
		Model(&models.WebhookReceipt{EventID: eventID, Type: eventType, ProcessedAt: at}).
		On("CONFLICT (event_id) DO NOTHING").
		Exec(ctx)
	return err
}
