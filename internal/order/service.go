package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ms-campus/internal/clock"
	"ms-campus/internal/kafka"
	"ms-campus/internal/logger"
	"ms-campus/internal/models"
	"ms-campus/internal/utils"
)

type DBLayer interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	GetOrderByCheckoutSession(ctx context.Context, sessionID string) (*models.Order, error)
	SetCheckoutSession(ctx context.Context, id, sessionID, url string, now time.Time) error
	SetPaymentIntent(ctx context.Context, id, paymentIntentID string, now time.Time) error
	TransitionStatus(ctx context.Context, id string, from, to models.OrderStatus, now time.Time) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]models.Order, error)
	ListCompletedByEvent(ctx context.Context, eventID string) ([]models.Order, error)
}

type RedisLock interface {
	AcquireCheckoutLock(ctx context.Context, userID, token string, ttl time.Duration) (bool, error)
	ReleaseCheckoutLock(ctx context.Context, userID, token string) error
	SetHold(ctx context.Context, orderID string, ttl time.Duration) error
	DeleteHold(ctx context.Context, orderID string) error
}

type CartReader interface {
	Get(ctx context.Context, userID string) (*models.CartView, error)
	Clear(ctx context.Context, userID string) error
}

type TicketIssuer interface {
	Reserve(ctx context.Context, tierID string, n int) (*models.TicketTier, error)
	Release(ctx context.Context, tierID string, n int) error
	Confirm(ctx context.Context, tierID string, n int) error
	IssueTickets(ctx context.Context, order *models.Order) ([]models.Ticket, error)
	VoidOrderTickets(ctx context.Context, orderID string) error
	ListOrderTickets(ctx context.Context, orderID string) ([]models.Ticket, error)
}

type StockReserver interface {
	ReserveStock(ctx context.Context, buyerID, itemID string, n int) (*models.Item, error)
	ReleaseStock(ctx context.Context, itemID string, n int) error
	ConfirmStock(ctx context.Context, itemID string, n int) error
}

type PromoResolver interface {
	Resolve(ctx context.Context, code string, lines []models.OrderLine) (*models.PromoCode, int64, error)
	RecordUsage(ctx context.Context, promoID string)
}

type EventReader interface {
	GetEvent(ctx context.Context, viewerID, eventID string) (*models.Event, error)
}

type SaleNotifier interface {
	EmitSale(sale models.SaleEvent)
}

// PaymentLedger records money movements and handled provider events.
type PaymentLedger interface {
	SavePayment(ctx context.Context, payment *models.Payment) error
	WebhookProcessed(ctx context.Context, eventID string) (bool, error)
	MarkWebhookProcessed(ctx context.Context, eventID, eventType string, at time.Time) error
}

// Deps groups the collaborators of OrderService. Payments may be nil, in
// which case only free orders can be checked out. Ledger and Sales are
// optional.
type Deps struct {
	DB       DBLayer
	Redis    RedisLock
	Cart     CartReader
	Tickets  TicketIssuer
	Items    StockReserver
	Promos   PromoResolver
	Events   EventReader
	Payments PaymentGateway
	Ledger   PaymentLedger
	Kafka    kafka.Publisher
	Sales    SaleNotifier
	Clock    clock.Clock
	Logger   *logger.Logger
}

type OrderService struct {
	Deps
	HoldTTL time.Duration
	LockTTL time.Duration
}

func NewOrderService(deps Deps, holdTTL, lockTTL time.Duration) *OrderService {
	return &OrderService{Deps: deps, HoldTTL: holdTTL, LockTTL: lockTTL}
}

// ---------------- CHECKOUT ----------------

// Checkout turns the caller's cart into a pending order. Every line is
// reserved before the order is stored, and a failure part way releases what
// was already reserved. Free orders complete immediately; paid ones get a
// hosted payment page.
func (s *OrderService) Checkout(ctx context.Context, userID string, req models.CheckoutRequest) (*models.CheckoutResponse, error) {
	token := utils.NewID()
	locked, err := s.Redis.AcquireCheckoutLock(ctx, userID, token, s.LockTTL)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, models.ErrCheckoutInProgress
	}
	defer func() {
		if err := s.Redis.ReleaseCheckoutLock(context.WithoutCancel(ctx), userID, token); err != nil {
			s.Logger.Warn("CHECKOUT", fmt.Sprintf("failed to release checkout lock for %s: %v", userID, err))
		}
	}()

	cart, err := s.Cart.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Lines) == 0 {
		return nil, models.ErrCartEmpty
	}
	if err := cart.SameCurrency(); err != nil {
		return nil, err
	}

	now := s.Clock.Now()
	order := &models.Order{
		OrderID:       utils.GenerateOrderReference(now),
		UserID:        userID,
		Status:        models.OrderStatusPending,
		Lines:         make([]models.OrderLine, 0, len(cart.Lines)),
		SubtotalCents: cart.SubtotalCents,
		Currency:      cart.Currency,
		ExpiresAt:     now.Add(s.HoldTTL),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, line := range cart.Lines {
		order.Lines = append(order.Lines, line.OrderLine())
	}

	if req.PromoCode != "" {
		promo, discount, err := s.Promos.Resolve(ctx, req.PromoCode, order.Lines)
		if err != nil {
			return nil, err
		}
		order.PromoCode = promo.Code
		order.PromoID = promo.ID
		order.DiscountCents = discount
	}
	order.TotalCents = order.SubtotalCents - order.DiscountCents

	if order.TotalCents > 0 && s.Payments == nil {
		return nil, fmt.Errorf("%w: paid checkout is not available", models.ErrConflict)
	}

	if err := s.reserve(ctx, order); err != nil {
		return nil, err
	}

	if err := s.DB.CreateOrder(ctx, order); err != nil {
		s.release(ctx, order.Lines)
		return nil, fmt.Errorf("failed to store order: %w", err)
	}
	s.Logger.LogOrder("CREATE", order.OrderID, fmt.Sprintf("pending order for %s, total %d %s", userID, order.TotalCents, order.Currency))

	if err := s.Redis.SetHold(ctx, order.OrderID, s.HoldTTL); err != nil {
		s.Logger.Warn("CHECKOUT", fmt.Sprintf("failed to set hold for %s, sweeper will expire it: %v", order.OrderID, err))
	}
	s.publish(ctx, kafka.TopicOrderCreated, order)

	resp := &models.CheckoutResponse{}
	if order.TotalCents == 0 {
		completed, err := s.Complete(ctx, order.OrderID, "")
		if err != nil {
			// a completed order keeps its stock, so the cart must not be
			// checked out again; GetOrder retries the tickets
			if latest, gerr := s.DB.GetOrderByID(ctx, order.OrderID); gerr == nil && latest.Status == models.OrderStatusCompleted {
				s.clearCart(ctx, userID)
			} else {
				s.abandon(ctx, order)
			}
			return nil, err
		}
		resp.Order = completed
	} else {
		sess, err := s.Payments.CreateCheckoutSession(ctx, order)
		if err != nil {
			s.abandon(ctx, order)
			return nil, err
		}
		if err := s.DB.SetCheckoutSession(ctx, order.OrderID, sess.ID, sess.URL, s.Clock.Now()); err != nil {
			s.abandon(ctx, order)
			return nil, fmt.Errorf("failed to store checkout session: %w", err)
		}
		order.CheckoutSessionID = sess.ID
		order.CheckoutURL = sess.URL
		resp.Order = order
		resp.CheckoutURL = sess.URL
	}

	s.clearCart(ctx, userID)
	s.Logger.LogCheckout(userID, fmt.Sprintf("checked out order %s", order.OrderID))
	return resp, nil
}

func (s *OrderService) clearCart(ctx context.Context, userID string) {
	if err := s.Cart.Clear(ctx, userID); err != nil {
		s.Logger.Warn("CHECKOUT", fmt.Sprintf("failed to clear cart of %s: %v", userID, err))
	}
}

// reserve holds stock for every line, undoing earlier lines on failure.
func (s *OrderService) reserve(ctx context.Context, order *models.Order) error {
	for i, line := range order.Lines {
		var err error
		switch line.Kind {
		case models.LineKindTicket:
			_, err = s.Tickets.Reserve(ctx, line.RefID, line.Quantity)
		case models.LineKindItem:
			_, err = s.Items.ReserveStock(ctx, order.UserID, line.RefID, line.Quantity)
		default:
			err = fmt.Errorf("%w: unknown line kind %q", models.ErrInvalidInput, line.Kind)
		}
		if err != nil {
			s.release(ctx, order.Lines[:i])
			return err
		}
	}
	return nil
}

func (s *OrderService) release(ctx context.Context, lines []models.OrderLine) {
	ctx = context.WithoutCancel(ctx)
	for _, line := range lines {
		var err error
		switch line.Kind {
		case models.LineKindTicket:
			err = s.Tickets.Release(ctx, line.RefID, line.Quantity)
		case models.LineKindItem:
			err = s.Items.ReleaseStock(ctx, line.RefID, line.Quantity)
		}
		if err != nil {
			s.Logger.Error("ORDER", fmt.Sprintf("failed to release %s %s x%d: %v", line.Kind, line.RefID, line.Quantity, err))
		}
	}
}

func (s *OrderService) confirm(ctx context.Context, order *models.Order) {
	for _, line := range order.Lines {
		var err error
		switch line.Kind {
		case models.LineKindTicket:
			err = s.Tickets.Confirm(ctx, line.RefID, line.Quantity)
		case models.LineKindItem:
			err = s.Items.ConfirmStock(ctx, line.RefID, line.Quantity)
		}
		if err != nil {
			s.Logger.Error("ORDER", fmt.Sprintf("failed to confirm %s %s x%d for order %s: %v", line.Kind, line.RefID, line.Quantity, order.OrderID, err))
		}
	}
}

// abandon cancels a pending order whose payment page could not be created.
func (s *OrderService) abandon(ctx context.Context, order *models.Order) {
	ctx = context.WithoutCancel(ctx)
	ok, err := s.DB.TransitionStatus(ctx, order.OrderID, models.OrderStatusPending, models.OrderStatusCancelled, s.Clock.Now())
	if err != nil || !ok {
		s.Logger.Error("ORDER", fmt.Sprintf("failed to abandon order %s: %v", order.OrderID, err))
		return
	}
	s.release(ctx, order.Lines)
	if err := s.Redis.DeleteHold(ctx, order.OrderID); err != nil {
		s.Logger.Warn("ORDER", fmt.Sprintf("failed to delete hold for %s: %v", order.OrderID, err))
	}
	order.Status = models.OrderStatusCancelled
	s.publish(ctx, kafka.TopicOrderCancelled, order)
}

// ---------------- LIFECYCLE ----------------

// Complete marks a pending order paid, confirms its reservations and issues
// its tickets. Completing an already completed order returns it unchanged.
// A payment that arrives after the order expired or was cancelled is
// refunded.
func (s *OrderService) Complete(ctx context.Context, orderID, paymentIntentID string) (*models.Order, error) {
	order, err := s.DB.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch order.Status {
	case models.OrderStatusCompleted:
		return s.resumeCompleted(ctx, order)
	case models.OrderStatusPending:
	default:
		s.refundLatePayment(ctx, order, paymentIntentID)
		return nil, models.ErrOrderNotPending
	}

	now := s.Clock.Now()
	ok, err := s.DB.TransitionStatus(ctx, orderID, models.OrderStatusPending, models.OrderStatusCompleted, now)
	if err != nil {
		return nil, fmt.Errorf("failed to complete order %s: %w", orderID, err)
	}
	if !ok {
		// lost a race with another transition
		latest, err := s.DB.GetOrderByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if latest.Status == models.OrderStatusCompleted {
			return latest, nil
		}
		s.refundLatePayment(ctx, latest, paymentIntentID)
		return nil, models.ErrOrderNotPending
	}
	order.Status = models.OrderStatusCompleted
	order.CompletedAt = now
	order.UpdatedAt = now

	if paymentIntentID != "" {
		order.PaymentIntentID = paymentIntentID
		if err := s.DB.SetPaymentIntent(ctx, orderID, paymentIntentID, now); err != nil {
			s.Logger.Error("PAYMENT", fmt.Sprintf("failed to record payment %s for order %s: %v", paymentIntentID, orderID, err))
		}
	}
	if order.TotalCents > 0 {
		s.recordPayment(ctx, order, models.PaymentKindCharge, paymentIntentID)
	}

	s.confirm(ctx, order)
	if err := s.Redis.DeleteHold(ctx, orderID); err != nil {
		s.Logger.Warn("ORDER", fmt.Sprintf("failed to delete hold for %s: %v", orderID, err))
	}
	if order.PromoID != "" {
		s.Promos.RecordUsage(ctx, order.PromoID)
	}
	if len(order.EventIDs()) > 0 {
		if _, err := s.Tickets.IssueTickets(ctx, order); err != nil {
			return nil, err
		}
	}

	s.Logger.LogOrder("COMPLETE", orderID, fmt.Sprintf("paid %d %s", order.TotalCents, order.Currency))
	s.publish(ctx, kafka.TopicOrderCompleted, order)
	s.emitSales(order, now)
	return order, nil
}

// resumeCompleted issues the tickets of a completed order whose earlier
// completion failed while issuing them. Orders that already hold tickets
// are returned unchanged.
func (s *OrderService) resumeCompleted(ctx context.Context, order *models.Order) (*models.Order, error) {
	if len(order.EventIDs()) == 0 {
		return order, nil
	}
	existing, err := s.Tickets.ListOrderTickets(ctx, order.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tickets of order %s: %w", order.OrderID, err)
	}
	if len(existing) > 0 {
		return order, nil
	}
	if _, err := s.Tickets.IssueTickets(ctx, order); err != nil {
		return nil, err
	}

	s.Logger.LogOrder("COMPLETE", order.OrderID, "tickets issued after an earlier failure")
	s.publish(ctx, kafka.TopicOrderCompleted, order)
	s.emitSales(order, order.CompletedAt)
	return order, nil
}

func (s *OrderService) emitSales(order *models.Order, at time.Time) {
	if s.Sales == nil {
		return
	}
	for _, line := range order.Lines {
		if line.Kind != models.LineKindTicket {
			continue
		}
		s.Sales.EmitSale(models.SaleEvent{
			EventID:     line.EventID,
			OrderID:     order.OrderID,
			TierID:      line.RefID,
			TierName:    line.Name,
			Quantity:    line.Quantity,
			AmountCents: line.TotalCents(),
			OccurredAt:  at,
		})
	}
}

// refundLatePayment returns money paid for an order that expired or was
// cancelled before the payment arrived.
func (s *OrderService) refundLatePayment(ctx context.Context, order *models.Order, paymentIntentID string) {
	if s.Payments == nil || paymentIntentID == "" {
		return
	}
	if order.Status != models.OrderStatusExpired && order.Status != models.OrderStatusCancelled {
		return
	}
	s.Logger.Warn("PAYMENT", fmt.Sprintf("payment %s arrived for %s order %s, refunding", paymentIntentID, order.Status, order.OrderID))
	late := *order
	late.PaymentIntentID = paymentIntentID
	if err := s.Payments.Refund(ctx, &late); err != nil {
		s.Logger.Error("PAYMENT", fmt.Sprintf("failed to refund late payment for %s: %v", order.OrderID, err))
		return
	}
	s.recordPayment(ctx, &late, models.PaymentKindCharge, paymentIntentID)
	s.recordPayment(ctx, &late, models.PaymentKindRefund, paymentIntentID)
}

// recordPayment appends to the ledger. Ledger failures are logged only,
// the provider already moved the money.
func (s *OrderService) recordPayment(ctx context.Context, order *models.Order, kind models.PaymentKind, providerRef string) {
	if s.Ledger == nil {
		return
	}
	payment := &models.Payment{
		PaymentID:   utils.NewID(),
		OrderID:     order.OrderID,
		Kind:        kind,
		AmountCents: order.TotalCents,
		Currency:    order.Currency,
		ProviderRef: providerRef,
		CreatedAt:   s.Clock.Now(),
	}
	if err := s.Ledger.SavePayment(ctx, payment); err != nil {
		s.Logger.Error("PAYMENT", fmt.Sprintf("failed to record %s for order %s: %v", kind, order.OrderID, err))
	}
}

// Cancel lets the buyer abandon a pending order.
func (s *OrderService) Cancel(ctx context.Context, userID, orderID string) (*models.Order, error) {
	order, err := s.DB.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, models.ErrOrderNotFound
	}
	if order.Status != models.OrderStatusPending {
		return nil, models.ErrOrderNotPending
	}
	if err := s.endPending(ctx, order, models.OrderStatusCancelled); err != nil {
		return nil, err
	}
	s.Logger.LogOrder("CANCEL", orderID, "cancelled by buyer")
	return order, nil
}

// Expire releases the reservations of a pending order whose hold ran out.
// Orders that already left pending are ignored.
func (s *OrderService) Expire(ctx context.Context, orderID string) error {
	order, err := s.DB.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != models.OrderStatusPending {
		return nil
	}
	err = s.endPending(ctx, order, models.OrderStatusExpired)
	if errors.Is(err, models.ErrOrderNotPending) {
		return nil
	}
	if err == nil {
		s.Logger.LogOrder("EXPIRE", orderID, "hold expired, reservations released")
	}
	return err
}

func (s *OrderService) endPending(ctx context.Context, order *models.Order, to models.OrderStatus) error {
	now := s.Clock.Now()
	ok, err := s.DB.TransitionStatus(ctx, order.OrderID, models.OrderStatusPending, to, now)
	if err != nil {
		return fmt.Errorf("failed to update order %s: %w", order.OrderID, err)
	}
	if !ok {
		return models.ErrOrderNotPending
	}
	order.Status = to
	order.UpdatedAt = now

	s.release(ctx, order.Lines)
	if err := s.Redis.DeleteHold(ctx, order.OrderID); err != nil {
		s.Logger.Warn("ORDER", fmt.Sprintf("failed to delete hold for %s: %v", order.OrderID, err))
	}
	s.publish(ctx, kafka.TopicOrderCancelled, order)
	return nil
}

// OnHoldExpired is the callback for expired order holds.
func (s *OrderService) OnHoldExpired(ctx context.Context, orderID string) {
	if err := s.Expire(ctx, orderID); err != nil && !errors.Is(err, models.ErrOrderNotFound) {
		s.Logger.Error("ORDER", fmt.Sprintf("failed to expire order %s: %v", orderID, err))
	}
}

// ---------------- QUERIES ----------------

// GetOrder returns one of the caller's orders with its tickets.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID string) (*models.OrderWithTickets, error) {
	order, err := s.DB.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, models.ErrOrderNotFound
	}
	if order.Status == models.OrderStatusCompleted {
		if _, err := s.resumeCompleted(ctx, order); err != nil {
			s.Logger.Error("ORDER", fmt.Sprintf("tickets of order %s still missing: %v", orderID, err))
		}
	}
	tickets, err := s.Tickets.ListOrderTickets(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tickets of order %s: %w", orderID, err)
	}
	if tickets == nil {
		tickets = []models.Ticket{}
	}
	for i := range tickets {
		tickets[i].QRCode = nil
	}
	return &models.OrderWithTickets{Order: *order, Tickets: tickets}, nil
}

func (s *OrderService) ListMyOrders(ctx context.Context, userID string) ([]models.Order, error) {
	orders, err := s.DB.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for %s: %w", userID, err)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

func (s *OrderService) publish(ctx context.Context, topic string, order *models.Order) {
	if s.Kafka == nil {
		return
	}
	msg := models.NewOrderMessage(order, s.Clock.Now())
	if err := s.Kafka.Publish(context.WithoutCancel(ctx), topic, order.OrderID, msg); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Kafka publish error (%s): %v", topic, err))
	}
}
