package models

import (
	"errors"
	"fmt"
)

// Error categories. Every domain error below wraps exactly one of these so
// handlers can pick an HTTP status with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)

var (
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	ErrEventNotFound    = fmt.Errorf("event %w", ErrNotFound)
	ErrTierNotFound     = fmt.Errorf("ticket tier %w", ErrNotFound)
	ErrTicketNotFound   = fmt.Errorf("ticket %w", ErrNotFound)
	ErrItemNotFound     = fmt.Errorf("item %w", ErrNotFound)
	ErrOrderNotFound    = fmt.Errorf("order %w", ErrNotFound)
	ErrPromoNotFound    = fmt.Errorf("promo code %w", ErrNotFound)
	ErrCartLineNotFound = fmt.Errorf("cart line %w", ErrNotFound)

	ErrNotOwner     = fmt.Errorf("%w: not the owner of this resource", ErrForbidden)
	ErrNotOrganizer = fmt.Errorf("%w: only the event organizer can do this", ErrForbidden)

	ErrEventNotEditable   = fmt.Errorf("%w: event can no longer be edited", ErrConflict)
	ErrEventNotPublished  = fmt.Errorf("%w: event is not published", ErrConflict)
	ErrEventHasSales      = fmt.Errorf("%w: event already has ticket sales", ErrConflict)
	ErrWizardIncomplete   = fmt.Errorf("%w: complete the previous steps first", ErrConflict)
	ErrNoTicketTiers      = fmt.Errorf("%w: event needs at least one ticket tier", ErrConflict)
	ErrEventInPast        = fmt.Errorf("%w: event starts in the past", ErrConflict)
	ErrTierSoldOut        = fmt.Errorf("%w: not enough tickets left in this tier", ErrConflict)
	ErrSalesClosed        = fmt.Errorf("%w: ticket sales are not open", ErrConflict)
	ErrCapacityBelowSold  = fmt.Errorf("%w: capacity cannot go below tickets already sold or reserved", ErrConflict)
	ErrTierHasSales       = fmt.Errorf("%w: ticket tier already has sales", ErrConflict)
	ErrPriceLocked        = fmt.Errorf("%w: price cannot change after tickets were sold", ErrConflict)
	ErrInsufficientStock  = fmt.Errorf("%w: not enough items in stock", ErrConflict)
	ErrItemUnavailable    = fmt.Errorf("%w: item is no longer available", ErrConflict)
	ErrOrderNotPending    = fmt.Errorf("%w: order is not pending", ErrConflict)
	ErrOrderNotRefundable = fmt.Errorf("%w: order cannot be refunded", ErrConflict)
	ErrCheckoutInProgress = fmt.Errorf("%w: another checkout is in progress", ErrConflict)
	ErrAlreadyCheckedIn   = fmt.Errorf("%w: ticket already checked in", ErrConflict)
	ErrTicketVoid         = fmt.Errorf("%w: ticket is void", ErrConflict)
	ErrPromoCodeTaken     = fmt.Errorf("%w: promo code already exists for this event", ErrConflict)

	ErrPerOrderLimit    = fmt.Errorf("%w: quantity exceeds the per-order limit", ErrInvalidInput)
	ErrCartEmpty        = fmt.Errorf("%w: cart is empty", ErrInvalidInput)
	ErrCurrencyMismatch = fmt.Errorf("%w: all cart lines must use the same currency", ErrInvalidInput)
	ErrOwnItem          = fmt.Errorf("%w: you cannot buy your own listing", ErrInvalidInput)
	ErrInvalidQR        = fmt.Errorf("%w: QR code could not be verified", ErrInvalidInput)
	ErrPromoInvalid     = fmt.Errorf("%w: promo code is not valid for this order", ErrInvalidInput)
	ErrUnsupportedMedia = fmt.Errorf("%w: unsupported media upload", ErrInvalidInput)
	ErrInvalidStep      = fmt.Errorf("%w: unknown wizard step", ErrInvalidInput)
	ErrInvalidQuantity  = fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	ErrInvalidWebhook   = fmt.Errorf("%w: webhook signature could not be verified", ErrInvalidInput)
)
