package discount

import (
	"testing"
	"time"

	"ms-campus/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func promo(params models.DiscountParameters) *models.PromoCode {
	return &models.PromoCode{
		ID:         "p-1",
		EventID:    "evt-1",
		Code:       "SPRING",
		Parameters: params,
		ActiveFrom: now.Add(-time.Hour),
		ExpiresAt:  now.Add(time.Hour),
		Active:     true,
	}
}

func ticketLine(tier string, price int64, qty int) models.OrderLine {
	return models.OrderLine{Kind: models.LineKindTicket, RefID: tier, EventID: "evt-1", UnitPriceCents: price, Quantity: qty}
}

func TestEvaluate(t *testing.T) {
	otherEvent := models.OrderLine{Kind: models.LineKindTicket, RefID: "tier-x", EventID: "evt-2", UnitPriceCents: 9000, Quantity: 1}
	item := models.OrderLine{Kind: models.LineKindItem, RefID: "item-1", UnitPriceCents: 5000, Quantity: 1}

	tests := []struct {
		name     string
		promo    *models.PromoCode
		lines    []models.OrderLine
		valid    bool
		discount int64
	}{
		{
			name:     "percentage only counts matching event tickets",
			promo:    promo(models.DiscountParameters{Type: models.PERCENTAGE, Percentage: ptr(10.0)}),
			lines:    []models.OrderLine{ticketLine("tier-1", 1000, 2), otherEvent, item},
			valid:    true,
			discount: 200,
		},
		{
			name:     "percentage capped by max discount",
			promo:    promo(models.DiscountParameters{Type: models.PERCENTAGE, Percentage: ptr(50.0), MaxDiscount: ptr(int64(300))}),
			lines:    []models.OrderLine{ticketLine("tier-1", 1000, 2)},
			valid:    true,
			discount: 300,
		},
		{
			name:     "flat off never exceeds the matching subtotal",
			promo:    promo(models.DiscountParameters{Type: models.FLAT_OFF, Amount: ptr(int64(5000))}),
			lines:    []models.OrderLine{ticketLine("tier-1", 1500, 1), otherEvent},
			valid:    true,
			discount: 1500,
		},
		{
			name:  "minimum spend not met",
			promo: promo(models.DiscountParameters{Type: models.FLAT_OFF, Amount: ptr(int64(100)), MinSpend: ptr(int64(5000))}),
			lines: []models.OrderLine{ticketLine("tier-1", 1000, 2), otherEvent},
		},
		{
			name:     "buy two get one free takes the cheapest seats",
			promo:    promo(models.DiscountParameters{Type: models.BUY_N_GET_N_FREE, BuyQuantity: ptr(2), GetQuantity: ptr(1)}),
			lines:    []models.OrderLine{ticketLine("tier-1", 1000, 2), ticketLine("tier-2", 400, 2)},
			valid:    true,
			discount: 400,
		},
		{
			name:     "buy two get one free counts only full groups",
			promo:    promo(models.DiscountParameters{Type: models.BUY_N_GET_N_FREE, BuyQuantity: ptr(2), GetQuantity: ptr(1)}),
			lines:    []models.OrderLine{ticketLine("tier-1", 1000, 5), ticketLine("tier-2", 400, 1)},
			valid:    true,
			discount: 1400,
		},
		{
			name:     "buy one get one free on a pair",
			promo:    promo(models.DiscountParameters{Type: models.BUY_N_GET_N_FREE, BuyQuantity: ptr(1), GetQuantity: ptr(1)}),
			lines:    []models.OrderLine{ticketLine("tier-1", 1000, 2)},
			valid:    true,
			discount: 1000,
		},
		{
			name:  "buy one get one free needs a second seat",
			promo: promo(models.DiscountParameters{Type: models.BUY_N_GET_N_FREE, BuyQuantity: ptr(1), GetQuantity: ptr(1)}),
			lines: []models.OrderLine{ticketLine("tier-1", 1000, 1)},
		},
		{
			name:  "buy two get one free needs three seats",
			promo: promo(models.DiscountParameters{Type: models.BUY_N_GET_N_FREE, BuyQuantity: ptr(2), GetQuantity: ptr(1)}),
			lines: []models.OrderLine{ticketLine("tier-1", 1000, 2)},
		},
		{
			name:  "no matching tickets",
			promo: promo(models.DiscountParameters{Type: models.PERCENTAGE, Percentage: ptr(10.0)}),
			lines: []models.OrderLine{otherEvent, item},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Evaluate(tt.promo, tt.lines, now)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, res.IsValid, res.Reason)
			assert.Equal(t, tt.discount, res.DiscountCents)
			if !tt.valid {
				assert.NotEmpty(t, res.Reason)
			}
		})
	}
}

func TestEvaluateApplicableTiers(t *testing.T) {
	p := promo(models.DiscountParameters{Type: models.PERCENTAGE, Percentage: ptr(50.0)})
	p.ApplicableTiers = []string{"tier-vip"}

	res, err := Evaluate(p, []models.OrderLine{ticketLine("tier-ga", 1000, 1), ticketLine("tier-vip", 3000, 1)}, now)
	require.NoError(t, err)
	assert.True(t, res.IsValid)
	assert.Equal(t, int64(1500), res.DiscountCents)
	assert.Equal(t, []string{"tier-vip"}, res.ApplicableTiers)
}

func TestEvaluatePreconditions(t *testing.T) {
	lines := []models.OrderLine{ticketLine("tier-1", 1000, 1)}
	base := models.DiscountParameters{Type: models.FLAT_OFF, Amount: ptr(int64(100))}

	inactive := promo(base)
	inactive.Active = false

	early := promo(base)
	early.ActiveFrom = now.Add(time.Minute)

	expired := promo(base)
	expired.ExpiresAt = now

	usedUp := promo(base)
	usedUp.MaxUsage = 5
	usedUp.CurrentUsage = 5

	for name, p := range map[string]*models.PromoCode{"inactive": inactive, "early": early, "expired": expired, "used up": usedUp} {
		res, err := Evaluate(p, lines, now)
		require.NoError(t, err, name)
		assert.False(t, res.IsValid, name)
	}

	res, err := Evaluate(nil, lines, now)
	require.NoError(t, err)
	assert.False(t, res.IsValid)
	assert.Zero(t, res.DiscountCents)
}

func TestEvaluateMisconfigured(t *testing.T) {
	_, err := Evaluate(promo(models.DiscountParameters{Type: models.FLAT_OFF}), []models.OrderLine{ticketLine("tier-1", 1000, 1)}, now)
	assert.Error(t, err)

	assert.ErrorIs(t, CheckParameters(models.DiscountParameters{Type: models.PERCENTAGE}), models.ErrInvalidInput)
	assert.ErrorIs(t, CheckParameters(models.DiscountParameters{Type: "BOGUS"}), models.ErrInvalidInput)
	assert.NoError(t, CheckParameters(models.DiscountParameters{Type: models.BUY_N_GET_N_FREE, BuyQuantity: ptr(1), GetQuantity: ptr(1)}))
}
