package cart_test

import (
	"context"
	"testing"
	"time"

	cartredis "ms-campus/internal/cart/redis"
	cart "ms-campus/internal/cart/service"
	"ms-campus/internal/clock"
	"ms-campus/internal/logger"
	"ms-campus/internal/models"
	"ms-campus/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTiers map[string]*models.TicketTier

func (f fakeTiers) GetTier(_ context.Context, id string) (*models.TicketTier, error) {
	t, ok := f[id]
	if !ok {
		return nil, models.ErrTierNotFound
	}
	cp := *t
	return &cp, nil
}

func (f fakeTiers) CheckPurchasable(_ context.Context, tier *models.TicketTier, n int) error {
	if tier.MaxPerOrder > 0 && n > tier.MaxPerOrder {
		return models.ErrPerOrderLimit
	}
	return nil
}

type fakeItems map[string]*models.Item

func (f fakeItems) GetItem(_ context.Context, id string) (*models.Item, error) {
	i, ok := f[id]
	if !ok {
		return nil, models.ErrItemNotFound
	}
	cp := *i
	return &cp, nil
}

func (f fakeItems) CheckPurchasable(item *models.Item, buyerID string, n int) error {
	if item.SellerID == buyerID {
		return models.ErrOwnItem
	}
	if item.AvailableUnits() < n {
		return models.ErrInsufficientStock
	}
	return nil
}

type fixture struct {
	svc   *cart.CartService
	clock *clock.Manual
	tiers fakeTiers
	items fakeItems
}

func newFixture(t *testing.T) *fixture {
	client, _ := testutil.NewTestRedis(t)
	tiers := fakeTiers{
		"tier-ga":  {ID: "tier-ga", EventID: "evt-1", Name: "GA", PriceCents: 1500, Currency: "usd", Capacity: 100, MaxPerOrder: 4},
		"tier-eur": {ID: "tier-eur", EventID: "evt-2", Name: "Entry", PriceCents: 900, Currency: "eur", Capacity: 10},
		"tier-few": {ID: "tier-few", EventID: "evt-1", Name: "VIP", PriceCents: 5000, Currency: "usd", Capacity: 3, Sold: 2},
	}
	items := fakeItems{
		"lamp": {ID: "lamp", SellerID: "seller", Title: "Lamp", PriceCents: 700, Currency: "usd", Quantity: 2, Status: models.ItemStatusActive},
	}
	clk := clock.NewManual(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	svc := cart.NewCartService(cartredis.NewCartStore(client, time.Hour), tiers, items, clk, logger.NewNop())
	return &fixture{svc: svc, clock: clk, tiers: tiers, items: items}
}

func TestAddLinesMergesAndPrices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddLine(ctx, "buyer", models.AddLineRequest{Kind: models.LineKindTicket, RefID: "tier-ga", Quantity: 1})
	require.NoError(t, err)
	_, err = f.svc.AddLine(ctx, "buyer", models.AddLineRequest{Kind: models.LineKindTicket, RefID: "tier-ga", Quantity: 2})
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	view, err := f.svc.AddLine(ctx, "buyer", models.AddLineRequest{Kind: models.LineKindItem, RefID: "lamp", Quantity: 1})
	require.NoError(t, err)

	require.Len(t, view.Lines, 2)
	assert.Equal(t, "ticket:tier-ga", view.Lines[0].LineID)
	assert.Equal(t, 3, view.Lines[0].Quantity)
	assert.Equal(t, int64(4500), view.Lines[0].LineTotalCents)
	assert.Equal(t, int64(5200), view.SubtotalCents)
	assert.Equal(t, 4, view.ItemCount)
	assert.Equal(t, "usd", view.Currency)

	_, err = f.svc.AddLine(ctx, "buyer", models.AddLineRequest{Kind: models.LineKindTicket, RefID: "tier-ga", Quantity: 2})
	assert.ErrorIs(t, err, models.ErrPerOrderLimit, "merged quantity exceeds the per-order limit")
}

func TestAddLineRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddLine(ctx, "seller", models.AddLineRequest{Kind: models.LineKindItem, RefID: "lamp", Quantity: 1})
	assert.ErrorIs(t, err, models.ErrOwnItem)

	_, err = f.svc.AddLine(ctx, "buyer", models.AddLineRequest{Kind: models.LineKindItem, RefID: "lamp", Quantity: 3})
	assert.ErrorIs(t, err, models.ErrInsufficientStock)

	_, err = f.svc.AddLine(ctx, "buyer", models.AddLineRequest{Kind: models.LineKindTicket, RefID: "tier-few", Quantity: 2})
	assert.ErrorIs(t, err, models.ErrTierSoldOut)

	_, err = f.svc.AddLine(ctx, "buyer", models.AddLineRequest{Kind: models.LineKindTicket, RefID: "missing", Quantity: 1})
	assert.ErrorIs(t, err, models.ErrTierNotFound)

	_, err = f.svc.AddLine(ctx, "buyer", models.AddLineRequest{Kind: models.LineKindTicket, RefID: "tier-ga", Quantity: 1})
	require.NoError(t, err)
	_, err = f.svc.AddLine(ctx, "buyer", models.AddLineRequest{Kind: models.LineKindTicket, RefID: "tier-eur", Quantity: 1})
	assert.ErrorIs(t, err, models.ErrCurrencyMismatch)
}

func TestGetFlagsCurrencyChangedAfterAdd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddLine(ctx, "buyer", models.AddLineRequest{Kind: models.LineKindItem, RefID: "lamp", Quantity: 1})
	require.NoError(t, err)
	_, err = f.svc.AddLine(ctx, "buyer", models.AddLineRequest{Kind: models.LineKindTicket, RefID: "tier-ga", Quantity: 1})
	require.NoError(t, err)

	view, err := f.svc.Get(ctx, "buyer")
	require.NoError(t, err)
	assert.False(t, view.MixedCurrency)
	assert.Equal(t, "usd", view.Currency)
	assert.Equal(t, int64(2200), view.SubtotalCents)

	// the organizer switches the unsold tier to euros
	f.tiers["tier-ga"].Currency = "eur"

	view, err = f.svc.Get(ctx, "buyer")
	require.NoError(t, err)
	assert.Len(t, view.Lines, 2)
	assert.True(t, view.MixedCurrency)
	assert.Empty(t, view.Currency)
	assert.Zero(t, view.SubtotalCents)
	assert.ErrorIs(t, view.SameCurrency(), models.ErrCurrencyMismatch)

	view, err = f.svc.RemoveLine(ctx, "buyer", "ticket:tier-ga")
	require.NoError(t, err)
	assert.False(t, view.MixedCurrency)
	assert.Equal(t, "usd", view.Currency)
}

func TestUpdateRemoveAndStaleLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddLine(ctx, "buyer", models.AddLineRequest{Kind: models.LineKindTicket, RefID: "tier-ga", Quantity: 1})
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	_, err = f.svc.AddLine(ctx, "buyer", models.AddLineRequest{Kind: models.LineKindItem, RefID: "lamp", Quantity: 1})
	require.NoError(t, err)

	view, err := f.svc.UpdateLine(ctx, "buyer", "ticket:tier-ga", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, view.Lines[0].Quantity)

	_, err = f.svc.UpdateLine(ctx, "buyer", "ticket:tier-ga", 5)
	assert.ErrorIs(t, err, models.ErrPerOrderLimit)

	_, err = f.svc.UpdateLine(ctx, "buyer", "ticket:unknown", 1)
	assert.ErrorIs(t, err, models.ErrCartLineNotFound)

	_, err = f.svc.UpdateLine(ctx, "buyer", "bogus", 1)
	assert.ErrorIs(t, err, models.ErrCartLineNotFound)

	// The listing is withdrawn: the line disappears on the next read.
	f.items["lamp"].Status = models.ItemStatusRemoved
	view, err = f.svc.Get(ctx, "buyer")
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)

	view, err = f.svc.UpdateLine(ctx, "buyer", "ticket:tier-ga", 0)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.Zero(t, view.SubtotalCents)

	_, err = f.svc.RemoveLine(ctx, "buyer", "ticket:tier-ga")
	assert.ErrorIs(t, err, models.ErrCartLineNotFound)
}
