package discount

import (
	"context"
	"testing"
	"time"

	"ms-campus/internal/clock"
	"ms-campus/internal/logger"
	"ms-campus/internal/models"
	"ms-campus/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ownedEvents map[string]string

func (o ownedEvents) GetOwnedEvent(_ context.Context, userID, eventID string) (*models.Event, error) {
	owner, ok := o[eventID]
	if !ok {
		return nil, models.ErrEventNotFound
	}
	if owner != userID {
		return nil, models.ErrNotOrganizer
	}
	return &models.Event{ID: eventID, OrganizerID: owner}, nil
}

func newService(t *testing.T) *DiscountService {
	store := &Store{Bun: testutil.NewTestDB(t)}
	events := ownedEvents{"evt-1": "org-1", "evt-2": "org-2"}
	return NewDiscountService(store, events, clock.NewManual(now), logger.NewNop())
}

func request(code string, params models.DiscountParameters) models.PromoRequest {
	return models.PromoRequest{
		Code:       code,
		Parameters: params,
		MaxUsage:   1,
		ActiveFrom: now.Add(-time.Hour),
		ExpiresAt:  now.Add(24 * time.Hour),
	}
}

func TestPromoCRUD(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	req := request("spring25", models.DiscountParameters{Type: models.PERCENTAGE, Percentage: ptr(25.0)})

	_, err := svc.CreatePromo(ctx, "org-2", "evt-1", req)
	assert.ErrorIs(t, err, models.ErrNotOrganizer)

	p, err := svc.CreatePromo(ctx, "org-1", "evt-1", req)
	require.NoError(t, err)
	assert.Equal(t, "SPRING25", p.Code)
	assert.True(t, p.Active)

	_, err = svc.CreatePromo(ctx, "org-1", "evt-1", request("SPRING25", req.Parameters))
	assert.ErrorIs(t, err, models.ErrPromoCodeTaken)

	bad := request("broken", models.DiscountParameters{Type: models.FLAT_OFF})
	_, err = svc.CreatePromo(ctx, "org-1", "evt-1", bad)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	off := false
	req.Active = &off
	updated, err := svc.UpdatePromo(ctx, "org-1", "evt-1", p.ID, req)
	require.NoError(t, err)
	assert.False(t, updated.Active)

	_, err = svc.UpdatePromo(ctx, "org-2", "evt-2", p.ID, req)
	assert.ErrorIs(t, err, models.ErrPromoNotFound)

	list, err := svc.ListPromos(ctx, "org-1", "evt-1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.DeletePromo(ctx, "org-1", "evt-1", p.ID))
	list, err = svc.ListPromos(ctx, "org-1", "evt-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestResolveAndRecordUsage(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.CreatePromo(ctx, "org-1", "evt-1", request("CAMPUS", models.DiscountParameters{Type: models.FLAT_OFF, Amount: ptr(int64(300))}))
	require.NoError(t, err)
	_, err = svc.CreatePromo(ctx, "org-2", "evt-2", request("CAMPUS", models.DiscountParameters{Type: models.PERCENTAGE, Percentage: ptr(50.0)}))
	require.NoError(t, err)

	lines := []models.OrderLine{
		ticketLine("tier-1", 1000, 1),
		{Kind: models.LineKindTicket, RefID: "tier-9", EventID: "evt-2", UnitPriceCents: 2000, Quantity: 1},
	}

	best, cents, err := svc.Resolve(ctx, "campus", lines)
	require.NoError(t, err)
	assert.Equal(t, "evt-2", best.EventID)
	assert.Equal(t, int64(1000), cents)

	_, _, err = svc.Resolve(ctx, "NOPE", lines)
	assert.ErrorIs(t, err, models.ErrPromoInvalid)

	svc.RecordUsage(ctx, best.ID)
	svc.RecordUsage(ctx, best.ID) // past the limit, only logged

	stored, err := svc.Store.Get(ctx, best.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CurrentUsage)

	// evt-2's promo is used up, so evt-1's flat discount is the only one left
	best, cents, err = svc.Resolve(ctx, "CAMPUS", lines)
	require.NoError(t, err)
	assert.Equal(t, "evt-1", best.EventID)
	assert.Equal(t, int64(300), cents)
}
