package redis

import (
	"context"
	"testing"
	"time"

	"ms-campus/internal/models"
	"ms-campus/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressStoreRoundTrip(t *testing.T) {
	client, mr := testutil.NewTestRedis(t)
	store := NewProgressStore(client)
	ctx := context.Background()
	at := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)

	steps, updated, err := store.Load(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, steps[models.StepBuild])
	assert.True(t, updated.IsZero())

	require.NoError(t, store.Save(ctx, "evt-1", map[models.WizardStep]bool{
		models.StepBuild:   true,
		models.StepTickets: false,
	}, at))

	steps, updated, err = store.Load(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, steps[models.StepBuild])
	assert.False(t, steps[models.StepTickets])
	assert.False(t, steps[models.StepPublish])
	assert.True(t, updated.Equal(at))

	assert.Equal(t, ProgressTTL, mr.TTL("event_progress:evt-1"))

	mr.FastForward(ProgressTTL + time.Second)
	steps, _, err = store.Load(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, steps[models.StepBuild])
}

func TestProgressStoreDelete(t *testing.T) {
	client, mr := testutil.NewTestRedis(t)
	store := NewProgressStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "evt-2", map[models.WizardStep]bool{models.StepBuild: true}, time.Now()))
	require.NoError(t, store.Delete(ctx, "evt-2"))
	assert.False(t, mr.Exists("event_progress:evt-2"))
}
