package users

import (
	"context"
	"testing"
	"time"

	"ms-campus/internal/auth"
	"ms-campus/internal/clock"
	"ms-campus/internal/logger"
	"ms-campus/internal/models"
	"ms-campus/internal/testutil"
	"ms-campus/internal/users/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*UserService, *clock.Manual) {
	clk := clock.NewManual(time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC))
	return NewUserService(&db.DB{Bun: testutil.NewTestDB(t)}, clk, logger.NewNop()), clk
}

func TestEnsureUserCreatesThenSyncsEmail(t *testing.T) {
	svc, clk := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureUser(ctx, &auth.Identity{Subject: "s1", Email: "ada@uni.edu"}))

	me, err := svc.GetMe(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "ada", me.DisplayName)

	_, err = svc.UpdateProfile(ctx, "s1", models.UpdateProfileRequest{DisplayName: "Ada L."})
	require.NoError(t, err)

	clk.Advance(time.Hour)
	require.NoError(t, svc.EnsureUser(ctx, &auth.Identity{Subject: "s1", Email: "ada@new.edu", Name: "Token Name"}))

	me, err = svc.GetMe(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "ada@new.edu", me.Email)
	assert.Equal(t, "Ada L.", me.DisplayName)
	assert.True(t, me.UpdatedAt.Equal(clk.Now()))
}

func TestPublicProfileHidesPrivateFields(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureUser(ctx, &auth.Identity{Subject: "s2", Email: "bo@uni.edu", Name: "Bo"}))
	_, err := svc.UpdateProfile(ctx, "s2", models.UpdateProfileRequest{DisplayName: "Bo", University: "State U", Bio: "hi"})
	require.NoError(t, err)

	profile, err := svc.GetPublicProfile(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, models.PublicProfile{ID: "s2", DisplayName: "Bo", University: "State U"}, *profile)

	_, err = svc.GetPublicProfile(ctx, "nobody")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
