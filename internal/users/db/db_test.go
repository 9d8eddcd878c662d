package db_test

import (
	"context"
	"testing"
	"time"

	"ms-campus/internal/models"
	"ms-campus/internal/testutil"
	"ms-campus/internal/users/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGetUpdateUser(t *testing.T) {
	userDB := &db.DB{Bun: testutil.NewTestDB(t)}
	ctx := context.Background()
	now := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

	user := &models.User{ID: "sub-1", Email: "a@uni.edu", DisplayName: "Ada", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, userDB.CreateUser(ctx, user))

	// A second insert for the same subject is ignored.
	dup := &models.User{ID: "sub-1", Email: "other@uni.edu", DisplayName: "Other", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, userDB.CreateUser(ctx, dup))

	got, err := userDB.GetUserByID(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.DisplayName)
	assert.Equal(t, "a@uni.edu", got.Email)

	got.Bio = "CS student"
	require.NoError(t, userDB.UpdateUser(ctx, got))

	got, err = userDB.GetUserByID(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, "CS student", got.Bio)
}

func TestGetUserNotFound(t *testing.T) {
	userDB := &db.DB{Bun: testutil.NewTestDB(t)}

	_, err := userDB.GetUserByID(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrUserNotFound)

	err = userDB.UpdateUser(context.Background(), &models.User{ID: "missing"})
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}
