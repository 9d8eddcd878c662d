package user_api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ms-campus/internal/auth"
	"ms-campus/internal/clock"
	"ms-campus/internal/logger"
	"ms-campus/internal/testutil"
	"ms-campus/internal/users/db"
	users "ms-campus/internal/users/service"
	"ms-campus/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (http.Handler, *users.UserService) {
	svc := users.NewUserService(&db.DB{Bun: testutil.NewTestDB(t)}, clock.NewSystem(), logger.NewNop())
	h := NewHandler(svc, logger.NewNop())

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) { h.RegisterRoutes(r, testutil.FakeAuth) })
	return r, svc
}

func TestUpdateMeValidation(t *testing.T) {
	router, svc := setupRouter(t)
	require.NoError(t, svc.EnsureUser(context.Background(), &auth.Identity{Subject: "u1", Email: "u1@uni.edu"}))

	req := httptest.NewRequest(http.MethodPut, "/api/users/me", strings.NewReader(`{"display_name":"","avatar_url":"ftp://x"}`))
	req.Header.Set(testutil.UserHeader, "u1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	req = httptest.NewRequest(http.MethodPut, "/api/users/me", strings.NewReader(`{"display_name":"Uno","bio":"hello"}`))
	req.Header.Set(testutil.UserHeader, "u1")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Uno", resp.Data.(map[string]interface{})["display_name"])
}

func TestGetProfileNotFound(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/users/ghost", nil)
	req.Header.Set(testutil.UserHeader, "u1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
