package item_api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ms-campus/internal/clock"
	"ms-campus/internal/logger"
	"ms-campus/internal/marketplace/db"
	marketplace "ms-campus/internal/marketplace/service"
	"ms-campus/internal/testutil"
	"ms-campus/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) http.Handler {
	svc := marketplace.NewMarketplaceService(&db.DB{Bun: testutil.NewTestDB(t)},
		clock.NewManual(time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)), logger.NewNop(), "usd")
	r := chi.NewRouter()
	r.Use(testutil.FakeOptional)
	r.Route("/api", func(r chi.Router) {
		NewHandler(svc, logger.NewNop()).RegisterRoutes(r, testutil.FakeAuth)
	})
	return r
}

func do(t *testing.T, router http.Handler, method, path, user, body string) (int, utils.APIResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if user != "" {
		req.Header.Set(testutil.UserHeader, user)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	var resp utils.APIResponse
	if rec.Code != http.StatusUnauthorized {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec.Code, resp
}

func TestItemEndpoints(t *testing.T) {
	router := setupRouter(t)
	body := `{"title":"Desk chair","category":"furniture","condition":"like_new","price_cents":3500,"quantity":1}`

	code, _ := do(t, router, http.MethodPost, "/api/items", "", body)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, resp := do(t, router, http.MethodPost, "/api/items", "seller", body)
	require.Equal(t, http.StatusCreated, code)
	id := resp.Data.(map[string]interface{})["id"].(string)

	code, resp = do(t, router, http.MethodGet, "/api/items?category=furniture&max_price=4000&sort=price_desc", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, resp.Data.(map[string]interface{})["total"])

	code, _ = do(t, router, http.MethodGet, "/api/items?min_price=abc", "", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, router, http.MethodGet, "/api/items?sort=random", "", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = do(t, router, http.MethodGet, "/api/items/me", "seller", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, resp.Data, 1)

	code, _ = do(t, router, http.MethodDelete, "/api/items/"+id, "someone", "")
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = do(t, router, http.MethodDelete, "/api/items/"+id, "seller", "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = do(t, router, http.MethodGet, "/api/items/"+id, "", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCreateItemValidation(t *testing.T) {
	router := setupRouter(t)
	images := `["https://a.test/1","https://a.test/2","https://a.test/3","https://a.test/4","https://a.test/5","https://a.test/6","https://a.test/7","https://a.test/8","https://a.test/9"]`
	body := `{"title":"ok title","category":"x","condition":"broken","price_cents":-1,"quantity":0,"image_urls":` + images + `}`

	code, resp := do(t, router, http.MethodPost, "/api/items", "seller", body)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Len(t, resp.Fields, 4)
}
