package media_api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"ms-campus/internal/clock"
	"ms-campus/internal/logger"
	"ms-campus/internal/media"
	"ms-campus/internal/testutil"
	"ms-campus/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct{ deleted []string }

func (m *memStore) PresignPut(_ context.Context, key, _ string, _ int64, _ time.Duration) (*media.PresignedRequest, error) {
	return &media.PresignedRequest{URL: "https://signed.example/" + key, Method: http.MethodPut, Headers: http.Header{}}, nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	return nil
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

func TestMediaEndpoints(t *testing.T) {
	store := &memStore{}
	svc := media.NewMediaService(store, "https://cdn.campus.test", 1024, 15*time.Minute,
		clock.NewManual(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)), logger.NewNop())
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		NewHandler(svc, logger.NewNop()).RegisterRoutes(r, testutil.FakeAuth)
	})

	body := `{"kind":"item","content_type":"image/jpeg","size":512}`
	code, _ := do(t, r, http.MethodPost, "/api/media/uploads", "", body)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, resp := do(t, r, http.MethodPost, "/api/media/uploads", "alice", body)
	require.Equal(t, http.StatusCreated, code)
	publicURL := resp.Data.(map[string]interface{})["public_url"].(string)
	assert.True(t, strings.HasPrefix(publicURL, "https://cdn.campus.test/item/alice/"))

	code, _ = do(t, r, http.MethodPost, "/api/media/uploads", "alice", `{"kind":"item","content_type":"image/jpeg","size":4096}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, r, http.MethodPost, "/api/media/uploads", "alice", `{"kind":"poster","content_type":"image/jpeg","size":10}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = do(t, r, http.MethodDelete, "/api/media", "alice", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, r, http.MethodDelete, "/api/media?url="+url.QueryEscape(publicURL), "bob", "")
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = do(t, r, http.MethodDelete, "/api/media?url="+url.QueryEscape(publicURL), "alice", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, store.deleted, 1)
}
