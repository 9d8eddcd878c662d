package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ms-campus/internal/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestHMACVerifierRoundTrip(t *testing.T) {
	token, err := IssueDevToken(testSecret, Identity{Subject: "user-1", Email: "a@uni.edu", Name: "Ada"}, time.Hour)
	require.NoError(t, err)

	id, err := NewHMACVerifier(testSecret).Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.Subject)
	assert.Equal(t, "a@uni.edu", id.Email)
	assert.Equal(t, "Ada", id.Name)
}

func TestHMACVerifierRejectsBadTokens(t *testing.T) {
	v := NewHMACVerifier(testSecret)

	wrongKey, err := IssueDevToken("other", Identity{Subject: "user-1"}, time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), wrongKey)
	assert.Error(t, err)

	expired, err := IssueDevToken(testSecret, Identity{Subject: "user-1"}, -time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), expired)
	assert.Error(t, err)

	noSubject, err := IssueDevToken(testSecret, Identity{}, time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), noSubject)
	assert.Error(t, err)
}

func TestExtractTokenFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := ExtractTokenFromRequest(req)
	assert.ErrorIs(t, err, ErrNoToken)

	req.Header.Set("Authorization", "Token abc")
	_, err = ExtractTokenFromRequest(req)
	assert.Error(t, err)

	req.Header.Set("Authorization", "bearer abc")
	tok, err := ExtractTokenFromRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)
}

func TestMiddleware(t *testing.T) {
	var hooked string
	mw := Middleware(NewHMACVerifier(testSecret), func(ctx context.Context, id *Identity) error {
		hooked = id.Subject
		return nil
	}, logger.NewNop())

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(UserID(r.Context())))
	}))

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := IssueDevToken(testSecret, Identity{Subject: "user-7"}, time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-7", rec.Body.String())
		assert.Equal(t, "user-7", hooked)
	})
}

func TestOptionalMiddlewareAllowsAnonymous(t *testing.T) {
	handler := Optional(NewHMACVerifier(testSecret))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("uid=" + UserID(r.Context())))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "uid=", rec.Body.String())
}

type countingVerifier struct {
	calls int
}

func (c *countingVerifier) Verify(_ context.Context, raw string) (*Identity, error) {
	c.calls++
	if raw == "bad" {
		return nil, errors.New("bad token")
	}
	return &Identity{Subject: "sub-" + raw}, nil
}

func TestCachingVerifier(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	next := &countingVerifier{}
	v := NewCachingVerifier(client, next, time.Minute)
	ctx := context.Background()

	id, err := v.Verify(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "sub-abc", id.Subject)

	id, err = v.Verify(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "sub-abc", id.Subject)
	assert.Equal(t, 1, next.calls)

	_, err = v.Verify(ctx, "bad")
	assert.Error(t, err)

	mr.FastForward(2 * time.Minute)
	_, err = v.Verify(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, 3, next.calls)
}
