package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"ms-campus/internal/logger"
	"ms-campus/internal/utils"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller as described by the bearer token.
type Identity struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

// TokenVerifier turns a raw bearer token into an Identity.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*Identity, error)
}

// OnAuthenticated runs after a token is verified, before the handler. The
// user directory uses it to upsert the caller's profile.
type OnAuthenticated func(ctx context.Context, id *Identity) error

var ErrNoToken = errors.New("missing bearer token")

// Middleware rejects requests without a valid bearer token.
func Middleware(verifier TokenVerifier, onAuth OnAuthenticated, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawToken, err := ExtractTokenFromRequest(r)
			if err != nil {
				utils.WriteErrorCode(w, http.StatusUnauthorized, utils.CodeUnauthorized, err.Error())
				return
			}

			id, err := verifier.Verify(r.Context(), rawToken)
			if err != nil {
				log.LogSecurity("INVALID_TOKEN", fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
				utils.WriteErrorCode(w, http.StatusUnauthorized, utils.CodeUnauthorized, "invalid token")
				return
			}

			if onAuth != nil {
				if err := onAuth(r.Context(), id); err != nil {
					log.Error("AUTH", fmt.Sprintf("post-auth hook failed for %s: %v", id.Subject, err))
					utils.WriteError(w, err)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// Optional attaches the identity when a valid token is present and lets
// anonymous requests through otherwise.
func Optional(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawToken, err := ExtractTokenFromRequest(r)
			if err == nil {
				if id, err := verifier.Verify(r.Context(), rawToken); err == nil {
					r = r.WithContext(WithIdentity(r.Context(), id))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFrom(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil
}

// Helper to extract user ID in handlers
func UserID(ctx context.Context) string {
	if id, ok := IdentityFrom(ctx); ok {
		return id.Subject
	}
	return ""
}
