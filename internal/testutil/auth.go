package testutil

import (
	"net/http"

	"ms-campus/internal/auth"
)

// UserHeader carries the caller's subject in handler tests.
const UserHeader = "X-Test-User"

// FakeAuth authenticates requests as the subject in UserHeader and rejects
// requests without one.
func FakeAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub := r.Header.Get(UserHeader)
		if sub == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		id := &auth.Identity{Subject: sub, Email: sub + "@uni.test"}
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	})
}

// FakeOptional attaches the identity when UserHeader is set and lets
// anonymous requests through.
func FakeOptional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sub := r.Header.Get(UserHeader); sub != "" {
			r = r.WithContext(auth.WithIdentity(r.Context(), &auth.Identity{Subject: sub}))
		}
		next.ServeHTTP(w, r)
	})
}
