package middleware

import (
	"context"
	"net/http"
	"strings"

	jwtinfra "github.com/abuse-guard/internal/infrastructure/jwt"
)

type contextKey string

const ClaimsKey contextKey = "claims"

// Identity returns middleware that parses an optional Bearer JWT and injects
// its claims into the context. It identifies, it does not authenticate: a
// missing or invalid token just means throttling keys on the network origin
// instead of the caller's id.
func Identity(provider *jwtinfra.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if provider == nil || !strings.HasPrefix(authHeader, "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := provider.Verify(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext extracts JWT claims from the request context.
func ClaimsFromContext(ctx context.Context) (*jwtinfra.Claims, bool) {
	c, ok := ctx.Value(ClaimsKey).(*jwtinfra.Claims)
	return c, ok
}
