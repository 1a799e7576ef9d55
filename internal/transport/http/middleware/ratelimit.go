package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/abuse-guard/internal/application/throttle"
	"github.com/abuse-guard/internal/audit"
)

// Throttle enforces the store-backed fixed-window limit for the route it
// wraps. The window is keyed by (identifier, endpoint path); the identifier
// is the authenticated caller when known, else the network origin.
//
// Denials get the structured 429 body plus Retry-After; allowed requests
// carry X-RateLimit metadata headers. auditor may be nil.
func Throttle(svc *throttle.Service, limit throttle.Limit, auditor *audit.Dispatcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identifier := identifierFor(r)
			res := svc.Check(r.Context(), identifier, r.URL.Path, limit)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed {
				if auditor != nil {
					auditor.Emit(audit.EventRateLimited, identifier, r.URL.Path)
				}
				w.Header().Set("Retry-After", strconv.Itoa(res.RetryAfter))
				writeRateLimited(w, res.RetryAfter)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// identifierFor resolves the throttle identifier: authenticated id, else
// network origin, else the anonymous sentinel.
func identifierFor(r *http.Request) string {
	if claims, ok := ClaimsFromContext(r.Context()); ok && claims.UserID != "" {
		return claims.UserID
	}
	if ip := realIP(r); ip != "" {
		return ip
	}
	return "anonymous"
}

// realIP extracts the originating client IP, preferring proxy headers.
func realIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xr := r.Header.Get("X-Real-Ip"); xr != "" {
		return xr
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
