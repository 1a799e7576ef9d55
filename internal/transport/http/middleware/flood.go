package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// FloodLimiter is a per-IP token-bucket guard applied in front of the
// store-backed throttle. It absorbs raw request floods without a store
// round-trip; stale entries are cleaned up automatically.
type FloodLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiter
	r        rate.Limit
	burst    int
}

// NewFloodLimiter creates a per-IP limiter: r requests/second, burst up to
// burst requests.
func NewFloodLimiter(r rate.Limit, burst int) *FloodLimiter {
	fl := &FloodLimiter{
		limiters: make(map[string]*ipLimiter),
		r:        r,
		burst:    burst,
	}
	go fl.cleanup()
	return fl
}

func (fl *FloodLimiter) get(ip string) *rate.Limiter {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if v, ok := fl.limiters[ip]; ok {
		v.lastSeen = time.Now()
		return v.limiter
	}
	l := rate.NewLimiter(fl.r, fl.burst)
	fl.limiters[ip] = &ipLimiter{limiter: l, lastSeen: time.Now()}
	return l
}

// cleanup removes stale entries every 5 minutes.
func (fl *FloodLimiter) cleanup() {
	for {
		time.Sleep(5 * time.Minute)
		fl.mu.Lock()
		for ip, v := range fl.limiters {
			if time.Since(v.lastSeen) > 10*time.Minute {
				delete(fl.limiters, ip)
			}
		}
		fl.mu.Unlock()
	}
}

// Limit is the middleware handler that enforces the flood limit per remote IP.
func (fl *FloodLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !fl.get(realIP(r)).Allow() {
			writeRateLimited(w, 1)
			return
		}
		next.ServeHTTP(w, r)
	})
}
