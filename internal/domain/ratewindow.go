package domain

import "time"

// RateWindow is the durable fixed-window record kept per
// (identifier, endpoint) pair. It is serialized as JSON into the counter
// store under the key "<identifier>:<endpoint>".
type RateWindow struct {
	Count       int   `json:"count"`
	WindowStart int64 `json:"window_start"` // unix milliseconds
}

// StartedAt returns the window start as a time.Time.
func (w RateWindow) StartedAt() time.Time {
	return time.UnixMilli(w.WindowStart)
}

// Stale reports whether the window has aged out and must be replaced.
func (w RateWindow) Stale(now time.Time, window time.Duration) bool {
	return now.Sub(w.StartedAt()) >= window
}

// ResetAt returns the instant the window rolls over.
func (w RateWindow) ResetAt(window time.Duration) time.Time {
	return w.StartedAt().Add(window)
}
