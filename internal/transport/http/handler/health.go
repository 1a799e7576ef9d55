package handler

import (
	"context"
	"net/http"
	"time"
)

// StorePinger is implemented by counter store backends that can report
// connectivity.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles the health-check endpoint.
type HealthHandler struct {
	store StorePinger // nil when the backend has no ping
}

func NewHealthHandler(store StorePinger) *HealthHandler {
	return &HealthHandler{store: store}
}

func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, APIError{
				Code:    "STORE_UNAVAILABLE",
				Message: "counter store unreachable",
			})
			return
		}
	}
	writeMessage(w, http.StatusOK, "ok")
}
