package middleware

import (
	"encoding/json"
	"net/http"
)

type errorBody struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

type errorEnvelope struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

// writeRateLimited writes the structured 429 denial with the correct
// Content-Type.
func writeRateLimited(w http.ResponseWriter, retryAfter int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(errorEnvelope{
		Success: false,
		Error: errorBody{
			Code:       "RATE_LIMITED",
			Message:    "Too many requests! Please try again later.",
			RetryAfter: retryAfter,
		},
	})
}
