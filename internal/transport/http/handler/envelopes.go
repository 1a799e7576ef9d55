package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/abuse-guard/internal/domain"
)

// APIError is the error half of the response envelope, carrying a stable
// machine-readable code alongside the human message.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RetryAfter   int    `json:"retryAfter,omitempty"`
	AttemptsLeft *int   `json:"attemptsLeft,omitempty"`
}

// Envelope is the generic response wrapper.
type Envelope struct {
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Envelope{Success: true, Message: msg})
}

func writeError(w http.ResponseWriter, status int, apiErr APIError) {
	writeJSON(w, status, Envelope{Success: false, Error: &apiErr})
}

// httpError maps domain errors to HTTP status codes, stable error codes and
// user-facing messages. Every denial tells the caller what to do next
// without revealing whether the account exists.
func httpError(w http.ResponseWriter, err error) {
	var incorrect *domain.IncorrectCodeError
	switch {
	case errors.As(err, &incorrect):
		left := incorrect.AttemptsLeft
		writeError(w, http.StatusBadRequest, APIError{
			Code:         "INCORRECT_CODE",
			Message:      fmt.Sprintf("Incorrect OTP! You have %d attempt(s) left.", left),
			AttemptsLeft: &left,
		})
	case errors.Is(err, domain.ErrCooldown):
		writeError(w, http.StatusBadRequest, APIError{
			Code:    "COOLDOWN",
			Message: "Please wait 1 minute before requesting a new OTP!",
		})
	case errors.Is(err, domain.ErrSpamLocked):
		writeError(w, http.StatusBadRequest, APIError{
			Code:    "SPAM_LOCKED",
			Message: "Too many OTP requests! Please wait 1 hour before requesting again.",
		})
	case errors.Is(err, domain.ErrAccountLocked):
		writeError(w, http.StatusBadRequest, APIError{
			Code:    "ACCOUNT_LOCKED",
			Message: "Account locked due to multiple failed attempts! Try again after 30 minutes.",
		})
	case errors.Is(err, domain.ErrExpiredOrInvalidCode):
		writeError(w, http.StatusBadRequest, APIError{
			Code:    "EXPIRED_OR_INVALID_CODE",
			Message: "OTP expired or invalid! Please request a new one.",
		})
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, APIError{
			Code:    "VALIDATION_ERROR",
			Message: err.Error(),
		})
	case errors.Is(err, domain.ErrDelivery):
		writeError(w, http.StatusBadGateway, APIError{
			Code:    "DELIVERY_ERROR",
			Message: "Could not send OTP. Please try again later.",
		})
	case errors.Is(err, domain.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, APIError{
			Code:    "STORE_UNAVAILABLE",
			Message: "Service temporarily unavailable. Please try again later.",
		})
	default:
		writeError(w, http.StatusInternalServerError, APIError{
			Code:    "INTERNAL",
			Message: "Something went wrong.",
		})
	}
}
