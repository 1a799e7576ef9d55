package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes and stable
// error codes without leaking infrastructure details.
var (
	ErrValidation           = errors.New("validation failed")
	ErrRateLimited          = errors.New("rate limited")
	ErrCooldown             = errors.New("otp cooldown active")
	ErrSpamLocked           = errors.New("too many otp requests")
	ErrAccountLocked        = errors.New("account locked")
	ErrIncorrectCode        = errors.New("incorrect otp")
	ErrExpiredOrInvalidCode = errors.New("otp expired or invalid")
	ErrDelivery             = errors.New("otp delivery failed")
	ErrStoreUnavailable     = errors.New("counter store unavailable")
)

// IncorrectCodeError reports a failed verification attempt together with the
// number of attempts the caller has left before the account is locked.
// It unwraps to ErrIncorrectCode so errors.Is keeps working.
type IncorrectCodeError struct {
	AttemptsLeft int
}

func (e *IncorrectCodeError) Error() string {
	return fmt.Sprintf("incorrect otp, %d attempts left", e.AttemptsLeft)
}

func (e *IncorrectCodeError) Unwrap() error { return ErrIncorrectCode }
