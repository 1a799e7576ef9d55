package http

import (
	"github.com/abuse-guard/internal/application/otp"
	"github.com/abuse-guard/internal/audit"
	"github.com/abuse-guard/internal/counter"
	jwtinfra "github.com/abuse-guard/internal/infrastructure/jwt"
	"github.com/abuse-guard/internal/transport/http/handler"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	Store       counter.Store
	StorePinger handler.StorePinger // nil when the backend has no ping
	Sender      otp.Sender
	JWTProvider *jwtinfra.Provider // nil disables caller identification
	Auditor     *audit.Dispatcher  // nil disables the abuse trail
	OTPConfig   otp.Config
}
