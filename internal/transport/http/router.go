package http

import (
	"net/http"

	"github.com/abuse-guard/internal/application/otp"
	"github.com/abuse-guard/internal/application/throttle"
	"github.com/abuse-guard/internal/config"
	"github.com/abuse-guard/internal/transport/http/handler"
	appmiddleware "github.com/abuse-guard/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	throttleSvc := throttle.NewService(deps.Store)
	otpSvc := otp.NewService(deps.Store, deps.Sender, deps.Auditor, deps.OTPConfig)

	// Route-class budgets. The search class is consumed by the identity
	// service's own lookup routes when it mounts this throttle.
	generateClass := throttle.Limit{Limit: cfg.ThrottleGenerateLimit, Window: cfg.ThrottleWindow}
	defaultClass := throttle.Limit{Limit: cfg.ThrottleDefaultLimit, Window: cfg.ThrottleWindow}

	flood := appmiddleware.NewFloodLimiter(rate.Limit(cfg.FloodRatePerSec), cfg.FloodBurst)
	identity := appmiddleware.Identity(deps.JWTProvider)

	healthH := handler.NewHealthHandler(deps.StorePinger)
	otpH := handler.NewOTPHandler(otpSvc)

	r.Route("/v1", func(r chi.Router) {
		r.With(appmiddleware.Throttle(throttleSvc, defaultClass, deps.Auditor)).
			Get("/health-check", healthH.Ping)

		// OTP routes: flood guard first, then caller identification,
		// then the store-backed generate-class throttle.
		r.Group(func(r chi.Router) {
			r.Use(flood.Limit)
			r.Use(identity)
			r.Use(appmiddleware.Throttle(throttleSvc, generateClass, deps.Auditor))

			r.Post("/otp/request", otpH.Request)
			r.Post("/otp/verify", otpH.Verify)
		})
	})

	return r
}
