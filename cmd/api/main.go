package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abuse-guard/internal/application/otp"
	"github.com/abuse-guard/internal/audit"
	"github.com/abuse-guard/internal/config"
	"github.com/abuse-guard/internal/counter"
	"github.com/abuse-guard/internal/infrastructure/dynamo"
	jwtinfra "github.com/abuse-guard/internal/infrastructure/jwt"
	"github.com/abuse-guard/internal/infrastructure/redisstore"
	"github.com/abuse-guard/internal/infrastructure/smtp"
	"github.com/abuse-guard/internal/infrastructure/sns"
	transporthttp "github.com/abuse-guard/internal/transport/http"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Counter store backend.
	var store counter.Store
	var pinger interface {
		Ping(ctx context.Context) error
	}
	switch cfg.CounterBackend {
	case "dynamo":
		client := dynamo.NewClient(cfg)
		dynamo.Bootstrap(context.Background(), client, cfg.DynamoCountersTable)
		store = dynamo.NewStore(client, cfg.DynamoCountersTable)
	case "memory":
		log.Println("WARN: memory counter store selected; limits are per-instance only")
		store = counter.NewMemory()
	default:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		rs := redisstore.New(rdb)
		store = rs
		pinger = rs
	}

	// Delivery channel.
	var sender otp.Sender
	if cfg.DeliveryChannel == "sms" {
		s, err := sns.NewSender(cfg)
		if err != nil {
			log.Fatalf("SNS sender not available: %v", err)
		}
		sender = s
	} else {
		sender = smtp.NewMailer(cfg)
	}

	// JWT provider (optional — graceful fallback to IP identification).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	auditor := audit.NewDispatcher(slog.Default(), 256)
	defer auditor.Close()

	deps := &transporthttp.Deps{
		Store:       store,
		Sender:      sender,
		JWTProvider: jwtProvider,
		Auditor:     auditor,
		OTPConfig:   otp.DefaultConfig(),
	}
	if pinger != nil {
		deps.StorePinger = pinger
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s, backend=%s)", cfg.AppPort, cfg.AppEnv, cfg.CounterBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
