package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	// Counter store backend: "redis", "dynamo" or "memory".
	CounterBackend string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AWSRegion           string
	AWSEndpointURL      string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID      string
	AWSSecretKey        string
	DynamoCountersTable string

	// Delivery channel for one-time codes: "email" (SMTP) or "sms" (SNS).
	DeliveryChannel string

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	SNSRegion string

	JWTPublicKeyPath string

	// Route-class throttle budgets, all sharing one fixed window.
	ThrottleWindow        time.Duration
	ThrottleGenerateLimit int
	ThrottleSearchLimit   int
	ThrottleDefaultLimit  int

	// In-process flood guard applied ahead of the store-backed throttle.
	FloodRatePerSec float64
	FloodBurst      int

	AllowedOrigins []string // CORS allowed origins
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		CounterBackend: getEnv("COUNTER_BACKEND", "redis"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL:      getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:        getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoCountersTable: getEnv("DYNAMO_TABLE_COUNTERS", "abuse_counters"),

		DeliveryChannel: getEnv("DELIVERY_CHANNEL", "email"),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		SNSRegion: getEnv("SNS_REGION", "us-east-1"),

		JWTPublicKeyPath: getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),

		ThrottleWindow:        time.Duration(getEnvInt("THROTTLE_WINDOW_SECONDS", 60)) * time.Second,
		ThrottleGenerateLimit: getEnvInt("THROTTLE_GENERATE_LIMIT", 10),
		ThrottleSearchLimit:   getEnvInt("THROTTLE_SEARCH_LIMIT", 30),
		ThrottleDefaultLimit:  getEnvInt("THROTTLE_DEFAULT_LIMIT", 100),

		FloodRatePerSec: float64(getEnvInt("FLOOD_RATE_PER_SECOND", 5)),
		FloodBurst:      getEnvInt("FLOOD_BURST", 10),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
