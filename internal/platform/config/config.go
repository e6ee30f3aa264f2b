package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures everything the server needs from the environment.
type Config struct {
	Addr        string
	DatabaseURL string
	Redis       RedisConfig

	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
	JWTTTL        time.Duration

	AdminToken string

	Paystack PaystackConfig

	// ApplicationFee is the fixed certificate fee in Naira (major units).
	ApplicationFee int64
}

// RedisConfig holds connection settings for the dashboard view cache.
// An empty URL means Redis is not configured and caching is disabled.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PaystackConfig holds credentials and endpoints for the payment gateway.
type PaystackConfig struct {
	SecretKey   string
	BaseURL     string
	CallbackURL string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Addr:        envOr("SOO_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		// Default for development - must be overridden in production.
		JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:     envOr("JWT_ISSUER", "soo-portal"),
		JWTAudience:   envOr("JWT_AUDIENCE", "soo-portal-web"),
		JWTTTL:        envDuration("JWT_TTL", time.Hour),
		AdminToken:    envOr("ADMIN_TOKEN", "dev-admin-token"),
		Paystack: PaystackConfig{
			SecretKey:   os.Getenv("PAYSTACK_SECRET_KEY"),
			BaseURL:     envOr("PAYSTACK_BASE_URL", "https://api.paystack.co"),
			CallbackURL: envOr("PAYMENT_CALLBACK_URL", "http://localhost:3000/payment/verify"),
		},
		ApplicationFee: envInt64("APPLICATION_FEE", 10000),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
