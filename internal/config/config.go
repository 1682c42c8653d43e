package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server       ServerConfig
	Gateway      GatewayConfig
	Session      SessionConfig
	Stripe       StripeConfig
	OrderBackend OrderBackendConfig
	CORS         CORSConfig
}

type ServerConfig struct {
	Port string
	Host string
	Env  string
}

// GatewayConfig configures the resilient content gateway. The proxy endpoint
// is tried first on every request; the origin is the fallback.
type GatewayConfig struct {
	ProxyURL       string
	OriginURL      string
	AttemptTimeout time.Duration
	BackoffUnit    time.Duration
}

type SessionConfig struct {
	Secret string
}

type StripeConfig struct {
	SecretKey string
	PublicKey string
	BaseURL   string
}

// OrderBackendConfig points at the legacy cart/checkout backend. EventsURL
// is where buyers with no tickets picked are sent back to.
type OrderBackendConfig struct {
	CheckoutURL string
	EventsURL   string
}

type CORSConfig struct {
	AllowedOrigins []string
}

func Load() (*Config, error) {
	// Load .env files if they exist (try .env.local first, then .env)
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "localhost"),
			Env:  getEnv("ENV", "development"),
		},
		Gateway: GatewayConfig{
			ProxyURL:       getEnv("GATEWAY_PROXY_URL", "https://content-cache.jvs.org.uk/graphql"),
			OriginURL:      getEnv("GATEWAY_ORIGIN_URL", "https://cms.jvs.org.uk/graphql"),
			AttemptTimeout: getEnvAsDuration("GATEWAY_ATTEMPT_TIMEOUT", 15*time.Second),
			BackoffUnit:    getEnvAsDuration("GATEWAY_BACKOFF_UNIT", time.Second),
		},
		Session: SessionConfig{
			Secret: getEnv("SESSION_SECRET", "your-secret-key-change-in-production"),
		},
		Stripe: StripeConfig{
			SecretKey: getEnv("STRIPE_SECRET_KEY", ""),
			PublicKey: getEnv("STRIPE_PUBLIC_KEY", ""),
			BaseURL:   getEnv("STRIPE_BASE_URL", "https://api.stripe.com"),
		},
		OrderBackend: OrderBackendConfig{
			CheckoutURL: getEnv("ORDER_BACKEND_URL", "https://cms.jvs.org.uk/wp-admin/admin-ajax.php?action=jvs_checkout"),
			EventsURL:   getEnv("EVENTS_LISTING_URL", "/events"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"https://jvs.org.uk"}),
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
