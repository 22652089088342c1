package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env           string
	LogLevel      string
	Port          uint16
	BaseURL       string
	SessionSecret string
	CookieSecure  bool
	AppIdentifier string
	ClientAPI     ClientAPIConfig
	Checkout      CheckoutConfig
	Metrics       MetricsConfig
	Sentry        SentryConfig
}

// ClientAPIConfig controls how checkout sessions reach the payment platform.
type ClientAPIConfig struct {
	// Mock serves the built-in sample catalog instead of calling the
	// client API. The URLs entered on the start screen are then ignored.
	Mock bool

	// Timeout bounds every client API request.
	Timeout time.Duration

	// Locale is sent as device information in encrypted payloads.
	Locale string
}

// CheckoutConfig holds card form and flow settings.
type CheckoutConfig struct {
	// CardPrefixLength is the number of card digits that trigger a product lookup.
	CardPrefixLength int

	// FlowTTL is how long an idle checkout flow is kept.
	FlowTTL time.Duration

	// SweepInterval is how often expired flows are removed.
	SweepInterval time.Duration

	// MessagesFile optionally overrides validation messages (JSON object).
	MessagesFile string
}

type MetricsConfig struct {
	Namespace string
}

// SentryConfig holds configuration for Sentry error tracking
type SentryConfig struct {
	DSN              string
	Enabled          bool
	Environment      string
	Release          string
	SampleRate       float64
	TracesSampleRate float64
	Debug            bool
}

func NewConfig() (*Config, error) {
	// Try to load .env from current directory, then walk up to find it (max 2 levels)
	err := godotenv.Load()
	if err != nil {
		dir, _ := os.Getwd()
		found := false
		for i := 0; i < 2; i++ {
			dir = filepath.Join(dir, "..")
			if err := godotenv.Load(filepath.Join(dir, ".env")); err == nil {
				found = true
				break
			}
		}
		if !found {
			slog.Default().Warn("Warning: .env file not found, using environment variables and defaults")
		}
	}

	cfg := &Config{
		Env:           getEnv("ENV", "dev"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		Port:          getEnvInt("PORT", 3000),
		BaseURL:       getEnv("BASE_URL", "http://localhost:3000"),
		SessionSecret: getEnv("SESSION_SECRET", "dev-secret-change-in-production"),
		CookieSecure:  getEnvBool("COOKIE_SECURE", false),
		AppIdentifier: getEnv("APP_IDENTIFIER", "Go Example Application/v1.0.0"),
		ClientAPI: ClientAPIConfig{
			Mock:    getEnvBool("CLIENT_API_MOCK", true),
			Timeout: time.Duration(getEnvInt("CLIENT_API_TIMEOUT_SECONDS", 30)) * time.Second,
			Locale:  getEnv("CLIENT_API_LOCALE", "en_GB"),
		},
		Checkout: CheckoutConfig{
			CardPrefixLength: int(getEnvInt("CARD_PREFIX_LENGTH", 6)),
			FlowTTL:          time.Duration(getEnvInt("FLOW_TTL_MINUTES", 30)) * time.Minute,
			SweepInterval:    time.Duration(getEnvInt("FLOW_SWEEP_INTERVAL_SECONDS", 60)) * time.Second,
			MessagesFile:     getEnv("MESSAGES_FILE", ""),
		},
		Metrics: MetricsConfig{
			Namespace: getEnv("METRICS_NAMESPACE", "onlinepayments"),
		},
		Sentry: SentryConfig{
			DSN:              getEnv("SENTRY_DSN", ""),
			Enabled:          getEnvBool("SENTRY_ENABLED", false), // Disabled by default for development
			Environment:      getEnv("SENTRY_ENVIRONMENT", "development"),
			Release:          getEnv("SENTRY_RELEASE", ""),
			SampleRate:       getEnvFloat("SENTRY_SAMPLE_RATE", 1.0),
			TracesSampleRate: getEnvFloat("SENTRY_TRACES_SAMPLE_RATE", 0.0),
			Debug:            getEnvBool("SENTRY_DEBUG", false),
		},
	}

	// Validate env
	validEnv := cfg.Env == "dev" || cfg.Env == "prod"
	if !validEnv {
		slog.Default().Warn("Invalid environment. Using default: prod", slog.String("env", cfg.Env))
		cfg.Env = "prod"
	}

	// Validate log level
	validLevel := cfg.LogLevel == "info" || cfg.LogLevel == "debug" || cfg.LogLevel == "warn" || cfg.LogLevel == "error"
	if !validLevel {
		slog.Default().Warn("Invalid log level. Using default: info", slog.String("value", cfg.LogLevel))
		cfg.LogLevel = "info"
	}

	if cfg.Checkout.CardPrefixLength < 1 {
		slog.Default().Warn("Invalid card prefix length. Using default: 6", slog.Int("value", cfg.Checkout.CardPrefixLength))
		cfg.Checkout.CardPrefixLength = 6
	}

	// Signed preference cookies need a real secret in production
	if cfg.Env == "prod" && cfg.SessionSecret == "dev-secret-change-in-production" {
		return nil, fmt.Errorf("SESSION_SECRET must be set in production environment")
	}

	if cfg.Env == "prod" && cfg.ClientAPI.Mock {
		slog.Default().Warn("CLIENT_API_MOCK is enabled in production; no real payment platform is called")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue uint16) uint16 {
	if value := os.Getenv(key); value != "" {
		var intValue uint16
		if _, err := fmt.Sscanf(value, "%d", &intValue); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var floatValue float64
		if _, err := fmt.Sscanf(value, "%f", &floatValue); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
