// Package config handles application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Provider names accepted in FACESWAP_PROVIDER.
const (
	ProviderGemini    = "gemini"
	ProviderReplicate = "replicate"
	ProviderWaveSpeed = "wavespeed"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Port    int
	BaseURL string

	// Database
	DatabaseURL string

	// Authentication
	JWTSecret    string
	AdminKeyHash string // bcrypt hash of the admin API key

	// Face-swap provider selection and vendor credentials
	Provider        string // gemini | replicate | wavespeed
	GeminiAPIKey    string
	GeminiModel     string
	GeminiRetries   int           // retries after the first attempt when no image comes back
	GeminiRetryWait time.Duration // delay between retries
	ReplicateToken  string
	ReplicateModel  string
	WaveSpeedKey    string
	WaveSpeedURL    string

	// Swap economics
	SwapCost     int64 // credits debited per paid swap
	SignupCredits int64 // bonus granted on account creation

	// Billing webhooks
	StripeWebhookSecret   string
	IdentityWebhookSecret string // Svix signing secret for identity-provider events

	// CORS
	CORSOrigins []string

	// Object Storage (S3-compatible)
	StorageEnabled  bool
	StorageEndpoint string
	StorageAccessKey string
	StorageSecretKey string
	StorageBucket   string
	StorageRegion   string
	StoragePublicURL string // base URL under which uploaded keys are publicly reachable

	// Rate limit sweep
	RateLimitSweepInterval time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		DatabaseURL: getEnv("DATABASE_URL", "file:faceforge.db?_journal=WAL&_timeout=5000"),

		JWTSecret:    getEnv("JWT_SECRET", ""),
		AdminKeyHash: getEnv("ADMIN_KEY_HASH", ""),

		Provider:        strings.ToLower(getEnv("FACESWAP_PROVIDER", ProviderGemini)),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.5-flash-image"),
		GeminiRetries:   getEnvInt("GEMINI_RETRIES", 2),
		GeminiRetryWait: getEnvDuration("GEMINI_RETRY_WAIT", 2*time.Second),
		ReplicateToken:  getEnv("REPLICATE_API_TOKEN", ""),
		ReplicateModel:  getEnv("REPLICATE_MODEL", "cdingram/face-swap"),
		WaveSpeedKey:    getEnv("WAVESPEED_API_KEY", ""),
		WaveSpeedURL:    getEnv("WAVESPEED_API_URL", "https://api.wavespeed.ai/api/v2/headswap"),

		SwapCost:      getEnvInt64("SWAP_COST_CREDITS", 1),
		SignupCredits: getEnvInt64("SIGNUP_BONUS_CREDITS", 3),

		StripeWebhookSecret:   getEnv("STRIPE_WEBHOOK_SECRET", ""),
		IdentityWebhookSecret: getEnv("IDENTITY_WEBHOOK_SECRET", ""),

		CORSOrigins: getEnvSlice("CORS_ORIGINS", []string{"http://localhost:3000"}),

		StorageEndpoint:  getEnv("AWS_ENDPOINT_URL_S3", ""),
		StorageAccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
		StorageSecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		StorageBucket:    getEnv("BUCKET_NAME", ""),
		StorageRegion:    getEnv("AWS_REGION", "auto"),
		StoragePublicURL: getEnv("STORAGE_PUBLIC_URL", ""),

		RateLimitSweepInterval: getEnvDuration("RATELIMIT_SWEEP_INTERVAL", 10*time.Minute),
	}

	cfg.StorageEnabled = cfg.StorageBucket != "" && cfg.StorageEndpoint != ""
	if cfg.StoragePublicURL == "" && cfg.StorageEnabled {
		cfg.StoragePublicURL = fmt.Sprintf("%s/%s", strings.TrimSuffix(cfg.StorageEndpoint, "/"), cfg.StorageBucket)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.SwapCost <= 0 {
		return nil, fmt.Errorf("SWAP_COST_CREDITS must be positive")
	}

	switch cfg.Provider {
	case ProviderGemini, ProviderReplicate, ProviderWaveSpeed:
	default:
		// Unknown values fall back rather than fail.
		slog.Warn("unknown face-swap provider, falling back",
			"provider", cfg.Provider,
			"fallback", ProviderGemini,
		)
		cfg.Provider = ProviderGemini
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
