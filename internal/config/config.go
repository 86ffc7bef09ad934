package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Stripe   StripeConfig
	Auth     AuthConfig
	Cron     CronConfig
	Payouts  PayoutsConfig
	Secrets  SecretsConfig
	Logger   LoggerConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        int
	Host        string
	MetricsPort int
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// StripeConfig holds Stripe Connect configuration
type StripeConfig struct {
	APIKey     string
	BaseURL    string
	RefreshURL string // where Stripe sends users whose onboarding link expired
	ReturnURL  string // where Stripe sends users after onboarding
	Timeout    int    // request timeout in seconds
	MaxRetries int
}

// AuthConfig holds token verification configuration
type AuthConfig struct {
	JWTSecret string
}

// CronConfig authenticates scheduler-triggered endpoints
type CronConfig struct {
	Secret string
}

// PayoutsConfig holds the payout batching thresholds
type PayoutsConfig struct {
	ReleaseWindowDays    int
	AutoApproveAfterDays int
	MinReleaseAmount     int64 // minor units
	Currency             string
}

// ReleaseWindow returns the release window as a duration
func (c PayoutsConfig) ReleaseWindow() time.Duration {
	return time.Duration(c.ReleaseWindowDays) * 24 * time.Hour
}

// AutoApproveAfter returns the auto-approve threshold as a duration
func (c PayoutsConfig) AutoApproveAfter() time.Duration {
	return time.Duration(c.AutoApproveAfterDays) * 24 * time.Hour
}

// SecretsConfig selects where runtime secrets are sourced from.
// Provider is one of: env, aws, vault.
type SecretsConfig struct {
	Provider string

	// aws
	AWSRegion string

	// vault
	VaultAddress string
	VaultToken   string

	// Paths looked up through the secret manager when Provider != env
	StripeAPIKeyPath string
	JWTSecretPath    string
	CronSecretPath   string
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnvAsInt("SERVER_PORT", 8080),
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			MetricsPort: getEnvAsInt("METRICS_PORT", 9090),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "payments"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
			MaxConns: int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns: int32(getEnvAsInt("DB_MIN_CONNS", 5)),
		},
		Stripe: StripeConfig{
			APIKey:     getEnv("STRIPE_API_KEY", ""),
			BaseURL:    getEnv("STRIPE_BASE_URL", "https://api.stripe.com"),
			RefreshURL: getEnv("STRIPE_REFRESH_URL", ""),
			ReturnURL:  getEnv("STRIPE_RETURN_URL", ""),
			Timeout:    getEnvAsInt("STRIPE_TIMEOUT", 30),
			MaxRetries: getEnvAsInt("STRIPE_MAX_RETRIES", 3),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Cron: CronConfig{
			Secret: getEnv("CRON_SECRET", ""),
		},
		Payouts: PayoutsConfig{
			ReleaseWindowDays:    getEnvAsInt("PAYOUT_RELEASE_WINDOW_DAYS", 15),
			AutoApproveAfterDays: getEnvAsInt("PAYOUT_AUTO_APPROVE_DAYS", 3),
			MinReleaseAmount:     int64(getEnvAsInt("PAYOUT_MIN_RELEASE_AMOUNT", 5000)),
			Currency:             getEnv("PAYOUT_CURRENCY", "usd"),
		},
		Secrets: SecretsConfig{
			Provider:         getEnv("SECRETS_PROVIDER", "env"),
			AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
			VaultAddress:     getEnv("VAULT_ADDR", ""),
			VaultToken:       getEnv("VAULT_TOKEN", ""),
			StripeAPIKeyPath: getEnv("SECRETS_STRIPE_API_KEY_PATH", "payments/stripe-api-key"),
			JWTSecretPath:    getEnv("SECRETS_JWT_SECRET_PATH", "payments/jwt-secret"),
			CronSecretPath:   getEnv("SECRETS_CRON_SECRET_PATH", "payments/cron-secret"),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	switch cfg.Secrets.Provider {
	case "env":
		if cfg.Stripe.APIKey == "" {
			return nil, fmt.Errorf("STRIPE_API_KEY is required")
		}
		if cfg.Auth.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET is required")
		}
		if cfg.Cron.Secret == "" {
			return nil, fmt.Errorf("CRON_SECRET is required")
		}
	case "aws", "vault":
		// Resolved at startup through the secret manager
	default:
		return nil, fmt.Errorf("unknown SECRETS_PROVIDER %q", cfg.Secrets.Provider)
	}

	return cfg, nil
}

// ConnectionString returns PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
