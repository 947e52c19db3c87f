// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the dashboard process.
type Config struct {
	// Server Configuration
	GinMode            string        `mapstructure:"GIN_MODE"`
	ServerHost         string        `mapstructure:"SERVER_HOST"`
	ServerPort         string        `mapstructure:"SERVER_PORT"`
	ServerTimeout      time.Duration `mapstructure:"-"`
	CORSAllowedOrigins []string      `mapstructure:"-"`

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Remote REST backend
	APIBaseURL     string        `mapstructure:"API_BASE_URL"`
	APITimeout     time.Duration `mapstructure:"-"`
	APIReadRetries int           `mapstructure:"API_READ_RETRIES"`

	// List views
	ListCacheTTL    time.Duration `mapstructure:"-"`
	DefaultPageSize int           `mapstructure:"DEFAULT_PAGE_SIZE"`

	// Firebase Configuration
	FirebaseAPIKey                string `mapstructure:"FIREBASE_API_KEY"`
	FirebaseProjectID             string `mapstructure:"FIREBASE_PROJECT_ID"`
	FirebaseServiceAccountKeyPath string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_KEY_PATH"`

	// Local state store (session + UI preferences)
	StateDBDriver string `mapstructure:"STATE_DB_DRIVER"`
	StateDBDSN    string `mapstructure:"STATE_DB_DSN"`

	// Avatar uploads
	AvatarDir      string `mapstructure:"AVATAR_DIR"`
	AvatarMaxBytes int64  `mapstructure:"AVATAR_MAX_BYTES"`

	// Cron Jobs
	SessionExpiryJobSchedule string `mapstructure:"SESSION_EXPIRY_JOB_SCHEDULE"`
}

// Load attempts to load configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Duration and list fields are read by hand; env values arrive as bare numbers.
	cfg.ServerTimeout = time.Duration(v.GetInt("SERVER_TIMEOUT_SECONDS")) * time.Second
	cfg.APITimeout = time.Duration(v.GetInt("API_TIMEOUT_SECONDS")) * time.Second
	cfg.ListCacheTTL = time.Duration(v.GetInt("LIST_CACHE_TTL_SECONDS")) * time.Second
	cfg.CORSAllowedOrigins = splitList(v.GetString("CORS_ALLOWED_ORIGINS"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SERVER_HOST", "127.0.0.1")
	v.SetDefault("SERVER_PORT", "8090")
	v.SetDefault("SERVER_TIMEOUT_SECONDS", 30)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("API_BASE_URL", "")
	v.SetDefault("API_TIMEOUT_SECONDS", 15)
	v.SetDefault("API_READ_RETRIES", 1)

	v.SetDefault("LIST_CACHE_TTL_SECONDS", 300)
	v.SetDefault("DEFAULT_PAGE_SIZE", 10)

	v.SetDefault("FIREBASE_API_KEY", "")
	v.SetDefault("FIREBASE_PROJECT_ID", "")
	v.SetDefault("FIREBASE_SERVICE_ACCOUNT_KEY_PATH", "")

	v.SetDefault("STATE_DB_DRIVER", "sqlite")
	v.SetDefault("STATE_DB_DSN", "dashboard_state.db")

	v.SetDefault("AVATAR_DIR", "./avatars")
	v.SetDefault("AVATAR_MAX_BYTES", 2<<20)

	v.SetDefault("SESSION_EXPIRY_JOB_SCHEDULE", "@every 1m")
}

// Validate checks the settings the process cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIBaseURL) == "" {
		return fmt.Errorf("API_BASE_URL is not set. The dashboard needs the remote REST backend address")
	}
	if strings.TrimSpace(c.FirebaseAPIKey) == "" {
		return fmt.Errorf("FIREBASE_API_KEY is not set. This is required for sign-in through the auth provider")
	}
	switch c.StateDBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("STATE_DB_DRIVER must be 'sqlite' or 'postgres', got %q", c.StateDBDriver)
	}
	if c.FirebaseServiceAccountKeyPath != "" {
		if _, err := os.Stat(c.FirebaseServiceAccountKeyPath); os.IsNotExist(err) {
			return fmt.Errorf("firebase service account key file specified in FIREBASE_SERVICE_ACCOUNT_KEY_PATH (%s) not found", c.FirebaseServiceAccountKeyPath)
		}
	}
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = 10
	}
	if c.AvatarMaxBytes <= 0 {
		c.AvatarMaxBytes = 2 << 20
	}
	if c.APIReadRetries < 0 {
		c.APIReadRetries = 0
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
