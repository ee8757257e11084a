package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server     ServerConfig
	Backend    BackendConfig
	Session    SessionConfig
	Log        LogConfig
	Validation ValidationConfig
	MongoDB    MongoDBConfig
	Sheets     SheetsConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// BackendConfig points the ledger at the rental backend.
type BackendConfig struct {
	BaseURL           string
	SessionCookieName string
	SessionCookie     string
	Timeout           time.Duration
}

// SessionConfig describes the staff session driving the console.
type SessionConfig struct {
	Role string
}

// LogConfig holds logger options.
type LogConfig struct {
	Level string
}

// ValidationConfig schedules the active-weeks check.
type ValidationConfig struct {
	CronSchedule string
	Timezone     string
}

// MongoDBConfig holds settings for the commit journal. Empty URI disables it.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// SheetsConfig contains configuration for week exports. Empty values disable it.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether the commit journal should be wired.
func (c MongoDBConfig) Enabled() bool { return c.URI != "" }

// Enabled reports whether Sheets exports should be wired.
func (c SheetsConfig) Enabled() bool { return c.CredentialsPath != "" && c.SpreadsheetID != "" }

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when the environment is set directly.
		_ = godotenv.Load()
	}

	timeout, err := time.ParseDuration(getenvWithDefault("BACKEND_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("BACKEND_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Backend: BackendConfig{
			BaseURL:           os.Getenv("BACKEND_BASE_URL"),
			SessionCookieName: getenvWithDefault("BACKEND_SESSION_COOKIE_NAME", "session"),
			SessionCookie:     os.Getenv("BACKEND_SESSION_COOKIE"),
			Timeout:           timeout,
		},
		Session: SessionConfig{
			Role: getenvWithDefault("USER_ROLE", "operador"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
		Validation: ValidationConfig{
			CronSchedule: getenvWithDefault("VALIDATION_CRON_SCHEDULE", "0 7 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "America/Santo_Domingo"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "alquiler"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_EXPORT_ID"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.Backend.BaseURL == "" {
		return errors.New("BACKEND_BASE_URL must be provided")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("BACKEND_BASE_URL %q is not an absolute URL", c.Backend.BaseURL)
	}
	c.Backend.BaseURL = strings.TrimSuffix(c.Backend.BaseURL, "/")

	if c.Backend.Timeout <= 0 {
		return errors.New("BACKEND_TIMEOUT must be positive")
	}

	if c.Session.Role == "" {
		return errors.New("USER_ROLE must not be empty")
	}

	if c.Validation.CronSchedule == "" {
		return errors.New("VALIDATION_CRON_SCHEDULE must be provided")
	}

	if c.Validation.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}
	if _, err := time.LoadLocation(c.Validation.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q: %w", c.Validation.Timezone, err)
	}

	if c.MongoDB.Enabled() && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided when MONGODB_URI is set")
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_EXPORT_ID must be set together")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
