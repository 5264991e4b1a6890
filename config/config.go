// Package config loads service settings from an optional YAML file,
// a .env file (outside production) and environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // Africa/Lagos must resolve in slim containers

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all service configuration
type Config struct {
	Env            string               `yaml:"env"`
	Timezone       string               `yaml:"timezone"`
	Server         ServerConfig         `yaml:"server"`
	Logging        LoggingConfig        `yaml:"logging"`
	Catalog        CatalogConfig        `yaml:"catalog"`
	GenAI          GenAIConfig          `yaml:"genai"`
	Recommendation RecommendationConfig `yaml:"recommendation"`
	Payment        PaymentConfig        `yaml:"payment"`
	Handoff        HandoffConfig        `yaml:"handoff"`
	Storage        StorageConfig        `yaml:"storage"`
	Database       DatabaseConfig       `yaml:"database"`
	Outbox         OutboxConfig         `yaml:"outbox"`
	Session        SessionConfig        `yaml:"session"`
	Redis          RedisConfig          `yaml:"redis"`
	Receipts       ReceiptsConfig       `yaml:"receipts"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Port            string        `yaml:"port"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LoggingConfig configures zap
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// CatalogConfig points at a catalog file; empty uses the built-in catalog
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// GenAIConfig configures the Gemini client
type GenAIConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// RecommendationConfig configures the Fruit Guru
type RecommendationConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	StaleAfter  time.Duration `yaml:"stale_after"`
	DefaultMood string        `yaml:"default_mood"`
}

// PaymentConfig configures the Paystack integration
type PaymentConfig struct {
	PublicKey     string        `yaml:"public_key"`
	SecretKey     string        `yaml:"secret_key"`
	Currency      string        `yaml:"currency"`
	MinorUnits    int64         `yaml:"minor_units"` // minor units per catalog price unit (kobo per naira)
	BaseURL       string        `yaml:"base_url"`
	VerifyTimeout time.Duration `yaml:"verify_timeout"`
}

// HandoffConfig configures the e-mail handoff checkout
type HandoffConfig struct {
	Address string `yaml:"address"`
	Subject string `yaml:"subject"`
}

// StorageConfig selects the order sink
type StorageConfig struct {
	Driver  string        `yaml:"driver"` // postgres or memory
	Timeout time.Duration `yaml:"timeout"`
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// OutboxConfig locates the reconciliation outbox database
type OutboxConfig struct {
	Path string `yaml:"path"`
}

// SessionConfig configures workflow session storage
type SessionConfig struct {
	Driver       string        `yaml:"driver"` // memory or redis
	TTL          time.Duration `yaml:"ttl"`
	CookieName   string        `yaml:"cookie_name"`
	CookieSecure bool          `yaml:"cookie_secure"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ReceiptsConfig configures receipt PDF rendering and archiving
type ReceiptsConfig struct {
	ChromePath    string        `yaml:"chrome_path"`
	Timeout       time.Duration `yaml:"timeout"`
	Endpoint      string        `yaml:"endpoint"`
	AccessKey     string        `yaml:"access_key"`
	SecretKey     string        `yaml:"secret_key"`
	Bucket        string        `yaml:"bucket"`
	PublicBaseURL string        `yaml:"public_base_url"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Env:      "development",
		Timezone: "Africa/Lagos",
		Server: ServerConfig{
			Port:            "8080",
			AllowedOrigins:  []string{"http://localhost:3000", "http://localhost:5173"},
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{Level: "info"},
		GenAI:   GenAIConfig{Model: "gemini-2.5-flash"},
		Recommendation: RecommendationConfig{
			Timeout:     5 * time.Second,
			StaleAfter:  time.Minute,
			DefaultMood: "Productive & Creative",
		},
		Payment: PaymentConfig{
			Currency:      "NGN",
			MinorUnits:    100,
			BaseURL:       "https://api.paystack.co",
			VerifyTimeout: 10 * time.Second,
		},
		Handoff: HandoffConfig{
			Address: "orders@officefruits.ng",
			Subject: "New OfficeFruits order",
		},
		Storage:  StorageConfig{Driver: "memory", Timeout: 5 * time.Second},
		Database: DatabaseConfig{Port: "5432", SSLMode: "disable"},
		Outbox:   OutboxConfig{Path: "data/outbox.db"},
		Session: SessionConfig{
			Driver:     "memory",
			TTL:        24 * time.Hour,
			CookieName: "fruitbox_session",
		},
		Redis:    RedisConfig{Addr: "localhost:6379"},
		Receipts: ReceiptsConfig{Timeout: 30 * time.Second},
	}
}

// LoadEnvFile loads .env outside production. A missing file is not an error.
func LoadEnvFile(path string) error {
	if os.Getenv("ENV") == "production" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	// Overload so .env wins over stale shell variables during development
	if err := godotenv.Overload(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load builds the configuration: defaults, then the YAML file at path (if any),
// then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Env, "ENV")
	setString(&c.Timezone, "TIMEZONE")
	setString(&c.Server.Port, "PORT")
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = splitList(origins)
	}
	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Catalog.Path, "CATALOG_PATH")

	setString(&c.GenAI.APIKey, "API_KEY")
	setString(&c.GenAI.APIKey, "GEMINI_API_KEY")
	setString(&c.GenAI.Model, "GEMINI_MODEL")

	setString(&c.Payment.PublicKey, "PAYSTACK_PUBLIC_KEY")
	setString(&c.Payment.SecretKey, "PAYSTACK_SECRET_KEY")
	setString(&c.Payment.Currency, "PAYMENT_CURRENCY")
	setString(&c.Handoff.Address, "HANDOFF_EMAIL")

	setString(&c.Storage.Driver, "STORAGE_DRIVER")
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.Port, "DB_PORT")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Name, "DB_NAME")
	setString(&c.Database.SSLMode, "DB_SSLMODE")
	setString(&c.Outbox.Path, "OUTBOX_PATH")

	setString(&c.Session.Driver, "SESSION_DRIVER")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")

	setString(&c.Receipts.ChromePath, "CHROME_PATH")
	setString(&c.Receipts.Endpoint, "R2_ENDPOINT")
	setString(&c.Receipts.AccessKey, "R2_ACCESS_KEY")
	setString(&c.Receipts.SecretKey, "R2_SECRET_KEY")
	setString(&c.Receipts.Bucket, "R2_BUCKET_NAME")
	setString(&c.Receipts.PublicBaseURL, "R2_PUBLIC_BASE_URL")

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"RECOMMENDATION_TIMEOUT", &c.Recommendation.Timeout},
		{"STORAGE_TIMEOUT", &c.Storage.Timeout},
		{"PAYMENT_VERIFY_TIMEOUT", &c.Payment.VerifyTimeout},
		{"SESSION_TTL", &c.Session.TTL},
	}
	for _, d := range durations {
		if v := os.Getenv(d.key); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", d.key, err)
			}
			*d.dst = parsed
		}
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB: %w", err)
		}
		c.Redis.DB = n
	}

	// PORT from some hosts comes with a leading colon
	c.Server.Port = strings.TrimPrefix(c.Server.Port, ":")
	return nil
}

// Validate rejects settings the service cannot run with
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("unknown timezone %q: %w", c.Timezone, err)
	}
	switch c.Storage.Driver {
	case "memory", "postgres":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Session.Driver {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown session driver %q", c.Session.Driver)
	}
	if c.Recommendation.Timeout <= 0 {
		return fmt.Errorf("recommendation timeout must be positive")
	}
	if c.Storage.Timeout <= 0 {
		return fmt.Errorf("storage timeout must be positive")
	}
	if c.Payment.MinorUnits <= 0 {
		return fmt.Errorf("payment minor units must be positive")
	}
	if c.Payment.Currency == "" {
		return fmt.Errorf("payment currency is required")
	}
	return nil
}

// IsProduction reports whether the service runs with ENV=production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Location returns the time zone used for delivery date checks
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Addr returns the listen address on all interfaces
func (c *Config) Addr() string {
	return "0.0.0.0:" + c.Server.Port
}

// DatabaseDSN returns DATABASE_URL or a DSN built from the individual DB_* settings
func (c *Config) DatabaseDSN() (string, error) {
	db := c.Database
	if db.URL != "" {
		return db.URL, nil
	}
	if db.Host == "" || db.User == "" || db.Name == "" {
		return "", fmt.Errorf("database connection variables not set. Set DATABASE_URL or DB_HOST, DB_USER, DB_NAME")
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		db.Host, db.Port, db.User, db.Password, db.Name, db.SSLMode), nil
}

// ReceiptArchiveEnabled reports whether receipts are uploaded to object storage
func (c *Config) ReceiptArchiveEnabled() bool {
	r := c.Receipts
	return r.Endpoint != "" && r.AccessKey != "" && r.SecretKey != "" && r.Bucket != ""
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
