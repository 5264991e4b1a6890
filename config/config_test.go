package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENV", "TIMEZONE", "PORT", "ALLOWED_ORIGINS", "LOG_LEVEL", "CATALOG_PATH",
		"API_KEY", "GEMINI_API_KEY", "GEMINI_MODEL",
		"PAYSTACK_PUBLIC_KEY", "PAYSTACK_SECRET_KEY", "PAYMENT_CURRENCY", "HANDOFF_EMAIL",
		"STORAGE_DRIVER", "DATABASE_URL", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
		"OUTBOX_PATH", "SESSION_DRIVER", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"CHROME_PATH", "R2_ENDPOINT", "R2_ACCESS_KEY", "R2_SECRET_KEY", "R2_BUCKET_NAME", "R2_PUBLIC_BASE_URL",
		"RECOMMENDATION_TIMEOUT", "STORAGE_TIMEOUT", "PAYMENT_VERIFY_TIMEOUT", "SESSION_TTL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "memory", cfg.Session.Driver)
	assert.Equal(t, "fruitbox_session", cfg.Session.CookieName)
	assert.Equal(t, 5*time.Second, cfg.Recommendation.Timeout)
	assert.Equal(t, "NGN", cfg.Payment.Currency)
	assert.Equal(t, int64(100), cfg.Payment.MinorUnits)
	assert.Equal(t, "Africa/Lagos", cfg.Location().String())
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.ReceiptArchiveEnabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", ":9000")
	t.Setenv("ENV", "production")
	t.Setenv("API_KEY", "legacy-key")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("ALLOWED_ORIGINS", "https://officefruits.ng, https://admin.officefruits.ng ,")
	t.Setenv("RECOMMENDATION_TIMEOUT", "2s")
	t.Setenv("SESSION_DRIVER", "redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("R2_ENDPOINT", "https://r2.example.com")
	t.Setenv("R2_ACCESS_KEY", "ak")
	t.Setenv("R2_SECRET_KEY", "sk")
	t.Setenv("R2_BUCKET_NAME", "receipts")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "gemini-key", cfg.GenAI.APIKey)
	assert.Equal(t, []string{"https://officefruits.ng", "https://admin.officefruits.ng"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 2*time.Second, cfg.Recommendation.Timeout)
	assert.Equal(t, "redis", cfg.Session.Driver)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.True(t, cfg.ReceiptArchiveEnabled())
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "7000"
storage:
  driver: postgres
  timeout: 3s
payment:
  public_key: pk_yaml
`), 0644))
	t.Setenv("PAYSTACK_PUBLIC_KEY", "pk_env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, 3*time.Second, cfg.Storage.Timeout)
	assert.Equal(t, "pk_env", cfg.Payment.PublicKey)
	// untouched sections keep their defaults
	assert.Equal(t, "NGN", cfg.Payment.Currency)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"storage driver", map[string]string{"STORAGE_DRIVER": "mongo"}},
		{"session driver", map[string]string{"SESSION_DRIVER": "cookie"}},
		{"duration", map[string]string{"SESSION_TTL": "forever"}},
		{"redis db", map[string]string{"REDIS_DB": "zero"}},
		{"timezone", map[string]string{"TIMEZONE": "Mars/Olympus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDatabaseDSN(t *testing.T) {
	cfg := Default()
	_, err := cfg.DatabaseDSN()
	assert.Error(t, err)

	cfg.Database.Host = "db"
	cfg.Database.User = "fruit"
	cfg.Database.Password = "secret"
	cfg.Database.Name = "officefruits"
	dsn, err := cfg.DatabaseDSN()
	require.NoError(t, err)
	assert.Equal(t, "host=db port=5432 user=fruit password=secret dbname=officefruits sslmode=disable", dsn)

	cfg.Database.URL = "postgres://u:p@host/db"
	dsn, err = cfg.DatabaseDSN()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@host/db", dsn)
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("GEMINI_MODEL=gemini-test\n"), 0644))
	t.Setenv("GEMINI_MODEL", "stale")

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "gemini-test", os.Getenv("GEMINI_MODEL"))

	require.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
}
