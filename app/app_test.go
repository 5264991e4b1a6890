package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"officefruits/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Outbox.Path = filepath.Join(t.TempDir(), "outbox.db")
	cfg.Server.AllowedOrigins = []string{"https://officefruits.ng"}
	return cfg
}

func TestInitialize_MemoryStack(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a, err := Initialize(context.Background(), testConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	w := httptest.NewRecorder()
	a.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.Header.Set("Origin", "https://officefruits.ng")
	w = httptest.NewRecorder()
	a.Handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://officefruits.ng", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.NotEmpty(t, w.Result().Cookies())
}

func TestInitialize_FailsOnBadPostgres(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Driver = "postgres"
	_, err := Initialize(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestRunSessionJanitor_StopsWithContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a, err := Initialize(context.Background(), testConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.RunSessionJanitor(ctx, 10*time.Millisecond) }()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}

func TestLoadCatalog(t *testing.T) {
	cfg := config.Default()
	products, err := LoadCatalog(cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, products.Items())

	cfg.Catalog.Path = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = LoadCatalog(cfg)
	assert.Error(t, err)
}
