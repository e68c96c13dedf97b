package app

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roomio/roomio/internal/observability"
	"github.com/roomio/roomio/internal/shared"
	_ "github.com/roomio/roomio/testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://billing.local/api")
	t.Setenv("TOKEN_SECRET", "passphrase")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.AppAddr)
	require.Equal(t, 20*time.Second, cfg.APITimeout)
	require.Equal(t, 20, cfg.PageSize)
	require.Equal(t, 256, cfg.GatewaySessions)
	require.Equal(t, "Asia/Ho_Chi_Minh", cfg.BillingLocation().String())
	require.Equal(t, "default", cfg.TokenKey)
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigRejectsBadPageSize(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://billing.local/api")
	t.Setenv("TOKEN_SECRET", "passphrase")
	t.Setenv("PAGE_SIZE", "0")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("BILLING_TIMEZONE", "Mars/Olympus")
	_, err := LoadConfig()
	require.ErrorContains(t, err, "billing timezone")
}

func TestLoadEnvFilesKeepsExistingValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("ROOMIO_SAMPLE=file\nROOMIO_OTHER=file\n"), 0o600))
	t.Setenv("ROOMIO_SAMPLE", "env")
	t.Setenv("ROOMIO_OTHER", "")
	require.NoError(t, os.Unsetenv("ROOMIO_OTHER"))

	require.NoError(t, LoadEnvFiles(path, filepath.Join(dir, "missing.env")))
	require.Equal(t, "env", os.Getenv("ROOMIO_SAMPLE"))
	require.Equal(t, "file", os.Getenv("ROOMIO_OTHER"))
}

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, &Config{LogFormat: "json", LogLevel: "warn"}).Info("hidden")
	require.Empty(t, buf.String())

	newLogger(&buf, &Config{LogFormat: "json", LogLevel: "debug"}).Debug("shown")
	require.True(t, strings.HasPrefix(buf.String(), "{"))
}

func TestBearerTokenReachesContext(t *testing.T) {
	var got string
	h := BearerToken(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = shared.TokenFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/state", nil)
	req.Header.Set("Authorization", "Bearer abc")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "abc", got)

	got = ""
	req = httptest.NewRequest(http.MethodGet, "/state", nil)
	req.Header.Set("Authorization", "Basic abc")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Empty(t, got)
}

func TestRouterServesHealthAndMetrics(t *testing.T) {
	require.True(t, InTestMode())
	router := NewRouter(RouterParams{Config: &Config{}, Metrics: observability.NewMetrics()})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `roomio_http_requests_total{code="200",route="/healthz"} 1`)
}

func TestRefreshTestMode(t *testing.T) {
	require.True(t, InTestMode())

	t.Cleanup(RefreshTestMode)
	t.Setenv(testModeEnv, "0")
	RefreshTestMode()
	require.False(t, InTestMode())

	t.Setenv(testModeEnv, "1")
	RefreshTestMode()
	require.True(t, InTestMode())
}
