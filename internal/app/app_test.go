package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadim/socialops/internal/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	var cfg config.Config
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"
	cfg.Store.Backend = config.BackendMemory
	cfg.Store.QueueTab = "Queue"
	cfg.Store.AnalyticsTab = "Analytics"
	cfg.Generation.Provider = config.ProviderOpenAI
	cfg.BrandVoice.Path = filepath.Join(t.TempDir(), "brand_voice.json")
	cfg.Mastodon.AccessToken = "token"
	cfg.Mastodon.Instance = "https://mastodon.test"
	return cfg
}

func newTestApp(t *testing.T, cfg config.Config) *App {
	t.Helper()
	a, err := NewApp(context.Background(), cfg, WithLogOutput(io.Discard), WithVersion("test"))
	require.NoError(t, err)
	t.Cleanup(a.closeStore)
	return a
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthAndReadiness(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	rec := get(t, a.Router(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, a.Router(), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
}

func TestPlatformWiring(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	rec := get(t, a.Router(), "/api/v1/platforms")
	require.Equal(t, http.StatusOK, rec.Code)

	var status struct {
		Live []string `json:"live"`
		Stub []string `json:"stub"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, []string{"bluesky", "mastodon"}, status.Live)
	assert.Equal(t, []string{"facebook", "instagram", "linkedin", "twitter"}, status.Stub)

	// bluesky has no credentials in the test config but stays live
	rec = get(t, a.Router(), "/api/v1/accounts")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Accounts []struct {
			Platform   string `json:"platform"`
			Configured bool   `json:"configured"`
			Mode       string `json:"mode"`
		} `json:"accounts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	byPlatform := make(map[string]bool)
	for _, acc := range body.Accounts {
		if acc.Mode == "live" {
			byPlatform[acc.Platform] = acc.Configured
		}
	}
	assert.Equal(t, map[string]bool{"bluesky": false, "mastodon": true}, byPlatform)
}

func TestCreateContentWithoutProvider(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/content",
		strings.NewReader(`{"topic":"community garden","platforms":["mastodon"]}`))
	a.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, rec.Body.String())
}

func TestDocsAndMetrics(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	rec := get(t, a.Router(), "/docs/openapi.yaml")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "openapi: 3.0.3"))

	rec = get(t, a.Router(), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMediaRoutesNeedS3(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/media/upload", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Backend = "excel"

	_, err := NewApp(context.Background(), cfg, WithLogOutput(io.Discard))
	assert.ErrorContains(t, err, `unknown store backend "excel"`)
}

func TestRefreshIntervalMustBePositive(t *testing.T) {
	cfg := testConfig(t)
	cfg.Analytics.RefreshEnabled = true
	cfg.Analytics.RefreshLimit = 10

	_, err := NewApp(context.Background(), cfg, WithLogOutput(io.Discard))
	assert.ErrorContains(t, err, "refresh interval must be positive")
}

func TestSheetsBackendNeedsSpreadsheet(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Backend = config.BackendSheets

	_, err := NewApp(context.Background(), cfg, WithLogOutput(io.Discard))
	assert.ErrorContains(t, err, "CONTENT_QUEUE_SHEET_ID")
}
