package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vivatura/translator/internal/ai/mock"
	"github.com/vivatura/translator/internal/api"
	"github.com/vivatura/translator/internal/cache"
	"github.com/vivatura/translator/internal/jobs"
	"github.com/vivatura/translator/internal/snippetfile"
	"github.com/vivatura/translator/internal/store"
	"github.com/vivatura/translator/internal/translation"
	"github.com/vivatura/translator/pkg/models"
)

// ─── mock pinger ─────────────────────────────────────────────────────────────

type testPinger struct {
	pingErr error
}

func (p *testPinger) Ping(_ context.Context) error { return p.pingErr }

// ─── mock cache ──────────────────────────────────────────────────────────────

type testCache struct {
	pingErr error
}

func (c *testCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error { return nil }
func (c *testCache) Get(_ context.Context, _ string) ([]byte, bool, error)            { return nil, false, nil }
func (c *testCache) Delete(_ context.Context, _ string) error                          { return nil }
func (c *testCache) Ping(_ context.Context) error                                      { return c.pingErr }
func (c *testCache) SetJobStatus(_ context.Context, _ uuid.UUID, _ string, _ time.Duration) error {
	return nil
}
func (c *testCache) GetJobStatus(_ context.Context, _ uuid.UUID) (string, bool, error) {
	return "", false, nil
}
func (c *testCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 1, nil
}

var _ cache.Cache = (*testCache)(nil)

// ─── mock job store ──────────────────────────────────────────────────────────

type testJobStore struct{}

func (s *testJobStore) CreateJob(_ context.Context, _ *models.Job) error { return nil }
func (s *testJobStore) GetJob(_ context.Context, _ uuid.UUID) (*models.Job, error) {
	return nil, store.ErrNotFound
}
func (s *testJobStore) GetJobs(_ context.Context, _ []uuid.UUID) (map[uuid.UUID]*models.Job, error) {
	return map[uuid.UUID]*models.Job{}, nil
}
func (s *testJobStore) UpdateJobStatus(_ context.Context, _ uuid.UUID, _ string, _ ...store.JobUpdateOption) error {
	return nil
}

var _ store.JobStore = (*testJobStore)(nil)

// ─── health handler tests ───────────────────────────────────────────────────

func TestHealthHandler_AllOK(t *testing.T) {
	h := healthHandler(&testPinger{}, &testCache{})

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	data := body["data"].(map[string]any)
	assert.Equal(t, "ok", data["status"])
	services := data["services"].(map[string]any)
	assert.Equal(t, "ok", services["database"])
	assert.Equal(t, "ok", services["cache"])
}

func TestHealthHandler_DatabaseDegraded(t *testing.T) {
	h := healthHandler(&testPinger{pingErr: errors.New("connection refused")}, &testCache{})

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "DEGRADED", errObj["code"])
	assert.Equal(t, "degraded", errObj["details"].(map[string]any)["database"])
}

func TestHealthHandler_CacheDegraded(t *testing.T) {
	h := healthHandler(&testPinger{}, &testCache{pingErr: errors.New("redis down")})

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// ─── wiring ─────────────────────────────────────────────────────────────────

func TestNewDependencies_WiresEveryRoute(t *testing.T) {
	tr := mock.NewTranslator()
	svc := translation.NewService(nil, tr)
	settings := translation.Settings{SourceLocale: "de-DE"}
	runner := jobs.NewRunner(&testJobStore{}, &testCache{}, svc, settings)
	router := api.NewRouter(newDependencies(&testPinger{}, &testCache{}, tr, svc, runner,
		snippetfile.NewScanner([]string{t.TempDir()}), settings, 60))

	endpoints := []struct {
		method string
		path   string
		status int
	}{
		{"GET", "/api/v1/health", http.StatusOK},
		{"GET", "/metrics", http.StatusOK},
		{"GET", "/api/v1/models", http.StatusOK},
		{"GET", "/api/v1/snippet-files", http.StatusOK},
		// No content store: language listing is unavailable.
		{"GET", "/api/v1/languages", http.StatusServiceUnavailable},
		{"GET", "/api/v1/jobs/" + uuid.NewString(), http.StatusNotFound},
		{"GET", "/api/v1/jobs/" + uuid.NewString() + "/status", http.StatusNotFound},
		{"POST", "/api/v1/translate/products/" + uuid.NewString(), http.StatusBadRequest},
	}

	for _, ep := range endpoints {
		t.Run(ep.method+" "+ep.path, func(t *testing.T) {
			req := httptest.NewRequest(ep.method, ep.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, ep.status, w.Code, w.Body.String())
		})
	}
}

// ─── run() config validation tests ──────────────────────────────────────────

func TestRun_FailsOnMissingConfig(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestRun_FailsOnInvalidConfig(t *testing.T) {
	t.Setenv("TRANSLATOR_PORT", "70000")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRANSLATOR_PORT")
}

func TestRun_FailsOnInvalidDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "not-a-valid-url")
	t.Setenv("REDIS_URL", "redis://localhost:6379")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect database")
}

// ─── shutdown timeout constant test ─────────────────────────────────────────

func TestShutdownTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, shutdownTimeout)
}
