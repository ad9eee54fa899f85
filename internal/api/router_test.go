package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vivatura/translator/internal/api"
	mw "github.com/vivatura/translator/internal/api/middleware"
	"github.com/vivatura/translator/internal/cache"
)

// --- stub cache ---

type stubCache struct {
	count int64
}

func (c *stubCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error { return nil }
func (c *stubCache) Get(_ context.Context, _ string) ([]byte, bool, error)            { return nil, false, nil }
func (c *stubCache) Delete(_ context.Context, _ string) error                          { return nil }
func (c *stubCache) Ping(_ context.Context) error                                      { return nil }
func (c *stubCache) SetJobStatus(_ context.Context, _ uuid.UUID, _ string, _ time.Duration) error {
	return nil
}
func (c *stubCache) GetJobStatus(_ context.Context, _ uuid.UUID) (string, bool, error) {
	return "", false, nil
}
func (c *stubCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return c.count, nil
}

var _ cache.Cache = (*stubCache)(nil)

// --- router tests ---

func okJSON(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"data":{}}`))
}

func newTestRouter(c *stubCache) http.Handler {
	return api.NewRouter(api.Dependencies{
		RateLimit:        mw.NewRateLimit(c, 60),
		HealthHandler:    okJSON,
		MetricsHandler:   http.HandlerFunc(okJSON),
		LanguagesHandler: okJSON,
		GetJobHandler:    okJSON,
	})
}

func errCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"].(map[string]any)["code"].(string)
}

func TestRouter_HealthAndMetricsAreNotRateLimited(t *testing.T) {
	router := newTestRouter(&stubCache{count: 1000})

	for _, path := range []string{"/api/v1/health", "/metrics"} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRouter_APIRoutesAreRateLimited(t *testing.T) {
	router := newTestRouter(&stubCache{count: 61})

	req := httptest.NewRequest("GET", "/api/v1/languages", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", errCode(t, w))
}

func TestRouter_RoutesReachHandlers(t *testing.T) {
	router := newTestRouter(&stubCache{count: 1})

	for _, path := range []string{"/api/v1/languages", "/api/v1/jobs/" + uuid.NewString()} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, "60", w.Header().Get("X-RateLimit-Limit"), path)
	}
}

func TestRouter_UnwiredEndpointsReturn501(t *testing.T) {
	router := newTestRouter(&stubCache{count: 1})

	endpoints := []struct {
		method string
		path   string
	}{
		{"GET", "/api/v1/models"},
		{"POST", "/api/v1/translate/products"},
		{"POST", "/api/v1/translate/products/" + uuid.NewString()},
		{"POST", "/api/v1/translate/cms-pages"},
		{"POST", "/api/v1/translate/cms-pages/" + uuid.NewString()},
		{"POST", "/api/v1/translate/snippet-sets"},
		{"POST", "/api/v1/translate/snippets/" + uuid.NewString()},
		{"POST", "/api/v1/translate/snippet-files"},
		{"GET", "/api/v1/snippet-files"},
		{"GET", "/api/v1/jobs/" + uuid.NewString() + "/status"},
		{"POST", "/api/v1/jobs/status"},
	}

	for _, ep := range endpoints {
		t.Run(ep.method+" "+ep.path, func(t *testing.T) {
			req := httptest.NewRequest(ep.method, ep.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusNotImplemented, w.Code)
			assert.Equal(t, "NOT_IMPLEMENTED", errCode(t, w))
		})
	}
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter(&stubCache{count: 1})

	req := httptest.NewRequest("GET", "/api/v1/nonexistent", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errCode(t, w))
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	router := newTestRouter(&stubCache{count: 1})

	req := httptest.NewRequest("DELETE", "/api/v1/languages", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
