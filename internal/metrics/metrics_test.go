package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/vivatura/translator/internal/metrics"
)

func TestRecordProviderRequest_Outcomes(t *testing.T) {
	okBefore := testutil.ToFloat64(metrics.ProviderRequestsTotal.WithLabelValues("batch", "success"))
	errBefore := testutil.ToFloat64(metrics.ProviderRequestsTotal.WithLabelValues("batch", "error"))

	metrics.RecordProviderRequest("batch", 10*time.Millisecond, nil)
	metrics.RecordProviderRequest("batch", 10*time.Millisecond, errors.New("boom"))
	metrics.RecordProviderRequest("batch", 10*time.Millisecond, errors.New("boom"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(metrics.ProviderRequestsTotal.WithLabelValues("batch", "success")))
	assert.Equal(t, errBefore+2, testutil.ToFloat64(metrics.ProviderRequestsTotal.WithLabelValues("batch", "error")))
}

func TestRecordTranslatedFields_IgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(metrics.TranslatedFieldsTotal.WithLabelValues("file"))

	metrics.RecordTranslatedFields("file", 0)
	metrics.RecordTranslatedFields("file", 3)

	assert.Equal(t, before+3, testutil.ToFloat64(metrics.TranslatedFieldsTotal.WithLabelValues("file")))
}

func TestHandler_ExposesTranslatorMetrics(t *testing.T) {
	metrics.RecordRecoveryTier("strict")
	metrics.RecordJob("product", "completed")

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(body, "translator_recovery_tier_total"))
	assert.True(t, strings.Contains(body, "translator_jobs_total"))
}
