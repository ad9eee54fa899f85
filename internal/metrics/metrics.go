// Package metrics provides Prometheus metrics for the translator.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestDuration tracks HTTP request duration by method, route and status code.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "translator_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status_code"},
	)

	// ProviderRequestsTotal counts calls to the LLM provider by operation and outcome.
	ProviderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "translator_provider_requests_total",
			Help: "Total number of LLM provider requests",
		},
		[]string{"operation", "outcome"},
	)

	// ProviderRequestDuration tracks LLM round-trip latency.
	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "translator_provider_request_duration_seconds",
			Help:    "LLM provider request duration in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80, 120},
		},
		[]string{"operation"},
	)

	// RecoveryTierTotal counts which response-recovery tier produced a result.
	RecoveryTierTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "translator_recovery_tier_total",
			Help: "Batch responses by the recovery tier that parsed them",
		},
		[]string{"tier"},
	)

	// JobsTotal counts finished translation jobs by type and terminal status.
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "translator_jobs_total",
			Help: "Total number of translation jobs by type and status",
		},
		[]string{"type", "status"},
	)

	// TranslatedFieldsTotal counts field values written back per content kind.
	TranslatedFieldsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "translator_fields_translated_total",
			Help: "Total number of translated values written back",
		},
		[]string{"kind"},
	)
)

// RecordProviderRequest records one provider call.
func RecordProviderRequest(operation string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	ProviderRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
	ProviderRequestsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordRecoveryTier records the tier that parsed a batch response ("failed" if none did).
func RecordRecoveryTier(tier string) {
	RecoveryTierTotal.WithLabelValues(tier).Inc()
}

// RecordJob records a job reaching a terminal status.
func RecordJob(jobType, status string) {
	JobsTotal.WithLabelValues(jobType, status).Inc()
}

// RecordTranslatedFields adds n written values for kind ("product", "cms_page", "snippet", "file").
func RecordTranslatedFields(kind string, n int) {
	if n > 0 {
		TranslatedFieldsTotal.WithLabelValues(kind).Add(float64(n))
	}
}

// ObserveHTTP records one finished HTTP request.
func ObserveHTTP(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
