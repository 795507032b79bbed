package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	apiRequestsTotal      *prometheus.CounterVec
	apiLatencySeconds     *prometheus.HistogramVec
	apiErrorsTotal        *prometheus.CounterVec
	essayOutcomesTotal    *prometheus.CounterVec
	essayEventsTotal      *prometheus.CounterVec
	essayCacheLookupTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the essay API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "truskill_api_requests_total",
			Help: "Total number of essay API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "truskill_api_latency_seconds",
			Help:    "Latency distribution for essay API requests.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "truskill_api_errors_total",
			Help: "Total number of error responses returned by essay endpoints.",
		}, []string{"method", "route", "status"})

		essayOutcomesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "truskill_essay_submissions_total",
			Help: "Essay submissions grouped by grading outcome.",
		}, []string{"outcome"})

		essayEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "truskill_essay_events_total",
			Help: "Essay submission events published to the broker.",
		}, []string{"result"})

		essayCacheLookupTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "truskill_essay_cache_lookups_total",
			Help: "Essay history cache lookups grouped by result.",
		}, []string{"result"})

		prometheus.MustRegister(apiRequestsTotal, apiLatencySeconds, apiErrorsTotal, essayOutcomesTotal, essayEventsTotal, essayCacheLookupTotal)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// EssayOutcomes counts submissions by outcome (graded, saved_ungraded, rejected_empty).
func EssayOutcomes() *prometheus.CounterVec {
	RegisterMetrics()
	return essayOutcomesTotal
}

// EssayEvents counts essay events by publish result.
func EssayEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return essayEventsTotal
}

// EssayCacheLookups counts history cache hits and misses.
func EssayCacheLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return essayCacheLookupTotal
}
