// Package metrics provides Prometheus metrics for the browser and the
// reference API server.
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
	// Message bus
	busMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_bus_messages_total",
			Help: "Total number of messages published on the bus",
		},
		[]string{"topic"},
	)

	busHandlerErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_bus_handler_errors_total",
			Help: "Total number of subscriber errors surfaced by publish",
		},
		[]string{"topic"},
	)

	// Resource client
	apiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_api_requests_total",
			Help: "Total number of resource API requests",
		},
		[]string{"method", "resource", "code"},
	)

	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vault_api_request_duration_seconds",
			Help:    "Resource API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "resource"},
	)

	// Conductor
	conductorRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_conductor_requests_total",
			Help: "Total number of conductor requests by outcome",
		},
		[]string{"kind", "outcome"},
	)

	conductorRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vault_conductor_request_duration_seconds",
			Help:    "Time from request to published response",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// Tree cache
	cacheNodes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vault_cache_nodes",
			Help: "Number of nodes held in the tree cache",
		},
	)

	cacheEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vault_cache_evictions_total",
			Help: "Total number of child indexes evicted from the tree cache",
		},
	)

	// Reference server
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vault_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordPublish counts a published message and any handler errors it surfaced.
func RecordPublish(topic string, handlerErrors int) {
	busMessagesTotal.WithLabelValues(topic).Inc()
	if handlerErrors > 0 {
		busHandlerErrorsTotal.WithLabelValues(topic).Add(float64(handlerErrors))
	}
}

// RecordAPIRequest records a resource client call. A zero status marks a
// transport failure.
func RecordAPIRequest(method, resource string, status int, duration time.Duration) {
	code := "network"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	apiRequestsTotal.WithLabelValues(method, resource, code).Inc()
	apiRequestDuration.WithLabelValues(method, resource).Observe(duration.Seconds())
}

// RecordConductorRequest records a completed conductor operation.
func RecordConductorRequest(kind, outcome string, duration time.Duration) {
	conductorRequestsTotal.WithLabelValues(kind, outcome).Inc()
	conductorRequestDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// SetCacheNodes sets the number of cached nodes.
func SetCacheNodes(n int) {
	cacheNodes.Set(float64(n))
}

// RecordCacheEviction counts one evicted child index.
func RecordCacheEviction() {
	cacheEvictionsTotal.Inc()
}

// RecordHTTPRequest records a request served by the reference server.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
