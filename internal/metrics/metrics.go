// Package metrics exposes Prometheus instrumentation for analyses,
// simulations and the HTTP service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "navigara"

// Registry holds all metrics of the process on a private registry.
type Registry struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	AnalysesTotal      *prometheus.CounterVec
	AnalysisEmployees  prometheus.Histogram
	SiloCount          prometheus.Gauge
	AvgEffectiveness   prometheus.Gauge
	SimulationsTotal   *prometheus.CounterVec
	ProviderErrorTotal *prometheus.CounterVec
	SnapshotCacheTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewRegistry creates a registry with every metric initialized, plus the
// Go runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{registry: reg}
	r.initHTTPMetrics()
	r.initDomainMetrics()

	return r
}

func (r *Registry) initHTTPMetrics() {
	r.HTTPRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	r.HTTPRequestDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	r.HTTPRequestsInFlight = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Current number of HTTP requests being processed",
		},
	)
}

func (r *Registry) initDomainMetrics() {
	r.AnalysesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Total number of graph analyses by source",
		},
		[]string{"source"},
	)

	r.AnalysisEmployees = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_employees",
			Help:      "Number of employees per analyzed graph",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	r.SiloCount = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_silo_count",
			Help:      "Silo count of the most recent analysis",
		},
	)

	r.AvgEffectiveness = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_avg_effectiveness",
			Help:      "Average effectiveness of the most recent analysis",
		},
	)

	r.SimulationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulations_total",
			Help:      "Total number of relocation simulations by outcome",
		},
		[]string{"direction"},
	)

	r.ProviderErrorTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Total number of failed graph provider calls",
		},
		[]string{"provider"},
	)

	r.SnapshotCacheTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_cache_total",
			Help:      "Snapshot cache lookups by result",
		},
		[]string{"result"},
	)
}

// RecordHTTPRequest records an HTTP request with its duration.
func (r *Registry) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	r.HTTPRequestsTotal.WithLabelValues(method, path, code).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}

// RecordAnalysis records one analysis and its headline metrics.
func (r *Registry) RecordAnalysis(source string, employees, silos int, avgEffectiveness float64) {
	r.AnalysesTotal.WithLabelValues(source).Inc()
	r.AnalysisEmployees.Observe(float64(employees))
	r.SiloCount.Set(float64(silos))
	r.AvgEffectiveness.Set(avgEffectiveness)
}

// RecordSimulation counts a simulation by the direction of the average
// effectiveness.
func (r *Registry) RecordSimulation(direction string) {
	r.SimulationsTotal.WithLabelValues(direction).Inc()
}

func (r *Registry) RecordProviderError(provider string) {
	r.ProviderErrorTotal.WithLabelValues(provider).Inc()
}

func (r *Registry) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.SnapshotCacheTotal.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
