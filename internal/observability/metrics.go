package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Histogram bucket definitions.
var (
	httpDurationBuckets    = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	adapterDurationBuckets = []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}
	bodySizeBuckets        = []float64{100, 1024, 10240, 102400, 1048576}
)

// Metrics holds all Prometheus metric instruments for the service.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestSizeBytes  *prometheus.HistogramVec
	HTTPResponseSizeBytes *prometheus.HistogramVec

	// Evidence discovery metrics
	DiscoveryRunsTotal       prometheus.Counter
	DiscoveryRunDuration     prometheus.Histogram
	DiscoveryAdapterOutcomes *prometheus.CounterVec
	DiscoveryAdapterDuration *prometheus.HistogramVec
	ArtifactsAddedTotal      prometheus.Counter
	ArtifactsMatchedTotal    prometheus.Counter

	// Store metrics
	SnapshotFailuresTotal *prometheus.CounterVec
	EvidenceArtifacts     prometheus.Gauge
	ObligationsRegistered prometheus.Gauge

	// Setup metrics
	SetupCompletionPercent prometheus.Gauge
	SetupStepVisitsTotal   *prometheus.CounterVec

	// RASCI metrics
	RASCIAdoptionsTotal prometheus.Counter
}

// InitMetrics creates and registers all Prometheus metric instruments.
func InitMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		// HTTP
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "corecomply_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "corecomply_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: httpDurationBuckets,
		}, []string{"method", "path_pattern"}),
		HTTPRequestSizeBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "corecomply_http_request_size_bytes",
			Help:    "HTTP request body size in bytes.",
			Buckets: bodySizeBuckets,
		}, []string{"method", "path_pattern"}),
		HTTPResponseSizeBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "corecomply_http_response_size_bytes",
			Help:    "HTTP response body size in bytes.",
			Buckets: bodySizeBuckets,
		}, []string{"method", "path_pattern"}),

		// Discovery
		DiscoveryRunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "corecomply_discovery_runs_total",
			Help: "Total number of evidence discovery runs.",
		}),
		DiscoveryRunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "corecomply_discovery_run_duration_seconds",
			Help:    "Evidence discovery run duration in seconds.",
			Buckets: httpDurationBuckets,
		}),
		DiscoveryAdapterOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "corecomply_discovery_adapter_outcomes_total",
			Help: "Adapter fetch outcomes by source and status.",
		}, []string{"source", "status"}),
		DiscoveryAdapterDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "corecomply_discovery_adapter_duration_seconds",
			Help:    "Adapter fetch duration in seconds.",
			Buckets: adapterDurationBuckets,
		}, []string{"source"}),
		ArtifactsAddedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "corecomply_evidence_artifacts_added_total",
			Help: "Total evidence artifacts added by discovery.",
		}),
		ArtifactsMatchedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "corecomply_evidence_artifacts_matched_total",
			Help: "Total artifacts that matched at least one obligation.",
		}),

		// Stores
		SnapshotFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "corecomply_snapshot_failures_total",
			Help: "Total store snapshot persistence failures.",
		}, []string{"store"}),
		EvidenceArtifacts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "corecomply_evidence_artifacts",
			Help: "Number of evidence artifacts currently held.",
		}),
		ObligationsRegistered: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "corecomply_obligations_registered",
			Help: "Number of obligations in the register.",
		}),

		// Setup
		SetupCompletionPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "corecomply_setup_completion_percent",
			Help: "Current setup completion percentage.",
		}),
		SetupStepVisitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "corecomply_setup_step_visits_total",
			Help: "Total setup step visits.",
		}, []string{"step"}),

		// RASCI
		RASCIAdoptionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "corecomply_rasci_adoptions_total",
			Help: "Total RASCI template adoptions.",
		}),
	}

	reg.MustRegister(
		// HTTP
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestSizeBytes,
		m.HTTPResponseSizeBytes,
		// Discovery
		m.DiscoveryRunsTotal,
		m.DiscoveryRunDuration,
		m.DiscoveryAdapterOutcomes,
		m.DiscoveryAdapterDuration,
		m.ArtifactsAddedTotal,
		m.ArtifactsMatchedTotal,
		// Stores
		m.SnapshotFailuresTotal,
		m.EvidenceArtifacts,
		m.ObligationsRegistered,
		// Setup
		m.SetupCompletionPercent,
		m.SetupStepVisitsTotal,
		// RASCI
		m.RASCIAdoptionsTotal,
	)

	return m
}

// --- Recording helpers ---

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(method, pathPattern string, status int, duration time.Duration, reqSize, respSize int) {
	statusStr := strconv.Itoa(status)
	m.HTTPRequestsTotal.WithLabelValues(method, pathPattern, statusStr).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, pathPattern).Observe(duration.Seconds())
	m.HTTPRequestSizeBytes.WithLabelValues(method, pathPattern).Observe(float64(reqSize))
	m.HTTPResponseSizeBytes.WithLabelValues(method, pathPattern).Observe(float64(respSize))
}

// RecordDiscoveryRun records one completed discovery run.
func (m *Metrics) RecordDiscoveryRun(duration time.Duration, artifactsAdded int) {
	m.DiscoveryRunsTotal.Inc()
	m.DiscoveryRunDuration.Observe(duration.Seconds())
	m.ArtifactsAddedTotal.Add(float64(artifactsAdded))
}

// RecordAdapterOutcome records one adapter fetch result.
func (m *Metrics) RecordAdapterOutcome(source, status string, duration time.Duration) {
	m.DiscoveryAdapterOutcomes.WithLabelValues(source, status).Inc()
	m.DiscoveryAdapterDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordArtifactMatched records an artifact that matched an obligation.
func (m *Metrics) RecordArtifactMatched() {
	m.ArtifactsMatchedTotal.Inc()
}

// RecordSnapshotFailure records a store snapshot persistence failure.
func (m *Metrics) RecordSnapshotFailure(store string) {
	m.SnapshotFailuresTotal.WithLabelValues(store).Inc()
}

// SetEvidenceArtifacts sets the evidence artifact gauge.
func (m *Metrics) SetEvidenceArtifacts(count float64) {
	m.EvidenceArtifacts.Set(count)
}

// SetObligationsRegistered sets the obligation register gauge.
func (m *Metrics) SetObligationsRegistered(count float64) {
	m.ObligationsRegistered.Set(count)
}

// SetSetupCompletion sets the setup completion gauge.
func (m *Metrics) SetSetupCompletion(percent int) {
	m.SetupCompletionPercent.Set(float64(percent))
}

// RecordSetupStepVisit records a setup step visit.
func (m *Metrics) RecordSetupStepVisit(step string) {
	m.SetupStepVisitsTotal.WithLabelValues(step).Inc()
}

// RecordRASCIAdoption records one template adoption.
func (m *Metrics) RecordRASCIAdoption() {
	m.RASCIAdoptionsTotal.Inc()
}

// --- HTTP Middleware ---

// MetricsMiddleware returns HTTP middleware that records request metrics using
// chi's route pattern (not the actual URL path) to avoid label cardinality
// explosion.
func (m *Metrics) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &metricsResponseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		duration := time.Since(start)
		pathPattern := routePattern(r)
		reqSize := 0
		if r.ContentLength > 0 {
			reqSize = int(r.ContentLength)
		}

		m.RecordHTTPRequest(r.Method, pathPattern, sw.status, duration, reqSize, sw.bytes)
	})
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// routePattern extracts chi's route pattern from the request context.
// Falls back to the raw URL path if no pattern is found.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return r.URL.Path
	}
	pattern := strings.Join(rctx.RoutePatterns, "")
	// chi route patterns have trailing /*, remove it.
	pattern = strings.TrimSuffix(pattern, "/*")
	if pattern == "" {
		return r.URL.Path
	}
	return pattern
}

// metricsResponseWriter wraps http.ResponseWriter to capture status and bytes.
type metricsResponseWriter struct {
	http.ResponseWriter
	status  int
	bytes   int
	written bool
}

func (w *metricsResponseWriter) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *metricsResponseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}
