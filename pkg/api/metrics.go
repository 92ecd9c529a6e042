package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ssargent/cperd/pkg/cper"
	"github.com/ssargent/cperd/pkg/store"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Decode and store outcomes used as metric labels.
const (
	resultOK        = "ok"
	resultPartial   = "partial"
	resultMalformed = "malformed"
	resultDecoded   = "decoded"
	resultUndecoded = "undecoded"
	resultTooSmall  = "too_small"
	resultStored    = "stored"
	resultRejected  = "rejected"
)

// Metrics holds all Prometheus metrics for the API
type Metrics struct {
	gatherer prometheus.Gatherer

	// HTTP request metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight *prometheus.GaugeVec

	// Decode metrics
	recordsDecodedTotal *prometheus.CounterVec
	sectionsTotal       *prometheus.CounterVec

	// Store metrics
	recordsStoredTotal *prometheus.CounterVec
	storeRecords       prometheus.Gauge
	storeDataSizeBytes prometheus.Gauge

	// API key authentication metrics
	authRequestsTotal *prometheus.CounterVec

	// Health check metrics
	healthChecksTotal *prometheus.CounterVec
}

// NewMetrics creates the API metrics on reg. g is what /metrics exposes,
// normally the same registry.
func NewMetrics(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		gatherer: g,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cperd_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cperd_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		httpRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cperd_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"method", "endpoint"},
		),

		recordsDecodedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cperd_records_decoded_total",
				Help: "Total number of records decoded, by outcome",
			},
			[]string{"result"},
		),

		sectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cperd_sections_total",
				Help: "Total number of sections walked, by section type and outcome",
			},
			[]string{"type", "result"},
		),

		recordsStoredTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cperd_records_stored_total",
				Help: "Total number of store attempts, by outcome",
			},
			[]string{"result"},
		),

		storeRecords: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "cperd_store_records",
				Help: "Number of live records in the store",
			},
		),

		storeDataSizeBytes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "cperd_store_data_size_bytes",
				Help: "Size of the record log in bytes",
			},
		),

		authRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cperd_auth_requests_total",
				Help: "Total number of authentication requests",
			},
			[]string{"status"},
		),

		healthChecksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cperd_health_checks_total",
				Help: "Total number of health checks",
			},
			[]string{"status"},
		),
	}

	return m
}

// Handler serves the gathered metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	statusCodeStr := strconv.Itoa(statusCode)

	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusCodeStr).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordDecode counts a tolerant decode. rec is nil when the header was
// rejected; otherwise every section it holds is counted too.
func (m *Metrics) RecordDecode(rec *cper.Record, err error) {
	switch {
	case rec == nil:
		m.recordsDecodedTotal.WithLabelValues(resultMalformed).Inc()
		return
	case err != nil:
		m.recordsDecodedTotal.WithLabelValues(resultPartial).Inc()
	default:
		m.recordsDecodedTotal.WithLabelValues(resultOK).Inc()
	}

	for _, s := range rec.Sections {
		m.sectionsTotal.WithLabelValues(sectionLabel(s), sectionResult(s)).Inc()
	}
}

func sectionLabel(s *cper.Section) string {
	if s.Name == "" {
		return "unknown"
	}
	return s.Name
}

func sectionResult(s *cper.Section) string {
	switch {
	case errors.Is(s.Err, cper.ErrSectionTooSmall):
		return resultTooSmall
	case s.Err != nil:
		return statusError
	case s.Known():
		return resultDecoded
	default:
		return resultUndecoded
	}
}

// RecordStore counts a write to the record store
func (m *Metrics) RecordStore(err error) {
	result := resultStored
	switch {
	case errors.Is(err, store.ErrInvalidRecord):
		result = resultRejected
	case err != nil:
		result = statusError
	}
	m.recordsStoredTotal.WithLabelValues(result).Inc()
}

// UpdateStoreStats updates record store statistics
func (m *Metrics) UpdateStoreStats(stats *store.StoreStats) {
	m.storeRecords.Set(float64(stats.Records))
	m.storeDataSizeBytes.Set(float64(stats.DataSize))
}

// RecordAuthRequest records an authentication request
func (m *Metrics) RecordAuthRequest(success bool) {
	status := statusSuccess
	if !success {
		status = statusError
	}
	m.authRequestsTotal.WithLabelValues(status).Inc()
}

// RecordHealthCheck records a health check
func (m *Metrics) RecordHealthCheck(success bool) {
	status := statusSuccess
	if !success {
		status = statusError
	}
	m.healthChecksTotal.WithLabelValues(status).Inc()
}

// InstrumentHandler instruments an HTTP handler with metrics
func (m *Metrics) InstrumentHandler(method, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Record request in flight
		gauge := m.httpRequestsInFlight.WithLabelValues(method, endpoint)
		gauge.Inc()
		defer gauge.Dec()

		// Create response writer wrapper to capture status code
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		handler(rw, r)

		m.RecordHTTPRequest(method, endpoint, rw.statusCode, time.Since(start))
	}
}

// InstrumentAuthMiddleware instruments the authentication middleware.
// Requests without a key are not counted as attempts.
func (m *Metrics) InstrumentAuthMiddleware(next func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hasAPIKey := r.Header.Get("X-API-Key") != ""

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next(h).ServeHTTP(rw, r)

			if hasAPIKey {
				m.RecordAuthRequest(rw.statusCode != http.StatusUnauthorized)
			}
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
