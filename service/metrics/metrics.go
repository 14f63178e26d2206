package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the gateway.
// It is passed explicitly to every component that records metrics.
type Metrics struct {
	// Solana RPC Metrics
	solanaRPCCallsTotal   *prometheus.CounterVec
	solanaRPCCallDuration *prometheus.HistogramVec

	// Query Metrics
	feeRecommended      *prometheus.GaugeVec
	feeSamples          *prometheus.HistogramVec
	signaturesFetched   *prometheus.CounterVec
	signaturesKept      *prometheus.CounterVec
	envelopeErrorsTotal *prometheus.CounterVec

	// HTTP Metrics
	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec

	// NATS Metrics
	natsMessagesPublished *prometheus.CounterVec
	natsPublishDuration   *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		// Solana RPC Metrics
		solanaRPCCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solana_rpc_calls_total",
				Help: "Total number of Solana RPC calls by method, status and network",
			},
			[]string{"method", "status", "network"},
		),
		solanaRPCCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "solana_rpc_call_duration_seconds",
				Help:    "Duration of Solana RPC calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method", "network"},
		),

		// Query Metrics
		feeRecommended: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "priority_fee_recommended_micro_lamports",
				Help: "Most recently recommended priority fee in micro-lamports per compute unit",
			},
			[]string{"network"},
		),
		feeSamples: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "priority_fee_samples",
				Help:    "Number of non-zero prioritization fee samples behind a recommendation",
				Buckets: []float64{1, 10, 25, 50, 100, 150},
			},
			[]string{"network"},
		),
		signaturesFetched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signatures_fetched_total",
				Help: "Total number of signatures returned by the node before memo filtering",
			},
			[]string{"network"},
		),
		signaturesKept: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signatures_kept_total",
				Help: "Total number of signatures that carried the memo marker",
			},
			[]string{"network"},
		),
		envelopeErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "envelope_errors_total",
				Help: "Total number of failure envelopes by handler and error kind",
			},
			[]string{"handler", "kind"},
		),

		// HTTP Metrics
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"handler", "method", "status"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"handler", "method", "status"},
		),

		// NATS Metrics
		natsMessagesPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nats_messages_published_total",
				Help: "Total number of NATS messages published",
			},
			[]string{"subject", "status"},
		),
		natsPublishDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nats_publish_duration_seconds",
				Help:    "Duration of NATS publish operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"subject"},
		),
	}
}

// Solana RPC metric helpers

// RecordRPCCall records a Solana RPC call with duration.
func (m *Metrics) RecordRPCCall(method, status, network string, duration float64) {
	m.solanaRPCCallsTotal.WithLabelValues(method, status, network).Inc()
	m.solanaRPCCallDuration.WithLabelValues(method, network).Observe(duration)
}

// Query metric helpers

// RecordFeeRecommendation records the latest recommended fee and how many
// samples it was drawn from.
func (m *Metrics) RecordFeeRecommendation(network string, fee uint64, samples int) {
	m.feeRecommended.WithLabelValues(network).Set(float64(fee))
	m.feeSamples.WithLabelValues(network).Observe(float64(samples))
}

// RecordSignaturesFiltered records how many signatures the node returned and
// how many survived the memo filter.
func (m *Metrics) RecordSignaturesFiltered(network string, fetched, kept int) {
	m.signaturesFetched.WithLabelValues(network).Add(float64(fetched))
	m.signaturesKept.WithLabelValues(network).Add(float64(kept))
}

// RecordEnvelopeError records a failure envelope written by a handler.
func (m *Metrics) RecordEnvelopeError(handler, kind string) {
	m.envelopeErrorsTotal.WithLabelValues(handler, kind).Inc()
}

// HTTP metric helpers

// RecordHTTPRequest records an HTTP request with duration.
func (m *Metrics) RecordHTTPRequest(handler, method string, statusCode int, duration float64) {
	status := statusCodeToString(statusCode)
	m.httpRequestDuration.WithLabelValues(handler, method, status).Observe(duration)
	m.httpRequestsTotal.WithLabelValues(handler, method, status).Inc()
}

// NATS metric helpers

// RecordNATSPublish records a NATS publish operation.
func (m *Metrics) RecordNATSPublish(subject, status string, duration float64) {
	m.natsMessagesPublished.WithLabelValues(subject, status).Inc()
	m.natsPublishDuration.WithLabelValues(subject).Observe(duration)
}

// Helper functions

func statusCodeToString(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "unknown"
	}
}
