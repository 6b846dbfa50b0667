package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the recorder webhook
// service.
type Metrics struct {
	registry            *prometheus.Registry
	requestsTotal       prometheus.Counter
	webhookEventsTotal  prometheus.Counter
	unhandledTotal      prometheus.Counter
	clipsCreatedTotal   prometheus.Counter
	clipsFinishedTotal  prometheus.Counter
	sessionsReapedTotal prometheus.Counter
	activeSessions      prometheus.Gauge
	errorsTotal         prometheus.Counter
}

// New creates and registers Prometheus metrics for the service.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recorder_http_requests_total",
		Help: "Total number of HTTP requests received",
	})
	webhookEventsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recorder_webhook_events_total",
		Help: "Total number of webhook events decoded",
	})
	unhandledTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recorder_unhandled_events_total",
		Help: "Total number of webhook events of kinds this service ignores",
	})
	clipsCreatedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recorder_clips_created_total",
		Help: "Total number of clips created in the catalog",
	})
	clipsFinishedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recorder_clips_finished_total",
		Help: "Total number of clips transitioned to finished",
	})
	sessionsReapedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recorder_sessions_reaped_total",
		Help: "Total number of stale sessions evicted by the reaper",
	})
	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "recorder_active_sessions",
		Help: "Number of recording sessions currently tracked",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recorder_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})

	registry.MustRegister(
		requestsTotal,
		webhookEventsTotal,
		unhandledTotal,
		clipsCreatedTotal,
		clipsFinishedTotal,
		sessionsReapedTotal,
		activeSessions,
		errorsTotal,
	)

	return &Metrics{
		registry:            registry,
		requestsTotal:       requestsTotal,
		webhookEventsTotal:  webhookEventsTotal,
		unhandledTotal:      unhandledTotal,
		clipsCreatedTotal:   clipsCreatedTotal,
		clipsFinishedTotal:  clipsFinishedTotal,
		sessionsReapedTotal: sessionsReapedTotal,
		activeSessions:      activeSessions,
		errorsTotal:         errorsTotal,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncWebhookEvents increments the decoded webhook event counter.
func (m *Metrics) IncWebhookEvents() {
	m.webhookEventsTotal.Inc()
}

// IncUnhandledEvents increments the ignored-event-kind counter.
func (m *Metrics) IncUnhandledEvents() {
	m.unhandledTotal.Inc()
}

// IncClipsCreated increments the clips created counter.
func (m *Metrics) IncClipsCreated() {
	m.clipsCreatedTotal.Inc()
}

// IncClipsFinished increments the clips finished counter.
func (m *Metrics) IncClipsFinished() {
	m.clipsFinishedTotal.Inc()
}

// AddSessionsReaped adds n to the reaped session counter.
func (m *Metrics) AddSessionsReaped(n int) {
	m.sessionsReapedTotal.Add(float64(n))
}

// SetActiveSessions sets the active sessions gauge.
func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values
// (e.g. active sessions).
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
