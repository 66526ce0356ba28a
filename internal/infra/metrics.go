package infra

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus collector of the dashboard core.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	ActionsTotal     *prometheus.CounterVec
	ActionLatency    *prometheus.HistogramVec
	APIRequestsTotal *prometheus.CounterVec
	FeedMessages     *prometheus.CounterVec
	FeedReconnects   prometheus.Counter
	BreakerState     *prometheus.GaugeVec
	Invalidations    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ActionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lending_actions_total",
			Help: "Submitted lending actions by kind and outcome",
		}, []string{"kind", "outcome"}),

		ActionLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lending_action_latency_ms",
			Help:    "Round trip of a lending action request in milliseconds",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}, []string{"kind"}),

		APIRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lending_api_requests_total",
			Help: "Lending API requests by endpoint and status class",
		}, []string{"endpoint", "status"}),

		FeedMessages: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lending_feed_messages_total",
			Help: "Push feed frames by message type (malformed and unknown included)",
		}, []string{"type"}),

		FeedReconnects: f.NewCounter(prometheus.CounterOpts{
			Name: "lending_feed_reconnects_total",
			Help: "Push feed reconnect attempts",
		}),

		BreakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lending_circuit_breaker_state",
			Help: "0 closed, 1 open, 2 half-open",
		}, []string{"name"}),

		Invalidations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lending_cache_invalidations_total",
			Help: "Cache invalidations by key",
		}, []string{"key"}),
	}
}

func (m *Metrics) RecordAction(kind, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.ActionsTotal.WithLabelValues(kind, outcome).Inc()
	m.ActionLatency.WithLabelValues(kind).Observe(float64(took.Milliseconds()))
}

func (m *Metrics) RecordAPIRequest(endpoint, status string) {
	if m == nil {
		return
	}
	m.APIRequestsTotal.WithLabelValues(endpoint, status).Inc()
}

func (m *Metrics) RecordFeedMessage(msgType string) {
	if m == nil {
		return
	}
	m.FeedMessages.WithLabelValues(msgType).Inc()
}

func (m *Metrics) RecordFeedReconnect() {
	if m == nil {
		return
	}
	m.FeedReconnects.Inc()
}

func (m *Metrics) RecordInvalidation(key string) {
	if m == nil {
		return
	}
	m.Invalidations.WithLabelValues(key).Inc()
}

// BreakerStateHook adapts the gauge to CircuitBreakerConfig.OnStateChange.
func (m *Metrics) BreakerStateHook() func(name string, to State) {
	return func(name string, to State) {
		if m == nil {
			return
		}
		m.BreakerState.WithLabelValues(name).Set(float64(to))
	}
}
