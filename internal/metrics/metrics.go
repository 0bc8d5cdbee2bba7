// Package metrics exposes Prometheus collectors for webhook handling and
// provider delivery.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "checkout_notifier"

// Webhook outcomes.
const (
	OutcomeScheduled = "scheduled"
	OutcomeDuplicate = "duplicate"
	OutcomeInvalid   = "invalid"
	OutcomeError     = "error"
)

// Provider call results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics is safe to use through a nil pointer; every method is then a no-op.
type Metrics struct {
	webhooks      *prometheus.CounterVec
	providerCalls *prometheus.CounterVec
	expired       prometheus.Counter
	pending       prometheus.Gauge
}

// MustNew registers the collectors on reg and panics on a duplicate
// registration. A nil reg means prometheus.DefaultRegisterer.
func MustNew(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhooks_total",
			Help:      "Abandoned checkout webhooks received, by outcome.",
		}, []string{"outcome"}),
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_calls_total",
			Help:      "Calls made to the messaging provider, by task kind and result.",
		}, []string{"kind", "result"}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expired_total",
			Help:      "Checkout ids evicted from the pending set by their expiry task.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_checkouts",
			Help:      "Checkout ids this instance currently holds in its dedup window.",
		}),
	}
	reg.MustRegister(m.webhooks, m.providerCalls, m.expired, m.pending)
	return m
}

func (m *Metrics) Webhook(outcome string) {
	if m == nil {
		return
	}
	m.webhooks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ProviderCall(kind, result string) {
	if m == nil {
		return
	}
	m.providerCalls.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) Scheduled() {
	if m == nil {
		return
	}
	m.pending.Inc()
}

func (m *Metrics) Expired() {
	if m == nil {
		return
	}
	m.expired.Inc()
	m.pending.Dec()
}
