package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := MustNew(prometheus.NewRegistry())

	m.Webhook(OutcomeScheduled)
	m.Webhook(OutcomeDuplicate)
	m.Webhook(OutcomeDuplicate)
	m.ProviderCall("send", ResultFailure)
	m.Scheduled()
	m.Scheduled()
	m.Expired()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.webhooks.WithLabelValues(OutcomeScheduled)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.webhooks.WithLabelValues(OutcomeDuplicate)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.providerCalls.WithLabelValues("send", ResultFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.expired))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pending))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Webhook(OutcomeInvalid)
		m.ProviderCall("register", ResultSuccess)
		m.Scheduled()
		m.Expired()
	})
}

func TestMustNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	MustNew(reg)
	assert.Panics(t, func() { MustNew(reg) })
}
