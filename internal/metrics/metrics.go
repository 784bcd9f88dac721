// Package metrics provides observability for sign-in flows.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/shivanshkc/oidcflow/pkg/oauth"
)

// Metrics implements flow.Observer.
type Metrics struct {
	// Terminal flow outcomes: success, error, canceled.
	FlowOutcome *prometheus.CounterVec

	// Token exchange latency by result, "ok" or the error type.
	ExchangeLatency *prometheus.HistogramVec
}

// New creates the collectors and registers them with the given registerer.
func New(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		FlowOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "oidcflow_flow_outcomes_total",
			Help: "Total sign-in flow outcomes",
		}, []string{"outcome"}),

		ExchangeLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "oidcflow_token_exchange_duration_seconds",
			Help:    "Duration of authorization code exchanges",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"result"}),
	}
}

// FlowFinished records a terminal outcome.
func (m *Metrics) FlowFinished(outcome string) {
	if m != nil {
		m.FlowOutcome.WithLabelValues(outcome).Inc()
	}
}

// ExchangeCompleted records the duration of a token exchange.
func (m *Metrics) ExchangeCompleted(elapsed time.Duration, err error) {
	if m == nil {
		return
	}

	result := "ok"
	if err != nil {
		result = "error"
		var oauthErr *oauth.Error
		if errors.As(err, &oauthErr) {
			result = oauthErr.Type.String()
		}
	}
	m.ExchangeLatency.WithLabelValues(result).Observe(elapsed.Seconds())
}
