// Package metrics exposes login pipeline measurements in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/brizzai/oauth-login/internal/auth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

const namespace = "oauth_login"

// Metrics owns a private registry so tests and multiple apps do not collide
// on the global default registry.
type Metrics struct {
	registry     *prometheus.Registry
	callbacks    *prometheus.CounterVec
	upstream     *prometheus.HistogramVec
	usersCreated prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		callbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "callbacks_total",
			Help:      "Login callbacks handled, by outcome.",
		}, []string{"outcome"}),
		upstream: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of calls to the identity provider.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"stage"}),
		usersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "users_created_total",
			Help:      "Local users created on first login.",
		}),
	}
	m.registry.MustRegister(
		m.callbacks,
		m.upstream,
		m.usersCreated,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) CallbackOutcome(outcome string) {
	m.callbacks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveUpstream(stage string, d time.Duration) {
	m.upstream.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) UserCreated() {
	m.usersCreated.Inc()
}

// Registry is exposed for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

var _ auth.Observer = (*Metrics)(nil)

// Module provides *Metrics and binds it as the pipeline observer
var Module = fx.Module("metrics",
	fx.Provide(
		New,
		func(m *Metrics) auth.Observer { return m },
	),
)
