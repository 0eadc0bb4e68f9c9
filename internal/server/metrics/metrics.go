// Package metrics exposes Prometheus counters for token issuance and
// verification outcomes, plus the current size of the unverified token cache.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chestkeeper"

// Verification outcomes used as the "outcome" label value.
const (
	OutcomeOK                   = "ok"
	OutcomeForbidden            = "forbidden"
	OutcomeAuthorityUnavailable = "authority_unavailable"
	OutcomeStorage              = "storage_error"
	OutcomeError                = "error"
)

// Sizer reports the number of entries held by a cache.
type Sizer interface {
	Len() int
}

// Metrics owns a private registry so several instances can coexist in tests.
type Metrics struct {
	registry      *prometheus.Registry
	tokensIssued  prometheus.Counter
	verifications *prometheus.CounterVec
	rateLimited   prometheus.Counter
}

// New registers the chestkeeper collectors. cache backs the
// unverified_tokens gauge.
func New(cache Sizer) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_issued_total",
			Help:      "Unverified tokens issued.",
		}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Token authentications by outcome.",
		}, []string{"outcome"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_requests_rate_limited_total",
			Help:      "Token requests rejected by the per-client rate limit.",
		}),
	}

	unverified := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "unverified_tokens",
		Help:      "Unverified tokens currently held in memory.",
	}, func() float64 { return float64(cache.Len()) })

	m.registry.MustRegister(
		m.tokensIssued,
		m.verifications,
		m.rateLimited,
		unverified,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) TokenIssued() { m.tokensIssued.Inc() }

func (m *Metrics) Verification(outcome string) {
	m.verifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RateLimited() { m.rateLimited.Inc() }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
