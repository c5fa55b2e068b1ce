package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pumpscope/pumpscope/internal/bitquery"
	"github.com/pumpscope/pumpscope/internal/screener"
)

const metricsNamespace = "pumpscope"

// Metrics holds every prometheus metric the service exports.
type Metrics struct {
	CyclesTotal   *prometheus.CounterVec
	CycleDuration prometheus.Histogram

	Candidates    prometheus.Gauge
	PassedPrimary prometheus.Gauge
	FailedLookups prometheus.Gauge
	TokensRanked  prometheus.Gauge
	TopScore      prometheus.Gauge

	ProviderRequests  prometheus.Gauge
	ProviderErrors    prometheus.Gauge
	ProviderQuotaHits prometheus.Gauge

	AlertsSent prometheus.Gauge
	WSClients  prometheus.Gauge
}

// NewMetrics registers the metric set with reg. Pass nil for the
// process-default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		CyclesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "screener",
			Name:      "cycles_total",
			Help:      "Completed screening cycles by outcome.",
		}, []string{"status"}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "screener",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of one full screening cycle.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}),
		Candidates: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "screener",
			Name:      "candidates",
			Help:      "Candidates discovered in the last cycle.",
		}),
		PassedPrimary: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "screener",
			Name:      "passed_primary",
			Help:      "Candidates past the hard gate in the last cycle.",
		}),
		FailedLookups: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "screener",
			Name:      "failed_lookups",
			Help:      "Candidates dropped for provider errors in the last cycle.",
		}),
		TokensRanked: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "screener",
			Name:      "tokens_ranked",
			Help:      "Tokens in the last published leaderboard.",
		}),
		TopScore: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "screener",
			Name:      "top_score",
			Help:      "Best pump score in the last cycle.",
		}),
		ProviderRequests: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "GraphQL requests issued since start.",
		}),
		ProviderErrors: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "provider",
			Name:      "errors_total",
			Help:      "GraphQL requests that failed since start.",
		}),
		ProviderQuotaHits: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "provider",
			Name:      "quota_hits_total",
			Help:      "Responses that signalled API quota exhaustion.",
		}),
		AlertsSent: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "alert",
			Name:      "sent_total",
			Help:      "Alerts delivered to notifiers since start.",
		}),
		WSClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "web",
			Name:      "ws_clients",
			Help:      "Connected websocket dashboard clients.",
		}),
	}
}

// ObserveCycle records a committed cycle.
func (m *Metrics) ObserveCycle(result *screener.CycleResult) {
	m.CyclesTotal.WithLabelValues("ok").Inc()
	m.CycleDuration.Observe(result.Duration().Seconds())
	m.Candidates.Set(float64(result.Candidates))
	m.PassedPrimary.Set(float64(result.PassedPrimary))
	m.FailedLookups.Set(float64(result.FailedLookups))
	m.TokensRanked.Set(float64(len(result.Tokens)))
	m.TopScore.Set(result.Summary.MaxScore)
}

// ObserveFailure records a cycle that returned an error.
func (m *Metrics) ObserveFailure() {
	m.CyclesTotal.WithLabelValues("failed").Inc()
}

// SetProviderStats mirrors the bitquery client counters.
func (m *Metrics) SetProviderStats(s bitquery.Stats) {
	m.ProviderRequests.Set(float64(s.Requests))
	m.ProviderErrors.Set(float64(s.Errors))
	m.ProviderQuotaHits.Set(float64(s.QuotaHits))
}

// SetAlertsSent mirrors the dispatcher sent counter.
func (m *Metrics) SetAlertsSent(n uint64) {
	m.AlertsSent.Set(float64(n))
}

// SetWSClients tracks the dashboard client count.
func (m *Metrics) SetWSClients(n int) {
	m.WSClients.Set(float64(n))
}

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
