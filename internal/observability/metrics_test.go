package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pumpscope/pumpscope/internal/bitquery"
	"github.com/pumpscope/pumpscope/internal/screener"
)

func TestObserveCycle(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	started := time.Now().Add(-2 * time.Second)
	result := &screener.CycleResult{
		StartedAt:     started,
		FinishedAt:    started.Add(2 * time.Second),
		Candidates:    12,
		Screened:      10,
		FailedLookups: 2,
		PassedPrimary: 6,
		Tokens:        make([]screener.ScoredToken, 4),
		Summary:       screener.Summary{MaxScore: 8.4},
	}
	m.ObserveCycle(result)
	m.ObserveCycle(result)
	m.ObserveFailure()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CyclesTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CyclesTotal.WithLabelValues("failed")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.Candidates))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.PassedPrimary))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FailedLookups))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.TokensRanked))
	assert.Equal(t, 8.4, testutil.ToFloat64(m.TopScore))
}

func TestProviderAndAuxGauges(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.SetProviderStats(bitquery.Stats{Requests: 120, Errors: 3, QuotaHits: 1})
	m.SetAlertsSent(5)
	m.SetWSClients(2)

	assert.Equal(t, 120.0, testutil.ToFloat64(m.ProviderRequests))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ProviderErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderQuotaHits))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.AlertsSent))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.WSClients))
}

func TestNewMetricsIsolatedRegistries(t *testing.T) {
	// Two instances must not collide when each carries its own registry.
	require.NotPanics(t, func() {
		NewMetrics(prometheus.NewRegistry())
		NewMetrics(prometheus.NewRegistry())
	})
}
