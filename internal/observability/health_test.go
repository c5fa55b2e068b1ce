package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pumpscope/pumpscope/internal/bitquery"
	"github.com/pumpscope/pumpscope/internal/pumpfun"
	"github.com/pumpscope/pumpscope/internal/refresh"
)

func staticCheck(status Status, msg string) Check {
	return func(context.Context) Report {
		return Report{Status: status, Message: msg}
	}
}

func TestMonitorWorstStatusWins(t *testing.T) {
	m := NewMonitor(time.Minute)
	m.Register("a", staticCheck(StatusHealthy, ""))
	m.Register("b", staticCheck(StatusDegraded, "slow"))
	m.Register("c", staticCheck(StatusHealthy, ""))

	health := m.Check(context.Background())

	assert.Equal(t, StatusDegraded, health.Status)
	require.Len(t, health.Components, 3)
	assert.Equal(t, "b", health.Components["b"].Name)
	assert.Equal(t, "slow", health.Components["b"].Message)
	assert.False(t, health.Components["a"].CheckedAt.IsZero())

	m.Register("d", staticCheck(StatusUnhealthy, "down"))
	health = m.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, health.Status)
}

func TestMonitorAllHealthy(t *testing.T) {
	m := NewMonitor(time.Minute)
	m.Register("only", staticCheck(StatusHealthy, ""))

	health := m.Check(context.Background())

	assert.Equal(t, StatusHealthy, health.Status)
	assert.GreaterOrEqual(t, health.UptimeSec, int64(0))
	assert.False(t, health.Timestamp.IsZero())
}

func TestMonitorEmpty(t *testing.T) {
	m := NewMonitor(time.Minute)

	health := m.Check(context.Background())

	assert.Equal(t, StatusHealthy, health.Status)
	assert.Empty(t, health.Components)
}

func TestProviderCheck(t *testing.T) {
	cases := []struct {
		name  string
		stats bitquery.Stats
		want  Status
	}{
		{"nominal", bitquery.Stats{Requests: 100, Errors: 2, BreakerState: "closed"}, StatusHealthy},
		{"breaker open", bitquery.Stats{Requests: 40, Errors: 12, BreakerState: "open"}, StatusUnhealthy},
		{"error rate high", bitquery.Stats{Requests: 50, Errors: 20, BreakerState: "closed"}, StatusDegraded},
		{"few requests tolerated", bitquery.Stats{Requests: 4, Errors: 3, BreakerState: "closed"}, StatusHealthy},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			check := ProviderCheck(func() bitquery.Stats { return tc.stats })
			report := check(context.Background())
			assert.Equal(t, tc.want, report.Status)
			assert.Equal(t, tc.stats.BreakerState, report.Details["breaker"])
		})
	}
}

func TestCatalogCheck(t *testing.T) {
	check := CatalogCheck(func() pumpfun.Stats { return pumpfun.Stats{Requests: 10, Errors: 8} })
	report := check(context.Background())
	assert.Equal(t, StatusDegraded, report.Status)
	assert.Contains(t, report.Message, "sample universe")

	check = CatalogCheck(func() pumpfun.Stats { return pumpfun.Stats{Requests: 10, Errors: 1} })
	assert.Equal(t, StatusHealthy, check(context.Background()).Status)
}

func TestFreshnessCheck(t *testing.T) {
	cases := []struct {
		name  string
		stats refresh.Stats
		want  Status
	}{
		{"fresh", refresh.Stats{Cycles: 3, LastRun: time.Now()}, StatusHealthy},
		{"not started", refresh.Stats{}, StatusDegraded},
		{"all failing", refresh.Stats{Failures: 4}, StatusUnhealthy},
		{"stale", refresh.Stats{Cycles: 3, LastRun: time.Now().Add(-time.Hour)}, StatusUnhealthy},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			check := FreshnessCheck(func() refresh.Stats { return tc.stats }, 5*time.Minute)
			assert.Equal(t, tc.want, check(context.Background()).Status)
		})
	}
}

func TestMonitorStartStopsOnContext(t *testing.T) {
	m := NewMonitor(5 * time.Millisecond)
	m.Register("tick", staticCheck(StatusHealthy, ""))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Start(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop after cancel")
	}

	health := m.Check(context.Background())
	assert.Equal(t, StatusHealthy, health.Components["tick"].Status)
}
