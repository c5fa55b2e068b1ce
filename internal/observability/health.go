// Package observability aggregates component health and exports prometheus
// metrics for the screening service.
package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pumpscope/pumpscope/internal/bitquery"
	"github.com/pumpscope/pumpscope/internal/pumpfun"
	"github.com/pumpscope/pumpscope/internal/refresh"
)

// Status is a component health level.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// severity orders statuses for worst-wins aggregation.
func severity(s Status) int {
	switch s {
	case StatusDegraded:
		return 1
	case StatusUnhealthy:
		return 2
	default:
		return 0
	}
}

// Report is one component's health reading.
type Report struct {
	Name      string         `json:"name"`
	Status    Status         `json:"status"`
	Message   string         `json:"message,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CheckedAt time.Time      `json:"checked_at"`
}

// Check produces a component report. Checks read in-process counters only,
// so they are cheap enough to run per HTTP request.
type Check func(ctx context.Context) Report

// Health is the aggregate system reading: the worst component status wins.
type Health struct {
	Status     Status            `json:"status"`
	Components map[string]Report `json:"components"`
	UptimeSec  int64             `json:"uptime_sec"`
	Timestamp  time.Time         `json:"ts"`
}

// Monitor runs registered checks periodically and logs status transitions.
type Monitor struct {
	mu      sync.RWMutex
	checks  map[string]Check
	results map[string]Report

	started  time.Time
	interval time.Duration
}

// NewMonitor creates a monitor with the given check cadence.
func NewMonitor(interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Monitor{
		checks:   make(map[string]Check),
		results:  make(map[string]Report),
		started:  time.Now(),
		interval: interval,
	}
}

// Register adds a named check. Call before Start.
func (m *Monitor) Register(name string, check Check) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks[name] = check
}

// Start runs the check loop until ctx dies.
func (m *Monitor) Start(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.runChecks(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.runChecks(ctx)
		}
	}
}

// Check runs every registered check now and returns the aggregate.
func (m *Monitor) Check(ctx context.Context) Health {
	m.runChecks(ctx)

	m.mu.RLock()
	defer m.mu.RUnlock()

	components := make(map[string]Report, len(m.results))
	worst := StatusHealthy
	for name, r := range m.results {
		components[name] = r
		if severity(r.Status) > severity(worst) {
			worst = r.Status
		}
	}
	return Health{
		Status:     worst,
		Components: components,
		UptimeSec:  int64(time.Since(m.started) / time.Second),
		Timestamp:  time.Now().UTC(),
	}
}

func (m *Monitor) runChecks(ctx context.Context) {
	m.mu.RLock()
	checks := make(map[string]Check, len(m.checks))
	for name, fn := range m.checks {
		checks[name] = fn
	}
	m.mu.RUnlock()

	for name, fn := range checks {
		report := fn(ctx)
		report.Name = name
		report.CheckedAt = time.Now().UTC()

		m.mu.Lock()
		prev, existed := m.results[name]
		m.results[name] = report
		m.mu.Unlock()

		if existed && prev.Status != report.Status {
			evt := log.Info()
			if severity(report.Status) > severity(prev.Status) {
				evt = log.Warn()
			}
			evt.Str("component", name).
				Str("from", string(prev.Status)).
				Str("to", string(report.Status)).
				Str("reason", report.Message).
				Msg("component health changed")
		}
	}
}

// ProviderCheck reads the bitquery client counters. An open breaker is
// unhealthy; an elevated error ratio is degraded.
func ProviderCheck(stats func() bitquery.Stats) Check {
	return func(_ context.Context) Report {
		s := stats()
		r := Report{
			Status: StatusHealthy,
			Details: map[string]any{
				"requests":   s.Requests,
				"errors":     s.Errors,
				"quota_hits": s.QuotaHits,
				"breaker":    s.BreakerState,
			},
		}
		switch {
		case s.BreakerState == "open":
			r.Status = StatusUnhealthy
			r.Message = "circuit breaker open"
		case s.Requests >= 10 && float64(s.Errors) > 0.2*float64(s.Requests):
			r.Status = StatusDegraded
			r.Message = fmt.Sprintf("elevated error rate: %d of %d requests", s.Errors, s.Requests)
		}
		return r
	}
}

// CatalogCheck reads the pump.fun catalog counters. A mostly-failing
// catalog is degraded, never worse: the sample universe keeps cycles alive.
func CatalogCheck(stats func() pumpfun.Stats) Check {
	return func(_ context.Context) Report {
		s := stats()
		r := Report{
			Status: StatusHealthy,
			Details: map[string]any{
				"requests": s.Requests,
				"errors":   s.Errors,
			},
		}
		if s.Requests >= 2 && float64(s.Errors) > 0.5*float64(s.Requests) {
			r.Status = StatusDegraded
			r.Message = "catalog failing, sample universe in use"
		}
		return r
	}
}

// FreshnessCheck fails when the refresh loop stops committing cycles.
func FreshnessCheck(stats func() refresh.Stats, maxAge time.Duration) Check {
	return func(_ context.Context) Report {
		s := stats()
		r := Report{
			Status: StatusHealthy,
			Details: map[string]any{
				"state":    s.State,
				"cycles":   s.Cycles,
				"failures": s.Failures,
				"last_run": s.LastRun,
			},
		}
		switch {
		case s.Cycles == 0 && s.Failures == 0:
			r.Status = StatusDegraded
			r.Message = "no completed cycle yet"
		case s.Cycles == 0:
			r.Status = StatusUnhealthy
			r.Message = "every cycle so far has failed"
		case time.Since(s.LastRun) > maxAge:
			r.Status = StatusUnhealthy
			r.Message = fmt.Sprintf("last cycle older than %s", maxAge)
		}
		return r
	}
}
