// Package alert pushes high-score tokens to chat channels. Alerting is an
// operational tap on committed cycles; the screening pipeline itself never
// remembers tokens across runs.
package alert

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/pumpscope/pumpscope/internal/screener"
)

// Alert is one high-score notification.
type Alert struct {
	Mint      string
	Name      string
	Symbol    string
	Score     float64
	Band      string
	RiskScore float64
	VolumeSOL decimal.Decimal
	BuysPerMn float64
	Reasons   []string
	URL       string
}

// Notifier delivers one alert to one channel.
type Notifier interface {
	Name() string
	Send(ctx context.Context, a Alert) error
}

// Config tunes dispatching.
type Config struct {
	Enabled  bool
	MinScore float64
	Cooldown time.Duration // per-mint mute after an alert
}

// DefaultConfig returns the shipped alerting thresholds.
func DefaultConfig() Config {
	return Config{
		MinScore: 7.0,
		Cooldown: 30 * time.Minute,
	}
}

// Dispatcher fans qualifying tokens out to every notifier. The per-mint
// cooldown is delivery dedup only and holds no screening state.
type Dispatcher struct {
	config    Config
	notifiers []Notifier

	mu       sync.Mutex
	lastSent map[string]time.Time

	sent    atomic.Uint64
	muted   atomic.Uint64
	dropped atomic.Uint64
}

// Stats is a point-in-time counter snapshot.
type Stats struct {
	Sent    uint64 `json:"sent"`
	Muted   uint64 `json:"muted"`
	Dropped uint64 `json:"dropped"`
}

// NewDispatcher creates a dispatcher over the given channels.
func NewDispatcher(config Config, notifiers ...Notifier) *Dispatcher {
	if config.MinScore <= 0 {
		config.MinScore = 7.0
	}
	if config.Cooldown <= 0 {
		config.Cooldown = 30 * time.Minute
	}
	return &Dispatcher{
		config:    config,
		notifiers: notifiers,
		lastSent:  make(map[string]time.Time),
	}
}

// Stats returns delivery counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Sent:    d.sent.Load(),
		Muted:   d.muted.Load(),
		Dropped: d.dropped.Load(),
	}
}

// Dispatch sends alerts for every qualifying token of a committed cycle.
// Deliveries run synchronously; callers hang it off the result callback on
// their own goroutine. Returns the number of alerts sent.
func (d *Dispatcher) Dispatch(ctx context.Context, result *screener.CycleResult) int {
	if !d.config.Enabled || len(d.notifiers) == 0 {
		return 0
	}

	now := time.Now()
	var fired int
	for _, tok := range result.Tokens {
		if tok.Score < d.config.MinScore {
			continue
		}
		if !d.claim(tok.Mint, now) {
			d.muted.Add(1)
			continue
		}

		a := Alert{
			Mint:      tok.Mint,
			Name:      tok.Name,
			Symbol:    tok.Symbol,
			Score:     tok.Score,
			Band:      tok.Band,
			RiskScore: tok.RiskScore,
			VolumeSOL: tok.Features.VolumeSOL,
			BuysPerMn: tok.Features.BuysPerMinute,
			Reasons:   tok.Reasons,
			URL:       tok.URL,
		}
		for _, n := range d.notifiers {
			d.deliver(ctx, n, a)
		}
		fired++
	}
	return fired
}

// claim marks a mint as alerted unless it is still inside the cooldown.
// Expired entries are pruned on the way through.
func (d *Dispatcher) claim(mint string, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	for m, at := range d.lastSent {
		if now.Sub(at) > d.config.Cooldown {
			delete(d.lastSent, m)
		}
	}
	if at, ok := d.lastSent[mint]; ok && now.Sub(at) <= d.config.Cooldown {
		return false
	}
	d.lastSent[mint] = now
	return true
}

// retryInitialInterval seeds the delivery backoff; tests shrink it.
var retryInitialInterval = 500 * time.Millisecond

// deliver retries transient channel failures with exponential backoff.
func (d *Dispatcher) deliver(ctx context.Context, n Notifier, a Alert) {
	op := func() error { return n.Send(ctx, a) }
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = retryInitialInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, 3), ctx)

	if err := backoff.Retry(op, policy); err != nil {
		d.dropped.Add(1)
		log.Error().Err(err).
			Str("notifier", n.Name()).
			Str("mint", a.Mint).
			Msg("alert delivery failed")
		return
	}
	d.sent.Add(1)
}

// Format renders the shared alert text.
func Format(a Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🚨 pump score %.1f | %s (%s)\n", a.Score, a.Symbol, a.Name)
	fmt.Fprintf(&b, "volume %s SOL | %.0f buys/min | risk %.2f\n", a.VolumeSOL.StringFixed(0), a.BuysPerMn, a.RiskScore)
	if len(a.Reasons) > 0 {
		fmt.Fprintf(&b, "signals: %s\n", strings.Join(a.Reasons, ", "))
	}
	b.WriteString(a.URL)
	return b.String()
}
