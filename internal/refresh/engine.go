// Package refresh drives screening cycles on a timer. One loop owns the
// schedule: cycles never overlap, manual triggers during a running cycle
// collapse into a single follow-up run, and interval or criteria changes
// take effect when the next cycle arms.
package refresh

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pumpscope/pumpscope/internal/screener"
)

// RunFunc executes one screening cycle under a criteria snapshot.
type RunFunc func(ctx context.Context, criteria screener.Criteria) (*screener.CycleResult, error)

// Config bounds the polling schedule.
type Config struct {
	Interval    time.Duration
	MinInterval time.Duration
	MaxInterval time.Duration
}

// DefaultConfig returns the shipped schedule: 30s cadence, clamped 10s-300s.
func DefaultConfig() Config {
	return Config{
		Interval:    30 * time.Second,
		MinInterval: 10 * time.Second,
		MaxInterval: 300 * time.Second,
	}
}

const (
	stateIdle int32 = iota
	stateRefreshing
)

// Engine is the refresh loop. Construct with NewEngine, wire OnResult, then
// Start; Start blocks until the context dies.
type Engine struct {
	config Config
	run    RunFunc

	onResult func(*screener.CycleResult)

	mu       sync.Mutex
	criteria screener.Criteria
	interval time.Duration
	lastRun  time.Time
	nextRun  time.Time

	running  atomic.Bool
	state    atomic.Int32
	pending  atomic.Bool
	trigger  chan struct{}
	cycles   atomic.Uint64
	failures atomic.Uint64
}

// Stats is a point-in-time schedule snapshot.
type Stats struct {
	State       string    `json:"state"`
	IntervalSec int       `json:"interval_sec"`
	Cycles      uint64    `json:"cycles"`
	Failures    uint64    `json:"failures"`
	Pending     bool      `json:"pending"`
	LastRun     time.Time `json:"last_run"`
	NextRun     time.Time `json:"next_run"`
}

// NewEngine creates an engine around a cycle runner.
func NewEngine(config Config, run RunFunc) *Engine {
	if config.MinInterval <= 0 {
		config.MinInterval = 10 * time.Second
	}
	if config.MaxInterval < config.MinInterval {
		config.MaxInterval = 300 * time.Second
	}
	if config.Interval <= 0 {
		config.Interval = 30 * time.Second
	}

	e := &Engine{
		config:   config,
		run:      run,
		criteria: screener.DefaultCriteria(),
		trigger:  make(chan struct{}, 1),
	}
	e.interval = e.clamp(config.Interval)
	return e
}

// OnResult registers the committed-cycle callback. Set before Start; the
// callback runs on the engine goroutine after each successful cycle.
func (e *Engine) OnResult(fn func(*screener.CycleResult)) {
	e.onResult = fn
}

// Start runs the refresh loop until ctx dies. The first cycle fires
// immediately.
func (e *Engine) Start(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return errors.New("refresh: engine already running")
	}
	defer e.running.Store(false)

	log.Info().Dur("interval", e.Interval()).Msg("refresh engine started")

	timer := time.NewTimer(0)
	defer timer.Stop()
	e.setNextRun(time.Now())

	for {
		select {
		case <-ctx.Done():
			log.Info().Uint64("cycles", e.cycles.Load()).Msg("refresh engine stopped")
			return nil
		case <-timer.C:
		case <-e.trigger:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		e.runOnce(ctx)
		if ctx.Err() != nil {
			continue // drain through ctx.Done on the next pass
		}

		// A trigger that landed mid-cycle collapsed into the pending bit:
		// run once more, otherwise arm the regular cadence.
		if e.pending.Swap(false) {
			timer.Reset(0)
			e.setNextRun(time.Now())
		} else {
			d := e.Interval()
			timer.Reset(d)
			e.setNextRun(time.Now().Add(d))
		}
	}
}

// Trigger requests an immediate cycle. During a running cycle the request
// collapses into one follow-up run; repeated triggers are deduplicated.
// Returns false when the request was queued rather than fired.
func (e *Engine) Trigger() bool {
	if e.state.Load() == stateRefreshing {
		e.pending.Store(true)
		return false
	}
	select {
	case e.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// SetCriteria stores the secondary filter for upcoming cycles. The cycle in
// flight keeps the snapshot it started with.
func (e *Engine) SetCriteria(c screener.Criteria) {
	c = c.Normalize()
	e.mu.Lock()
	e.criteria = c
	e.mu.Unlock()
}

// Criteria returns the thresholds upcoming cycles will use.
func (e *Engine) Criteria() screener.Criteria {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.criteria
}

// SetInterval updates the cadence, clamped to the configured bounds, and
// returns the value applied. The timer already armed keeps its deadline.
func (e *Engine) SetInterval(d time.Duration) time.Duration {
	d = e.clamp(d)
	e.mu.Lock()
	e.interval = d
	e.mu.Unlock()
	log.Info().Dur("interval", d).Msg("refresh interval updated")
	return d
}

// Interval returns the current cadence.
func (e *Engine) Interval() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.interval
}

// State reports "idle" or "refreshing".
func (e *Engine) State() string {
	if e.state.Load() == stateRefreshing {
		return "refreshing"
	}
	return "idle"
}

// Stats returns the schedule snapshot.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	lastRun, nextRun := e.lastRun, e.nextRun
	interval := e.interval
	e.mu.Unlock()

	return Stats{
		State:       e.State(),
		IntervalSec: int(interval / time.Second),
		Cycles:      e.cycles.Load(),
		Failures:    e.failures.Load(),
		Pending:     e.pending.Load(),
		LastRun:     lastRun,
		NextRun:     nextRun,
	}
}

func (e *Engine) runOnce(ctx context.Context) {
	e.state.Store(stateRefreshing)
	defer e.state.Store(stateIdle)

	criteria := e.Criteria()
	result, err := e.run(ctx, criteria)
	if err != nil {
		if ctx.Err() == nil {
			e.failures.Add(1)
			log.Error().Err(err).Msg("screening cycle failed")
		}
		return
	}

	e.mu.Lock()
	e.lastRun = time.Now()
	e.mu.Unlock()
	e.cycles.Add(1)

	if e.onResult != nil {
		e.onResult(result)
	}
}

func (e *Engine) setNextRun(t time.Time) {
	e.mu.Lock()
	e.nextRun = t
	e.mu.Unlock()
}

func (e *Engine) clamp(d time.Duration) time.Duration {
	if d < e.config.MinInterval {
		return e.config.MinInterval
	}
	if d > e.config.MaxInterval {
		return e.config.MaxInterval
	}
	return d
}
