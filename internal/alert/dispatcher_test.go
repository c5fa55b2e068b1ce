package alert

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pumpscope/pumpscope/internal/screener"
)

type fakeNotifier struct {
	mu    sync.Mutex
	sent  []Alert
	fails int // fail this many sends before succeeding
}

func (f *fakeNotifier) Name() string { return "fake" }

func (f *fakeNotifier) Send(_ context.Context, a Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fails > 0 {
		f.fails--
		return errors.New("channel down")
	}
	f.sent = append(f.sent, a)
	return nil
}

func (f *fakeNotifier) alerts() []Alert {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Alert(nil), f.sent...)
}

func resultWith(scores map[string]float64) *screener.CycleResult {
	r := &screener.CycleResult{ID: "cycle"}
	for mint, score := range scores {
		r.Tokens = append(r.Tokens, screener.ScoredToken{
			TokenCandidate: screener.TokenCandidate{Mint: mint, Symbol: "TK", Name: "Token"},
			Features:       screener.FeatureSet{VolumeSOL: decimal.NewFromInt(2500), BuysPerMinute: 40},
			Score:          score,
			Band:           screener.BandHigh,
		})
	}
	return r
}

func enabledConfig() Config {
	return Config{Enabled: true, MinScore: 7, Cooldown: 30 * time.Minute}
}

func TestDispatchThreshold(t *testing.T) {
	n := &fakeNotifier{}
	d := NewDispatcher(enabledConfig(), n)

	fired := d.Dispatch(context.Background(), resultWith(map[string]float64{
		"HighMint": 8.2,
		"MidMint":  6.9,
	}))

	assert.Equal(t, 1, fired)
	got := n.alerts()
	require.Len(t, got, 1)
	assert.Equal(t, "HighMint", got[0].Mint)
	assert.Equal(t, uint64(1), d.Stats().Sent)
}

func TestDispatchCooldown(t *testing.T) {
	n := &fakeNotifier{}
	d := NewDispatcher(enabledConfig(), n)

	r := resultWith(map[string]float64{"HotMint": 9.0})
	assert.Equal(t, 1, d.Dispatch(context.Background(), r))
	assert.Equal(t, 0, d.Dispatch(context.Background(), r), "same mint inside the cooldown stays muted")
	assert.Equal(t, uint64(1), d.Stats().Muted)
}

func TestDispatchCooldownExpires(t *testing.T) {
	n := &fakeNotifier{}
	cfg := enabledConfig()
	cfg.Cooldown = 10 * time.Millisecond
	d := NewDispatcher(cfg, n)

	r := resultWith(map[string]float64{"HotMint": 9.0})
	assert.Equal(t, 1, d.Dispatch(context.Background(), r))

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, d.Dispatch(context.Background(), r), "expired cooldowns are pruned")
	assert.Len(t, n.alerts(), 2)
}

func TestDispatchDisabled(t *testing.T) {
	n := &fakeNotifier{}
	cfg := enabledConfig()
	cfg.Enabled = false
	d := NewDispatcher(cfg, n)

	assert.Equal(t, 0, d.Dispatch(context.Background(), resultWith(map[string]float64{"HotMint": 9.9})))
	assert.Empty(t, n.alerts())
}

func TestDeliverRetriesTransientFailures(t *testing.T) {
	old := retryInitialInterval
	retryInitialInterval = time.Millisecond
	defer func() { retryInitialInterval = old }()

	n := &fakeNotifier{fails: 2}
	d := NewDispatcher(enabledConfig(), n)

	fired := d.Dispatch(context.Background(), resultWith(map[string]float64{"HotMint": 9.0}))

	assert.Equal(t, 1, fired)
	assert.Len(t, n.alerts(), 1, "two failures then success inside the retry budget")
	assert.Equal(t, uint64(1), d.Stats().Sent)
	assert.Zero(t, d.Stats().Dropped)
}

func TestDeliverDropsAfterRetryBudget(t *testing.T) {
	old := retryInitialInterval
	retryInitialInterval = time.Millisecond
	defer func() { retryInitialInterval = old }()

	n := &fakeNotifier{fails: 10}
	d := NewDispatcher(enabledConfig(), n)

	d.Dispatch(context.Background(), resultWith(map[string]float64{"HotMint": 9.0}))

	assert.Empty(t, n.alerts())
	assert.Equal(t, uint64(1), d.Stats().Dropped)
}

func TestFormat(t *testing.T) {
	text := Format(Alert{
		Mint:      "SomeMint",
		Name:      "Bonk",
		Symbol:    "BONK",
		Score:     7.25,
		RiskScore: 0.11,
		VolumeSOL: decimal.NewFromInt(2500),
		BuysPerMn: 45,
		Reasons:   []string{"dip_recovery", "lp_locked:95%"},
		URL:       "https://pump.fun/coin/SomeMint",
	})

	assert.Contains(t, text, "7.2")
	assert.Contains(t, text, "BONK")
	assert.Contains(t, text, "2500 SOL")
	assert.Contains(t, text, "dip_recovery")
	assert.Contains(t, text, "https://pump.fun/coin/SomeMint")
}
