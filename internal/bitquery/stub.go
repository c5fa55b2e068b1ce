package bitquery

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

// StubClient is a keyless Provider serving synthetic data derived from the
// mint address. The same mint always gets the same numbers, so demo runs and
// tests are reproducible. Roughly two thirds of mints clear the primary
// gate and every third one carries a dip-recovery trade window.
type StubClient struct {
	mu        sync.Mutex
	healthy   bool
	failMints map[string]bool

	calls     atomic.Uint64
	failCount atomic.Uint64
}

// NewStubClient creates a healthy stub.
func NewStubClient() *StubClient {
	return &StubClient{
		healthy:   true,
		failMints: make(map[string]bool),
	}
}

// SetHealthy toggles blanket failure mode.
func (s *StubClient) SetHealthy(healthy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthy = healthy
}

// FailMint forces every lookup for one mint to fail. Used to exercise
// per-token isolation.
func (s *StubClient) FailMint(mint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failMints[mint] = true
}

// Calls returns the number of lookups served.
func (s *StubClient) Calls() uint64 {
	return s.calls.Load()
}

// Stats returns stub counters in the live client's shape.
func (s *StubClient) Stats() Stats {
	return Stats{
		Requests:     s.calls.Load(),
		Errors:       s.failCount.Load(),
		BreakerState: "closed",
	}
}

func (s *StubClient) check(op, mint string) error {
	s.calls.Add(1)
	s.mu.Lock()
	failed := !s.healthy || s.failMints[mint]
	s.mu.Unlock()
	if failed {
		s.failCount.Add(1)
		return fmt.Errorf("bitquery: %s: stub failure for %s", op, mint)
	}
	return nil
}

// mintSeed hashes mint+salt into a stable value source.
func mintSeed(mint, salt string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(mint))
	h.Write([]byte{':'})
	h.Write([]byte(salt))
	return h.Sum64()
}

// FastStats returns synthetic momentum: 10-79 buys/min, 500-4999 SOL.
func (s *StubClient) FastStats(_ context.Context, mint string) (FastStats, error) {
	if err := s.check("FastStats", mint); err != nil {
		return FastStats{}, err
	}
	seed := mintSeed(mint, "fast")
	return FastStats{
		BuysPerMinute: float64(10 + seed%70),
		VolumeSOL:     decimal.NewFromInt(int64(500 + (seed>>8)%4500)),
	}, nil
}

// SupplyMetrics returns a 1B supply with a 0-29% creator bag and 50-99% of
// supply parked with the lock authority.
func (s *StubClient) SupplyMetrics(_ context.Context, mint, _ string) (SupplyMetrics, error) {
	if err := s.check("SupplySide", mint); err != nil {
		return SupplyMetrics{}, err
	}
	seed := mintSeed(mint, "supply")
	supply := decimal.NewFromInt(1_000_000_000)
	creatorPct := int64(seed % 30)
	lockPct := int64(50 + (seed>>8)%50)
	return SupplyMetrics{
		Supply:      supply,
		CreatorHeld: supply.Mul(decimal.NewFromInt(creatorPct)).Div(decimal.NewFromInt(100)),
		LPLocked:    supply.Mul(decimal.NewFromInt(lockPct)).Div(decimal.NewFromInt(100)),
	}, nil
}

// TopHolders returns ten wallets holding 10-49% of supply combined, in a
// descending geometric split.
func (s *StubClient) TopHolders(_ context.Context, mint string) ([]Holder, error) {
	if err := s.check("TopHolders", mint); err != nil {
		return nil, err
	}
	seed := mintSeed(mint, "holders")
	supply := decimal.NewFromInt(1_000_000_000)
	totalPct := decimal.NewFromInt(int64(10 + seed%40))
	pool := supply.Mul(totalPct).Div(decimal.NewFromInt(100))

	holders := make([]Holder, 10)
	remaining := pool
	for i := range holders {
		amount := remaining.Div(decimal.NewFromInt(2))
		if i == len(holders)-1 {
			amount = remaining
		}
		holders[i] = Holder{
			Address: fmt.Sprintf("stub-holder-%s-%d", mint[:min(4, len(mint))], i),
			Amount:  amount,
		}
		remaining = remaining.Sub(amount)
	}
	return holders, nil
}

// RecentTrades returns a 20 trade window. Every third mint shows a 50%
// dip followed by a 40% rebound; the rest chop sideways.
func (s *StubClient) RecentTrades(_ context.Context, mint string, lookback time.Duration) ([]TradeRow, error) {
	if err := s.check("RecentTrades", mint); err != nil {
		return nil, err
	}
	seed := mintSeed(mint, "trades")
	base := float64(1+seed%50) / 1e6
	recovers := seed%3 == 0

	start := time.Now().UTC().Add(-lookback)
	step := lookback / 20
	buyers := 3 + int(seed%10)

	trades := make([]TradeRow, 20)
	for i := range trades {
		var price float64
		switch {
		case recovers && i < 10:
			price = base * (1 - 0.05*float64(i)) // walk down to -50%
		case recovers:
			price = base * (0.5 + 0.02*float64(i-9)) // rebound past +40% off the low
		default:
			price = base * (1 + 0.05*float64(i%2)) // sideways chop
		}
		side := "buy"
		if i%3 == 2 {
			side = "sell"
		}
		trades[i] = TradeRow{
			At:     start.Add(time.Duration(i) * step),
			Price:  decimal.NewFromFloat(price),
			Amount: decimal.NewFromInt(int64(1 + (seed>>uint(i%8))%5)),
			Side:   side,
			Buyer:  fmt.Sprintf("stub-wallet-%d", i%buyers),
		}
	}
	return trades, nil
}
