package screener

import (
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Trade-window analysis: VWAP, unique buyers, dip-and-recovery detection
// ---------------------------------------------------------------------------

// Trade is one swap inside the lookback window, oldest first.
type Trade struct {
	PriceSOL  decimal.Decimal
	AmountSOL decimal.Decimal
	Buyer     string
	At        time.Time
}

// VWAPConfig tunes the dip-recovery rule.
type VWAPConfig struct {
	LookbackMinutes int     `yaml:"lookback_minutes"`
	DropPct         float64 `yaml:"drop_pct"`     // min drawdown from window high, 0..1
	RecoveryPct     float64 `yaml:"recovery_pct"` // min rebound off the window low, 0..1
	MinTrades       int     `yaml:"min_trades"`
	MinPrices       int     `yaml:"min_prices"` // positive prices required
}

// DefaultVWAPConfig returns the shipped detector thresholds: a 40% drawdown
// followed by a 20% rebound within a 10 minute window.
func DefaultVWAPConfig() VWAPConfig {
	return VWAPConfig{
		LookbackMinutes: 10,
		DropPct:         0.4,
		RecoveryPct:     0.2,
		MinTrades:       10,
		MinPrices:       5,
	}
}

// RecoveryDetector flags tokens that dipped hard and bounced back inside the
// window. Survived dumps are the strongest durability signal this side of an
// on-chain LP lock.
type RecoveryDetector struct {
	config VWAPConfig
}

// NewRecoveryDetector creates a detector.
func NewRecoveryDetector(config VWAPConfig) *RecoveryDetector {
	return &RecoveryDetector{config: config}
}

// Recovered reports whether the trade window shows a dip-and-recovery
// pattern. Trades must be ordered oldest first; non-positive prices are
// ignored. Thin windows never qualify.
func (d *RecoveryDetector) Recovered(trades []Trade) bool {
	if len(trades) < d.config.MinTrades {
		return false
	}

	prices := make([]float64, 0, len(trades))
	for _, t := range trades {
		if p := t.PriceSOL.InexactFloat64(); p > 0 {
			prices = append(prices, p)
		}
	}
	if len(prices) < d.config.MinPrices {
		return false
	}

	maxP, minP := prices[0], prices[0]
	for _, p := range prices[1:] {
		if p > maxP {
			maxP = p
		}
		if p < minP {
			minP = p
		}
	}

	drawdown := (maxP - minP) / maxP
	if drawdown < d.config.DropPct {
		return false
	}

	last := prices[len(prices)-1]
	return (last-minP)/minP >= d.config.RecoveryPct
}

// WindowVWAP computes the volume-weighted average price over the window.
// Returns zero when the window carries no volume.
func WindowVWAP(trades []Trade) decimal.Decimal {
	var sumPQ, sumQ decimal.Decimal
	for _, t := range trades {
		if t.AmountSOL.Sign() <= 0 || t.PriceSOL.Sign() <= 0 {
			continue
		}
		sumPQ = sumPQ.Add(t.PriceSOL.Mul(t.AmountSOL))
		sumQ = sumQ.Add(t.AmountSOL)
	}
	if sumQ.IsZero() {
		return decimal.Zero
	}
	return sumPQ.Div(sumQ)
}

// UniqueBuyers counts distinct buyer wallets in the window.
func UniqueBuyers(trades []Trade) int {
	seen := make(map[string]struct{}, len(trades))
	for _, t := range trades {
		if t.Buyer == "" {
			continue
		}
		seen[t.Buyer] = struct{}{}
	}
	return len(seen)
}
