package screener

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func makeTrades(prices ...float64) []Trade {
	base := time.Now().Add(-5 * time.Minute)
	trades := make([]Trade, len(prices))
	for i, p := range prices {
		trades[i] = Trade{
			PriceSOL:  decimal.NewFromFloat(p),
			AmountSOL: decimal.NewFromInt(1),
			Buyer:     fmt.Sprintf("wallet-%d", i),
			At:        base.Add(time.Duration(i) * time.Second),
		}
	}
	return trades
}

func TestRecoveredDipAndBounce(t *testing.T) {
	d := NewRecoveryDetector(DefaultVWAPConfig())

	// High 1.0, low 0.5 (50% drawdown), close 0.65 (30% rebound).
	trades := makeTrades(1.0, 0.95, 0.9, 0.8, 0.7, 0.6, 0.5, 0.55, 0.6, 0.65)
	assert.True(t, d.Recovered(trades))
}

func TestRecoveredNeedsDip(t *testing.T) {
	d := NewRecoveryDetector(DefaultVWAPConfig())

	// 20% drawdown never reaches the 40% threshold.
	trades := makeTrades(1.0, 0.95, 0.9, 0.85, 0.8, 0.85, 0.9, 0.95, 1.0, 1.0)
	assert.False(t, d.Recovered(trades))
}

func TestRecoveredNeedsBounce(t *testing.T) {
	d := NewRecoveryDetector(DefaultVWAPConfig())

	// Deep dip but the close sits on the low: dead, not recovering.
	trades := makeTrades(1.0, 0.9, 0.8, 0.7, 0.6, 0.5, 0.45, 0.42, 0.41, 0.4)
	assert.False(t, d.Recovered(trades))
}

func TestRecoveredThinWindow(t *testing.T) {
	d := NewRecoveryDetector(DefaultVWAPConfig())

	t.Run("too few trades", func(t *testing.T) {
		trades := makeTrades(1.0, 0.5, 0.65)
		assert.False(t, d.Recovered(trades))
	})

	t.Run("too few positive prices", func(t *testing.T) {
		trades := makeTrades(1.0, 0, 0, 0, 0, 0, 0, 0.5, 0.6, 0.65)
		assert.False(t, d.Recovered(trades))
	})

	t.Run("empty window", func(t *testing.T) {
		assert.False(t, d.Recovered(nil))
	})
}

func TestWindowVWAP(t *testing.T) {
	t.Run("volume weighted", func(t *testing.T) {
		trades := []Trade{
			{PriceSOL: decimal.NewFromInt(2), AmountSOL: decimal.NewFromInt(1)},
			{PriceSOL: decimal.NewFromInt(4), AmountSOL: decimal.NewFromInt(3)},
		}
		// (2*1 + 4*3) / 4
		assert.True(t, decimal.NewFromFloat(3.5).Equal(WindowVWAP(trades)))
	})

	t.Run("skips non-positive rows", func(t *testing.T) {
		trades := []Trade{
			{PriceSOL: decimal.NewFromInt(2), AmountSOL: decimal.NewFromInt(1)},
			{PriceSOL: decimal.Zero, AmountSOL: decimal.NewFromInt(100)},
			{PriceSOL: decimal.NewFromInt(5), AmountSOL: decimal.Zero},
		}
		assert.True(t, decimal.NewFromInt(2).Equal(WindowVWAP(trades)))
	})

	t.Run("no volume = zero", func(t *testing.T) {
		assert.True(t, WindowVWAP(nil).IsZero())
	})
}

func TestUniqueBuyers(t *testing.T) {
	trades := []Trade{
		{Buyer: "A"}, {Buyer: "B"}, {Buyer: "A"}, {Buyer: ""}, {Buyer: "C"},
	}
	assert.Equal(t, 3, UniqueBuyers(trades))
	assert.Equal(t, 0, UniqueBuyers(nil))
}
