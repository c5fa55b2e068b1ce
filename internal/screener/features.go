package screener

import (
	"github.com/shopspring/decimal"

	"github.com/pumpscope/pumpscope/internal/bitquery"
	"github.com/pumpscope/pumpscope/internal/social"
)

// ---------------------------------------------------------------------------
// Feature extraction with neutral defaults. Missing data never flatters:
// failed risk lookups read as worst case, failed momentum and social
// lookups read as zero, an unreadable trade window reads as not recovered.
// ---------------------------------------------------------------------------

// lookupResults carries one token's deep-scan payloads. A nil slot means
// the lookup failed and its neutral default applies.
type lookupResults struct {
	supply  *bitquery.SupplyMetrics
	holders []bitquery.Holder
	trades  []Trade
	signals *social.Signals
}

// buildFeatures maps raw payloads into the eight scored inputs.
func (s *Screener) buildFeatures(candidate TokenCandidate, fast bitquery.FastStats, deep lookupResults) FeatureSet {
	f := FeatureSet{
		BuysPerMinute: fast.BuysPerMinute,
		VolumeSOL:     fast.VolumeSOL,
		CreatorPct:    100, // worst case until supply data proves otherwise
		LPLockedPct:   0,
		Top10Pct:      100,
	}

	haveSupply := deep.supply != nil && deep.supply.Supply.Sign() > 0
	if haveSupply {
		if candidate.Creator != "" {
			f.CreatorPct = pctOf(deep.supply.CreatorHeld, deep.supply.Supply)
		}
		f.LPLockedPct = pctOf(deep.supply.LPLocked, deep.supply.Supply)

		if deep.holders != nil {
			var held decimal.Decimal
			for _, h := range deep.holders {
				held = held.Add(h.Amount)
			}
			f.Top10Pct = pctOf(held, deep.supply.Supply)
		}
	}

	if deep.signals != nil {
		f.FollowerDelta = deep.signals.FollowerDelta
		f.TrendDelta = deep.signals.TrendDelta
	}

	f.VWAPRecovered = s.detector.Recovered(deep.trades)
	return f
}

// pctOf is part/whole as a 0-100 percentage, clamped. Holder sums can
// double-count pool accounts and overshoot the supply.
func pctOf(part, whole decimal.Decimal) float64 {
	pct := part.Div(whole).InexactFloat64() * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// convertTrades maps wire rows into the analysis type.
func convertTrades(rows []bitquery.TradeRow) []Trade {
	trades := make([]Trade, len(rows))
	for i, row := range rows {
		trades[i] = Trade{
			PriceSOL:  row.Price,
			AmountSOL: row.Amount,
			Buyer:     row.Buyer,
			At:        row.At,
		}
	}
	return trades
}

// marketSnapshot derives the display-only window metrics.
func marketSnapshot(trades []Trade) MarketSnapshot {
	if len(trades) == 0 {
		return MarketSnapshot{}
	}
	return MarketSnapshot{
		LastPriceSOL: trades[len(trades)-1].PriceSOL,
		VWAPSOL:      WindowVWAP(trades),
		UniqueBuyers: UniqueBuyers(trades),
	}
}
