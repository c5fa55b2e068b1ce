package screener

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Two-stage filtering: hard primary gate, then operator-tunable criteria
// ---------------------------------------------------------------------------

// PrimaryGate is the hard activity gate applied on fast stats alone, before
// any deep lookups are spent on a token. Both legs must pass; boundary
// values pass.
type PrimaryGate struct {
	MinBuysPerMinute float64
	MinVolumeSOL     decimal.Decimal
}

// Pass reports whether a token clears the gate.
func (g PrimaryGate) Pass(buysPerMinute float64, volumeSOL decimal.Decimal) bool {
	return buysPerMinute >= g.MinBuysPerMinute &&
		volumeSOL.GreaterThanOrEqual(g.MinVolumeSOL)
}

// Criteria is the secondary filter the dashboard exposes. Changes apply to
// the next cycle; values are snapshotted when a cycle starts.
type Criteria struct {
	MinScore     float64         `json:"min_score" yaml:"min_score"`
	MinVolumeSOL decimal.Decimal `json:"min_volume_sol" yaml:"min_volume_sol"`
	MaxRiskScore float64         `json:"max_risk_score" yaml:"max_risk_score"`
}

// DefaultCriteria returns the shipped secondary thresholds.
func DefaultCriteria() Criteria {
	return Criteria{
		MinScore:     3.0,
		MinVolumeSOL: decimal.NewFromInt(1000),
		MaxRiskScore: 0.7,
	}
}

// Match reports whether a scored token survives the criteria.
func (c Criteria) Match(t ScoredToken) bool {
	return t.Score >= c.MinScore &&
		t.Features.VolumeSOL.GreaterThanOrEqual(c.MinVolumeSOL) &&
		t.RiskScore <= c.MaxRiskScore
}

// Normalize clamps operator input into valid ranges: no negative
// thresholds, risk ceiling inside [0, 1].
func (c Criteria) Normalize() Criteria {
	if c.MinScore < 0 {
		c.MinScore = 0
	}
	if c.MinVolumeSOL.Sign() < 0 {
		c.MinVolumeSOL = decimal.Zero
	}
	if c.MaxRiskScore < 0 {
		c.MaxRiskScore = 0
	}
	if c.MaxRiskScore > 1 {
		c.MaxRiskScore = 1
	}
	return c
}

// Apply filters tokens through the criteria, preserving input order.
func Apply(tokens []ScoredToken, c Criteria) []ScoredToken {
	out := make([]ScoredToken, 0, len(tokens))
	for _, t := range tokens {
		if c.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Rank sorts tokens in place: score descending, ties broken by 1h volume
// descending, then mint ascending so equal inputs always render in the same
// order.
func Rank(tokens []ScoredToken) {
	sort.Slice(tokens, func(i, j int) bool {
		if tokens[i].Score != tokens[j].Score {
			return tokens[i].Score > tokens[j].Score
		}
		if cmp := tokens[i].Features.VolumeSOL.Cmp(tokens[j].Features.VolumeSOL); cmp != 0 {
			return cmp > 0
		}
		return tokens[i].Mint < tokens[j].Mint
	})
}
