package screener

import (
	"fmt"
)

// ---------------------------------------------------------------------------
// Composite pump score — eight clamped terms in four categories
// momentum 0-4 + risk 0-3 (inverted) + social 0-2 + resilience 0-1
// ---------------------------------------------------------------------------

// Weights defines the divisor and cap of every score term. All values are
// tunable configuration; the contract is only that each term is clamped
// before summation and that risk inputs contribute inversely.
type Weights struct {
	BuyRateDivisor  float64 `yaml:"buy_rate_divisor"`  // buys/min per point, cap BuyRateCap
	BuyRateCap      float64 `yaml:"buy_rate_cap"`
	VolumeDivisor   float64 `yaml:"volume_divisor"`    // SOL of 1h volume per point, cap VolumeCap
	VolumeCap       float64 `yaml:"volume_cap"`
	CreatorKneePct  float64 `yaml:"creator_knee_pct"`  // creator holding % where the term hits zero
	Top10KneePct    float64 `yaml:"top10_knee_pct"`    // top-10 concentration % where the term hits zero
	LockCap         float64 `yaml:"lock_cap"`
	FollowerDivisor float64 `yaml:"follower_divisor"`
	TrendDivisor    float64 `yaml:"trend_divisor"`
	RecoveryBonus   float64 `yaml:"recovery_bonus"`
}

// DefaultWeights returns the shipped scoring constants (max total 10).
func DefaultWeights() Weights {
	return Weights{
		BuyRateDivisor:  25,   // 25 buys/min = 1 point
		BuyRateCap:      2,
		VolumeDivisor:   2000, // 2000 SOL = 1 point
		VolumeCap:       2,
		CreatorKneePct:  100,
		Top10KneePct:    50,
		LockCap:         1,
		FollowerDivisor: 300,
		TrendDivisor:    300,
		RecoveryBonus:   1,
	}
}

// ScoringConfig configures the scorer.
type ScoringConfig struct {
	Weights     Weights `yaml:"weights"`
	HighScore   float64 `yaml:"high_score"`   // band boundary: >= high
	MediumScore float64 `yaml:"medium_score"` // band boundary: >= medium
}

// DefaultScoringConfig returns the shipped defaults (bands 7 and 4).
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Weights:     DefaultWeights(),
		HighScore:   7,
		MediumScore: 4,
	}
}

// Risk sub-score weights (0..1 output): creator holding dominates, then
// concentration, then unlocked liquidity.
const (
	riskCreatorWeight  = 0.4
	riskTop10Weight    = 0.3
	riskUnlockedWeight = 0.3
)

// Breakdown is the scorer output for one token.
type Breakdown struct {
	Total    float64  `json:"total"`
	Momentum float64  `json:"momentum"` // buy-rate + volume terms
	Risk     float64  `json:"risk"`     // 0..1, higher is riskier
	Band     string   `json:"band"`
	Reasons  []string `json:"reasons,omitempty"`
}

// Scorer maps a FeatureSet to a bounded composite score. Pure: identical
// features always produce identical output.
type Scorer struct {
	config ScoringConfig
}

// NewScorer creates a scorer.
func NewScorer(config ScoringConfig) *Scorer {
	return &Scorer{config: config}
}

// MaxScore is the upper bound of the composite: the sum of all term caps.
func (s *Scorer) MaxScore() float64 {
	w := s.config.Weights
	return w.BuyRateCap + w.VolumeCap + 1 + w.LockCap + 1 + 1 + 1 + w.RecoveryBonus
}

// Score computes the composite score for a feature set.
func (s *Scorer) Score(f FeatureSet) Breakdown {
	w := s.config.Weights
	vol := f.VolumeSOL.InexactFloat64()

	// Momentum terms.
	buyTerm := clampTerm(f.BuysPerMinute/w.BuyRateDivisor, w.BuyRateCap)
	volTerm := clampTerm(vol/w.VolumeDivisor, w.VolumeCap)

	// Risk terms, inverted: higher holding/concentration contributes less.
	creatorTerm := clampTerm(1-f.CreatorPct/w.CreatorKneePct, 1)
	lockTerm := clampTerm(f.LPLockedPct/100, w.LockCap)
	top10Term := clampTerm((w.Top10KneePct-f.Top10Pct)/w.Top10KneePct, 1)

	// Social terms.
	followerTerm := clampTerm(f.FollowerDelta/w.FollowerDivisor, 1)
	trendTerm := clampTerm(f.TrendDelta/w.TrendDivisor, 1)

	// Resilience.
	recoveryTerm := 0.0
	if f.VWAPRecovered {
		recoveryTerm = w.RecoveryBonus
	}

	total := buyTerm + volTerm + creatorTerm + lockTerm + top10Term +
		followerTerm + trendTerm + recoveryTerm
	if total > s.MaxScore() {
		total = s.MaxScore()
	}
	if total < 0 {
		total = 0
	}

	b := Breakdown{
		Total:    total,
		Momentum: buyTerm + volTerm,
		Risk:     s.RiskScore(f),
	}
	b.Band = s.Band(total)
	b.Reasons = s.reasons(f, w)
	return b
}

// RiskScore computes the 0..1 danger sub-score. Missing supply data arrives
// here as worst case (creator 100, top10 100, lock 0) and yields 1.0.
func (s *Scorer) RiskScore(f FeatureSet) float64 {
	creator := clampTerm(f.CreatorPct/100, 1)
	top10 := clampTerm(f.Top10Pct/100, 1)
	unlocked := 1 - clampTerm(f.LPLockedPct/100, 1)
	return riskCreatorWeight*creator + riskTop10Weight*top10 + riskUnlockedWeight*unlocked
}

// Band maps a composite score to its display band.
func (s *Scorer) Band(score float64) string {
	switch {
	case score >= s.config.HighScore:
		return BandHigh
	case score >= s.config.MediumScore:
		return BandMedium
	default:
		return BandLow
	}
}

// reasons lists the notable signals behind a score.
func (s *Scorer) reasons(f FeatureSet, w Weights) []string {
	var rs []string
	if f.BuysPerMinute >= 2*w.BuyRateDivisor {
		rs = append(rs, fmt.Sprintf("buy_surge:%.0f/min", f.BuysPerMinute))
	}
	if f.VWAPRecovered {
		rs = append(rs, "dip_recovery")
	}
	if f.LPLockedPct >= 90 {
		rs = append(rs, fmt.Sprintf("lp_locked:%.0f%%", f.LPLockedPct))
	}
	if f.CreatorPct >= 50 {
		rs = append(rs, fmt.Sprintf("creator_heavy:%.0f%%", f.CreatorPct))
	}
	if f.Top10Pct >= w.Top10KneePct {
		rs = append(rs, fmt.Sprintf("concentrated:%.0f%%", f.Top10Pct))
	}
	return rs
}

// clampTerm bounds a term to [0, cap] before it joins the sum.
func clampTerm(v, cap float64) float64 {
	if v < 0 {
		return 0
	}
	if v > cap {
		return cap
	}
	return v
}
