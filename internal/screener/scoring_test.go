package screener

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// newTestFeatures returns a healthy mid-pump feature set: strong buy flow,
// locked LP, low creator holding, recovered from its first dip.
func newTestFeatures() FeatureSet {
	return FeatureSet{
		BuysPerMinute: 30,
		VolumeSOL:     decimal.NewFromInt(2500),
		CreatorPct:    5,
		LPLockedPct:   90,
		Top10Pct:      20,
		FollowerDelta: 50,
		TrendDelta:    10,
		VWAPRecovered: true,
	}
}

func TestScoreHealthyToken(t *testing.T) {
	scorer := NewScorer(DefaultScoringConfig())
	b := scorer.Score(newTestFeatures())

	// 1.2 buys + 1.25 vol + 0.95 creator + 0.9 lock + 0.6 top10
	// + 0.1667 followers + 0.0333 trend + 1 recovery
	assert.InDelta(t, 6.1, b.Total, 1e-9)
	assert.InDelta(t, 2.45, b.Momentum, 1e-9)
	assert.InDelta(t, 0.11, b.Risk, 1e-9)
	assert.Equal(t, BandMedium, b.Band)
	assert.Contains(t, b.Reasons, "dip_recovery")
}

func TestScoreCreatorPenalty(t *testing.T) {
	scorer := NewScorer(DefaultScoringConfig())

	healthy := scorer.Score(newTestFeatures())

	dumped := newTestFeatures()
	dumped.CreatorPct = 80
	risky := scorer.Score(dumped)

	assert.Less(t, risky.Total, healthy.Total, "heavy creator holding must lower the score")
	assert.Greater(t, risky.Risk, healthy.Risk)
	assert.Contains(t, risky.Reasons, "creator_heavy:80%")
}

func TestScoreBounds(t *testing.T) {
	scorer := NewScorer(DefaultScoringConfig())

	t.Run("extreme features saturate at max", func(t *testing.T) {
		f := FeatureSet{
			BuysPerMinute: 1e6,
			VolumeSOL:     decimal.NewFromInt(1_000_000),
			CreatorPct:    0,
			LPLockedPct:   100,
			Top10Pct:      0,
			FollowerDelta: 1e6,
			TrendDelta:    1e6,
			VWAPRecovered: true,
		}
		b := scorer.Score(f)
		assert.Equal(t, scorer.MaxScore(), b.Total)
		assert.Equal(t, 10.0, b.Total)
		assert.Equal(t, BandHigh, b.Band)
	})

	t.Run("garbage negative features stay in range", func(t *testing.T) {
		f := FeatureSet{
			BuysPerMinute: -100,
			VolumeSOL:     decimal.NewFromInt(-5000),
			CreatorPct:    -50,
			LPLockedPct:   -10,
			Top10Pct:      -20,
			FollowerDelta: -10,
			TrendDelta:    -10,
		}
		b := scorer.Score(f)
		assert.GreaterOrEqual(t, b.Total, 0.0)
		assert.LessOrEqual(t, b.Total, scorer.MaxScore())
		assert.Equal(t, 0.0, b.Momentum)
	})

	t.Run("missing supply data scores as worst case", func(t *testing.T) {
		f := FeatureSet{
			BuysPerMinute: 30,
			VolumeSOL:     decimal.NewFromInt(2500),
			CreatorPct:    100,
			LPLockedPct:   0,
			Top10Pct:      100,
		}
		b := scorer.Score(f)
		assert.Equal(t, 1.0, b.Risk)
		assert.InDelta(t, 2.45, b.Total, 1e-9) // only momentum survives
	})
}

func TestRiskScore(t *testing.T) {
	scorer := NewScorer(DefaultScoringConfig())

	t.Run("weighted blend", func(t *testing.T) {
		f := newTestFeatures()
		// 0.4*0.05 + 0.3*0.20 + 0.3*0.10
		assert.InDelta(t, 0.11, scorer.RiskScore(f), 1e-9)
	})

	t.Run("fully locked and distributed = zero", func(t *testing.T) {
		f := FeatureSet{CreatorPct: 0, Top10Pct: 0, LPLockedPct: 100}
		assert.Equal(t, 0.0, scorer.RiskScore(f))
	})

	t.Run("out of range inputs clamp", func(t *testing.T) {
		f := FeatureSet{CreatorPct: 250, Top10Pct: 180, LPLockedPct: -40}
		assert.Equal(t, 1.0, scorer.RiskScore(f))
	})
}

func TestBands(t *testing.T) {
	scorer := NewScorer(DefaultScoringConfig())

	assert.Equal(t, BandHigh, scorer.Band(7))
	assert.Equal(t, BandHigh, scorer.Band(9.5))
	assert.Equal(t, BandMedium, scorer.Band(6.99))
	assert.Equal(t, BandMedium, scorer.Band(4))
	assert.Equal(t, BandLow, scorer.Band(3.99))
	assert.Equal(t, BandLow, scorer.Band(0))
}

func TestScoreDeterministic(t *testing.T) {
	scorer := NewScorer(DefaultScoringConfig())
	f := newTestFeatures()

	first := scorer.Score(f)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, scorer.Score(f))
	}
}

func TestClampTerm(t *testing.T) {
	assert.Equal(t, 0.0, clampTerm(-1, 2))
	assert.Equal(t, 0.5, clampTerm(0.5, 2))
	assert.Equal(t, 2.0, clampTerm(3, 2))
	assert.Equal(t, 0.0, clampTerm(0, 2))
}
