package screener

import (
	"time"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Core screening types: one cycle's worth of candidates, features and scores
// ---------------------------------------------------------------------------

// TokenCandidate identifies a pump.fun token under screening. Candidates are
// created fresh each cycle and discarded at the next one.
type TokenCandidate struct {
	Mint       string    `json:"mint"`
	Name       string    `json:"name"`
	Symbol     string    `json:"symbol"`
	Creator    string    `json:"creator,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
}

// PumpURL is the deep link to the token page on pump.fun.
func (c TokenCandidate) PumpURL() string {
	return "https://pump.fun/coin/" + c.Mint
}

// FeatureSet holds the eight scored inputs. Percent fields are 0-100.
type FeatureSet struct {
	BuysPerMinute float64         `json:"buys_per_minute"`
	VolumeSOL     decimal.Decimal `json:"volume_1h_sol"`
	CreatorPct    float64         `json:"creator_holdings_pct"`
	LPLockedPct   float64         `json:"lp_lock_pct"`
	Top10Pct      float64         `json:"top10_concentration_pct"`
	FollowerDelta float64         `json:"follower_delta"`
	TrendDelta    float64         `json:"trend_delta"`
	VWAPRecovered bool            `json:"vwap_recovered"`
}

// MarketSnapshot carries display-only trade window metrics. Nothing here
// feeds the composite score.
type MarketSnapshot struct {
	LastPriceSOL decimal.Decimal `json:"last_price_sol"`
	VWAPSOL      decimal.Decimal `json:"vwap_sol"`
	UniqueBuyers int             `json:"unique_buyers"`
}

// Score bands drive row coloring and alerting.
const (
	BandHigh   = "high"
	BandMedium = "medium"
	BandLow    = "low"
)

// ScoredToken is a candidate with its features and derived scores. Immutable
// once built; lifecycle is one refresh cycle.
type ScoredToken struct {
	TokenCandidate
	Features FeatureSet     `json:"features"`
	Market   MarketSnapshot `json:"market"`

	Score         float64  `json:"score"`          // composite, 0..MaxScore
	MomentumScore float64  `json:"momentum_score"` // buy-rate + volume terms
	RiskScore     float64  `json:"risk_score"`     // 0..1, higher is riskier
	Band          string   `json:"band"`           // high|medium|low
	Reasons       []string `json:"reasons,omitempty"`
	URL           string   `json:"url"`
}

// CycleResult is the committed output of one full screening pass.
type CycleResult struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Candidates    int `json:"candidates"`     // mints considered this cycle
	Screened      int `json:"screened"`       // fast-stats lookups that returned data
	FailedLookups int `json:"failed_lookups"` // omitted tokens (network/API errors)
	PassedPrimary int `json:"passed_primary"` // admitted to the deep scan

	Warnings []string      `json:"warnings,omitempty"` // quota, breaker, catalog fallback
	Tokens   []ScoredToken `json:"tokens"`
	Summary  Summary       `json:"summary"`
}

// Duration is the wall-clock time of the cycle.
func (r *CycleResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summary aggregates the ranked output for the dashboard header cards.
type Summary struct {
	Tokens         int             `json:"tokens"`
	AvgScore       float64         `json:"avg_score"`
	MaxScore       float64         `json:"max_score"`
	TotalVolumeSOL decimal.Decimal `json:"total_volume_sol"`
	HighCount      int             `json:"high_count"`
	MediumCount    int             `json:"medium_count"`
	LowCount       int             `json:"low_count"`
}

// ValidMint reports whether s looks like a Solana mint address: base58 text
// decoding to a 32-byte public key.
func ValidMint(s string) bool {
	raw, err := base58.Decode(s)
	if err != nil {
		return false
	}
	return len(raw) == 32
}
