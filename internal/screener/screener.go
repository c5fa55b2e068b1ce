// Package screener turns fresh pump.fun listings into a ranked table of
// scored tokens. One call to Run is one full cycle: discover, fast-screen,
// deep-scan, score, filter, rank. Cycles share nothing; every run rebuilds
// its world from live lookups.
package screener

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/pumpscope/pumpscope/internal/bitquery"
	"github.com/pumpscope/pumpscope/internal/pumpfun"
	"github.com/pumpscope/pumpscope/internal/social"
)

// Config assembles the pipeline settings.
type Config struct {
	Gate    PrimaryGate
	Scoring ScoringConfig
	VWAP    VWAPConfig
}

// DefaultConfig returns the shipped pipeline settings.
func DefaultConfig() Config {
	return Config{
		Gate: PrimaryGate{
			MinBuysPerMinute: 25,
			MinVolumeSOL:     decimal.NewFromInt(2000),
		},
		Scoring: DefaultScoringConfig(),
		VWAP:    DefaultVWAPConfig(),
	}
}

// Screener runs screening cycles. Stateless across cycles apart from
// counters; safe for sequential reuse.
type Screener struct {
	config   Config
	provider bitquery.Provider
	catalog  pumpfun.Catalog
	social   social.Provider
	scorer   *Scorer
	detector *RecoveryDetector

	cycles    atomic.Uint64
	lastQuota atomic.Uint64
}

// New creates a screener over the given data sources.
func New(config Config, provider bitquery.Provider, catalog pumpfun.Catalog, socialProvider social.Provider) *Screener {
	return &Screener{
		config:   config,
		provider: provider,
		catalog:  catalog,
		social:   socialProvider,
		scorer:   NewScorer(config.Scoring),
		detector: NewRecoveryDetector(config.VWAP),
	}
}

// Cycles returns the number of completed runs.
func (s *Screener) Cycles() uint64 {
	return s.cycles.Load()
}

// MaxScore exposes the composite ceiling for display layers.
func (s *Screener) MaxScore() float64 {
	return s.scorer.MaxScore()
}

// Run executes one full screening cycle under the given criteria. The
// criteria are fixed for the whole cycle; failures of individual tokens
// are absorbed as omissions, and only a dead context aborts the run.
func (s *Screener) Run(ctx context.Context, criteria Criteria) (*CycleResult, error) {
	criteria = criteria.Normalize()
	result := &CycleResult{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}

	// ── Stage 1: discover candidates ──
	coins, err := s.catalog.NewTokens(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("catalog unavailable, screening sample universe")
		coins = pumpfun.SampleCoins()
		result.Warnings = append(result.Warnings, "catalog unavailable, screening sample universe")
	}
	candidates := s.candidates(coins)
	result.Candidates = len(candidates)

	// ── Stage 2: fast stats fan-out, primary gate ──
	type fastResult struct {
		candidate TokenCandidate
		stats     bitquery.FastStats
		err       error
	}
	fast := make([]fastResult, len(candidates))
	var wg sync.WaitGroup
	for i, c := range candidates {
		wg.Add(1)
		go func(i int, c TokenCandidate) {
			defer wg.Done()
			stats, err := s.provider.FastStats(ctx, c.Mint)
			fast[i] = fastResult{candidate: c, stats: stats, err: err}
		}(i, c)
	}
	wg.Wait()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	passed := make([]fastResult, 0, len(fast))
	for _, r := range fast {
		if r.err != nil {
			result.FailedLookups++
			log.Debug().Err(r.err).Str("mint", r.candidate.Mint).Msg("fast stats failed, token omitted")
			continue
		}
		result.Screened++
		if s.config.Gate.Pass(r.stats.BuysPerMinute, r.stats.VolumeSOL) {
			passed = append(passed, r)
		}
	}
	result.PassedPrimary = len(passed)

	// ── Stage 3: deep scan fan-out ──
	scored := make([]ScoredToken, len(passed))
	for i, r := range passed {
		wg.Add(1)
		go func(i int, r fastResult) {
			defer wg.Done()
			scored[i] = s.deepScan(ctx, r.candidate, r.stats)
		}(i, r)
	}
	wg.Wait()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	// ── Stage 4: secondary criteria, rank, summarize ──
	kept := Apply(scored, criteria)
	Rank(kept)
	result.Tokens = kept
	result.Summary = Summarize(kept)

	s.providerWarnings(result)
	result.FinishedAt = time.Now().UTC()
	s.cycles.Add(1)

	log.Info().
		Str("cycle", result.ID).
		Int("candidates", result.Candidates).
		Int("passed_primary", result.PassedPrimary).
		Int("failed_lookups", result.FailedLookups).
		Int("ranked", len(result.Tokens)).
		Dur("took", result.Duration()).
		Msg("screening cycle complete")

	return result, nil
}

// candidates validates and dedupes listing rows into cycle candidates.
func (s *Screener) candidates(coins []pumpfun.Coin) []TokenCandidate {
	now := time.Now().UTC()
	seen := make(map[string]struct{}, len(coins))
	out := make([]TokenCandidate, 0, len(coins))
	for _, coin := range coins {
		if !ValidMint(coin.Mint) {
			log.Debug().Str("mint", coin.Mint).Msg("dropping malformed mint")
			continue
		}
		if _, dup := seen[coin.Mint]; dup {
			continue
		}
		seen[coin.Mint] = struct{}{}
		out = append(out, TokenCandidate{
			Mint:       coin.Mint,
			Name:       coin.Name,
			Symbol:     coin.Symbol,
			Creator:    coin.Creator,
			ObservedAt: now,
		})
	}
	return out
}

// deepScan resolves one gated token into a scored row. Each lookup fails
// independently; whatever is missing scores at its neutral default.
func (s *Screener) deepScan(ctx context.Context, candidate TokenCandidate, fast bitquery.FastStats) ScoredToken {
	candidate = s.enrich(ctx, candidate)

	var deep lookupResults
	if supply, err := s.provider.SupplyMetrics(ctx, candidate.Mint, candidate.Creator); err == nil {
		deep.supply = &supply
	} else {
		log.Debug().Err(err).Str("mint", candidate.Mint).Msg("supply lookup failed")
	}

	if holders, err := s.provider.TopHolders(ctx, candidate.Mint); err == nil {
		deep.holders = holders
	} else {
		log.Debug().Err(err).Str("mint", candidate.Mint).Msg("holder lookup failed")
	}

	lookback := time.Duration(s.config.VWAP.LookbackMinutes) * time.Minute
	if rows, err := s.provider.RecentTrades(ctx, candidate.Mint, lookback); err == nil {
		deep.trades = convertTrades(rows)
	} else {
		log.Debug().Err(err).Str("mint", candidate.Mint).Msg("trade window lookup failed")
	}

	if sig, err := s.social.Signals(ctx, candidate.Symbol, candidate.Name); err == nil {
		deep.signals = &sig
	} else {
		log.Debug().Err(err).Str("mint", candidate.Mint).Msg("social lookup failed")
	}

	features := s.buildFeatures(candidate, fast, deep)
	breakdown := s.scorer.Score(features)

	return ScoredToken{
		TokenCandidate: candidate,
		Features:       features,
		Market:         marketSnapshot(deep.trades),
		Score:          breakdown.Total,
		MomentumScore:  breakdown.Momentum,
		RiskScore:      breakdown.Risk,
		Band:           breakdown.Band,
		Reasons:        breakdown.Reasons,
		URL:            candidate.PumpURL(),
	}
}

// enrich fills missing listing metadata from the token info endpoint.
func (s *Screener) enrich(ctx context.Context, candidate TokenCandidate) TokenCandidate {
	if candidate.Name == "" || candidate.Symbol == "" || candidate.Creator == "" {
		if info, err := s.catalog.TokenInfo(ctx, candidate.Mint); err == nil {
			if candidate.Name == "" {
				candidate.Name = info.Name
			}
			if candidate.Symbol == "" {
				candidate.Symbol = info.Symbol
			}
			if candidate.Creator == "" {
				candidate.Creator = info.Creator
			}
		} else {
			log.Debug().Err(err).Str("mint", candidate.Mint).Msg("token info lookup failed")
		}
	}
	if candidate.Name == "" {
		candidate.Name = "Unknown"
	}
	if candidate.Symbol == "" {
		candidate.Symbol = "UNKNOWN"
	}
	return candidate
}

// providerWarnings surfaces degraded-provider conditions on the result.
func (s *Screener) providerWarnings(result *CycleResult) {
	stats := s.provider.Stats()
	if old := s.lastQuota.Swap(stats.QuotaHits); stats.QuotaHits > old {
		result.Warnings = append(result.Warnings, "bitquery quota exhausted, results may be partial")
	}
	if stats.BreakerState != "" && stats.BreakerState != "closed" {
		result.Warnings = append(result.Warnings, "bitquery breaker "+stats.BreakerState+", provider degraded")
	}
}

// Summarize aggregates ranked tokens for the dashboard header cards.
func Summarize(tokens []ScoredToken) Summary {
	s := Summary{Tokens: len(tokens)}
	if len(tokens) == 0 {
		return s
	}

	var total float64
	for _, t := range tokens {
		total += t.Score
		if t.Score > s.MaxScore {
			s.MaxScore = t.Score
		}
		s.TotalVolumeSOL = s.TotalVolumeSOL.Add(t.Features.VolumeSOL)
		switch t.Band {
		case BandHigh:
			s.HighCount++
		case BandMedium:
			s.MediumCount++
		default:
			s.LowCount++
		}
	}
	s.AvgScore = total / float64(len(tokens))
	return s
}
