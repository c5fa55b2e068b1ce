// Command pumpscope-scan runs a single screening cycle and prints the ranked
// result to stdout, as a table or as JSON. Logs go to stderr so the output
// stays pipeable.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/pumpscope/pumpscope/internal/bitquery"
	"github.com/pumpscope/pumpscope/internal/config"
	"github.com/pumpscope/pumpscope/internal/pumpfun"
	"github.com/pumpscope/pumpscope/internal/screener"
	"github.com/pumpscope/pumpscope/internal/social"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "Path to configuration file")
	stubMode := flag.Bool("stub", false, "Use stub providers (no live API calls)")
	jsonOut := flag.Bool("json", false, "Emit the full cycle result as JSON")
	limit := flag.Int("limit", 0, "Print at most N tokens (0 = all)")
	timeout := flag.Duration("timeout", 2*time.Minute, "Cycle deadline")
	flag.Parse()

	_ = godotenv.Load()

	cfg := loadConfig(*configPath)
	setupLogging(cfg.General)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Configuration validation failed")
	}

	useStub := *stubMode || cfg.Provider.Mode == "stub"
	provider, catalog, socialProvider := buildProviders(cfg, useStub)
	scr := screener.New(screenerConfig(cfg), provider, catalog, socialProvider)

	criteria := screener.Criteria{
		MinScore:     cfg.Criteria.MinScore,
		MinVolumeSOL: decimal.NewFromFloat(cfg.Criteria.MinVolumeSOL),
		MaxRiskScore: cfg.Criteria.MaxRiskScore,
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := scr.Run(ctx, criteria)
	if err != nil {
		log.Error().Err(err).Msg("screening cycle failed")
		os.Exit(1)
	}

	if *limit > 0 && len(result.Tokens) > *limit {
		result.Tokens = result.Tokens[:*limit]
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			log.Error().Err(err).Msg("encode failed")
			os.Exit(1)
		}
		return
	}

	printTable(result)
}

func printTable(result *screener.CycleResult) {
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	fmt.Printf("cycle %s: %d candidates, %d screened, %d past gate, %d failed lookups, took %s\n",
		result.ID, result.Candidates, result.Screened, result.PassedPrimary,
		result.FailedLookups, result.Duration().Round(time.Millisecond))

	if len(result.Tokens) == 0 {
		fmt.Println("no tokens matched the current filters")
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSYMBOL\tNAME\tSCORE\tBAND\tBUYS/MIN\tVOL 1H\tBUYERS\tCREATOR%\tLP%\tTOP10%\tRISK\tSIGNALS")
	for i, t := range result.Tokens {
		f := t.Features
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%s\t%.1f\t%s\t%d\t%.1f\t%.1f\t%.1f\t%.2f\t%s\n",
			i+1, t.Symbol, trunc(t.Name, 24), t.Score, t.Band,
			f.BuysPerMinute, f.VolumeSOL.StringFixed(0), t.Market.UniqueBuyers,
			f.CreatorPct, f.LPLockedPct, f.Top10Pct,
			t.RiskScore, strings.Join(t.Reasons, ","))
	}
	tw.Flush()

	s := result.Summary
	fmt.Printf("\n%d tokens, avg %.2f, max %.2f, %s SOL volume (%d high / %d medium / %d low)\n",
		s.Tokens, s.AvgScore, s.MaxScore, s.TotalVolumeSOL.StringFixed(0),
		s.HighCount, s.MediumCount, s.LowCount)
}

func trunc(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func loadConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config.Default()
		}
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config from %s: %v\n", path, err)
		os.Exit(1)
	}
	return cfg
}

func buildProviders(cfg *config.Config, stub bool) (bitquery.Provider, pumpfun.Catalog, social.Provider) {
	if stub {
		return bitquery.NewStubClient(), pumpfun.NewStubCatalog(), social.NewStub()
	}

	token := cfg.Provider.Token
	if token == "" {
		token = os.Getenv("BITQUERY_TOKEN")
	}
	if token == "" {
		log.Fatal().Msg("Bitquery token missing: set provider.token or BITQUERY_TOKEN (or run with --stub)")
	}

	provider := bitquery.NewClient(bitquery.Config{
		Endpoint:        cfg.Provider.Endpoint,
		APIKey:          token,
		RequestTimeout:  time.Duration(cfg.Provider.RequestTimeoutSec) * time.Second,
		MaxConcurrent:   cfg.Provider.MaxConcurrent,
		RateLimitRPS:    cfg.Provider.RateLimitRPS,
		RateBurst:       cfg.Provider.RateBurst,
		BreakerFailures: uint32(cfg.Provider.BreakerFailures),
		BreakerCooldown: time.Duration(cfg.Provider.BreakerCooldownSec) * time.Second,
	})
	catalog := pumpfun.NewClient(pumpfun.Config{
		Endpoint:       cfg.Catalog.Endpoint,
		ListLimit:      cfg.Catalog.ListLimit,
		RequestTimeout: time.Duration(cfg.Catalog.RequestTimeoutSec) * time.Second,
	})
	var socialProvider social.Provider = social.NewDisabled()
	if cfg.Social.Mode == "stub" {
		socialProvider = social.NewStub()
	}
	return provider, catalog, socialProvider
}

func screenerConfig(cfg *config.Config) screener.Config {
	sc := screener.DefaultConfig()
	sc.Gate.MinBuysPerMinute = cfg.Screener.MinBuysPerMinute
	sc.Gate.MinVolumeSOL = decimal.NewFromFloat(cfg.Screener.MinVolumeSOL)
	sc.Scoring.Weights = screener.Weights{
		BuyRateDivisor:  cfg.Screener.Weights.BuyRateDivisor,
		BuyRateCap:      cfg.Screener.Weights.BuyRateCap,
		VolumeDivisor:   cfg.Screener.Weights.VolumeDivisor,
		VolumeCap:       cfg.Screener.Weights.VolumeCap,
		CreatorKneePct:  cfg.Screener.Weights.CreatorKneePct,
		Top10KneePct:    cfg.Screener.Weights.Top10KneePct,
		LockCap:         cfg.Screener.Weights.LockCap,
		FollowerDivisor: cfg.Screener.Weights.FollowerDivisor,
		TrendDivisor:    cfg.Screener.Weights.TrendDivisor,
		RecoveryBonus:   cfg.Screener.Weights.RecoveryBonus,
	}
	sc.Scoring.HighScore = cfg.Screener.HighScore
	sc.Scoring.MediumScore = cfg.Screener.MediumScore
	sc.VWAP = screener.VWAPConfig{
		LookbackMinutes: cfg.Screener.VWAP.LookbackMinutes,
		DropPct:         cfg.Screener.VWAP.DropPct,
		RecoveryPct:     cfg.Screener.VWAP.RecoveryPct,
		MinTrades:       cfg.Screener.VWAP.MinTrades,
		MinPrices:       cfg.Screener.VWAP.MinPrices,
	}
	return sc
}

func setupLogging(general config.GeneralConfig) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMicro
	level, err := zerolog.ParseLevel(general.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Str("service", "pumpscope-scan").Logger()
}
