package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/pumpscope/pumpscope/internal/alert"
	"github.com/pumpscope/pumpscope/internal/bitquery"
	"github.com/pumpscope/pumpscope/internal/config"
	"github.com/pumpscope/pumpscope/internal/observability"
	"github.com/pumpscope/pumpscope/internal/pumpfun"
	"github.com/pumpscope/pumpscope/internal/refresh"
	"github.com/pumpscope/pumpscope/internal/screener"
	"github.com/pumpscope/pumpscope/internal/social"
	"github.com/pumpscope/pumpscope/internal/web"
)

func main() {
	// 1. Parse flags.
	configPath := flag.String("config", "config/config.yaml", "Path to configuration file")
	stubMode := flag.Bool("stub", false, "Use stub providers (no live API calls)")
	flag.Parse()

	// .env is optional and only seeds missing environment variables.
	_ = godotenv.Load()

	// 2. Load configuration.
	cfg := loadConfig(*configPath)

	// 3. Setup logging.
	setupLogging(cfg.General, "pumpscope-web")

	log.Info().Msg("=============================================")
	log.Info().Msg("PUMPSCOPE Token Screener - Starting")
	log.Info().Msg("DISCOVER -> GATE -> DEEP SCAN -> SCORE -> RANK")
	log.Info().Msg("=============================================")

	useStub := *stubMode || cfg.Provider.Mode == "stub"
	log.Info().
		Str("instance_id", cfg.General.InstanceID).
		Bool("stub_mode", useStub).
		Float64("gate_buys_per_min", cfg.Screener.MinBuysPerMinute).
		Float64("gate_volume_sol", cfg.Screener.MinVolumeSOL).
		Int("interval_sec", cfg.Refresh.IntervalSec).
		Str("listen_addr", cfg.Web.ListenAddr).
		Msg("Configuration loaded")

	// 3b. Validate configuration.
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Configuration validation failed")
	}

	// 4. Wire data providers.
	provider, catalog, socialProvider := buildProviders(cfg, useStub)

	// 5. Build the screening pipeline.
	scr := screener.New(screenerConfig(cfg), provider, catalog, socialProvider)
	log.Info().
		Float64("max_score", scr.MaxScore()).
		Float64("high_band", cfg.Screener.HighScore).
		Float64("medium_band", cfg.Screener.MediumScore).
		Msg("Screener initialized")

	// 6. Metrics.
	metrics := observability.NewMetrics(nil)

	// 7. Refresh engine around the screener.
	engine := refresh.NewEngine(refresh.Config{
		Interval:    time.Duration(cfg.Refresh.IntervalSec) * time.Second,
		MinInterval: time.Duration(cfg.Refresh.MinIntervalSec) * time.Second,
		MaxInterval: time.Duration(cfg.Refresh.MaxIntervalSec) * time.Second,
	}, func(ctx context.Context, criteria screener.Criteria) (*screener.CycleResult, error) {
		result, err := scr.Run(ctx, criteria)
		if err != nil {
			metrics.ObserveFailure()
			return nil, err
		}
		return result, nil
	})
	engine.SetCriteria(screener.Criteria{
		MinScore:     cfg.Criteria.MinScore,
		MinVolumeSOL: decimal.NewFromFloat(cfg.Criteria.MinVolumeSOL),
		MaxRiskScore: cfg.Criteria.MaxRiskScore,
	})

	// 8. Alert dispatcher.
	dispatcher := buildAlerts(cfg)

	// 9. Health monitor.
	staleAfter := 2 * time.Duration(cfg.Refresh.MaxIntervalSec) * time.Second
	monitor := observability.NewMonitor(30 * time.Second)
	monitor.Register("provider", observability.ProviderCheck(provider.Stats))
	monitor.Register("engine", observability.FreshnessCheck(engine.Stats, staleAfter))
	if liveCatalog, ok := catalog.(*pumpfun.Client); ok {
		monitor.Register("catalog", observability.CatalogCheck(liveCatalog.Stats))
	}

	// 10. Dashboard server.
	server := web.NewServer(web.Config{
		Addr:              cfg.Web.ListenAddr,
		ReadHeaderTimeout: time.Duration(cfg.Web.ReadHeaderTimeoutSec) * time.Second,
	}, web.Deps{
		Engine:        engine,
		Monitor:       monitor,
		Metrics:       metrics,
		ProviderStats: provider.Stats,
		CatalogStats:  catalogStats(catalog),
		AlertStats:    dispatcher.Stats,
	})

	// 11. Fan each committed cycle out to the dashboard, metrics and alerts.
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine.OnResult(func(result *screener.CycleResult) {
		server.Publish(result)
		metrics.ObserveCycle(result)
		metrics.SetProviderStats(provider.Stats())
		go func() {
			dispatcher.Dispatch(rootCtx, result)
			metrics.SetAlertsSent(dispatcher.Stats().Sent)
		}()
	})

	// 12. Shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Warn().Str("signal", sig.String()).Msg("Shutdown signal received")
		cancel()
	}()

	// 13. Start services.
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		monitor.Start(rootCtx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := engine.Start(rootCtx); err != nil {
			log.Error().Err(err).Msg("Refresh engine error")
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Run(rootCtx); err != nil {
			log.Error().Err(err).Msg("Dashboard server error")
			cancel()
		}
	}()

	// Periodic stats logging.
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-rootCtx.Done():
				return
			case <-ticker.C:
				es := engine.Stats()
				ps := provider.Stats()
				log.Info().
					Uint64("cycles", es.Cycles).
					Uint64("cycle_failures", es.Failures).
					Int("interval_sec", es.IntervalSec).
					Uint64("api_requests", ps.Requests).
					Uint64("api_errors", ps.Errors).
					Uint64("quota_hits", ps.QuotaHits).
					Str("breaker", ps.BreakerState).
					Uint64("alerts_sent", dispatcher.Stats().Sent).
					Msg("[STATS]")
			}
		}
	}()

	log.Info().Msg("PUMPSCOPE - Running")
	log.Info().Msg("Pipeline: pump.fun catalog -> fast stats gate -> deep scan -> composite score -> ranked dashboard")

	// 14. Block until shutdown.
	<-rootCtx.Done()
	log.Info().Msg("Shutting down...")
	wg.Wait()

	es := engine.Stats()
	ps := provider.Stats()
	log.Info().
		Uint64("cycles", es.Cycles).
		Uint64("cycle_failures", es.Failures).
		Uint64("api_requests", ps.Requests).
		Uint64("api_errors", ps.Errors).
		Uint64("quota_hits", ps.QuotaHits).
		Uint64("alerts_sent", dispatcher.Stats().Sent).
		Msg("PUMPSCOPE - Final Statistics")

	log.Info().Msg("PUMPSCOPE - Shutdown complete")
}

// loadConfig falls back to defaults when the file is absent so the binary
// runs out of the box; a file that exists but fails to parse is fatal.
func loadConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "config %s not found, using defaults\n", path)
			return config.Default()
		}
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config from %s: %v\n", path, err)
		os.Exit(1)
	}
	return cfg
}

func buildProviders(cfg *config.Config, stub bool) (bitquery.Provider, pumpfun.Catalog, social.Provider) {
	if stub {
		log.Info().Msg("Providers: STUB mode (deterministic synthetic data)")
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
	log.Info().Str("endpoint", cfg.Provider.Endpoint).Int("max_concurrent", cfg.Provider.MaxConcurrent).
		Msg("Bitquery provider: LIVE")

	catalog := pumpfun.NewClient(pumpfun.Config{
		Endpoint:       cfg.Catalog.Endpoint,
		ListLimit:      cfg.Catalog.ListLimit,
		RequestTimeout: time.Duration(cfg.Catalog.RequestTimeoutSec) * time.Second,
	})
	log.Info().Str("endpoint", cfg.Catalog.Endpoint).Int("list_limit", cfg.Catalog.ListLimit).
		Msg("pump.fun catalog: LIVE")

	var socialProvider social.Provider = social.NewDisabled()
	if cfg.Social.Mode == "stub" {
		socialProvider = social.NewStub()
		log.Info().Msg("Social signals: STUB")
	} else {
		log.Info().Msg("Social signals: OFF (neutral zeros)")
	}
	return provider, catalog, socialProvider
}

func buildAlerts(cfg *config.Config) *alert.Dispatcher {
	alertConfig := alert.Config{
		Enabled:  cfg.Alerts.Enabled,
		MinScore: cfg.Alerts.MinScore,
		Cooldown: time.Duration(cfg.Alerts.CooldownMinutes) * time.Minute,
	}
	if !cfg.Alerts.Enabled {
		return alert.NewDispatcher(alertConfig)
	}

	var notifiers []alert.Notifier
	if cfg.Alerts.TelegramToken != "" && cfg.Alerts.TelegramChatID != 0 {
		tg, err := alert.NewTelegramNotifier(cfg.Alerts.TelegramToken, cfg.Alerts.TelegramChatID)
		if err != nil {
			log.Error().Err(err).Msg("Telegram notifier setup failed, continuing without it")
		} else {
			notifiers = append(notifiers, tg)
		}
	}
	if cfg.Alerts.DiscordWebhook != "" {
		notifiers = append(notifiers, alert.NewDiscordNotifier(cfg.Alerts.DiscordWebhook))
	}
	if len(notifiers) == 0 {
		log.Warn().Msg("Alerts enabled but no notifier configured")
	} else {
		log.Info().Int("notifiers", len(notifiers)).Float64("min_score", cfg.Alerts.MinScore).
			Msg("Alert dispatcher initialized")
	}
	return alert.NewDispatcher(alertConfig, notifiers...)
}

// screenerConfig maps the file configuration onto the pipeline settings.
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

func catalogStats(catalog pumpfun.Catalog) func() pumpfun.Stats {
	if live, ok := catalog.(*pumpfun.Client); ok {
		return live.Stats
	}
	return nil
}

func setupLogging(general config.GeneralConfig, service string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMicro
	level, err := zerolog.ParseLevel(general.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if general.LogFormat == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Str("service", service).
			Str("instance", general.InstanceID).Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).
			With().Timestamp().Str("service", service).
			Str("instance", general.InstanceID).Logger()
	}
}
