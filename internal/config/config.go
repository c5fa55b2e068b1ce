package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for pumpscope.
type Config struct {
	General  GeneralConfig  `yaml:"general"`
	Provider ProviderConfig `yaml:"provider"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Social   SocialConfig   `yaml:"social"`
	Screener ScreenerConfig `yaml:"screener"`
	Refresh  RefreshConfig  `yaml:"refresh"`
	Criteria CriteriaConfig `yaml:"criteria"`
	Web      WebConfig      `yaml:"web"`
	Alerts   AlertsConfig   `yaml:"alerts"`
}

type GeneralConfig struct {
	InstanceID  string `yaml:"instance_id"`
	Environment string `yaml:"environment"` // production|staging|development
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"` // json|text
}

// ProviderConfig configures the Bitquery GraphQL client.
type ProviderConfig struct {
	Mode               string  `yaml:"mode"` // live|stub
	Endpoint           string  `yaml:"endpoint"`
	Token              string  `yaml:"token"` // supports ${BITQUERY_TOKEN} expansion
	RequestTimeoutSec  int     `yaml:"request_timeout_sec"`
	MaxConcurrent      int     `yaml:"max_concurrent"` // in-flight request ceiling
	RateLimitRPS       float64 `yaml:"rate_limit_rps"`
	RateBurst          int     `yaml:"rate_burst"`
	BreakerFailures    int     `yaml:"breaker_failures"`     // consecutive failures before the breaker opens
	BreakerCooldownSec int     `yaml:"breaker_cooldown_sec"` // open state duration
}

// CatalogConfig configures the pump.fun REST client used for candidate mints.
type CatalogConfig struct {
	Endpoint          string `yaml:"endpoint"`
	ListLimit         int    `yaml:"list_limit"`
	RequestTimeoutSec int    `yaml:"request_timeout_sec"`
}

type SocialConfig struct {
	Mode string `yaml:"mode"` // stub|off
}

// ScreenerConfig holds the primary admission filter and scoring knobs.
type ScreenerConfig struct {
	MinBuysPerMinute float64       `yaml:"min_buys_per_minute"`
	MinVolumeSOL     float64       `yaml:"min_volume_sol"`
	Weights          WeightsConfig `yaml:"weights"`
	VWAP             VWAPConfig    `yaml:"vwap"`
	HighScore        float64       `yaml:"high_score"`   // band boundary, >= high
	MediumScore      float64       `yaml:"medium_score"` // band boundary, >= medium
}

// WeightsConfig holds the per-term divisors and caps of the composite score.
// Every term is clamped before summation; MaxScore is the sum of the caps.
type WeightsConfig struct {
	BuyRateDivisor  float64 `yaml:"buy_rate_divisor"`  // buys/min per point
	BuyRateCap      float64 `yaml:"buy_rate_cap"`
	VolumeDivisor   float64 `yaml:"volume_divisor"`    // SOL per point
	VolumeCap       float64 `yaml:"volume_cap"`
	CreatorKneePct  float64 `yaml:"creator_knee_pct"`  // creator holding % with zero contribution
	Top10KneePct    float64 `yaml:"top10_knee_pct"`    // top-10 concentration % with zero contribution
	LockCap         float64 `yaml:"lock_cap"`
	FollowerDivisor float64 `yaml:"follower_divisor"`
	TrendDivisor    float64 `yaml:"trend_divisor"`
	RecoveryBonus   float64 `yaml:"recovery_bonus"`
}

// VWAPConfig tunes the drawdown-and-rebound detector.
type VWAPConfig struct {
	LookbackMinutes int     `yaml:"lookback_minutes"`
	DropPct         float64 `yaml:"drop_pct"`     // drawdown fraction, e.g. 0.4
	RecoveryPct     float64 `yaml:"recovery_pct"` // rebound off the low, e.g. 0.2
	MinTrades       int     `yaml:"min_trades"`
	MinPrices       int     `yaml:"min_prices"`
}

// RefreshConfig bounds the dashboard refresh loop.
type RefreshConfig struct {
	IntervalSec    int `yaml:"interval_sec"`
	MinIntervalSec int `yaml:"min_interval_sec"`
	MaxIntervalSec int `yaml:"max_interval_sec"`
}

// CriteriaConfig holds the user-adjustable secondary filter defaults.
type CriteriaConfig struct {
	MinScore     float64 `yaml:"min_score"`
	MinVolumeSOL float64 `yaml:"min_volume_sol"`
	MaxRiskScore float64 `yaml:"max_risk_score"`
}

// WebConfig configures the dashboard listener. No write timeout is set here:
// the /ws socket stays open for the life of the browser tab.
type WebConfig struct {
	ListenAddr           string `yaml:"listen_addr"`
	ReadHeaderTimeoutSec int    `yaml:"read_header_timeout_sec"`
}

type AlertsConfig struct {
	Enabled         bool    `yaml:"enabled"`
	MinScore        float64 `yaml:"min_score"`        // notify at or above this composite score
	CooldownMinutes int     `yaml:"cooldown_minutes"` // per-mint repeat suppression
	TelegramToken   string  `yaml:"telegram_token"`
	TelegramChatID  int64   `yaml:"telegram_chat_id"`
	DiscordWebhook  string  `yaml:"discord_webhook"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Apply defaults
	applyDefaults(cfg)

	return cfg, nil
}

// Default returns a configuration with every default applied, for running
// without a config file.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Validate rejects values the defaults cannot repair. Zero values are filled
// by applyDefaults before this runs, so only explicit bad settings fail.
func (c *Config) Validate() error {
	switch c.General.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("general log_format must be json or text, got %q", c.General.LogFormat)
	}
	switch c.Provider.Mode {
	case "live", "stub":
	default:
		return fmt.Errorf("provider mode must be live or stub, got %q", c.Provider.Mode)
	}
	if c.Provider.MaxConcurrent < 1 {
		return fmt.Errorf("provider max_concurrent must be positive, got %d", c.Provider.MaxConcurrent)
	}
	if c.Provider.RateLimitRPS < 0 {
		return fmt.Errorf("provider rate_limit_rps cannot be negative, got %f", c.Provider.RateLimitRPS)
	}
	if c.Provider.BreakerFailures < 1 {
		return fmt.Errorf("provider breaker_failures must be positive, got %d", c.Provider.BreakerFailures)
	}
	switch c.Social.Mode {
	case "stub", "off":
	default:
		return fmt.Errorf("social mode must be stub or off, got %q", c.Social.Mode)
	}
	if c.Screener.MinBuysPerMinute < 0 {
		return fmt.Errorf("screener min_buys_per_minute cannot be negative, got %f", c.Screener.MinBuysPerMinute)
	}
	if c.Screener.MinVolumeSOL < 0 {
		return fmt.Errorf("screener min_volume_sol cannot be negative, got %f", c.Screener.MinVolumeSOL)
	}
	if c.Screener.MediumScore > c.Screener.HighScore {
		return fmt.Errorf("screener medium_score (%f) must be <= high_score (%f)", c.Screener.MediumScore, c.Screener.HighScore)
	}
	if c.Refresh.MinIntervalSec > c.Refresh.MaxIntervalSec {
		return fmt.Errorf("refresh min_interval_sec (%d) must be <= max_interval_sec (%d)", c.Refresh.MinIntervalSec, c.Refresh.MaxIntervalSec)
	}
	if c.Criteria.MaxRiskScore < 0 || c.Criteria.MaxRiskScore > 1 {
		return fmt.Errorf("criteria max_risk_score must be between 0 and 1, got %f", c.Criteria.MaxRiskScore)
	}
	if c.Alerts.Enabled && c.Alerts.MinScore < 0 {
		return fmt.Errorf("alerts min_score cannot be negative, got %f", c.Alerts.MinScore)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.General.InstanceID == "" {
		cfg.General.InstanceID = "pumpscope-1"
	}
	if cfg.General.Environment == "" {
		cfg.General.Environment = "development"
	}
	if cfg.General.LogLevel == "" {
		cfg.General.LogLevel = "info"
	}
	if cfg.General.LogFormat == "" {
		cfg.General.LogFormat = "json"
	}
	if cfg.Provider.Mode == "" {
		cfg.Provider.Mode = "live"
	}
	if cfg.Provider.Endpoint == "" {
		cfg.Provider.Endpoint = "https://streaming.bitquery.io/graphql"
	}
	if cfg.Provider.RequestTimeoutSec == 0 {
		cfg.Provider.RequestTimeoutSec = 30
	}
	if cfg.Provider.MaxConcurrent == 0 {
		cfg.Provider.MaxConcurrent = 10
	}
	if cfg.Provider.RateLimitRPS == 0 {
		cfg.Provider.RateLimitRPS = 10
	}
	if cfg.Provider.RateBurst == 0 {
		cfg.Provider.RateBurst = 10
	}
	if cfg.Provider.BreakerFailures == 0 {
		cfg.Provider.BreakerFailures = 10
	}
	if cfg.Provider.BreakerCooldownSec == 0 {
		cfg.Provider.BreakerCooldownSec = 30
	}
	if cfg.Catalog.Endpoint == "" {
		cfg.Catalog.Endpoint = "https://pump.fun/api"
	}
	if cfg.Catalog.ListLimit == 0 {
		cfg.Catalog.ListLimit = 50
	}
	if cfg.Catalog.RequestTimeoutSec == 0 {
		cfg.Catalog.RequestTimeoutSec = 15
	}
	if cfg.Social.Mode == "" {
		cfg.Social.Mode = "off"
	}
	if cfg.Screener.MinBuysPerMinute == 0 {
		cfg.Screener.MinBuysPerMinute = 25
	}
	if cfg.Screener.MinVolumeSOL == 0 {
		cfg.Screener.MinVolumeSOL = 2000
	}
	applyWeightDefaults(&cfg.Screener.Weights)
	if cfg.Screener.VWAP.LookbackMinutes == 0 {
		cfg.Screener.VWAP.LookbackMinutes = 10
	}
	if cfg.Screener.VWAP.DropPct == 0 {
		cfg.Screener.VWAP.DropPct = 0.4
	}
	if cfg.Screener.VWAP.RecoveryPct == 0 {
		cfg.Screener.VWAP.RecoveryPct = 0.2
	}
	if cfg.Screener.VWAP.MinTrades == 0 {
		cfg.Screener.VWAP.MinTrades = 10
	}
	if cfg.Screener.VWAP.MinPrices == 0 {
		cfg.Screener.VWAP.MinPrices = 5
	}
	if cfg.Screener.HighScore == 0 {
		cfg.Screener.HighScore = 7
	}
	if cfg.Screener.MediumScore == 0 {
		cfg.Screener.MediumScore = 4
	}
	if cfg.Refresh.IntervalSec == 0 {
		cfg.Refresh.IntervalSec = 30
	}
	if cfg.Refresh.MinIntervalSec == 0 {
		cfg.Refresh.MinIntervalSec = 10
	}
	if cfg.Refresh.MaxIntervalSec == 0 {
		cfg.Refresh.MaxIntervalSec = 300
	}
	if cfg.Criteria.MinScore == 0 {
		cfg.Criteria.MinScore = 3.0
	}
	if cfg.Criteria.MinVolumeSOL == 0 {
		cfg.Criteria.MinVolumeSOL = 1000
	}
	if cfg.Criteria.MaxRiskScore == 0 {
		cfg.Criteria.MaxRiskScore = 0.7
	}
	if cfg.Web.ListenAddr == "" {
		cfg.Web.ListenAddr = ":8080"
	}
	if cfg.Web.ReadHeaderTimeoutSec == 0 {
		cfg.Web.ReadHeaderTimeoutSec = 5
	}
	if cfg.Alerts.MinScore == 0 {
		cfg.Alerts.MinScore = 7.0
	}
	if cfg.Alerts.CooldownMinutes == 0 {
		cfg.Alerts.CooldownMinutes = 30
	}
}

func applyWeightDefaults(w *WeightsConfig) {
	if w.BuyRateDivisor == 0 {
		w.BuyRateDivisor = 25
	}
	if w.BuyRateCap == 0 {
		w.BuyRateCap = 2
	}
	if w.VolumeDivisor == 0 {
		w.VolumeDivisor = 2000
	}
	if w.VolumeCap == 0 {
		w.VolumeCap = 2
	}
	if w.CreatorKneePct == 0 {
		w.CreatorKneePct = 100
	}
	if w.Top10KneePct == 0 {
		w.Top10KneePct = 50
	}
	if w.LockCap == 0 {
		w.LockCap = 1
	}
	if w.FollowerDivisor == 0 {
		w.FollowerDivisor = 300
	}
	if w.TrendDivisor == 0 {
		w.TrendDivisor = 300
	}
	if w.RecoveryBonus == 0 {
		w.RecoveryBonus = 1
	}
}
