package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	yaml := `
general:
  instance_id: "test-node"
  environment: "development"
  log_level: "debug"

provider:
  mode: "stub"
  endpoint: "https://graphql.example.test"
  token: "test-token"
  max_concurrent: 4
  rate_limit_rps: 2.5

screener:
  min_buys_per_minute: 40
  min_volume_sol: 3000
  weights:
    buy_rate_divisor: 50

refresh:
  interval_sec: 60

criteria:
  min_score: 5.5
  max_risk_score: 0.5
`
	tmpFile, err := os.CreateTemp("", "pumpscope-config-*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())

	_, err = tmpFile.WriteString(yaml)
	require.NoError(t, err)
	tmpFile.Close()

	cfg, err := Load(tmpFile.Name())
	require.NoError(t, err)

	assert.Equal(t, "test-node", cfg.General.InstanceID)
	assert.Equal(t, "development", cfg.General.Environment)
	assert.Equal(t, "stub", cfg.Provider.Mode)
	assert.Equal(t, "https://graphql.example.test", cfg.Provider.Endpoint)
	assert.Equal(t, 4, cfg.Provider.MaxConcurrent)
	assert.Equal(t, 2.5, cfg.Provider.RateLimitRPS)
	assert.Equal(t, 40.0, cfg.Screener.MinBuysPerMinute)
	assert.Equal(t, 3000.0, cfg.Screener.MinVolumeSOL)
	assert.Equal(t, 50.0, cfg.Screener.Weights.BuyRateDivisor)
	assert.Equal(t, 60, cfg.Refresh.IntervalSec)
	assert.Equal(t, 5.5, cfg.Criteria.MinScore)
	assert.Equal(t, 0.5, cfg.Criteria.MaxRiskScore)
}

func TestLoadConfigDefaults(t *testing.T) {
	yaml := `
general:
  log_level: "warn"
`
	tmpFile, err := os.CreateTemp("", "pumpscope-config-*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())

	_, err = tmpFile.WriteString(yaml)
	require.NoError(t, err)
	tmpFile.Close()

	cfg, err := Load(tmpFile.Name())
	require.NoError(t, err)

	assert.Equal(t, "pumpscope-1", cfg.General.InstanceID)
	assert.Equal(t, "https://streaming.bitquery.io/graphql", cfg.Provider.Endpoint)
	assert.Equal(t, 10, cfg.Provider.MaxConcurrent)
	assert.Equal(t, 30, cfg.Provider.RequestTimeoutSec)
	assert.Equal(t, "https://pump.fun/api", cfg.Catalog.Endpoint)
	assert.Equal(t, 50, cfg.Catalog.ListLimit)
	assert.Equal(t, 25.0, cfg.Screener.MinBuysPerMinute)
	assert.Equal(t, 2000.0, cfg.Screener.MinVolumeSOL)
	assert.Equal(t, 25.0, cfg.Screener.Weights.BuyRateDivisor)
	assert.Equal(t, 2.0, cfg.Screener.Weights.BuyRateCap)
	assert.Equal(t, 100.0, cfg.Screener.Weights.CreatorKneePct)
	assert.Equal(t, 30, cfg.Refresh.IntervalSec)
	assert.Equal(t, 10, cfg.Refresh.MinIntervalSec)
	assert.Equal(t, 300, cfg.Refresh.MaxIntervalSec)
	assert.Equal(t, 3.0, cfg.Criteria.MinScore)
	assert.Equal(t, 0.7, cfg.Criteria.MaxRiskScore)
	assert.Equal(t, 7.0, cfg.Screener.HighScore)
	assert.Equal(t, 4.0, cfg.Screener.MediumScore)
	assert.Equal(t, ":8080", cfg.Web.ListenAddr)
}

func TestLoadConfigEnvExpansion(t *testing.T) {
	os.Setenv("TEST_PUMPSCOPE_TOKEN", "secret-from-env")
	defer os.Unsetenv("TEST_PUMPSCOPE_TOKEN")

	yaml := `
provider:
  token: "${TEST_PUMPSCOPE_TOKEN}"
`
	tmpFile, err := os.CreateTemp("", "pumpscope-config-*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())

	_, err = tmpFile.WriteString(yaml)
	require.NoError(t, err)
	tmpFile.Close()

	cfg, err := Load(tmpFile.Name())
	require.NoError(t, err)

	assert.Equal(t, "secret-from-env", cfg.Provider.Token)
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "live", cfg.Provider.Mode)
	assert.Equal(t, 10, cfg.Provider.MaxConcurrent)
	assert.Equal(t, 0.4, cfg.Screener.VWAP.DropPct)
	assert.Equal(t, 0.2, cfg.Screener.VWAP.RecoveryPct)
	assert.Equal(t, 10, cfg.Screener.VWAP.MinTrades)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults pass",
			mutate: func(*Config) {},
		},
		{
			name:    "bad provider mode",
			mutate:  func(c *Config) { c.Provider.Mode = "replay" },
			wantErr: "provider mode",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.General.LogFormat = "xml" },
			wantErr: "log_format",
		},
		{
			name:    "negative concurrency",
			mutate:  func(c *Config) { c.Provider.MaxConcurrent = -1 },
			wantErr: "max_concurrent",
		},
		{
			name:    "negative gate volume",
			mutate:  func(c *Config) { c.Screener.MinVolumeSOL = -100 },
			wantErr: "min_volume_sol",
		},
		{
			name:    "inverted score bands",
			mutate:  func(c *Config) { c.Screener.MediumScore = 9 },
			wantErr: "medium_score",
		},
		{
			name: "inverted refresh bounds",
			mutate: func(c *Config) {
				c.Refresh.MinIntervalSec = 600
				c.Refresh.MaxIntervalSec = 60
			},
			wantErr: "min_interval_sec",
		},
		{
			name:    "risk out of range",
			mutate:  func(c *Config) { c.Criteria.MaxRiskScore = 1.5 },
			wantErr: "max_risk_score",
		},
		{
			name: "negative alert threshold only matters when enabled",
			mutate: func(c *Config) {
				c.Alerts.Enabled = false
				c.Alerts.MinScore = -1
			},
		},
		{
			name: "negative alert threshold rejected when enabled",
			mutate: func(c *Config) {
				c.Alerts.Enabled = true
				c.Alerts.MinScore = -1
			},
			wantErr: "alerts min_score",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
