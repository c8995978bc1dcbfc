package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STONKS_DATA_DIR", filepath.Join(dir, "data"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(cfg.DataDir))
	assert.DirExists(t, cfg.DataDir)
	assert.Equal(t, filepath.Join(cfg.DataDir, "history.db"), cfg.DatabasePath())
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, BackendChart, cfg.ProviderBackend)
	assert.Equal(t, "max", cfg.FetchRange)
	assert.Equal(t, 252, cfg.DefaultHorizonDays)
	assert.Equal(t, 1000, cfg.DefaultSimulations)
	assert.False(t, cfg.IncludeDividends)

	begin, end := cfg.BacktestWindow()
	assert.Equal(t, "2016-01-01", begin.String())
	assert.Equal(t, "2025-01-01", end.String())
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stonks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: `+filepath.Join(dir, "cache")+`
port: 9000
provider_backend: native
http_timeout: 5s
default_simulations: 200
include_dividends: true
refresh_schedule: "@hourly"
`), 0o644))

	t.Setenv("STONKS_CONFIG_FILE", path)
	t.Setenv("STONKS_PORT", "9100")
	t.Setenv("STONKS_SEED", "7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port, "env wins over file")
	assert.Equal(t, BackendNative, cfg.ProviderBackend)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 200, cfg.DefaultSimulations)
	assert.True(t, cfg.IncludeDividends)
	assert.Equal(t, "@hourly", cfg.RefreshSchedule)
	assert.Equal(t, int64(7), cfg.DefaultSeed)
	assert.Equal(t, filepath.Join(dir, "cache"), cfg.DataDir)
	assert.Equal(t, 252, cfg.DefaultHorizonDays, "keys missing from the file keep defaults")
}

func TestLoad_EmptyEnvDisablesSchedule(t *testing.T) {
	t.Setenv("STONKS_DATA_DIR", t.TempDir())
	t.Setenv("STONKS_REFRESH_SCHEDULE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.RefreshSchedule)
}

func TestLoad_BadFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STONKS_DATA_DIR", dir)

	t.Setenv("STONKS_CONFIG_FILE", filepath.Join(dir, "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)

	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [not a number"), 0o644))
	t.Setenv("STONKS_CONFIG_FILE", path)
	_, err = Load()
	assert.Error(t, err)
}

func TestLoad_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv("STONKS_DATA_DIR", t.TempDir())
	t.Setenv("STONKS_PORT", "not-a-port")
	t.Setenv("STONKS_HTTP_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Port = 0 }, wantErr: "port"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: "log_level"},
		{name: "unknown backend", mutate: func(c *Config) { c.ProviderBackend = "bloomberg" }, wantErr: "provider_backend"},
		{name: "zero timeout", mutate: func(c *Config) { c.HTTPTimeout = 0 }, wantErr: "http_timeout"},
		{name: "zero horizon", mutate: func(c *Config) { c.DefaultHorizonDays = 0 }, wantErr: "default_horizon_days"},
		{name: "zero simulations", mutate: func(c *Config) { c.DefaultSimulations = 0 }, wantErr: "default_simulations"},
		{name: "max below default", mutate: func(c *Config) { c.MaxSimulations = 10 }, wantErr: "max_simulations"},
		{name: "negative workers", mutate: func(c *Config) { c.Workers = -1 }, wantErr: "workers"},
		{name: "bad begin date", mutate: func(c *Config) { c.DefaultBacktestBegin = "2016/01/01" }, wantErr: "default_backtest_begin"},
		{name: "inverted window", mutate: func(c *Config) { c.DefaultBacktestEnd = "2010-01-01" }, wantErr: "before"},
		{name: "bad cron", mutate: func(c *Config) { c.RefreshSchedule = "every tuesday" }, wantErr: "refresh_schedule"},
		{name: "disabled schedule", mutate: func(c *Config) { c.DBCheckSchedule = "" }},
		{name: "expiry without timeout", mutate: func(c *Config) { c.SessionIdleTimeout = 0 }, wantErr: "session_idle_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
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
