// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/niksan004/Stonks/internal/domain"
)

// Provider backends for live price history.
const (
	BackendChart  = "chart"
	BackendNative = "native"
)

// Config holds application configuration. Values come from defaults, then
// the YAML file named by STONKS_CONFIG_FILE, then environment variables.
type Config struct {
	DataDir  string `yaml:"data_dir"` // Directory of the price cache database, always absolute after Load
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
	DevMode  bool   `yaml:"dev_mode"` // Pretty console logs, no response compression

	ProviderBackend  string        `yaml:"provider_backend"` // "chart" or "native"
	ChartBaseURL     string        `yaml:"chart_base_url"`
	FetchRange       string        `yaml:"fetch_range"`
	HTTPTimeout      time.Duration `yaml:"http_timeout"`
	CacheMaxAge      time.Duration `yaml:"cache_max_age"` // Zero keeps cached history until refreshed
	StrictValidation bool          `yaml:"strict_validation"`

	RefreshSchedule       string        `yaml:"refresh_schedule"` // Empty disables the job
	DBCheckSchedule       string        `yaml:"db_check_schedule"`
	SessionExpirySchedule string        `yaml:"session_expiry_schedule"`
	SessionIdleTimeout    time.Duration `yaml:"session_idle_timeout"`

	DefaultSeed          int64  `yaml:"default_seed"`
	IncludeDividends     bool   `yaml:"include_dividends"`
	Workers              int    `yaml:"workers"` // Monte Carlo goroutines, zero means one per CPU
	DefaultBacktestBegin string `yaml:"default_backtest_begin"`
	DefaultBacktestEnd   string `yaml:"default_backtest_end"`
	DefaultHorizonDays   int    `yaml:"default_horizon_days"`
	DefaultSimulations   int    `yaml:"default_simulations"`
	MaxHorizonDays       int    `yaml:"max_horizon_days"`
	MaxSimulations       int    `yaml:"max_simulations"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() *Config {
	return &Config{
		DataDir:               "data",
		Port:                  8080,
		LogLevel:              "info",
		ProviderBackend:       BackendChart,
		FetchRange:            "max",
		HTTPTimeout:           30 * time.Second,
		RefreshSchedule:       "30 22 * * MON-FRI",
		DBCheckSchedule:       "@daily",
		SessionExpirySchedule: "@every 15m",
		SessionIdleTimeout:    2 * time.Hour,
		DefaultSeed:           42,
		DefaultBacktestBegin:  "2016-01-01",
		DefaultBacktestEnd:    "2025-01-01",
		DefaultHorizonDays:    252,
		DefaultSimulations:    1000,
		MaxHorizonDays:        3650,
		MaxSimulations:        100000,
	}
}

// Load reads configuration from .env, the optional YAML file and the
// environment, then validates it.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := Defaults()

	if path := os.Getenv("STONKS_CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	absDataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	cfg.DataDir = absDataDir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile overlays the YAML file at path. Keys missing from the file keep
// their current values.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.DataDir = getEnv("STONKS_DATA_DIR", c.DataDir)
	c.Port = getEnvAsInt("STONKS_PORT", c.Port)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.DevMode = getEnvAsBool("DEV_MODE", c.DevMode)

	c.ProviderBackend = getEnv("STONKS_PROVIDER", c.ProviderBackend)
	c.ChartBaseURL = getEnv("STONKS_CHART_URL", c.ChartBaseURL)
	c.FetchRange = getEnv("STONKS_FETCH_RANGE", c.FetchRange)
	c.HTTPTimeout = getEnvAsDuration("STONKS_HTTP_TIMEOUT", c.HTTPTimeout)
	c.CacheMaxAge = getEnvAsDuration("STONKS_CACHE_MAX_AGE", c.CacheMaxAge)
	c.StrictValidation = getEnvAsBool("STONKS_STRICT_VALIDATION", c.StrictValidation)

	c.RefreshSchedule = getEnvAllowEmpty("STONKS_REFRESH_SCHEDULE", c.RefreshSchedule)
	c.DBCheckSchedule = getEnvAllowEmpty("STONKS_DB_CHECK_SCHEDULE", c.DBCheckSchedule)
	c.SessionExpirySchedule = getEnvAllowEmpty("STONKS_SESSION_EXPIRY_SCHEDULE", c.SessionExpirySchedule)
	c.SessionIdleTimeout = getEnvAsDuration("STONKS_SESSION_IDLE_TIMEOUT", c.SessionIdleTimeout)

	c.DefaultSeed = getEnvAsInt64("STONKS_SEED", c.DefaultSeed)
	c.IncludeDividends = getEnvAsBool("STONKS_INCLUDE_DIVIDENDS", c.IncludeDividends)
	c.Workers = getEnvAsInt("STONKS_WORKERS", c.Workers)
	c.DefaultBacktestBegin = getEnv("STONKS_BACKTEST_BEGIN", c.DefaultBacktestBegin)
	c.DefaultBacktestEnd = getEnv("STONKS_BACKTEST_END", c.DefaultBacktestEnd)
	c.DefaultHorizonDays = getEnvAsInt("STONKS_HORIZON_DAYS", c.DefaultHorizonDays)
	c.DefaultSimulations = getEnvAsInt("STONKS_SIMULATIONS", c.DefaultSimulations)
	c.MaxHorizonDays = getEnvAsInt("STONKS_MAX_HORIZON_DAYS", c.MaxHorizonDays)
	c.MaxSimulations = getEnvAsInt("STONKS_MAX_SIMULATIONS", c.MaxSimulations)
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	switch c.ProviderBackend {
	case BackendChart, BackendNative:
	default:
		return fmt.Errorf("provider_backend must be %q or %q, got %q", BackendChart, BackendNative, c.ProviderBackend)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive")
	}
	if c.DefaultHorizonDays < 1 {
		return fmt.Errorf("default_horizon_days must be at least 1, got %d", c.DefaultHorizonDays)
	}
	if c.DefaultSimulations < 1 {
		return fmt.Errorf("default_simulations must be at least 1, got %d", c.DefaultSimulations)
	}
	if c.MaxHorizonDays < c.DefaultHorizonDays {
		return fmt.Errorf("max_horizon_days (%d) is below default_horizon_days (%d)", c.MaxHorizonDays, c.DefaultHorizonDays)
	}
	if c.MaxSimulations < c.DefaultSimulations {
		return fmt.Errorf("max_simulations (%d) is below default_simulations (%d)", c.MaxSimulations, c.DefaultSimulations)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}

	begin, err := domain.ParseDate(c.DefaultBacktestBegin)
	if err != nil {
		return fmt.Errorf("default_backtest_begin: %w", err)
	}
	end, err := domain.ParseDate(c.DefaultBacktestEnd)
	if err != nil {
		return fmt.Errorf("default_backtest_end: %w", err)
	}
	if end.Before(begin) {
		return fmt.Errorf("default_backtest_end %s is before default_backtest_begin %s", end, begin)
	}

	schedules := map[string]string{
		"refresh_schedule":        c.RefreshSchedule,
		"db_check_schedule":       c.DBCheckSchedule,
		"session_expiry_schedule": c.SessionExpirySchedule,
	}
	for name, spec := range schedules {
		if spec == "" {
			continue
		}
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.SessionExpirySchedule != "" && c.SessionIdleTimeout <= 0 {
		return fmt.Errorf("session_idle_timeout must be positive when session expiry is scheduled")
	}

	return nil
}

// BacktestWindow returns the default backtest dates. Call after Validate.
func (c *Config) BacktestWindow() (begin, end domain.Date) {
	return domain.MustParseDate(c.DefaultBacktestBegin), domain.MustParseDate(c.DefaultBacktestEnd)
}

// DatabasePath is the price cache file inside DataDir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAllowEmpty lets a set-but-empty variable clear the value.
func getEnvAllowEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
