// Package config loads the optrader YAML configuration and applies
// environment variable overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"optrader/internal/domain"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for optrader.
type Config struct {
	Storage Storage       `yaml:"storage"`
	Server  Server        `yaml:"server"`
	Alpaca  Alpaca        `yaml:"alpaca"`
	Logging Logging       `yaml:"logging"`
	Trading TradingConfig `yaml:"trading"`
	Monitor MonitorConfig `yaml:"monitor"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir      string `yaml:"data_dir"`      // equity snapshots and derived data
	PortfolioDir string `yaml:"portfolio_dir"` // portfolio JSON files, one per mode
	SQLitePath   string `yaml:"sqlite_path"`   // fill journal database
}

// Server holds network listener configuration for the dashboard API.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Alpaca holds credentials and endpoints for the Alpaca brokerage API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"`
	DataURL   string `yaml:"data_url"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TradingConfig defines execution mode and policy parameters.
type TradingConfig struct {
	Mode             domain.Mode `yaml:"mode"`               // "real" or "simulated"
	AllowShort       bool        `yaml:"allow_short"`        // permit selling symbols not held
	InitialCash      float64     `yaml:"initial_cash"`       // seed cash for a fresh portfolio
	OrderTimeoutSecs int         `yaml:"order_timeout_secs"` // real-mode fill wait deadline
}

// MonitorConfig controls the price monitor loop.
type MonitorConfig struct {
	IntervalSecs    int `yaml:"interval_secs"`
	RateLimitPerMin int `yaml:"rate_limit_per_min"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, applies
// environment variable overrides, and fills in defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if !cfg.Trading.Mode.Valid() {
		return nil, fmt.Errorf("trading.mode %q: must be %q or %q",
			cfg.Trading.Mode, domain.ModeReal, domain.ModeSimulated)
	}

	return cfg, nil
}

// Default returns a configuration with env overrides and defaults applied,
// for running without a config file (simulation out of the box).
func Default() *Config {
	cfg := &Config{}
	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	return cfg
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("PORTFOLIO_DIR"); v != "" {
		cfg.Storage.PortfolioDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}
	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("OPTRADER_MODE"); v != "" {
		cfg.Trading.Mode = domain.Mode(v)
	}

	// Standard Alpaca env vars (highest priority — canonical names used by SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}

// applyDefaults fills zero-valued fields with documented defaults. Without
// Alpaca credentials the default mode is simulated, so a fresh checkout
// runs entirely offline.
func applyDefaults(cfg *Config) {
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}
	if cfg.Storage.PortfolioDir == "" {
		cfg.Storage.PortfolioDir = cfg.Storage.DataDir
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = cfg.Storage.DataDir + "/optrader.db"
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8090
	}

	if cfg.Alpaca.BaseURL == "" {
		cfg.Alpaca.BaseURL = "https://paper-api.alpaca.markets"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Trading.Mode == "" {
		if cfg.Alpaca.APIKey != "" && cfg.Alpaca.APISecret != "" {
			cfg.Trading.Mode = domain.ModeReal
		} else {
			cfg.Trading.Mode = domain.ModeSimulated
		}
	}
	if cfg.Trading.InitialCash == 0 {
		cfg.Trading.InitialCash = 100000
	}
	if cfg.Trading.OrderTimeoutSecs == 0 {
		cfg.Trading.OrderTimeoutSecs = 30
	}

	if cfg.Monitor.IntervalSecs == 0 {
		cfg.Monitor.IntervalSecs = 60
	}
	if cfg.Monitor.RateLimitPerMin == 0 {
		cfg.Monitor.RateLimitPerMin = 200
	}
}
