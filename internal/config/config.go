package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Ticker   string `yaml:"ticker"`
	Strategy struct {
		WaitPeriodDays   int     `yaml:"wait_period_days"`
		VolatilityFactor float64 `yaml:"volatility_factor"`
		MinHistory       int     `yaml:"min_history"`
		WindowSize       int     `yaml:"window_size"`
	} `yaml:"strategy"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	QuoteAPI struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"quote_api"`
	Store struct {
		StateDir string `yaml:"state_dir"`
	} `yaml:"store"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Schedule struct {
		DailyCron string `yaml:"daily_cron"`
	} `yaml:"schedule"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("ETF_TICKER"); v != "" {
		cfg.Ticker = v
	}
	if v := os.Getenv("WAIT_PERIOD_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Strategy.WaitPeriodDays = n
		}
	}
	if v := os.Getenv("VOLATILITY_FACTOR"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Strategy.VolatilityFactor = f
		}
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("QUOTE_API_BASE_URL"); v != "" {
		cfg.QuoteAPI.BaseURL = v
	}
	if v := os.Getenv("QUOTE_API_KEY"); v != "" {
		cfg.QuoteAPI.APIKey = v
	}
	if v := os.Getenv("STATE_DIR"); v != "" {
		cfg.Store.StateDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("CRON_DAILY"); v != "" {
		cfg.Schedule.DailyCron = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Strategy.WaitPeriodDays == 0 {
		cfg.Strategy.WaitPeriodDays = 30
	}
	if cfg.Strategy.VolatilityFactor == 0 {
		cfg.Strategy.VolatilityFactor = 2.0
	}
	if cfg.Strategy.MinHistory == 0 {
		cfg.Strategy.MinHistory = 14
	}
	if cfg.Strategy.WindowSize == 0 {
		cfg.Strategy.WindowSize = 14
	}
	if cfg.Store.StateDir == "" {
		cfg.Store.StateDir = "data/state"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/etf_sentinel.db"
	}
	if cfg.Schedule.DailyCron == "" {
		cfg.Schedule.DailyCron = "0 0 22 * * 1-5"
	}

	return cfg, nil
}

// Validate checks that all required fields are set and sane. It runs before
// any external call is attempted.
func (c *Config) Validate() error {
	if c.Ticker == "" {
		return fmt.Errorf("ticker is required")
	}
	if c.Strategy.WaitPeriodDays <= 0 {
		return fmt.Errorf("strategy.wait_period_days must be positive")
	}
	if c.Strategy.VolatilityFactor < 0 {
		return fmt.Errorf("strategy.volatility_factor must not be negative")
	}
	if c.Strategy.WindowSize < 2 {
		return fmt.Errorf("strategy.window_size must be at least 2")
	}
	if c.Strategy.MinHistory < 2 {
		return fmt.Errorf("strategy.min_history must be at least 2")
	}
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	return nil
}
