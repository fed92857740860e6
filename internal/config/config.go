package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. ETFDESK_SERVER_LISTEN.
const EnvPrefix = "ETFDESK"

// Config holds all application configuration.
type Config struct {
	Quote struct {
		BaseURL string        `yaml:"base_url" envconfig:"base_url"`
		Referer string        `yaml:"referer" envconfig:"referer"`
		Timeout time.Duration `yaml:"timeout" envconfig:"timeout"`
	} `yaml:"quote" envconfig:"quote"`
	History struct {
		BaseURL      string        `yaml:"base_url" envconfig:"base_url"`
		LookbackDays int           `yaml:"lookback_days" envconfig:"lookback_days"`
		Adjust       string        `yaml:"adjust" envconfig:"adjust"`
		Timeout      time.Duration `yaml:"timeout" envconfig:"timeout"`
	} `yaml:"history" envconfig:"history"`
	Bands struct {
		Window int     `yaml:"window" envconfig:"window"`
		K      float64 `yaml:"k" envconfig:"k"`
	} `yaml:"bands" envconfig:"bands"`
	Tiers struct {
		Sell []float64 `yaml:"sell" envconfig:"sell"`
		Buy  []float64 `yaml:"buy" envconfig:"buy"`
	} `yaml:"tiers" envconfig:"tiers"`
	Cache struct {
		TTL       time.Duration `yaml:"ttl" envconfig:"ttl"`
		RedisAddr string        `yaml:"redis_addr" envconfig:"redis_addr"`
	} `yaml:"cache" envconfig:"cache"`
	Session struct {
		HistoryCap  int           `yaml:"history_cap" envconfig:"history_cap"`
		IdleTTL     time.Duration `yaml:"idle_ttl" envconfig:"idle_ttl"`
		MaxSessions int           `yaml:"max_sessions" envconfig:"max_sessions"`
	} `yaml:"session" envconfig:"session"`
	// Instruments maps a fund code to "sh" or "sz" where the first-digit guess is wrong.
	Instruments map[string]string `yaml:"instruments" envconfig:"instruments"`
	Server      struct {
		Listen string `yaml:"listen" envconfig:"listen"`
	} `yaml:"server" envconfig:"server"`
	Telegram struct {
		BotToken string `yaml:"bot_token" envconfig:"bot_token"`
	} `yaml:"telegram" envconfig:"telegram"`
	Database struct {
		SQLitePath    string `yaml:"sqlite_path" envconfig:"sqlite_path"`
		RetentionDays int    `yaml:"retention_days" envconfig:"retention_days"`
	} `yaml:"database" envconfig:"database"`
	Schedule struct {
		PruneCron string `yaml:"prune_cron" envconfig:"prune_cron"`
		SweepCron string `yaml:"sweep_cron" envconfig:"sweep_cron"`
	} `yaml:"schedule" envconfig:"schedule"`
	Log struct {
		Level       string `yaml:"level" envconfig:"level"`
		Development bool   `yaml:"development" envconfig:"development"`
	} `yaml:"log" envconfig:"log"`
	Proxy string `yaml:"proxy" envconfig:"proxy"`
}

// Default returns the built-in configuration. Zero is a meaningful value for
// several settings (cache.ttl, session.history_cap, database.retention_days),
// so defaults are seeded before decoding rather than filled in afterwards.
func Default() *Config {
	c := &Config{}
	c.Quote.BaseURL = "http://hq.sinajs.cn"
	c.Quote.Referer = "http://finance.sina.com.cn"
	c.Quote.Timeout = 5 * time.Second
	c.History.BaseURL = "https://push2his.eastmoney.com"
	c.History.LookbackDays = 120
	c.History.Timeout = 10 * time.Second
	c.Bands.Window = 20
	c.Bands.K = 2
	c.Tiers.Sell = []float64{0.995, 1.0, 1.015}
	c.Tiers.Buy = []float64{1.005, 1.0}
	c.Cache.TTL = 60 * time.Second
	c.Session.HistoryCap = 10
	c.Session.IdleTTL = 24 * time.Hour
	c.Session.MaxSessions = 10000
	c.Server.Listen = ":8501"
	c.Database.RetentionDays = 90
	c.Schedule.PruneCron = "0 0 3 * * *"
	c.Schedule.SweepCron = "0 */10 * * * *"
	c.Log.Level = "info"
	return c
}

// Load reads config from a YAML file over the defaults, then applies environment
// variable overrides. Keys absent from both keep their default. A missing file
// is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

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
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" && cfg.Telegram.BotToken == "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" && cfg.Proxy == "" {
		cfg.Proxy = v
	}
	return cfg, nil
}

// Validate checks value ranges and cross-field constraints. A zero cache.ttl
// disables caching, a zero session.history_cap keeps every code and a zero
// database.retention_days keeps every journal row.
func (c *Config) Validate() error {
	if c.Quote.BaseURL == "" || c.History.BaseURL == "" {
		return fmt.Errorf("quote.base_url and history.base_url are required")
	}
	if c.Quote.Timeout <= 0 || c.History.Timeout <= 0 {
		return fmt.Errorf("fetch timeouts must be positive")
	}
	if c.History.LookbackDays <= 0 {
		return fmt.Errorf("history.lookback_days must be positive")
	}
	switch c.History.Adjust {
	case "", "qfq", "hfq":
	default:
		return fmt.Errorf("history.adjust must be empty, qfq or hfq, got %q", c.History.Adjust)
	}
	if c.Bands.Window < 2 {
		return fmt.Errorf("bands.window must be at least 2")
	}
	if c.Bands.K <= 0 {
		return fmt.Errorf("bands.k must be positive")
	}
	if len(c.Tiers.Sell) != 3 {
		return fmt.Errorf("tiers.sell needs 3 multipliers, got %d", len(c.Tiers.Sell))
	}
	if len(c.Tiers.Buy) != 2 {
		return fmt.Errorf("tiers.buy needs 2 multipliers, got %d", len(c.Tiers.Buy))
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	if c.Session.HistoryCap < 0 {
		return fmt.Errorf("session.history_cap must not be negative")
	}
	if c.Session.IdleTTL < 0 || c.Session.MaxSessions < 0 {
		return fmt.Errorf("session.idle_ttl and session.max_sessions must not be negative")
	}
	for code, m := range c.Instruments {
		if m != "sh" && m != "sz" {
			return fmt.Errorf("instruments.%s must be sh or sz, got %q", code, m)
		}
	}
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}
	if c.Database.RetentionDays < 0 {
		return fmt.Errorf("database.retention_days must not be negative")
	}
	return nil
}
