package infra

import (
	"fmt"
	"os"

	"cryptoduel/internal/domain"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultUserAgent is a browser-like user agent string to avoid bot detection
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Config holds every setting of the game process. Loaded from YAML,
// then selectively overridden through environment variables.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Game struct {
		StartingBalance  decimal.Decimal `yaml:"starting_balance"`
		RoundLengthTicks int             `yaml:"round_length_ticks"`
		TickIntervalMS   int             `yaml:"tick_interval_ms"`
		Seed             int64           `yaml:"seed"` // 0 = time-seeded
	} `yaml:"game"`

	API struct {
		CoinGecko struct {
			BaseURL     string `yaml:"base_url"`
			TimeoutSec  int    `yaml:"timeout_sec"`
			MaxAttempts int    `yaml:"max_attempts"`
		} `yaml:"coingecko"`
	} `yaml:"api"`

	// Playable assets. Falls back to the built-in list when empty.
	Assets []domain.Asset `yaml:"assets"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	History struct {
		Enabled bool   `yaml:"enabled"`
		DBPath  string `yaml:"db_path"` // empty = per-user config dir
	} `yaml:"history"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// DefaultConfig returns a runnable configuration with the built-in
// asset catalog.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.App.Name = "cryptoduel"
	cfg.Game.StartingBalance = decimal.NewFromInt(1000)
	cfg.Game.RoundLengthTicks = 10
	cfg.Game.TickIntervalMS = 1000
	cfg.API.CoinGecko.BaseURL = "https://api.coingecko.com/api/v3"
	cfg.API.CoinGecko.TimeoutSec = 10
	cfg.API.CoinGecko.MaxAttempts = 3
	cfg.Assets = domain.DefaultAssets()
	cfg.Server.Addr = "localhost:8080"
	cfg.History.Enabled = true
	cfg.Logging.Level = "info"
	return cfg
}

// LoadConfig reads and parses the config file. Missing optional fields
// are filled from DefaultConfig so a minimal file stays valid.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if len(cfg.Assets) == 0 {
		cfg.Assets = domain.DefaultAssets()
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Game.RoundLengthTicks <= 0 {
		return fmt.Errorf("round length must be positive")
	}
	if c.Game.TickIntervalMS <= 0 {
		return fmt.Errorf("tick interval must be positive")
	}
	if c.Game.StartingBalance.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("starting balance must be positive")
	}
	if len(c.Assets) < 2 {
		return fmt.Errorf("at least two assets are required")
	}
	if c.API.CoinGecko.BaseURL == "" {
		return fmt.Errorf("coingecko base URL is required")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr is required")
	}
	return nil
}

// overrideWithEnv applies environment overrides where present.
func overrideWithEnv(cfg *Config) {
	if addr := os.Getenv("CRYPTODUEL_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if url := os.Getenv("CRYPTODUEL_COINGECKO_URL"); url != "" {
		cfg.API.CoinGecko.BaseURL = url
	}
	if path := os.Getenv("CRYPTODUEL_DB_PATH"); path != "" {
		cfg.History.DBPath = path
	}
	if level := os.Getenv("CRYPTODUEL_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}
