package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"gopkg.in/yaml.v3"
)

// Storage backends accepted by Config.Storage.Backend.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Config holds every setting of the service. Pricing and FX policy values
// live here rather than in code.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
		Env     string `yaml:"env"` // "development" switches to text logs
	} `yaml:"app"`

	Server struct {
		Addr            string  `yaml:"addr"`
		RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
		RateLimitBurst  int     `yaml:"rate_limit_burst"`
	} `yaml:"server"`

	Storage struct {
		Backend  string `yaml:"backend"`
		Path     string `yaml:"path"` // sqlite/file location; empty = workspace default
		RedisURL string `yaml:"redis_url"`
	} `yaml:"storage"`

	Currency struct {
		Base      string                     `yaml:"base"`
		Default   string                     `yaml:"default"`
		Supported []string                   `yaml:"supported"`
		Fallback  map[string]decimal.Decimal `yaml:"fallback_rates"`
	} `yaml:"currency"`

	ExchangeRate struct {
		Enabled          bool          `yaml:"enabled"`
		URL              string        `yaml:"url"` // {base} is replaced with the base currency
		Freshness        time.Duration `yaml:"freshness"`
		RetryAfter       time.Duration `yaml:"retry_after"` // how long fallback rates are served before retrying
		TimeoutSec       int           `yaml:"timeout_sec"`
		FailureThreshold int           `yaml:"failure_threshold"`
		CooldownSec      int           `yaml:"cooldown_sec"`
	} `yaml:"exchange_rate"`

	Pricing struct {
		TaxRate               decimal.Decimal `yaml:"tax_rate"`
		DeliveryFee           decimal.Decimal `yaml:"delivery_fee"`
		FreeDeliveryThreshold decimal.Decimal `yaml:"free_delivery_threshold"`
	} `yaml:"pricing"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// DefaultConfig returns the built-in settings. A config file only needs to
// list what it changes.
func DefaultConfig() *Config {
	var cfg Config
	cfg.App.Name = AppName
	cfg.App.Version = "1.0.0"
	cfg.App.Env = "production"

	cfg.Server.Addr = ":8080"
	cfg.Server.RateLimitPerSec = 20
	cfg.Server.RateLimitBurst = 40

	cfg.Storage.Backend = BackendSQLite

	cfg.Currency.Base = "USD"
	cfg.Currency.Default = "INR"
	cfg.Currency.Supported = []string{"INR", "USD", "EUR", "GBP"}
	cfg.Currency.Fallback = map[string]decimal.Decimal{
		"INR": decimal.NewFromInt(82),
		"USD": decimal.NewFromInt(1),
		"EUR": decimal.RequireFromString("0.92"),
		"GBP": decimal.RequireFromString("0.79"),
	}

	cfg.ExchangeRate.Enabled = true
	cfg.ExchangeRate.URL = "https://open.er-api.com/v6/latest/{base}"
	cfg.ExchangeRate.Freshness = 12 * time.Hour
	cfg.ExchangeRate.RetryAfter = time.Minute
	cfg.ExchangeRate.TimeoutSec = 10
	cfg.ExchangeRate.FailureThreshold = 3
	cfg.ExchangeRate.CooldownSec = 300

	cfg.Pricing.TaxRate = decimal.RequireFromString("0.05")
	cfg.Pricing.DeliveryFee = decimal.RequireFromString("2.5")
	cfg.Pricing.FreeDeliveryThreshold = decimal.NewFromInt(25)

	cfg.Logging.Level = "info"
	return &cfg
}

// LoadConfig reads path over the defaults, then applies .env and QB_*
// environment overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// defaults only
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	overrideWithEnv(cfg)
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// normalize upper-cases currency codes and pins the base rate to 1.
func (c *Config) normalize() {
	c.Currency.Base = strings.ToUpper(strings.TrimSpace(c.Currency.Base))
	c.Currency.Default = strings.ToUpper(strings.TrimSpace(c.Currency.Default))
	for i, code := range c.Currency.Supported {
		c.Currency.Supported[i] = strings.ToUpper(strings.TrimSpace(code))
	}
	fallback := make(map[string]decimal.Decimal, len(c.Currency.Fallback))
	for code, rate := range c.Currency.Fallback {
		fallback[strings.ToUpper(strings.TrimSpace(code))] = rate
	}
	fallback[c.Currency.Base] = decimal.NewFromInt(1)
	c.Currency.Fallback = fallback
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if _, err := currency.ParseISO(c.Currency.Base); err != nil {
		return fmt.Errorf("invalid base currency %q: %w", c.Currency.Base, err)
	}
	if len(c.Currency.Supported) == 0 {
		return fmt.Errorf("at least one supported currency is required")
	}
	for _, code := range c.Currency.Supported {
		if _, err := currency.ParseISO(code); err != nil {
			return fmt.Errorf("invalid supported currency %q: %w", code, err)
		}
		rate, ok := c.Currency.Fallback[code]
		if !ok {
			return fmt.Errorf("missing fallback rate for %s", code)
		}
		if !rate.IsPositive() {
			return fmt.Errorf("fallback rate for %s must be positive", code)
		}
	}
	if !c.IsSupported(c.Currency.Default) {
		return fmt.Errorf("default currency %s is not in the supported list", c.Currency.Default)
	}

	if c.Pricing.TaxRate.IsNegative() || c.Pricing.DeliveryFee.IsNegative() || c.Pricing.FreeDeliveryThreshold.IsNegative() {
		return fmt.Errorf("pricing values must not be negative")
	}

	if c.ExchangeRate.Freshness <= 0 {
		return fmt.Errorf("exchange rate freshness must be positive")
	}
	if c.ExchangeRate.RetryAfter < 0 {
		return fmt.Errorf("exchange rate retry_after must not be negative")
	}
	if c.ExchangeRate.Enabled && !strings.HasPrefix(c.ExchangeRate.URL, "http://") && !strings.HasPrefix(c.ExchangeRate.URL, "https://") {
		return fmt.Errorf("invalid exchange rate URL: %s", c.ExchangeRate.URL)
	}

	switch c.Storage.Backend {
	case BackendSQLite, BackendFile, BackendMemory:
	case BackendRedis:
		if c.Storage.RedisURL == "" {
			return fmt.Errorf("redis backend requires storage.redis_url")
		}
	default:
		return fmt.Errorf("unknown storage backend: %s", c.Storage.Backend)
	}

	if c.Server.RateLimitPerSec <= 0 || c.Server.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}

	return nil
}

// IsSupported reports whether code is one of the display currencies.
func (c *Config) IsSupported(code string) bool {
	for _, s := range c.Currency.Supported {
		if s == code {
			return true
		}
	}
	return false
}

// overrideWithEnv applies QB_* environment variables. They win over the file.
func overrideWithEnv(cfg *Config) {
	if v := os.Getenv("QB_ENV"); v != "" {
		cfg.App.Env = v
	}
	if v := os.Getenv("QB_HTTP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("QB_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("QB_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("QB_REDIS_URL"); v != "" {
		cfg.Storage.RedisURL = v
	}
	if v := os.Getenv("QB_FX_URL"); v != "" {
		cfg.ExchangeRate.URL = v
	}
	if v := os.Getenv("QB_FX_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.ExchangeRate.Enabled = b
		}
	}
	if v := os.Getenv("QB_DEFAULT_CURRENCY"); v != "" {
		cfg.Currency.Default = v
	}
	if v := os.Getenv("QB_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
