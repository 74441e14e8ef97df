package infra

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Currency.Base != "USD" || cfg.Currency.Default != "INR" {
		t.Errorf("Unexpected currency defaults: %+v", cfg.Currency)
	}
	if cfg.ExchangeRate.Freshness != 12*time.Hour {
		t.Errorf("Expected 12h freshness, got %s", cfg.ExchangeRate.Freshness)
	}
	if cfg.ExchangeRate.RetryAfter != time.Minute {
		t.Errorf("Expected 1m retry delay, got %s", cfg.ExchangeRate.RetryAfter)
	}
	if !cfg.Pricing.TaxRate.Equal(decimal.RequireFromString("0.05")) {
		t.Errorf("Expected tax rate 0.05, got %s", cfg.Pricing.TaxRate)
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
currency:
  default: eur
  supported: [usd, eur]
  fallback_rates:
    EUR: "0.95"
exchange_rate:
  freshness: 6h
pricing:
  tax_rate: "0.08"
  free_delivery_threshold: 40
storage:
  backend: Memory
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Currency.Default != "EUR" {
		t.Errorf("Expected EUR default, got %s", cfg.Currency.Default)
	}
	if len(cfg.Currency.Supported) != 2 || cfg.Currency.Supported[0] != "USD" {
		t.Errorf("Unexpected supported list: %v", cfg.Currency.Supported)
	}
	if !cfg.Currency.Fallback["EUR"].Equal(decimal.RequireFromString("0.95")) {
		t.Errorf("Expected EUR fallback 0.95, got %s", cfg.Currency.Fallback["EUR"])
	}
	if !cfg.Currency.Fallback["USD"].Equal(decimal.NewFromInt(1)) {
		t.Errorf("Base fallback must be 1, got %s", cfg.Currency.Fallback["USD"])
	}
	if cfg.ExchangeRate.Freshness != 6*time.Hour {
		t.Errorf("Expected 6h, got %s", cfg.ExchangeRate.Freshness)
	}
	if !cfg.Pricing.FreeDeliveryThreshold.Equal(decimal.NewFromInt(40)) {
		t.Errorf("Expected threshold 40, got %s", cfg.Pricing.FreeDeliveryThreshold)
	}
	if cfg.Storage.Backend != BackendMemory {
		t.Errorf("Expected memory backend, got %s", cfg.Storage.Backend)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("QB_DEFAULT_CURRENCY", "GBP")
	t.Setenv("QB_FX_ENABLED", "false")
	t.Setenv("QB_STORAGE_BACKEND", "memory")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Currency.Default != "GBP" {
		t.Errorf("Expected GBP from env, got %s", cfg.Currency.Default)
	}
	if cfg.ExchangeRate.Enabled {
		t.Error("Expected FX disabled from env")
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"default not supported", "currency:\n  default: JPY\n", "default currency"},
		{"missing fallback", "currency:\n  supported: [INR, CHF]\n", "missing fallback"},
		{"bad code", "currency:\n  supported: [INR, ZZZZ]\n", "invalid supported currency"},
		{"negative tax", "pricing:\n  tax_rate: \"-0.1\"\n", "must not be negative"},
		{"redis without url", "storage:\n  backend: redis\n", "redis_url"},
		{"unknown backend", "storage:\n  backend: floppy\n", "unknown storage backend"},
		{"bad fx url", "exchange_rate:\n  url: ftp://rates\n", "invalid exchange rate URL"},
		{"negative retry delay", "exchange_rate:\n  retry_after: -1m\n", "retry_after"},
		{"broken yaml", "currency: [", "failed to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestPrintBanner(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExchangeRate.Enabled = false

	var sb strings.Builder
	PrintBanner(&sb, cfg)

	out := sb.String()
	for _, want := range []string{"QuickBite", "SQLITE", "USD", "INR, USD, EUR, GBP", "STATIC FALLBACK"} {
		if !strings.Contains(out, want) {
			t.Errorf("Banner missing %q:\n%s", want, out)
		}
	}
}

func TestNewLogger_Levels(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "warn"

	var sb strings.Builder
	logger := newLogger(cfg, &sb)
	logger.Info("hidden")
	logger.Warn("shown")

	out := sb.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("Unexpected log output: %s", out)
	}
	if !strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("Expected JSON output outside development, got %s", out)
	}
}
