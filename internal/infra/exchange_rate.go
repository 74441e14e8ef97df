package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// UserAgent identifies the service to the rate endpoint.
const UserAgent = "quickbite-pricing/1.0 (+https://github.com/Srinuas/Foodapp)"

// ErrMissingRates marks a response body without a usable rates object.
var ErrMissingRates = errors.New("response has no rates")

// maxRateBody caps how much of a response is read.
const maxRateBody = 1 << 20

// rateResponse covers the common shapes of base-denominated rate APIs.
// Only Rates is required.
type rateResponse struct {
	Base     string                     `json:"base"`
	BaseCode string                     `json:"base_code"`
	Rates    map[string]decimal.Decimal `json:"rates"`
}

// ExchangeRateClient fetches a base-currency rate table with one HTTP GET.
// It never retries; callers fall back instead.
type ExchangeRateClient struct {
	apiURL     string
	httpClient *http.Client
	breaker    *CircuitBreaker
}

// NewExchangeRateClient creates a client for apiURL. A "{base}" placeholder
// in the URL is replaced by the requested base currency. breaker may be nil.
func NewExchangeRateClient(apiURL string, timeout time.Duration, breaker *CircuitBreaker) *ExchangeRateClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ExchangeRateClient{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
	}
}

// NewExchangeRateClientFromConfig wires the client and its breaker from cfg.
func NewExchangeRateClientFromConfig(cfg *Config) *ExchangeRateClient {
	breaker := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "exchange-rate",
		FailureThreshold: cfg.ExchangeRate.FailureThreshold,
		Cooldown:         time.Duration(cfg.ExchangeRate.CooldownSec) * time.Second,
	})
	return NewExchangeRateClient(
		cfg.ExchangeRate.URL,
		time.Duration(cfg.ExchangeRate.TimeoutSec)*time.Second,
		breaker,
	)
}

// FetchRates returns the rate table for base, keyed by upper-case ISO code.
func (c *ExchangeRateClient) FetchRates(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	var rates map[string]decimal.Decimal
	fetch := func() error {
		var err error
		rates, err = c.doFetch(ctx, base)
		return err
	}

	var err error
	if c.breaker != nil {
		err = c.breaker.Execute(fetch)
	} else {
		err = fetch()
	}
	if err != nil {
		return nil, err
	}

	slog.Info("Exchange rates fetched",
		slog.String("base", base),
		slog.Int("currencies", len(rates)))
	return rates, nil
}

func (c *ExchangeRateClient) doFetch(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	url := strings.ReplaceAll(c.apiURL, "{base}", base)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRateBody))
	if err != nil {
		return nil, err
	}

	var data rateResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("malformed rate payload: %w", err)
	}

	if len(data.Rates) == 0 {
		return nil, ErrMissingRates
	}

	reported := data.Base
	if reported == "" {
		reported = data.BaseCode
	}
	if reported != "" && !strings.EqualFold(reported, base) {
		return nil, fmt.Errorf("rate table base %s does not match requested %s", reported, base)
	}

	rates := make(map[string]decimal.Decimal, len(data.Rates))
	for code, rate := range data.Rates {
		if !rate.IsPositive() {
			continue
		}
		rates[strings.ToUpper(code)] = rate
	}
	if len(rates) == 0 {
		return nil, ErrMissingRates
	}
	return rates, nil
}
