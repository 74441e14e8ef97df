package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/Srinuas/Foodapp/internal/fx"
	"github.com/Srinuas/Foodapp/internal/infra"
	"github.com/Srinuas/Foodapp/internal/storage"
)

func TestWire_MemoryBackendWithoutRemote(t *testing.T) {
	cfg := infra.DefaultConfig()
	cfg.Storage.Backend = infra.BackendMemory
	cfg.ExchangeRate.Enabled = false

	b := NewBootstrap()
	if err := b.Wire(cfg, storage.NewMemoryStore()); err != nil {
		t.Fatalf("Wire: %v", err)
	}
	defer b.Close()

	b.WarmRates(context.Background())
	if b.Rates.State() != fx.StateFellBack {
		t.Errorf("Expected FELL_BACK with remote disabled, got %s", b.Rates.State())
	}

	rec := httptest.NewRecorder()
	b.Server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 from /healthz, got %d", rec.Code)
	}
}

func TestWire_FetchesFromConfiguredURL(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"base_code":"USD","rates":{"USD":1,"INR":83.2,"EUR":0.91,"GBP":0.78}}`))
	}))
	defer ts.Close()

	cfg := infra.DefaultConfig()
	cfg.ExchangeRate.URL = ts.URL + "/{base}"

	store := storage.NewMemoryStore()
	b := NewBootstrap()
	if err := b.Wire(cfg, store); err != nil {
		t.Fatalf("Wire: %v", err)
	}
	defer b.Close()

	b.WarmRates(context.Background())
	if b.Rates.State() != fx.StateFetched {
		t.Fatalf("Expected FETCHED, got %s", b.Rates.State())
	}
	if _, ok, _ := store.Get(context.Background(), storage.KeyRates); !ok {
		t.Error("Fetched rates should be cached in the shared store")
	}
}

func TestWire_FailingRemoteIsRetriedUntilBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer ts.Close()

	cfg := infra.DefaultConfig()
	cfg.ExchangeRate.URL = ts.URL + "/{base}"
	cfg.ExchangeRate.RetryAfter = 0

	b := NewBootstrap()
	if err := b.Wire(cfg, storage.NewMemoryStore()); err != nil {
		t.Fatalf("Wire: %v", err)
	}
	defer b.Close()

	for i := 0; i < 5; i++ {
		b.Rates.Current(context.Background())
	}

	if b.Rates.State() != fx.StateFellBack {
		t.Errorf("Expected FELL_BACK, got %s", b.Rates.State())
	}
	if got := hits.Load(); got != int32(cfg.ExchangeRate.FailureThreshold) {
		t.Errorf("Expected %d requests before the breaker opened, got %d", cfg.ExchangeRate.FailureThreshold, got)
	}
}
