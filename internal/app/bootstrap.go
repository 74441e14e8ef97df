package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/Srinuas/Foodapp/internal/api"
	"github.com/Srinuas/Foodapp/internal/domain"
	"github.com/Srinuas/Foodapp/internal/fx"
	"github.com/Srinuas/Foodapp/internal/infra"
	"github.com/Srinuas/Foodapp/internal/pricing"
	"github.com/Srinuas/Foodapp/internal/profile"
	"github.com/Srinuas/Foodapp/internal/session"
	"github.com/Srinuas/Foodapp/internal/storage"
)

// Store is a KeyValueStore that holds a resource.
type Store interface {
	storage.KeyValueStore
	io.Closer
}

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config   *infra.Config
	Store    Store
	Rates    *fx.Provider
	Registry *session.Registry
	Server   *api.Server

	closers []func()
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads config, claims the workspace and opens the store.
func (b *Bootstrap) Initialize(ctx context.Context) error {
	// 1. Load Config (Dynamic Path Resolution)
	cfg, err := infra.LoadConfig(infra.ConfigPath())
	if err != nil {
		return err
	}

	// 2. Setup Logger
	slog.SetDefault(infra.NewLogger(cfg))
	slog.Info("🚀 Bootstrapping QuickBite...")

	// 3. Open the store. Local backends get a single-instance lock.
	store, err := b.openStore(ctx, cfg)
	if err != nil {
		b.Close()
		return err
	}

	return b.Wire(cfg, store)
}

func (b *Bootstrap) openStore(ctx context.Context, cfg *infra.Config) (Store, error) {
	backend := cfg.Storage.Backend
	if backend == infra.BackendRedis {
		store, err := storage.NewRedisStore(ctx, cfg.Storage.RedisURL)
		if err != nil {
			return nil, err
		}
		slog.Info("✅ Redis store connected")
		return store, nil
	}
	if backend == infra.BackendMemory {
		slog.Warn("In-memory store: state is lost on exit")
		return storage.NewMemoryStore(), nil
	}

	path := cfg.Storage.Path
	if path == "" {
		path = infra.StorePath(infra.WorkspaceDir(), backend)
	}
	if err := infra.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	unlock, err := infra.LockStore(path)
	if err != nil {
		return nil, err
	}
	b.closers = append(b.closers, unlock)

	if backend == infra.BackendFile {
		store, err := storage.NewFileStore(path)
		if err != nil {
			return nil, err
		}
		slog.Info("✅ File store ready", slog.String("path", path))
		return store, nil
	}

	store, err := storage.NewSQLiteStore(path)
	if err != nil {
		return nil, err
	}
	slog.Info("✅ SQLite store ready (WAL-mode)", slog.String("path", path))
	return store, nil
}

// Wire builds the rate provider, sessions and HTTP server over store.
func (b *Bootstrap) Wire(cfg *infra.Config, store Store) error {
	b.Config = cfg
	b.Store = store
	b.closers = append(b.closers, func() {
		if err := store.Close(); err != nil {
			slog.Warn("Failed to close store", slog.Any("error", err))
		}
	})

	// A typed nil client must not reach the provider as a non-nil interface.
	var remote fx.RemoteSource
	if cfg.ExchangeRate.Enabled {
		remote = infra.NewExchangeRateClientFromConfig(cfg)
	}
	b.Rates = fx.NewProvider(
		fx.NewCache(store, cfg.ExchangeRate.Freshness),
		remote,
		fx.Settings{
			Base:       cfg.Currency.Base,
			Supported:  cfg.Currency.Supported,
			Fallback:   cfg.Currency.Fallback,
			RetryAfter: cfg.ExchangeRate.RetryAfter,
		},
	)

	engine := pricing.NewEngine(pricing.Policy{
		TaxRate:               cfg.Pricing.TaxRate,
		DeliveryFee:           cfg.Pricing.DeliveryFee,
		FreeDeliveryThreshold: cfg.Pricing.FreeDeliveryThreshold,
	}, pricing.DefaultCouponPolicy())

	b.Registry = session.NewRegistry(store, session.Deps{
		Catalog:   domain.DefaultCatalog(),
		Engine:    engine,
		Rates:     b.Rates,
		Validator: profile.NewValidator(),
		Settings: session.Settings{
			DefaultCurrency: cfg.Currency.Default,
			Supported:       cfg.Currency.Supported,
		},
	})

	b.Server = api.New(b.Registry, api.Options{
		Debug:           cfg.App.Env == "development",
		RateLimitPerSec: cfg.Server.RateLimitPerSec,
		RateLimitBurst:  cfg.Server.RateLimitBurst,
	})
	slog.Info("✅ Pricing service wired",
		slog.String("base", cfg.Currency.Base),
		slog.String("default_currency", cfg.Currency.Default))
	return nil
}

// WarmRates resolves exchange rates in the background of startup and
// pushes refreshed quotes to any live subscribers.
func (b *Bootstrap) WarmRates(ctx context.Context) {
	snap := b.Rates.Current(ctx)
	slog.Info("✨ Exchange rates ready",
		slog.String("state", b.Rates.State().String()),
		slog.Int("currencies", len(snap.Rates)))
	b.Server.RefreshSubscribers(ctx)
}

// Close releases everything Initialize acquired, newest first.
func (b *Bootstrap) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}
