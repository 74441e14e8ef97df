// Package fx acquires the exchange-rate table used for display conversion:
// fresh cache first, then one remote fetch, then the static fallback table.
package fx

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/Srinuas/Foodapp/internal/domain"
)

// RemoteSource fetches a rate table denominated in base.
type RemoteSource interface {
	FetchRates(ctx context.Context, base string) (map[string]decimal.Decimal, error)
}

// Settings are the currency policy values a Provider needs.
type Settings struct {
	Base      string
	Supported []string
	Fallback  map[string]decimal.Decimal

	// RetryAfter is how long a fallback snapshot is served before the
	// remote is tried again. Zero retries on the next call.
	RetryAfter time.Duration
}

// Option customises a Provider.
type Option func(*Provider)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// Provider resolves a RateSnapshot and reuses it until it expires. A fetched
// or cached table expires when it leaves the freshness window; a fallback
// table expires after Settings.RetryAfter. Concurrent callers share a single
// acquisition.
type Provider struct {
	cache  *Cache
	remote RemoteSource
	cfg    Settings
	now    func() time.Time

	group      singleflight.Group
	revalidate atomic.Bool

	mu        sync.RWMutex
	state     State
	resolved  *domain.RateSnapshot
	heldState State
	expires   time.Time
}

// NewProvider creates a provider. remote may be nil when remote access is
// unavailable; the provider then never leaves the cache/fallback path.
func NewProvider(cache *Cache, remote RemoteSource, cfg Settings, opts ...Option) *Provider {
	p := &Provider{
		cache:  cache,
		remote: remote,
		cfg:    cfg,
		now:    time.Now,
		state:  StateStale,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Current returns the rate snapshot, acquiring a new one when none is held
// or the held one has expired. It never fails: every error path ends in the
// fallback table.
func (p *Provider) Current(ctx context.Context) domain.RateSnapshot {
	if snap, live := p.resolvedSnapshot(); live {
		return snap
	}

	v, _, _ := p.group.Do("rates", func() (any, error) {
		if snap, live := p.resolvedSnapshot(); live {
			return snap, nil
		}
		return p.acquire(ctx), nil
	})
	return v.(domain.RateSnapshot).Clone()
}

// Refresh drops the held snapshot and acquires again. A fresh cache entry
// is still reused; only an expired or fallback table reaches the remote.
func (p *Provider) Refresh(ctx context.Context) domain.RateSnapshot {
	p.mu.Lock()
	p.expires = time.Time{}
	p.mu.Unlock()
	return p.Current(ctx)
}

// Latest never blocks. It returns the held snapshot, or the fallback table
// while nothing has been acquired. An expired snapshot is still served while
// a background acquisition replaces it.
func (p *Provider) Latest() domain.RateSnapshot {
	p.mu.RLock()
	held, live := p.resolved, p.liveLocked()
	p.mu.RUnlock()
	if held == nil {
		return p.fallbackSnapshot(p.now())
	}

	if !live && p.revalidate.CompareAndSwap(false, true) {
		go func() {
			defer p.revalidate.Store(false)
			p.Current(context.Background())
		}()
	}
	return held.Clone()
}

// State reports where the provider is in its state machine.
func (p *Provider) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Base returns the base currency code.
func (p *Provider) Base() string { return p.cfg.Base }

// RateFor returns the multiplier from base into code: 1 for the base, the
// table value if present, else the fallback constant.
func (p *Provider) RateFor(snap domain.RateSnapshot, code string) decimal.Decimal {
	if code == p.cfg.Base {
		return decimal.NewFromInt(1)
	}
	if rate, ok := snap.Rates[code]; ok && rate.IsPositive() {
		return rate
	}
	if rate, ok := p.cfg.Fallback[code]; ok {
		return rate
	}
	slog.Warn("No rate for currency, using 1", slog.String("currency", code))
	return decimal.NewFromInt(1)
}

// resolvedSnapshot returns a copy of the held snapshot and whether it is
// still live.
func (p *Provider) resolvedSnapshot() (domain.RateSnapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.resolved == nil {
		return domain.RateSnapshot{}, false
	}
	return p.resolved.Clone(), p.liveLocked()
}

func (p *Provider) liveLocked() bool {
	return p.resolved != nil && p.now().Before(p.expires)
}

// never is the expiry of a fallback table when there is no remote to retry.
var never = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

func (p *Provider) expiry(snap domain.RateSnapshot, state State, now time.Time) time.Time {
	if state == StateFellBack {
		if p.remote == nil {
			return never
		}
		return now.Add(p.cfg.RetryAfter)
	}
	return snap.CapturedAt.Add(p.cache.Freshness())
}

func (p *Provider) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// acquire walks the state machine to a terminal state and holds the result.
// When the caller abandoned the fetch the fallback is served without being
// held, so a later call can try again.
func (p *Provider) acquire(ctx context.Context) domain.RateSnapshot {
	now := p.now()
	state := StateStale
	keep := true
	var snap domain.RateSnapshot

	for !state.Resolved() {
		switch state {
		case StateStale:
			if cached, ok := p.cache.Load(ctx); ok && p.cache.IsFresh(cached, p.cfg.Base, now) {
				snap = p.complete(cached)
				state = StateFresh
			} else {
				state = StateFetching
			}
		case StateFetching:
			p.setState(StateFetching)
			snap, state = p.fetch(ctx, now)
			if state == StateFellBack && ctx.Err() != nil {
				keep = false
			}
		}
	}

	p.mu.Lock()
	switch {
	case keep:
		held := snap.Clone()
		p.resolved = &held
		p.heldState = state
		p.expires = p.expiry(snap, state, now)
		p.state = state
	case p.resolved != nil:
		// An abandoned refresh leaves the previous snapshot in place.
		p.state = p.heldState
	default:
		p.state = StateStale
	}
	p.mu.Unlock()

	slog.Info("Exchange rates resolved",
		slog.String("state", state.String()),
		slog.String("base", snap.Base),
		slog.Time("captured_at", snap.CapturedAt))
	return snap
}

func (p *Provider) fetch(ctx context.Context, now time.Time) (domain.RateSnapshot, State) {
	if p.remote == nil {
		return p.fallbackSnapshot(now), StateFellBack
	}

	rates, err := p.remote.FetchRates(ctx, p.cfg.Base)
	if err != nil {
		slog.Warn("Exchange rate fetch failed, using fallback rates", slog.Any("error", err))
		return p.fallbackSnapshot(now), StateFellBack
	}

	kept := make(map[string]decimal.Decimal, len(p.cfg.Supported))
	for _, code := range p.cfg.Supported {
		if rate, ok := rates[code]; ok && rate.IsPositive() {
			kept[code] = rate
		}
	}
	kept[p.cfg.Base] = decimal.NewFromInt(1)

	snap := domain.RateSnapshot{CapturedAt: now, Base: p.cfg.Base, Rates: kept}
	if err := p.cache.Store(ctx, snap); err != nil {
		slog.Warn("Failed to cache exchange rates", slog.Any("error", err))
	}
	return p.complete(snap), StateFetched
}

// complete fills supported currencies missing from snap with fallback rates.
func (p *Provider) complete(snap domain.RateSnapshot) domain.RateSnapshot {
	out := snap.Clone()
	for _, code := range p.cfg.Supported {
		if rate, ok := out.Rates[code]; ok && rate.IsPositive() {
			continue
		}
		if rate, ok := p.cfg.Fallback[code]; ok {
			out.Rates[code] = rate
		}
	}
	out.Rates[p.cfg.Base] = decimal.NewFromInt(1)
	return out
}

func (p *Provider) fallbackSnapshot(now time.Time) domain.RateSnapshot {
	rates := make(map[string]decimal.Decimal, len(p.cfg.Fallback)+1)
	for code, rate := range p.cfg.Fallback {
		rates[code] = rate
	}
	rates[p.cfg.Base] = decimal.NewFromInt(1)
	return domain.RateSnapshot{CapturedAt: now, Base: p.cfg.Base, Rates: rates}
}
