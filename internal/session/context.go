// Package session holds the per-profile pricing state: cart, active coupon
// and display currency.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Srinuas/Foodapp/internal/cart"
	"github.com/Srinuas/Foodapp/internal/domain"
	"github.com/Srinuas/Foodapp/internal/fx"
	"github.com/Srinuas/Foodapp/internal/pricing"
	"github.com/Srinuas/Foodapp/internal/profile"
	"github.com/Srinuas/Foodapp/internal/storage"
)

// ErrUnsupportedCurrency is returned for a display currency outside the
// configured set.
var ErrUnsupportedCurrency = errors.New("unsupported currency")

const (
	currencyVersion = 1
	couponVersion   = 1
)

// Settings are the display currency policy values.
type Settings struct {
	DefaultCurrency string
	Supported       []string
}

// Context is the pricing state of one profile. It holds no copy of that
// state: currency, coupon and cart are read from the store on every call,
// so contexts in other processes over the same store stay in agreement.
type Context struct {
	id       string
	store    storage.KeyValueStore
	catalog  *domain.Catalog
	engine   *pricing.Engine
	rates    *fx.Provider
	settings Settings

	ledger  *cart.Ledger
	profile *profile.Profile
}

// newContext binds a Context to the profile's key space. lock serialises
// cart edits for the profile within this process.
func newContext(id string, store storage.KeyValueStore, deps Deps, lock sync.Locker) *Context {
	return &Context{
		id:       id,
		store:    store,
		catalog:  deps.Catalog,
		engine:   deps.Engine,
		rates:    deps.Rates,
		settings: deps.Settings,
		ledger:   cart.New(store, deps.Catalog, lock),
		profile:  profile.New(store, deps.Validator),
	}
}

func (c *Context) isSupported(code string) bool {
	return slices.Contains(c.settings.Supported, code)
}

// ID is the profile id.
func (c *Context) ID() string { return c.id }

// Cart returns the profile's cart ledger.
func (c *Context) Cart() *cart.Ledger { return c.ledger }

// Profile returns the profile's user and address accessors.
func (c *Context) Profile() *profile.Profile { return c.profile }

// Catalog returns the item catalog.
func (c *Context) Catalog() *domain.Catalog { return c.catalog }

// Currency is the display currency. A missing, unreadable or unsupported
// stored value yields the default.
func (c *Context) Currency(ctx context.Context) string {
	raw, ok, err := c.store.Get(ctx, storage.KeyCurrency)
	if err != nil {
		slog.Warn("Store read failed, using default currency", slog.Any("error", err))
		return c.settings.DefaultCurrency
	}
	if !ok {
		return c.settings.DefaultCurrency
	}

	var code string
	if !storage.Decode(raw, currencyVersion, &code) {
		// Older clients stored the bare code.
		code = raw
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if !c.isSupported(code) {
		slog.Warn("Stored currency not supported, using default", slog.String("currency", code))
		return c.settings.DefaultCurrency
	}
	return code
}

// SetCurrency switches the display currency. Base totals are untouched.
func (c *Context) SetCurrency(ctx context.Context, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !c.isSupported(code) {
		return fmt.Errorf("%w: %q", ErrUnsupportedCurrency, code)
	}
	if err := storage.Save(ctx, c.store, storage.KeyCurrency, currencyVersion, code); err != nil {
		return fmt.Errorf("failed to persist currency: %w", err)
	}
	return nil
}

// ActiveCoupon is the applied coupon code, or "" when none applies. A stored
// code that no longer resolves is treated as none.
func (c *Context) ActiveCoupon(ctx context.Context) string {
	var code string
	if !storage.Load(ctx, c.store, storage.KeyCoupon, couponVersion, &code) {
		return ""
	}
	code = pricing.NormalizeCode(code)
	if _, ok := c.engine.Coupons().Resolve(code); !ok {
		slog.Warn("Stored coupon no longer valid, ignoring", slog.String("coupon", code))
		return ""
	}
	return code
}

// ApplyCoupon activates code. An unknown code is rejected and the active
// coupon is left unchanged. The empty code clears the coupon.
func (c *Context) ApplyCoupon(ctx context.Context, code string) error {
	code = pricing.NormalizeCode(code)
	if code == "" {
		return c.ClearCoupon(ctx)
	}
	if _, ok := c.engine.Coupons().Resolve(code); !ok {
		return fmt.Errorf("%w: %q", pricing.ErrUnknownCoupon, code)
	}
	if err := storage.Save(ctx, c.store, storage.KeyCoupon, couponVersion, code); err != nil {
		return fmt.Errorf("failed to persist coupon: %w", err)
	}
	return nil
}

func (c *Context) ClearCoupon(ctx context.Context) error {
	if err := c.store.Remove(ctx, storage.KeyCoupon); err != nil {
		return fmt.Errorf("failed to clear coupon: %w", err)
	}
	return nil
}

// Totals prices the current cart in base currency.
func (c *Context) Totals(ctx context.Context) domain.Totals {
	return c.engine.Compute(c.ledger.View(ctx), c.ActiveCoupon(ctx))
}

// Quote prices the cart and renders it in the display currency. It reads
// rates with Latest so it never waits on a fetch.
func (c *Context) Quote(ctx context.Context) domain.Quote {
	code, coupon := c.Currency(ctx), c.ActiveCoupon(ctx)
	view := c.ledger.View(ctx)

	snap := c.rates.Latest()
	rate := c.rates.RateFor(snap, code)
	totals := c.engine.Compute(view, coupon)

	lines := view.Lines()
	quoteLines := make([]domain.QuoteLine, 0, len(lines))
	count := 0
	for _, line := range lines {
		item, ok := c.catalog.Lookup(line.ItemID)
		if !ok {
			continue
		}
		count += line.Quantity
		lineTotal := item.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		quoteLines = append(quoteLines, domain.QuoteLine{
			ItemID:    item.ID,
			Name:      item.Name,
			Quantity:  line.Quantity,
			UnitPrice: pricing.Format(pricing.Convert(item.Price, rate), code),
			LineTotal: pricing.Format(pricing.Convert(lineTotal, rate), code),
		})
	}

	return domain.Quote{
		Currency:  code,
		Rate:      rate,
		RateState: c.rates.State().String(),
		Coupon:    coupon,
		ItemCount: count,
		Lines:     quoteLines,
		Base:      totals,
		Display:   pricing.Display(totals, rate, code),
	}
}

// RefreshRates blocks until the rate provider has resolved its snapshot.
func (c *Context) RefreshRates(ctx context.Context) domain.RateSnapshot {
	return c.rates.Current(ctx)
}
