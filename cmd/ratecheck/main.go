// Command ratecheck resolves exchange rates once, the way the service does,
// and prints the table plus a sample quote in every supported currency.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Srinuas/Foodapp/internal/domain"
	"github.com/Srinuas/Foodapp/internal/fx"
	"github.com/Srinuas/Foodapp/internal/infra"
	"github.com/Srinuas/Foodapp/internal/pricing"
	"github.com/Srinuas/Foodapp/internal/storage"
)

type sampleCart []domain.CartLine

func main() {
	configPath := flag.String("config", infra.ConfigPath(), "config file")
	coupon := flag.String("coupon", "", "coupon code for the sample quote")
	offline := flag.Bool("offline", false, "skip the remote fetch")
	flag.Parse()

	cfg, err := infra.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	var remote fx.RemoteSource
	if cfg.ExchangeRate.Enabled && !*offline {
		remote = infra.NewExchangeRateClientFromConfig(cfg)
	}
	provider := fx.NewProvider(
		fx.NewCache(storage.NewMemoryStore(), cfg.ExchangeRate.Freshness),
		remote,
		fx.Settings{Base: cfg.Currency.Base, Supported: cfg.Currency.Supported, Fallback: cfg.Currency.Fallback},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	snap := provider.Current(ctx)

	fmt.Println("=== QuickBite Exchange Rate Check ===")
	fmt.Printf("State:    %s\n", provider.State())
	fmt.Printf("Base:     %s\n", snap.Base)
	fmt.Printf("Captured: %s\n\n", snap.CapturedAt.Format(time.RFC3339))

	codes := make([]string, 0, len(snap.Rates))
	for code := range snap.Rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		fmt.Printf("  %s  %s\n", code, snap.Rates[code].String())
	}

	// Two Classic Burgers and one Margherita Pizza.
	catalog := domain.DefaultCatalog()
	cart := sampleCart{{ItemID: 1, Quantity: 2}, {ItemID: 2, Quantity: 1}}
	subtotal := decimal.Zero
	for _, line := range cart {
		item, _ := catalog.Lookup(line.ItemID)
		subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	engine := pricing.NewEngine(pricing.Policy{
		TaxRate:               cfg.Pricing.TaxRate,
		DeliveryFee:           cfg.Pricing.DeliveryFee,
		FreeDeliveryThreshold: cfg.Pricing.FreeDeliveryThreshold,
	}, pricing.DefaultCouponPolicy())
	totals := engine.Compute(fixedSubtotal(subtotal), *coupon)

	fmt.Printf("\nSample quote (coupon %q): base total %s %s\n", *coupon, totals.Total.String(), cfg.Currency.Base)
	for _, code := range cfg.Currency.Supported {
		shown := pricing.Display(totals, provider.RateFor(snap, code), code)
		fmt.Printf("  %s  subtotal %-14s tax %-12s delivery %-12s discount %-12s total %s\n",
			code, shown.Subtotal, shown.Tax, shown.Delivery, shown.Discount, shown.Total)
	}
}

type fixedSubtotal decimal.Decimal

func (f fixedSubtotal) Subtotal() decimal.Decimal { return decimal.Decimal(f) }
