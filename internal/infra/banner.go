package infra

import (
	"fmt"
	"io"
	"strings"
)

// ANSI Color Codes
const (
	ColorReset  = "\033[0m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
)

// PrintBanner writes the startup banner. Offline rates get a warning line.
func PrintBanner(w io.Writer, cfg *Config) {
	color := ColorGreen
	fxMode := "LIVE (" + cfg.ExchangeRate.Freshness.String() + " cache)"
	if !cfg.ExchangeRate.Enabled {
		color = ColorYellow
		fxMode = "STATIC FALLBACK"
	}

	line := func(format string, args ...any) {
		fmt.Fprintf(w, "%s"+format+"%s\n", append(append([]any{color}, args...), ColorReset)...)
	}

	fmt.Fprintln(w)
	line("###########################################################")
	line("#               QuickBite Pricing Service                 #")
	line("#                                                         #")
	line("#   VERSION:  %-43s #", cfg.App.Version)
	line("#   STORAGE:  %-43s #", strings.ToUpper(cfg.Storage.Backend))
	line("#   BASE:     %-43s #", cfg.Currency.Base)
	line("#   DISPLAY:  %-43s #", strings.Join(cfg.Currency.Supported, ", "))
	line("#   FX RATES: %-43s #", fxMode)
	if !cfg.ExchangeRate.Enabled {
		fmt.Fprintf(w, "%s#   NOTE: prices use the configured fallback rates       #%s\n", ColorCyan, ColorReset)
	}
	line("###########################################################")
	fmt.Fprintln(w)
}
