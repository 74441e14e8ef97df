package pricing

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/Srinuas/Foodapp/internal/domain"
)

var symbols = map[string]string{
	"INR": "₹",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

var localeFor = map[string]language.Tag{
	"INR": language.MustParse("en-IN"),
}

// Convert maps a base-currency amount into the display currency.
func Convert(base, rate decimal.Decimal) decimal.Decimal {
	return base.Mul(rate)
}

// Format renders amount in code's conventions: the currency symbol as a
// prefix, ISO 4217 fraction digits and the locale's digit grouping.
func Format(amount decimal.Decimal, code string) string {
	scale := 2
	if unit, err := currency.ParseISO(code); err == nil {
		scale, _ = currency.Standard.Rounding(unit)
	}

	tag, ok := localeFor[code]
	if !ok {
		tag = language.AmericanEnglish
	}

	symbol, ok := symbols[code]
	if !ok {
		symbol = code + " "
	}

	sign := ""
	rounded := amount.Round(int32(scale))
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}
	f, _ := rounded.Float64()

	p := message.NewPrinter(tag)
	return sign + symbol + p.Sprint(number.Decimal(f, number.Scale(scale)))
}

// Display converts and formats every component of t.
func Display(t domain.Totals, rate decimal.Decimal, code string) domain.DisplayTotals {
	show := func(v decimal.Decimal) string { return Format(Convert(v, rate), code) }
	return domain.DisplayTotals{
		Subtotal: show(t.Subtotal),
		Tax:      show(t.Tax),
		Delivery: show(t.Delivery),
		Discount: show(t.Discount),
		Total:    show(t.Total),
	}
}
