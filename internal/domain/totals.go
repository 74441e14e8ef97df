package domain

import "github.com/shopspring/decimal"

// Totals is derived on every read and never persisted. All amounts are in
// the base currency.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Delivery decimal.Decimal `json:"delivery"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}
