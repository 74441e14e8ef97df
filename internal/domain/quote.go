package domain

import "github.com/shopspring/decimal"

// QuoteLine is one cart line priced for display.
type QuoteLine struct {
	ItemID    int    `json:"id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

// DisplayTotals are Totals converted and formatted for one currency.
type DisplayTotals struct {
	Subtotal string `json:"subtotal"`
	Tax      string `json:"tax"`
	Delivery string `json:"delivery"`
	Discount string `json:"discount"`
	Total    string `json:"total"`
}

// Quote is what the view layer renders: authoritative base totals plus
// their last-mile display form.
type Quote struct {
	Currency  string          `json:"currency"`
	Rate      decimal.Decimal `json:"rate"`
	RateState string          `json:"rate_state"`
	Coupon    string          `json:"coupon,omitempty"`
	ItemCount int             `json:"item_count"`
	Lines     []QuoteLine     `json:"lines"`
	Base      Totals          `json:"base"`
	Display   DisplayTotals   `json:"display"`
}
