package domain

import "time"

// Receipt is the confirmation of a placed order. It is returned to the
// caller only; orders are not persisted.
type Receipt struct {
	OrderID      string     `json:"order_id"`
	PlacedAt     time.Time  `json:"placed_at"`
	AddressID    string     `json:"address_id"`
	AddressLabel string     `json:"address_label"`
	Lines        []CartLine `json:"lines"`
	Totals       Totals     `json:"totals"`
	Quote        Quote      `json:"quote"`
}
