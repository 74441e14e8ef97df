package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateSnapshot is an immutable rate table plus its capture time.
// Rates are multipliers from Base into the keyed currency; Rates[Base] == 1.
type RateSnapshot struct {
	CapturedAt time.Time                  `json:"captured_at"`
	Base       string                     `json:"base"`
	Rates      map[string]decimal.Decimal `json:"rates"`
}

// Clone returns a deep copy so callers can't mutate a shared table.
func (s RateSnapshot) Clone() RateSnapshot {
	rates := make(map[string]decimal.Decimal, len(s.Rates))
	for k, v := range s.Rates {
		rates[k] = v
	}
	return RateSnapshot{CapturedAt: s.CapturedAt, Base: s.Base, Rates: rates}
}
