package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestDiscountKind_String(t *testing.T) {
	tests := []struct {
		name string
		kind DiscountKind
		want string
	}{
		{"NONE", DiscountNone, "NONE"},
		{"PERCENT", DiscountPercent, "PERCENT"},
		{"FLAT", DiscountFlat, "FLAT"},
		{"FREE_SHIPPING", DiscountFreeShipping, "FREE_SHIPPING"},
		{"UNKNOWN", DiscountKind(42), "UNKNOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("DiscountKind.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRateSnapshot_CloneIsDeep(t *testing.T) {
	snap := RateSnapshot{Base: "USD", Rates: map[string]decimal.Decimal{"USD": decimal.NewFromInt(1)}}
	c := snap.Clone()
	c.Rates["EUR"] = decimal.RequireFromString("0.92")

	if _, ok := snap.Rates["EUR"]; ok {
		t.Error("Clone shares the rates map with the original")
	}
}
