package domain

import "github.com/shopspring/decimal"

// DiscountKind identifies the shape of a coupon rule.
type DiscountKind int

const (
	DiscountNone         DiscountKind = iota // No coupon active
	DiscountPercent                          // Value is a percentage of subtotal
	DiscountFlat                             // Value is an amount, capped at subtotal
	DiscountFreeShipping                     // Delivery forced to zero
)

func (k DiscountKind) String() string {
	switch k {
	case DiscountNone:
		return "NONE"
	case DiscountPercent:
		return "PERCENT"
	case DiscountFlat:
		return "FLAT"
	case DiscountFreeShipping:
		return "FREE_SHIPPING"
	default:
		return "UNKNOWN"
	}
}

// DiscountRule is what a coupon code resolves to.
type DiscountRule struct {
	Code  string          `json:"code"`
	Kind  DiscountKind    `json:"kind"`
	Value decimal.Decimal `json:"value"`
}
