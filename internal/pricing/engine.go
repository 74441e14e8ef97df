// Package pricing turns a cart into base-currency totals and renders them
// for a display currency.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/Srinuas/Foodapp/internal/domain"
)

// Subtotaler is anything that can report a base-currency subtotal.
type Subtotaler interface {
	Subtotal() decimal.Decimal
}

// Policy holds the configurable pricing constants.
type Policy struct {
	TaxRate               decimal.Decimal
	DeliveryFee           decimal.Decimal
	FreeDeliveryThreshold decimal.Decimal
}

func DefaultPolicy() Policy {
	return Policy{
		TaxRate:               decimal.RequireFromString("0.05"),
		DeliveryFee:           decimal.RequireFromString("2.5"),
		FreeDeliveryThreshold: decimal.NewFromInt(25),
	}
}

// Engine computes Totals. It is stateless and safe for concurrent use.
type Engine struct {
	policy  Policy
	coupons *CouponPolicy
}

func NewEngine(policy Policy, coupons *CouponPolicy) *Engine {
	return &Engine{policy: policy, coupons: coupons}
}

// Coupons returns the registry the engine resolves codes against.
func (e *Engine) Coupons() *CouponPolicy { return e.coupons }

// Compute prices the cart with the given coupon. Unknown codes are treated
// as no coupon.
func (e *Engine) Compute(cart Subtotaler, couponCode string) domain.Totals {
	subtotal := cart.Subtotal()

	delivery := e.policy.DeliveryFee
	if subtotal.GreaterThanOrEqual(e.policy.FreeDeliveryThreshold) {
		delivery = decimal.Zero
	}

	tax := subtotal.Mul(e.policy.TaxRate)

	discount := decimal.Zero
	if rule, ok := e.coupons.Resolve(couponCode); ok {
		switch rule.Kind {
		case domain.DiscountPercent:
			discount = subtotal.Mul(rule.Value).Div(decimal.NewFromInt(100))
		case domain.DiscountFlat:
			discount = decimal.Min(rule.Value, subtotal)
		case domain.DiscountFreeShipping:
			delivery = decimal.Zero
		}
	}

	total := subtotal.Add(tax).Add(delivery).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return domain.Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Delivery: delivery,
		Discount: discount,
		Total:    total,
	}
}
