package pricing

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Srinuas/Foodapp/internal/domain"
)

// ErrUnknownCoupon is returned when a non-empty code matches no rule.
var ErrUnknownCoupon = errors.New("unknown coupon code")

// CouponPolicy is a fixed registry of global coupon codes.
type CouponPolicy struct {
	rules map[string]domain.DiscountRule
}

// NewCouponPolicy indexes rules by normalized code.
func NewCouponPolicy(rules []domain.DiscountRule) *CouponPolicy {
	p := &CouponPolicy{rules: make(map[string]domain.DiscountRule, len(rules))}
	for _, r := range rules {
		r.Code = NormalizeCode(r.Code)
		p.rules[r.Code] = r
	}
	return p
}

// DefaultCouponPolicy returns OFF10, FLAT5 and FREESHIP.
func DefaultCouponPolicy() *CouponPolicy {
	return NewCouponPolicy([]domain.DiscountRule{
		{Code: "OFF10", Kind: domain.DiscountPercent, Value: decimal.NewFromInt(10)},
		{Code: "FLAT5", Kind: domain.DiscountFlat, Value: decimal.NewFromInt(5)},
		{Code: "FREESHIP", Kind: domain.DiscountFreeShipping},
	})
}

// NormalizeCode trims and upper-cases a code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Resolve looks up code. The empty code resolves to DiscountNone.
func (p *CouponPolicy) Resolve(code string) (domain.DiscountRule, bool) {
	code = NormalizeCode(code)
	if code == "" {
		return domain.DiscountRule{Kind: domain.DiscountNone}, true
	}
	rule, ok := p.rules[code]
	return rule, ok
}

// Codes lists the registered codes.
func (p *CouponPolicy) Codes() []string {
	out := make([]string, 0, len(p.rules))
	for code := range p.rules {
		out = append(out, code)
	}
	return out
}
