package cart

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DiscountType distinguishes the two supported rule shapes.
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// DiscountRule describes one redeemable code. Percentage rules interpret
// Value as a percent of the subtotal; fixed rules as an absolute amount.
type DiscountRule struct {
	Code        string
	Type        DiscountType
	Value       decimal.Decimal
	MinSubtotal decimal.Decimal
}

// AmountFor computes the discount a qualifying subtotal earns, capped at the
// subtotal so the cart total can never go negative.
func (r DiscountRule) AmountFor(subtotal decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch r.Type {
	case DiscountTypePercentage:
		amount = subtotal.Mul(r.Value).Div(decimal.NewFromInt(100)).Round(2)
	case DiscountTypeFixed:
		amount = r.Value
	default:
		return decimal.Zero
	}
	if amount.GreaterThan(subtotal) {
		return subtotal
	}
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

// Qualifies reports whether the subtotal meets the rule's minimum.
func (r DiscountRule) Qualifies(subtotal decimal.Decimal) bool {
	return subtotal.GreaterThanOrEqual(r.MinSubtotal)
}

// NormalizeDiscountCode uppercases and trims a raw code for rule lookup.
func NormalizeDiscountCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// DefaultDiscountRules is the built-in rule set. Codes are keyed by their
// normalized form.
func DefaultDiscountRules() map[string]DiscountRule {
	rules := []DiscountRule{
		{
			Code:        "SAVE10",
			Type:        DiscountTypePercentage,
			Value:       decimal.NewFromInt(10),
			MinSubtotal: decimal.NewFromInt(50),
		},
		{
			Code:        "SAVE5",
			Type:        DiscountTypeFixed,
			Value:       decimal.NewFromInt(5),
			MinSubtotal: decimal.NewFromInt(20),
		},
		{
			Code:        "WELCOME15",
			Type:        DiscountTypePercentage,
			Value:       decimal.NewFromInt(15),
			MinSubtotal: decimal.NewFromInt(100),
		},
	}
	byCode := make(map[string]DiscountRule, len(rules))
	for _, rule := range rules {
		byCode[rule.Code] = rule
	}
	return byCode
}
