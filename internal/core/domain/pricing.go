package domain

import "github.com/shopspring/decimal"

// Totals are the derived money figures of a cart.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// PricingPolicy derives shipping and tax from a subtotal.
type PricingPolicy struct {
	FreeShippingThreshold decimal.Decimal
	FlatShipping          decimal.Decimal
	TaxRate               decimal.Decimal
}

// DefaultPricing ships free from 50, charges 5 below it and taxes 10%.
func DefaultPricing() PricingPolicy {
	return PricingPolicy{
		FreeShippingThreshold: decimal.NewFromInt(50),
		FlatShipping:          decimal.NewFromInt(5),
		TaxRate:               decimal.NewFromFloat(0.10),
	}
}

// Totals computes the figures for subtotal. An empty or non-positive subtotal
// yields all-zero totals.
func (p PricingPolicy) Totals(subtotal decimal.Decimal) Totals {
	if !subtotal.IsPositive() {
		return Totals{Subtotal: decimal.Zero, Shipping: decimal.Zero, Tax: decimal.Zero, Total: decimal.Zero}
	}
	shipping := decimal.Zero
	if subtotal.LessThan(p.FreeShippingThreshold) {
		shipping = p.FlatShipping
	}
	tax := subtotal.Mul(p.TaxRate).Round(2)
	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax),
	}
}
