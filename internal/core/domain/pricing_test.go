package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestPricingPolicy_Totals(t *testing.T) {
	p := DefaultPricing()

	tests := []struct {
		name     string
		subtotal string
		shipping string
		tax      string
		total    string
	}{
		{"below threshold", "40", "5", "4.0", "49.0"},
		{"above threshold", "60", "0", "6.0", "66.0"},
		{"at threshold ships free", "50", "0", "5", "55"},
		{"rounds tax to cents", "19.99", "5", "2.00", "26.99"},
		{"empty cart", "0", "0", "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Totals(dec(tt.subtotal))
			if !got.Shipping.Equal(dec(tt.shipping)) {
				t.Errorf("shipping: expected %s, got %s", tt.shipping, got.Shipping)
			}
			if !got.Tax.Equal(dec(tt.tax)) {
				t.Errorf("tax: expected %s, got %s", tt.tax, got.Tax)
			}
			if !got.Total.Equal(dec(tt.total)) {
				t.Errorf("total: expected %s, got %s", tt.total, got.Total)
			}
		})
	}
}

func TestPricingPolicy_Custom(t *testing.T) {
	p := PricingPolicy{
		FreeShippingThreshold: dec("100"),
		FlatShipping:          dec("7.5"),
		TaxRate:               dec("0.16"),
	}
	got := p.Totals(dec("60"))
	if !got.Shipping.Equal(dec("7.5")) || !got.Tax.Equal(dec("9.6")) || !got.Total.Equal(dec("77.1")) {
		t.Fatalf("unexpected totals: %+v", got)
	}
}
