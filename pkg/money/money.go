// Package money implements the totals law shared with the storefront
// server. Computation stays in float64; the server recomputes and is
// authoritative.
package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Rules carries the accounting constants. They must match the server's
// configuration exactly.
type Rules struct {
	TaxRate               float64
	FreeShippingThreshold float64
	FlatShippingCost      float64
}

// DefaultRules mirrors the production server configuration.
var DefaultRules = Rules{
	TaxRate:               0.08,
	FreeShippingThreshold: 50,
	FlatShippingCost:      5.99,
}

// Totals is the derived money view of a cart.
type Totals struct {
	Subtotal     float64 `json:"subtotal"`
	Tax          float64 `json:"tax"`
	ShippingCost float64 `json:"shipping_cost"`
	Discount     float64 `json:"discount"`
	Final        float64 `json:"final_amount"`
}

// Compute derives the full totals from a subtotal.
func (r Rules) Compute(subtotal float64) Totals {
	if subtotal < 0 {
		subtotal = 0
	}
	subtotal = Round2(subtotal)

	tax := Round2(subtotal * r.TaxRate)
	shipping := r.FlatShippingCost
	if subtotal >= r.FreeShippingThreshold {
		shipping = 0
	}

	return Totals{
		Subtotal:     subtotal,
		Tax:          tax,
		ShippingCost: shipping,
		Discount:     0,
		Final:        Round2(subtotal + tax + shipping),
	}
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

var usdPrinter = message.NewPrinter(language.AmericanEnglish)

// FormatUSD renders an amount for display, e.g. "$1,234.50". Display only;
// an INR deployment swaps this formatter and nothing else.
func FormatUSD(v float64) string {
	return usdPrinter.Sprintf("$%v", number.Decimal(v,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
}
