package money

import (
	"fmt"
	"strings"

	"storefront-be/internal/apperr"

	"github.com/shopspring/decimal"
)

var ErrInvalidInput = apperr.New(apperr.KindValidation, apperr.CodeInvalidInput, "value is not a number")

var (
	// FreeShippingThreshold is exclusive: itemsPrice must exceed it.
	FreeShippingThreshold = decimal.NewFromInt(100)
	FlatShipping          = decimal.NewFromInt(10)
	TaxRate               = decimal.RequireFromString("0.15")
)

// Line is anything priced by unit price times quantity.
type Line interface {
	UnitPrice() decimal.Decimal
	Qty() int
}

type Prices struct {
	ItemsPrice    decimal.Decimal `json:"itemsPrice"`
	ShippingPrice decimal.Decimal `json:"shippingPrice"`
	TaxPrice      decimal.Decimal `json:"taxPrice"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
}

// Zero is the price block of an empty cart.
func Zero() Prices {
	return Prices{
		ItemsPrice:    decimal.Zero,
		ShippingPrice: decimal.Zero,
		TaxPrice:      decimal.Zero,
		TotalPrice:    decimal.Zero,
	}
}

// Round2 rounds half-up to two places. Floats go through their shortest
// decimal representation first, so 1.005 rounds to 1.01.
func Round2(v any) (decimal.Decimal, error) {
	var d decimal.Decimal

	switch x := v.(type) {
	case decimal.Decimal:
		d = x
	case float64:
		d = decimal.NewFromFloat(x)
	case float32:
		d = decimal.NewFromFloat32(x)
	case int:
		d = decimal.NewFromInt(int64(x))
	case int64:
		d = decimal.NewFromInt(x)
	case string:
		parsed, err := decimal.NewFromString(strings.TrimSpace(x))
		if err != nil {
			return decimal.Zero, ErrInvalidInput.Wrap(err)
		}
		d = parsed
	default:
		return decimal.Zero, ErrInvalidInput.Wrap(fmt.Errorf("unsupported type %T", v))
	}

	return d.Round(2), nil
}

// MustRound2 is Round2 for values already known to be numeric.
func MustRound2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// CalcPrice is the only place cart and order totals are computed.
func CalcPrice[L Line](items []L) Prices {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.UnitPrice().Mul(decimal.NewFromInt(int64(it.Qty()))))
	}

	itemsPrice := MustRound2(sum)

	shipping := MustRound2(FlatShipping)
	if itemsPrice.GreaterThan(FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	tax := MustRound2(TaxRate.Mul(itemsPrice))
	total := MustRound2(itemsPrice.Add(shipping).Add(tax))

	return Prices{
		ItemsPrice:    itemsPrice,
		ShippingPrice: shipping,
		TaxPrice:      tax,
		TotalPrice:    total,
	}
}

// Fixed renders d with exactly two decimals.
func Fixed(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Strings renders the four prices as fixed two-decimal strings.
func (p Prices) Strings() PriceStrings {
	return PriceStrings{
		ItemsPrice:    Fixed(p.ItemsPrice),
		ShippingPrice: Fixed(p.ShippingPrice),
		TaxPrice:      Fixed(p.TaxPrice),
		TotalPrice:    Fixed(p.TotalPrice),
	}
}

type PriceStrings struct {
	ItemsPrice    string `json:"itemsPrice"`
	ShippingPrice string `json:"shippingPrice"`
	TaxPrice      string `json:"taxPrice"`
	TotalPrice    string `json:"totalPrice"`
}
