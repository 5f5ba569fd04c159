package money

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type line struct {
	price string
	qty   int
}

func (l line) UnitPrice() decimal.Decimal { return decimal.RequireFromString(l.price) }
func (l line) Qty() int                   { return l.qty }

func TestRound2(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"float half up", 1.005, "1.01"},
		{"float exact", 2.5, "2.50"},
		{"string", "10.125", "10.13"},
		{"string padded", " 3 ", "3.00"},
		{"int", 7, "7.00"},
		{"decimal", decimal.RequireFromString("0.335"), "0.34"},
		{"below half", "0.334", "0.33"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Round2(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, Fixed(got))
		})
	}
}

func TestRound2_InvalidInput(t *testing.T) {
	_, err := Round2("twelve")
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = Round2(struct{}{})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestCalcPrice(t *testing.T) {
	t.Run("below free shipping threshold", func(t *testing.T) {
		p := CalcPrice([]line{{"25.00", 3}}).Strings()

		assert.Equal(t, "75.00", p.ItemsPrice)
		assert.Equal(t, "10.00", p.ShippingPrice)
		assert.Equal(t, "11.25", p.TaxPrice)
		assert.Equal(t, "96.25", p.TotalPrice)
	})

	t.Run("exactly 100 still pays shipping", func(t *testing.T) {
		p := CalcPrice([]line{{"50.00", 2}}).Strings()

		assert.Equal(t, "100.00", p.ItemsPrice)
		assert.Equal(t, "10.00", p.ShippingPrice)
		assert.Equal(t, "15.00", p.TaxPrice)
		assert.Equal(t, "125.00", p.TotalPrice)
	})

	t.Run("free shipping above threshold", func(t *testing.T) {
		p := CalcPrice([]line{{"60.10", 1}, {"19.99", 3}}).Strings()

		assert.Equal(t, "120.07", p.ItemsPrice)
		assert.Equal(t, "0.00", p.ShippingPrice)
		assert.Equal(t, "18.01", p.TaxPrice)
		assert.Equal(t, "138.08", p.TotalPrice)
	})

	t.Run("empty", func(t *testing.T) {
		p := CalcPrice([]line{}).Strings()

		assert.Equal(t, "0.00", p.ItemsPrice)
		assert.Equal(t, "10.00", p.ShippingPrice)
		assert.Equal(t, "0.00", p.TaxPrice)
		assert.Equal(t, "10.00", p.TotalPrice)
	})

	t.Run("no float drift", func(t *testing.T) {
		p := CalcPrice([]line{{"0.10", 3}})
		assert.True(t, p.ItemsPrice.Equal(decimal.RequireFromString("0.30")))
	})
}

func TestCalcPrice_TotalsAreRecomputable(t *testing.T) {
	items := []line{{"9.99", 4}, {"0.01", 1}, {"33.33", 2}}
	p := CalcPrice(items)

	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.UnitPrice().Mul(decimal.NewFromInt(int64(it.qty))))
	}

	assert.True(t, p.ItemsPrice.Equal(sum.Round(2)))
	assert.True(t, p.TotalPrice.Equal(p.ItemsPrice.Add(p.ShippingPrice).Add(p.TaxPrice).Round(2)))
}
