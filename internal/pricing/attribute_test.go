package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-cart/internal/pricing"
)

func TestBreakdownGetUnknown(t *testing.T) {
	b := pricing.Derive(pricing.Line{UnitPrice: 1000, Quantity: 1})
	_, ok := b.Get("doesNotExist")
	require.False(t, ok)

	for _, attr := range pricing.Attributes() {
		_, ok := b.Get(attr)
		require.True(t, ok, attr)
	}
}

func TestRegistryLookup(t *testing.T) {
	reg := pricing.NewRegistry()
	err := reg.Register("priceTax", pricing.CalculatorFunc(func(_ pricing.Line, b pricing.Breakdown) pricing.Money {
		return b.PriceTarget + b.Tax
	}))
	require.NoError(t, err)

	line := pricing.Line{UnitPrice: 1000, Quantity: 1, TaxRate: 21}
	v, ok := reg.Lookup("priceTax", line)
	require.True(t, ok)
	require.Equal(t, pricing.Money(1210), v)

	v, ok = reg.Lookup(pricing.AttrTaxTotal, line)
	require.True(t, ok)
	require.Equal(t, pricing.Money(210), v)

	_, ok = reg.Lookup("missing", line)
	require.False(t, ok)
}

func TestRegistryRejectsTakenNames(t *testing.T) {
	reg := pricing.NewRegistry()
	calc := pricing.CalculatorFunc(func(pricing.Line, pricing.Breakdown) pricing.Money { return 1 })

	require.ErrorIs(t, reg.Register(pricing.AttrTotal, calc), pricing.ErrAttributeTaken)
	require.NoError(t, reg.Register("bonus", calc))
	require.ErrorIs(t, reg.Register("bonus", calc), pricing.ErrAttributeTaken)
	require.Error(t, reg.Register(" ", calc))
}
