package catalog

import (
	"fmt"

	"github.com/noah-isme/toko-cart/internal/cart"
	"github.com/noah-isme/toko-cart/internal/pricing"
)

// ModelTypeProduct is the model tag stored on items built from products.
const ModelTypeProduct = "product"

// Product is a catalog entry that can be added to a cart.
type Product struct {
	ID    int64         `json:"id" validate:"required"`
	Name  string        `json:"name" validate:"required"`
	Price pricing.Money `json:"price" validate:"gte=0"`
	// Surcharges adds an amount per option value, keyed by option name then value.
	Surcharges map[string]map[string]pricing.Money `json:"surcharges,omitempty"`
}

// BuyableIdentifier implements cart.Buyable.
func (p Product) BuyableIdentifier(cart.Options) int64 { return p.ID }

// BuyableDescription implements cart.Buyable.
func (p Product) BuyableDescription(cart.Options) string { return p.Name }

// BuyablePrice implements cart.Buyable. Option values with a surcharge raise
// the base price.
func (p Product) BuyablePrice(opts cart.Options) pricing.Money {
	price := p.Price
	for _, key := range opts.Keys() {
		byValue, ok := p.Surcharges[key]
		if !ok {
			continue
		}
		price += byValue[fmt.Sprint(opts[key])]
	}
	return price
}

// ModelType implements cart.ModelTyper.
func (Product) ModelType() string { return ModelTypeProduct }
