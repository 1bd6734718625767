package catalog

import "github.com/noah-isme/toko-cart/internal/pricing"

// Customer scopes a cart instance and seeds its discount defaults.
type Customer struct {
	ID            string        `json:"id" validate:"required"`
	DiscountRate  int           `json:"discountRate" validate:"gte=0,lte=100"`
	DiscountFixed pricing.Money `json:"discountFixed" validate:"gte=0"`
}

// InstanceIdentifier implements cart.InstanceIdentifier.
func (c Customer) InstanceIdentifier() string { return c.ID }

// InstanceDiscountRate implements cart.InstanceIdentifier.
func (c Customer) InstanceDiscountRate() int { return c.DiscountRate }

// InstanceDiscountFixed implements cart.InstanceIdentifier.
func (c Customer) InstanceDiscountFixed() pricing.Money { return c.DiscountFixed }
