package cart

import (
	"fmt"

	"github.com/noah-isme/toko-cart/internal/pricing"
)

// AddOptions tunes how an item is merged into the cart.
type AddOptions struct {
	// KeepDiscount leaves the item's own discount rates instead of the cart defaults.
	KeepDiscount bool
	// KeepTax leaves the item's own tax rate instead of the cart default.
	KeepTax bool
	// Silent suppresses the adding/added notifications.
	Silent bool
}

// Source describes something that can be added to a cart.
type Source interface {
	build() (*Item, AddOptions, error)
}

// BuyableSource adds a catalog entry.
type BuyableSource struct {
	Buyable  Buyable
	Quantity int
	Options  Options
	AddOptions
}

// FromBuyable adds qty units of b; a zero qty adds a single unit.
func FromBuyable(b Buyable, qty int, opts Options) BuyableSource {
	return BuyableSource{Buyable: b, Quantity: qty, Options: opts}
}

func (s BuyableSource) build() (*Item, AddOptions, error) {
	item, err := NewItemFromBuyable(s.Buyable, s.Options)
	if err != nil {
		return nil, s.AddOptions, err
	}
	qty := s.Quantity
	if qty == 0 {
		qty = 1
	}
	if err := item.SetQuantity(qty); err != nil {
		return nil, s.AddOptions, err
	}
	return item, s.AddOptions, nil
}

// AttributeSource adds a raw attribute tuple.
type AttributeSource struct {
	Attributes
	AddOptions
}

// FromAttributes adds the item described by a.
func FromAttributes(a Attributes) AttributeSource {
	return AttributeSource{Attributes: a}
}

func (s AttributeSource) build() (*Item, AddOptions, error) {
	item, err := NewItemFromAttributes(s.Attributes)
	return item, s.AddOptions, err
}

// Change describes an update applied to a stored item.
type Change interface {
	apply(item *Item) error
}

// Quantity replaces the item quantity. Zero or less removes the row.
type Quantity int

func (q Quantity) apply(item *Item) error {
	item.Quantity = int(q)
	return nil
}

type rebuy struct{ b Buyable }

// Rebuy refreshes id, name and price from a catalog entry, keeping the row id.
func Rebuy(b Buyable) Change { return rebuy{b: b} }

func (r rebuy) apply(item *Item) error { return item.UpdateFromBuyable(r.b) }

// Patch updates a subset of fields; nil fields stay unchanged. Changing ID or
// Options changes the row id.
type Patch struct {
	ID       *int64
	Name     *string
	Price    *pricing.Money
	Quantity *int
	Options  Options
}

func (p Patch) apply(item *Item) error {
	if err := item.UpdateFromPatch(p); err != nil {
		return fmt.Errorf("patch: %w", err)
	}
	return nil
}
