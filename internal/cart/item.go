package cart

import (
	"fmt"
	"strings"

	"github.com/noah-isme/toko-cart/internal/pricing"
)

// ModelRef is a weak reference to an external catalog record.
type ModelRef struct {
	Type string `json:"type"`
	ID   int64  `json:"id"`
}

// Item is a single cart line. Derived amounts are never stored; Breakdown
// recomputes them from the current base fields.
type Item struct {
	RowID         string        `json:"rowId"`
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	Quantity      int           `json:"qty"`
	Price         pricing.Money `json:"price"`
	Options       Options       `json:"options,omitempty"`
	TaxRate       int           `json:"taxRate"`
	DiscountRate  int           `json:"discountRate"`
	DiscountFixed pricing.Money `json:"discountFixed"`
	Model         *ModelRef     `json:"model,omitempty"`
}

// Attributes is the raw attribute tuple used to build or patch an item.
type Attributes struct {
	ID       int64
	Name     string
	Price    pricing.Money
	Quantity int
	Options  Options
}

// NewItem validates the identity fields and returns an item with quantity 0.
// Callers set the quantity with SetQuantity.
func NewItem(id int64, name string, price pricing.Money, opts Options) (*Item, error) {
	if err := validateIdentity(id, name, price); err != nil {
		return nil, err
	}
	opts = opts.Clone()
	return &Item{
		RowID:   RowID(id, opts),
		ID:      id,
		Name:    name,
		Price:   price,
		Options: opts,
	}, nil
}

// NewItemFromBuyable builds an item from a catalog entry.
func NewItemFromBuyable(b Buyable, opts Options) (*Item, error) {
	if b == nil {
		return nil, fmt.Errorf("buyable is nil: %w", ErrInvalidAttribute)
	}
	item, err := NewItem(b.BuyableIdentifier(opts), b.BuyableDescription(opts), b.BuyablePrice(opts), opts)
	if err != nil {
		return nil, err
	}
	if typer, ok := b.(ModelTyper); ok {
		item.Associate(ModelRef{Type: typer.ModelType(), ID: item.ID})
	}
	return item, nil
}

// NewItemFromAttributes builds an item from a raw attribute tuple including its quantity.
func NewItemFromAttributes(a Attributes) (*Item, error) {
	item, err := NewItem(a.ID, a.Name, a.Price, a.Options)
	if err != nil {
		return nil, err
	}
	if err := item.SetQuantity(a.Quantity); err != nil {
		return nil, err
	}
	return item, nil
}

func validateIdentity(id int64, name string, price pricing.Money) error {
	if id == 0 {
		return fmt.Errorf("identifier is required: %w", ErrInvalidAttribute)
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name is required: %w", ErrInvalidAttribute)
	}
	if price < 0 {
		return fmt.Errorf("price must not be negative: %w", ErrInvalidAttribute)
	}
	return nil
}

// SetQuantity sets a positive quantity.
func (i *Item) SetQuantity(qty int) error {
	if qty <= 0 {
		return fmt.Errorf("qty must be positive: %w", ErrInvalidAttribute)
	}
	i.Quantity = qty
	return nil
}

// UpdateFromBuyable refreshes id, name and price from b using the item's
// current options. The row id is left alone.
func (i *Item) UpdateFromBuyable(b Buyable) error {
	if b == nil {
		return fmt.Errorf("buyable is nil: %w", ErrInvalidAttribute)
	}
	id, name, price := b.BuyableIdentifier(i.Options), b.BuyableDescription(i.Options), b.BuyablePrice(i.Options)
	if err := validateIdentity(id, name, price); err != nil {
		return err
	}
	i.ID, i.Name, i.Price = id, name, price
	return nil
}

// UpdateFromPatch applies the non-nil fields of p and recomputes the row id.
// The quantity is not validated here; a non-positive result means removal.
func (i *Item) UpdateFromPatch(p Patch) error {
	id, name, price := i.ID, i.Name, i.Price
	if p.ID != nil {
		id = *p.ID
	}
	if p.Name != nil {
		name = *p.Name
	}
	if p.Price != nil {
		price = *p.Price
	}
	if err := validateIdentity(id, name, price); err != nil {
		return err
	}
	i.ID, i.Name, i.Price = id, name, price
	if p.Quantity != nil {
		i.Quantity = *p.Quantity
	}
	if p.Options != nil {
		i.Options = p.Options.Clone()
	}
	i.RowID = RowID(i.ID, i.Options)
	return nil
}

// Associate attaches a weak model reference.
func (i *Item) Associate(ref ModelRef) {
	r := ref
	i.Model = &r
}

// Line returns the pricing input for the item.
func (i *Item) Line() pricing.Line {
	return pricing.Line{
		UnitPrice:     i.Price,
		Quantity:      i.Quantity,
		DiscountRate:  i.DiscountRate,
		DiscountFixed: i.DiscountFixed,
		TaxRate:       i.TaxRate,
	}
}

// Breakdown derives every computed amount from the current base fields.
func (i *Item) Breakdown() pricing.Breakdown {
	return pricing.Derive(i.Line())
}

// Total is the post-discount line amount including tax.
func (i *Item) Total() pricing.Money { return i.Breakdown().Total }

// Subtotal is Total minus TaxTotal.
func (i *Item) Subtotal() pricing.Money { return i.Breakdown().Subtotal }

// TaxTotal is the tax contained in Total.
func (i *Item) TaxTotal() pricing.Money { return i.Breakdown().TaxTotal }

// DiscountTotal is the combined percentage and fixed discount for the line.
func (i *Item) DiscountTotal() pricing.Money { return i.Breakdown().DiscountTotal }

// PriceTotal is Price times Quantity.
func (i *Item) PriceTotal() pricing.Money { return i.Breakdown().PriceTotal }

// Clone returns a deep copy of the item.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	c := *i
	c.Options = i.Options.Clone()
	if i.Model != nil {
		m := *i.Model
		c.Model = &m
	}
	return &c
}
