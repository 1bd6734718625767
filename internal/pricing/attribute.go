package pricing

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Attribute names a derived amount.
type Attribute string

// Built-in derived attributes.
const (
	AttrDiscountPerc       Attribute = "discountPerc"
	AttrDiscountFixedPrice Attribute = "discountFixedPrice"
	AttrPriceTotal         Attribute = "priceTotal"
	AttrDiscountTotal      Attribute = "discountTotal"
	AttrTotal              Attribute = "total"
	AttrPriceTarget        Attribute = "priceTarget"
	AttrTaxTotal           Attribute = "taxTotal"
	AttrSubtotal           Attribute = "subtotal"
	AttrTax                Attribute = "tax"
	AttrPriceSubtotal      Attribute = "priceSubtotal"
)

// Attributes returns the built-in attributes in evaluation order.
func Attributes() []Attribute {
	return []Attribute{
		AttrDiscountPerc,
		AttrDiscountFixedPrice,
		AttrPriceTotal,
		AttrDiscountTotal,
		AttrTotal,
		AttrPriceTarget,
		AttrTaxTotal,
		AttrSubtotal,
		AttrTax,
		AttrPriceSubtotal,
	}
}

// Get returns the value of a built-in attribute. The boolean is false for
// names outside the built-in set.
func (b Breakdown) Get(a Attribute) (Money, bool) {
	switch a {
	case AttrDiscountPerc:
		return b.DiscountPerc, true
	case AttrDiscountFixedPrice:
		return b.DiscountFixedPrice, true
	case AttrPriceTotal:
		return b.PriceTotal, true
	case AttrDiscountTotal:
		return b.DiscountTotal, true
	case AttrTotal:
		return b.Total, true
	case AttrPriceTarget:
		return b.PriceTarget, true
	case AttrTaxTotal:
		return b.TaxTotal, true
	case AttrSubtotal:
		return b.Subtotal, true
	case AttrTax:
		return b.Tax, true
	case AttrPriceSubtotal:
		return b.PriceSubtotal, true
	default:
		return 0, false
	}
}

// Calculator derives a caller-defined amount from a line and its built-in breakdown.
type Calculator interface {
	Calculate(l Line, b Breakdown) Money
}

// CalculatorFunc adapts a plain function to Calculator.
type CalculatorFunc func(l Line, b Breakdown) Money

// Calculate implements Calculator.
func (f CalculatorFunc) Calculate(l Line, b Breakdown) Money { return f(l, b) }

// ErrAttributeTaken is returned when registering a name that is already in use.
var ErrAttributeTaken = errors.New("pricing: attribute already defined")

// Registry resolves built-in attributes plus registered calculators.
type Registry struct {
	mu    sync.RWMutex
	calcs map[Attribute]Calculator
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{calcs: make(map[Attribute]Calculator)}
}

// Register adds a calculator under name. Built-in names cannot be shadowed.
func (r *Registry) Register(name Attribute, calc Calculator) error {
	name = Attribute(strings.TrimSpace(string(name)))
	if name == "" || calc == nil {
		return errors.New("pricing: name and calculator are required")
	}
	if _, ok := (Breakdown{}).Get(name); ok {
		return fmt.Errorf("%s: %w", name, ErrAttributeTaken)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calcs == nil {
		r.calcs = make(map[Attribute]Calculator)
	}
	if _, exists := r.calcs[name]; exists {
		return fmt.Errorf("%s: %w", name, ErrAttributeTaken)
	}
	r.calcs[name] = calc
	return nil
}

// Lookup resolves name for l. It reports false when neither a built-in
// attribute nor a registered calculator matches.
func (r *Registry) Lookup(name Attribute, l Line) (Money, bool) {
	b := Derive(l)
	if v, ok := b.Get(name); ok {
		return v, true
	}
	if r == nil {
		return 0, false
	}
	r.mu.RLock()
	calc, ok := r.calcs[name]
	r.mu.RUnlock()
	if !ok {
		return 0, false
	}
	return calc.Calculate(l, b), true
}
