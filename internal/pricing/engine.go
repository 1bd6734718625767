package pricing

// Money represents a monetary value stored in minor units.
type Money = int64

// Line holds the base fields every derived amount is computed from.
type Line struct {
	UnitPrice     Money
	Quantity      int
	DiscountRate  int
	DiscountFixed Money
	TaxRate       int
}

// Breakdown is the full set of derived amounts for a single line.
type Breakdown struct {
	DiscountPerc       Money `json:"discountPerc"`
	DiscountFixedPrice Money `json:"discountFixedPrice"`
	PriceTotal         Money `json:"priceTotal"`
	DiscountTotal      Money `json:"discountTotal"`
	Total              Money `json:"total"`
	PriceTarget        Money `json:"priceTarget"`
	TaxTotal           Money `json:"taxTotal"`
	Subtotal           Money `json:"subtotal"`
	Tax                Money `json:"tax"`
	PriceSubtotal      Money `json:"priceSubtotal"`
}

// Derive computes the breakdown for l. Each step only reads base fields or
// amounts computed before it.
func Derive(l Line) Breakdown {
	var b Breakdown
	b.DiscountPerc = Percent(l.UnitPrice, l.DiscountRate)
	b.DiscountFixedPrice = min(l.UnitPrice, l.DiscountFixed)
	b.PriceTotal = l.UnitPrice * Money(l.Quantity)
	b.DiscountTotal = b.DiscountPerc*Money(l.Quantity) + b.DiscountFixedPrice
	b.Total = max(b.PriceTotal-b.DiscountTotal, 0)
	b.PriceTarget = Divide(b.PriceTotal-b.DiscountTotal, l.Quantity)
	b.TaxTotal = Percent(b.Total, l.TaxRate)
	b.Subtotal = b.Total - b.TaxTotal
	b.Tax = Percent(b.PriceTarget, l.TaxRate)
	b.PriceSubtotal = b.PriceTarget - b.Tax
	return b
}

// Summary aggregates computed pricing components across lines.
type Summary struct {
	Count      int   `json:"count"`
	Instances  int   `json:"instances"`
	Initial    Money `json:"initial"`
	PriceTotal Money `json:"priceTotal"`
	Discount   Money `json:"discount"`
	Subtotal   Money `json:"subtotal"`
	Tax        Money `json:"tax"`
	Total      Money `json:"total"`
}

// Summarize folds the per-line breakdowns into cart totals. Lines with a
// non-positive quantity are skipped.
func Summarize(lines []Line) Summary {
	var s Summary
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		b := Derive(l)
		s.Count += l.Quantity
		s.Instances++
		s.Initial += l.UnitPrice * Money(l.Quantity)
		s.PriceTotal += b.PriceTotal
		s.Discount += b.DiscountTotal
		s.Subtotal += b.Subtotal
		s.Tax += b.TaxTotal
		s.Total += b.Total
	}
	return s
}
