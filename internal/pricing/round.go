package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Round rounds d half away from zero to whole minor units.
func Round(d decimal.Decimal) Money {
	return d.Round(0).IntPart()
}

// Percent returns round(amount * rate / 100).
func Percent(amount Money, rate int) Money {
	return Round(decimal.NewFromInt(amount).Mul(decimal.NewFromInt(int64(rate))).Div(hundred))
}

// Divide returns round(amount / n), or 0 when n is not positive.
func Divide(amount Money, n int) Money {
	if n <= 0 {
		return 0
	}
	return Round(decimal.NewFromInt(amount).Div(decimal.NewFromInt(int64(n))))
}
