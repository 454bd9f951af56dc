// Package money holds yen arithmetic helpers. Amounts are whole yen in int64;
// ratios go through shopspring/decimal so rounding is exact and repeatable.
package money

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when a string cannot be read as a yen amount.
var ErrInvalidAmount = errors.New("invalid amount")

var (
	hundred   = decimal.NewFromInt(100)
	maxAmount = decimal.NewFromInt(math.MaxInt64)
	minAmount = decimal.NewFromInt(math.MinInt64)
)

// Percentage returns part/whole*100 rounded to two places.
// A non-positive whole yields 0.
func Percentage(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}
	p := decimal.NewFromInt(part).Mul(hundred).Div(decimal.NewFromInt(whole))
	return p.Round(2).InexactFloat64()
}

// Ratio is Percentage for values that are already fractional.
func Ratio(part, whole decimal.Decimal) float64 {
	if !whole.IsPositive() {
		return 0
	}
	return part.Mul(hundred).Div(whole).Round(2).InexactFloat64()
}

// Average returns total/n rounded to two places, or 0 when n is not positive.
func Average(total int64, n int) decimal.Decimal {
	if n <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(total).Div(decimal.NewFromInt(int64(n))).Round(2)
}

// PercentChange returns the relative change from previous to current in percent.
// A zero previous value yields 0 rather than an infinite change.
func PercentChange(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		return 0
	}
	return current.Sub(previous).Mul(hundred).Div(previous.Abs()).Round(2).InexactFloat64()
}

// Clamp100 caps a percentage at 100 for progress displays.
func Clamp100(p float64) float64 {
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}

// ParseAmount reads an amount such as "¥1,234", "-500", "1234円" or "12.5"
// and rounds it half away from zero to whole yen.
func ParseAmount(s string) (int64, error) {
	clean := strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(clean, "(") && strings.HasSuffix(clean, ")") {
		negative = true
		clean = strings.TrimSuffix(strings.TrimPrefix(clean, "("), ")")
	}
	clean = strings.NewReplacer("¥", "", "￥", "", "円", "", ",", "", " ", "").Replace(clean)
	if clean == "" {
		return 0, ErrInvalidAmount
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if negative {
		d = d.Neg()
	}
	d = d.Round(0)
	if d.GreaterThan(maxAmount) || d.LessThan(minAmount) {
		return 0, ErrInvalidAmount
	}
	return d.IntPart(), nil
}
