package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

func init() {
	// Amounts travel as plain JSON numbers, the way the web client sends them.
	decimal.MarshalJSONWithoutQuotes = true
}

// ParseAmount converts user input such as "1,250.50" or "1250,5" into a
// non-negative decimal rounded to two places.
//
// A single comma followed by one or two digits is read as a decimal separator;
// any other comma is treated as a thousands separator.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		if i := strings.Index(s, ","); len(s)-i-1 <= 2 {
			s = s[:i] + "." + s[i+1:]
		}
	}
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d.Round(2), nil
}

// Sum adds a list of amounts.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// FormatRupees renders an amount for printed statements, e.g. "Rs 1,250.50".
func FormatRupees(d decimal.Decimal) string {
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := "Rs " + b.String() + "." + frac
	if neg {
		return "-" + out
	}
	return out
}
