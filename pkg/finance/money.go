// Package finance holds the BRL money helpers and the lot investment
// simulation. Values are decimal.Decimal only inside this package; callers
// exchange locale-formatted strings.
package finance

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

var hundred = decimal.NewFromInt(100)

// ParseBRL parses amounts such as "R$ 250.000,00", "250000", "1.234,5" or
// "250000.75". Empty input parses as zero.
func ParseBRL(s string) (decimal.Decimal, error) {
	clean := strings.NewReplacer("R$", "", "r$", "", "%", "", " ", "", "\u00a0", "").Replace(strings.TrimSpace(s))
	if clean == "" {
		return decimal.Zero, nil
	}
	neg := strings.HasPrefix(clean, "-")
	clean = strings.TrimPrefix(clean, "-")
	switch {
	case strings.Contains(clean, ","):
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.Replace(clean, ",", ".", 1)
	case strings.Count(clean, ".") > 1:
		clean = strings.ReplaceAll(clean, ".", "")
	case strings.Count(clean, ".") == 1:
		if dot := strings.IndexByte(clean, '.'); len(clean)-dot-1 == 3 {
			clean = strings.ReplaceAll(clean, ".", "")
		}
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// FormatBRL renders d as "R$ 1.234,56".
func FormatBRL(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	return sign + "R$ " + formatGrouped(d)
}

// FormatPercent renders d as "12,50%".
func FormatPercent(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", ",", 1) + "%"
}

func formatGrouped(d decimal.Decimal) string {
	fixed := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}

// NormalizeBRL reformats a numeric-looking value as BRL and returns other
// values unchanged.
func NormalizeBRL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	d, err := ParseBRL(s)
	if err != nil {
		return s
	}
	return FormatBRL(d)
}
