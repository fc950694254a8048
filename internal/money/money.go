// Package money normalizes the price representations that reach the service.
// Dishes created through older tooling carry locale-formatted text such as
// "R$ 12,50"; newer writes store plain decimal text. Everything is converted
// to decimal.Decimal once, at the boundary.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrMalformed = errors.New("malformed price")

// Parse accepts "12.50", "12,50", "R$ 12,50" and "1.234,56" style input and
// returns the amount. The currency prefix and thousand separators are
// stripped before parsing.
func Parse(s string) (decimal.Decimal, error) {
	v := strings.TrimSpace(s)
	v = strings.TrimPrefix(v, "R$")
	v = strings.ReplaceAll(v, " ", "")
	if v == "" {
		return decimal.Zero, fmt.Errorf("%w: empty input", ErrMalformed)
	}

	if strings.Contains(v, ",") {
		v = strings.ReplaceAll(v, ".", "")
		v = strings.Replace(v, ",", ".", 1)
	}

	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	return d, nil
}

// Format renders an amount the way order documents store it, with exactly
// two decimal places.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}
