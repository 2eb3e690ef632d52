package interpreter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrMalformedNumber is returned by ParseAmount for tokens that are not a
// decimal number once separators have been normalized.
var ErrMalformedNumber = errors.New("malformed number")

// ParseAmount converts a numeric token into a signed decimal.
//
// Separator rules:
//   - both ',' and '.' present: the rightmost one is the decimal point and
//     every occurrence of the other is a thousands separator
//     ("1.234,56" and "1,234.56" are both 1234.56);
//   - only ',' present: ',' is the decimal point ("12,50" is 12.5);
//   - only '.' present: '.' is the decimal point.
//
// A leading minus is preserved.
func ParseAmount(token string) (decimal.Decimal, error) {
	s := normalizeSeparators(token)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ParseAmount: %q: %w", token, ErrMalformedNumber)
	}
	return d, nil
}

func normalizeSeparators(token string) string {
	comma := strings.LastIndexByte(token, ',')
	dot := strings.LastIndexByte(token, '.')
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		return strings.ReplaceAll(strings.ReplaceAll(token, ".", ""), ",", ".")
	case comma >= 0 && dot >= 0:
		return strings.ReplaceAll(token, ",", "")
	case comma >= 0:
		return strings.ReplaceAll(token, ",", ".")
	}
	return token
}
