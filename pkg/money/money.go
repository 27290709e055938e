// Package money implements decimal monetary amounts bound to a currency,
// plus the fixed-width integer-centavo encoding used by regulatory files.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Default currency for regulatory files in this jurisdiction.
const MXN = "MXN"

var (
	// ErrCurrencyMismatch marks arithmetic between different currencies.
	// This is a programming error at the call site, never silently absorbed.
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// ErrMalformedAmount marks an amount string that cannot be decoded.
	ErrMalformedAmount = errors.New("malformed amount")

	// ErrOverflow marks an amount that does not fit the requested width.
	ErrOverflow = errors.New("amount exceeds encoding width")

	// ErrNegative marks a negative amount where the format allows none.
	ErrNegative = errors.New("negative amount not representable")
)

// Money is an amount in minor units (centavos) bound to a currency code.
// The zero value is 0.00 with no currency; use FromCents or Parse.
type Money struct {
	cents    int64
	currency string
}

// FromCents builds a Money from an amount already expressed in minor units.
func FromCents(cents int64, currency string) Money {
	return Money{cents: cents, currency: currency}
}

// Parse reads a decimal string ("1234.505", "17", "-0.5") into a Money,
// rounding to two fraction digits with round-half-to-even.
func Parse(s, currency string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, fmt.Errorf("%w: empty string", ErrMalformedAmount)
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if intPart == "" && fracPart == "" {
		return Money{}, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
	}
	if intPart == "" {
		intPart = "0"
	}
	var cents int64
	for _, r := range intPart {
		if r < '0' || r > '9' {
			return Money{}, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
		}
		d := int64(r - '0')
		if cents > (1<<62)/10 {
			return Money{}, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
		}
		cents = cents*10 + d
	}
	// Bound before scaling so the cents conversion and the fraction digits
	// below cannot wrap.
	if cents > (math.MaxInt64-99)/100 {
		return Money{}, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
	}
	cents *= 100
	if hasFrac {
		for _, r := range fracPart {
			if r < '0' || r > '9' {
				return Money{}, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
			}
		}
		switch {
		case len(fracPart) == 0:
			// "17." reads as 17.00
		case len(fracPart) == 1:
			cents += int64(fracPart[0]-'0') * 10
		case len(fracPart) == 2:
			cents += int64(fracPart[0]-'0')*10 + int64(fracPart[1]-'0')
		default:
			cents += int64(fracPart[0]-'0')*10 + int64(fracPart[1]-'0')
			cents += roundHalfEven(cents, fracPart[2:])
		}
	}
	if neg {
		cents = -cents
	}
	return Money{cents: cents, currency: currency}, nil
}

// roundHalfEven decides whether the truncated cents value is bumped by one,
// given the dropped fraction digits.
func roundHalfEven(cents int64, rest string) int64 {
	first := rest[0]
	switch {
	case first > '5':
		return 1
	case first < '5':
		return 0
	}
	for i := 1; i < len(rest); i++ {
		if rest[i] != '0' {
			return 1
		}
	}
	// Exactly half: round to even cents.
	if cents%2 != 0 {
		return 1
	}
	return 0
}

// Cents returns the amount in minor units.
func (m Money) Cents() int64 { return m.cents }

// Currency returns the ISO currency code.
func (m Money) Currency() string { return m.currency }

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m.cents == 0 }

// Equal reports value equality: same currency and same amount.
func (m Money) Equal(o Money) bool {
	return m.currency == o.currency && m.cents == o.cents
}

// Add returns m+o. Mixing currencies is an explicit failure.
func (m Money) Add(o Money) (Money, error) {
	if m.currency != o.currency {
		return Money{}, fmt.Errorf("%w: %s + %s", ErrCurrencyMismatch, m.currency, o.currency)
	}
	return Money{cents: m.cents + o.cents, currency: m.currency}, nil
}

// Sub returns m-o. Mixing currencies is an explicit failure.
func (m Money) Sub(o Money) (Money, error) {
	if m.currency != o.currency {
		return Money{}, fmt.Errorf("%w: %s - %s", ErrCurrencyMismatch, m.currency, o.currency)
	}
	return Money{cents: m.cents - o.cents, currency: m.currency}, nil
}

// Cmp compares two amounts of the same currency: -1, 0, or +1.
func (m Money) Cmp(o Money) (int, error) {
	if m.currency != o.currency {
		return 0, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.currency, o.currency)
	}
	switch {
	case m.cents < o.cents:
		return -1, nil
	case m.cents > o.cents:
		return 1, nil
	}
	return 0, nil
}

// String renders the amount with two fraction digits, e.g. "1234.50 MXN".
func (m Money) String() string {
	cents := m.cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	if m.currency == "" {
		return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, cents/100, cents%100, m.currency)
}

// EncodeFixed renders the amount as the regulator's fixed-width
// integer-centavo representation: digits only, zero-padded, no separators.
// Negative amounts and amounts wider than width are encoding errors.
func (m Money) EncodeFixed(width int) (string, error) {
	if m.cents < 0 {
		return "", fmt.Errorf("%w: %s", ErrNegative, m)
	}
	s := fmt.Sprintf("%0*d", width, m.cents)
	if len(s) > width {
		return "", fmt.Errorf("%w: %s in %d digits", ErrOverflow, m, width)
	}
	return s, nil
}

// DecodeFixed reads a fixed-width integer-centavo string back into a Money.
// The input must be digits only; width is implied by the input length.
func DecodeFixed(s, currency string) (Money, error) {
	if s == "" {
		return Money{}, fmt.Errorf("%w: empty string", ErrMalformedAmount)
	}
	var cents int64
	for _, r := range s {
		if r < '0' || r > '9' {
			return Money{}, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
		}
		if cents > (1<<62)/10 {
			return Money{}, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
		}
		cents = cents*10 + int64(r-'0')
	}
	return Money{cents: cents, currency: currency}, nil
}
