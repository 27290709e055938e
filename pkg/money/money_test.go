package money

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		cents int64
	}{
		{"integer", "17", 1700},
		{"two fraction digits", "1234.50", 123450},
		{"one fraction digit", "0.5", 50},
		{"trailing dot", "17.", 1700},
		{"leading dot", ".75", 75},
		{"negative", "-0.25", -25},
		{"explicit plus", "+3.00", 300},
		{"rounds down below half", "1.004", 100},
		{"rounds up above half", "1.006", 101},
		{"half rounds to even down", "1.005", 100},
		{"half rounds to even up", "1.015", 102},
		{"half with trailing nonzero rounds up", "1.0051", 101},
		{"surrounding whitespace", "  9.99 ", 999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse(tt.input, MXN)
			require.NoError(t, err)
			assert.Equal(t, tt.cents, m.Cents())
			assert.Equal(t, MXN, m.Currency())
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, input := range []string{"", ".", "abc", "1,234.00", "1.2.3", "12a"} {
		t.Run(fmt.Sprintf("%q", input), func(t *testing.T) {
			_, err := Parse(input, MXN)
			require.ErrorIs(t, err, ErrMalformedAmount)
		})
	}
}

func TestParse_CapacityBounds(t *testing.T) {
	t.Run("largest representable amount", func(t *testing.T) {
		m, err := Parse("92233720368547757.99", MXN)
		require.NoError(t, err)
		assert.Equal(t, int64(9223372036854775799), m.Cents())
	})

	// Amounts past int64 centavo capacity must fail, never wrap.
	for _, input := range []string{
		"92233720368547758",
		"99999999999999999",
		"9223372036854775807",
	} {
		t.Run(fmt.Sprintf("%q overflows", input), func(t *testing.T) {
			_, err := Parse(input, MXN)
			require.ErrorIs(t, err, ErrMalformedAmount)
		})
	}
}

func TestArithmetic(t *testing.T) {
	a := FromCents(123450, MXN)
	b := FromCents(550, MXN)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, int64(124000), sum.Cents())

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, int64(122900), diff.Cents())

	cmp, err := a.Cmp(b)
	require.NoError(t, err)
	assert.Equal(t, 1, cmp)
}

func TestArithmetic_CurrencyMismatchFails(t *testing.T) {
	mxn := FromCents(100, MXN)
	usd := FromCents(100, "USD")

	_, err := mxn.Add(usd)
	require.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = mxn.Sub(usd)
	require.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = mxn.Cmp(usd)
	require.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestEncodeFixed(t *testing.T) {
	m := FromCents(123450, MXN)

	encoded, err := m.EncodeFixed(9)
	require.NoError(t, err)
	assert.Equal(t, "000123450", encoded)

	_, err = FromCents(-1, MXN).EncodeFixed(9)
	require.ErrorIs(t, err, ErrNegative)

	_, err = FromCents(10_000_000_00, MXN).EncodeFixed(9)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestDecodeFixed(t *testing.T) {
	m, err := DecodeFixed("000123450", MXN)
	require.NoError(t, err)
	assert.Equal(t, int64(123450), m.Cents())
	assert.Equal(t, "1234.50 MXN", m.String())

	_, err = DecodeFixed("00012A450", MXN)
	require.ErrorIs(t, err, ErrMalformedAmount)

	_, err = DecodeFixed("", MXN)
	require.ErrorIs(t, err, ErrMalformedAmount)
}

// Round-trip: decode(encode(m)) == m for representable non-negative amounts.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, cents := range []int64{0, 1, 99, 100, 123450, 999_999_999} {
		m := FromCents(cents, MXN)
		encoded, err := m.EncodeFixed(9)
		require.NoError(t, err)
		assert.Len(t, encoded, 9)

		back, err := DecodeFixed(encoded, MXN)
		require.NoError(t, err)
		assert.True(t, m.Equal(back), "round trip changed %s", m)
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "0.05 MXN", FromCents(5, MXN).String())
	assert.Equal(t, "-12.34 MXN", FromCents(-1234, MXN).String())
	assert.Equal(t, "3.00", FromCents(300, "").String())
}
