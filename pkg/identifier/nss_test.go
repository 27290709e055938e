package identifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNSS_Valid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain digits", "12928701650", "12928701650"},
		{"subdelegation 01", "01786543213", "01786543213"},
		{"subdelegation 97", "97854672314", "97854672314"},
		{"grouped with hyphens", "12-92-87-0165-0", "12928701650"},
		{"grouped with spaces", "12 92 87 0165 0", "12928701650"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nss, err := ParseNSS(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, nss.String())
			assert.True(t, IsValidNSS(tt.input))
		})
	}
}

func TestParseNSS_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reason Reason
	}{
		{"empty", "", ReasonEmpty},
		{"ten digits", "1292870165", ReasonLength},
		{"twelve digits", "129287016501", ReasonLength},
		{"letter in value", "1292870165A", ReasonMalformed},
		{"subdelegation 00", "00928701652", ReasonComponent},
		{"subdelegation 99", "99928701651", ReasonComponent},
		{"wrong check digit", "12928701651", ReasonCheckDigit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseNSS(tt.input)
			require.Error(t, err)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, KindNSS, pe.Kind)
			assert.Equal(t, tt.reason, pe.Reason)
			assert.False(t, IsValidNSS(tt.input))
		})
	}
}

func TestNSS_Components(t *testing.T) {
	nss, err := ParseNSS("12928701650")
	require.NoError(t, err)

	assert.Equal(t, "12", nss.SubdelegationCode())
	assert.Equal(t, "92", nss.EnrollmentYear())
	assert.Equal(t, "87", nss.BirthYear())
	assert.Equal(t, "12-92-87-0165-0", nss.Formatted())
}

// Luhn detects every single-digit transcription error.
func TestNSS_SingleDigitFlipDetected(t *testing.T) {
	const valid = "12928701650"
	for pos := 0; pos < len(valid); pos++ {
		for d := byte('0'); d <= '9'; d++ {
			if valid[pos] == d {
				continue
			}
			flipped := valid[:pos] + string(d) + valid[pos+1:]
			assert.False(t, IsValidNSS(flipped), "flip at %d to %c accepted", pos, d)
		}
	}
}
