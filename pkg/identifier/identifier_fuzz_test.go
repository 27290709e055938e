//go:build go1.18

package identifier

import (
	"math/rand"
	"testing"
	"unicode/utf8"
)

// Checksum strength property: identifiers built by re-deriving the
// verification digit from a randomly generated valid prefix always parse,
// and flipping the check digit always fails.
func TestDerivedCheckDigitsParse(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	letters := []rune("BCDFGHJKLMPQRSTVWXZ") // consonant pool, avoids inconvenient words
	vowels := []rune("AEIOU")
	states := []string{"AS", "BC", "DF", "JC", "NL", "SP", "VZ", "NE"}
	banks := []string{"002", "012", "014", "021", "044", "072", "127", "137"}

	safeMonths := []string{"01", "03", "05", "07", "08", "10", "12"}
	digits := func(n int) string {
		out := make([]byte, n)
		for i := range out {
			out[i] = byte('0' + rng.Intn(10))
		}
		return string(out)
	}

	for i := 0; i < 200; i++ {
		t.Run("curp", func(t *testing.T) {
			prefix := []rune(string([]rune{
				letters[rng.Intn(len(letters))],
				vowels[rng.Intn(len(vowels))],
				letters[rng.Intn(len(letters))],
				letters[rng.Intn(len(letters))],
			}) + yymmdd(rng, safeMonths) + pick(rng, "H", "M") + states[rng.Intn(len(states))] +
				string([]rune{
					letters[rng.Intn(len(letters))],
					letters[rng.Intn(len(letters))],
					letters[rng.Intn(len(letters))],
				}) + digits(1))
			value := string(prefix) + string(curpCheckDigit(prefix))
			if _, err := ParseCURPAt(value, testNow); err != nil {
				t.Fatalf("derived CURP %q rejected: %v", value, err)
			}
			if IsValidCURPAt(flipLastDigit(value), testNow) {
				t.Fatalf("CURP with flipped check digit accepted: %q", value)
			}
		})

		t.Run("nss", func(t *testing.T) {
			prefix := pick(rng, "01", "12", "34", "55", "97") + digits(8)
			value := prefix + string(nssCheckDigit(prefix))
			if _, err := ParseNSS(value); err != nil {
				t.Fatalf("derived NSS %q rejected: %v", value, err)
			}
			if IsValidNSS(flipLastDigit(value)) {
				t.Fatalf("NSS with flipped check digit accepted: %q", value)
			}
		})

		t.Run("clabe", func(t *testing.T) {
			prefix := banks[rng.Intn(len(banks))] + digits(14)
			value := prefix + string(clabeCheckDigit(prefix))
			if _, err := ParseCLABE(value); err != nil {
				t.Fatalf("derived CLABE %q rejected: %v", value, err)
			}
			if IsValidCLABE(flipLastDigit(value)) {
				t.Fatalf("CLABE with flipped check digit accepted: %q", value)
			}
		})

		t.Run("rfc", func(t *testing.T) {
			prefix := []rune(string([]rune{
				letters[rng.Intn(len(letters))],
				vowels[rng.Intn(len(vowels))],
				letters[rng.Intn(len(letters))],
				letters[rng.Intn(len(letters))],
			}) + yymmdd(rng, safeMonths) + digits(2))
			value := string(prefix) + string(rfcCheckChar(prefix))
			if _, err := ParseRFCAt(value, testNow); err != nil {
				t.Fatalf("derived RFC %q rejected: %v", value, err)
			}
		})
	}
}

// yymmdd builds a valid 1900s embedded date: years 30-99, safe months, day 01-28.
func yymmdd(rng *rand.Rand, months []string) string {
	year := 30 + rng.Intn(70)
	day := 1 + rng.Intn(28)
	month := months[rng.Intn(len(months))]
	return string([]byte{
		byte('0' + year/10), byte('0' + year%10),
		month[0], month[1],
		byte('0' + day/10), byte('0' + day%10),
	})
}

func pick(rng *rand.Rand, options ...string) string {
	return options[rng.Intn(len(options))]
}

func flipLastDigit(s string) string {
	last := s[len(s)-1]
	flipped := byte('0' + (int(last-'0')+1)%10)
	return s[:len(s)-1] + string(flipped)
}

// FuzzParseNSS verifies parsing never panics on arbitrary input and that
// accepted values round-trip through their normalized form.
func FuzzParseNSS(f *testing.F) {
	f.Add("")
	f.Add("12928701650")
	f.Add("12-92-87-0165-0")
	f.Add("not-an-nss")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		nss, err := ParseNSS(input)
		if err == nil {
			roundTrip, err2 := ParseNSS(nss.String())
			if err2 != nil {
				t.Errorf("valid NSS failed round-trip: %v", err2)
			}
			if roundTrip != nss {
				t.Error("round-trip changed NSS value")
			}
		}
	})
}

// FuzzParseCLABE mirrors FuzzParseNSS for account numbers.
func FuzzParseCLABE(f *testing.F) {
	f.Add("")
	f.Add("012180001183597198")
	f.Add("012-180-00118359719-8")
	f.Add("'; DROP TABLE accounts;--")

	f.Fuzz(func(t *testing.T, input string) {
		clabe, err := ParseCLABE(input)
		if err == nil {
			if !utf8.ValidString(clabe.String()) {
				t.Error("accepted CLABE is not valid UTF-8")
			}
			roundTrip, err2 := ParseCLABE(clabe.String())
			if err2 != nil {
				t.Errorf("valid CLABE failed round-trip: %v", err2)
			}
			if roundTrip != clabe {
				t.Error("round-trip changed CLABE value")
			}
		}
	})
}
