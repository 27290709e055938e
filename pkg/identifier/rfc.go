package identifier

import (
	"time"
)

const (
	rfcLengthMoral  = 12 // personas morales: 3 name characters
	rfcLengthFisica = 13 // personas físicas: 4 name characters
)

// rfcCheckAlphabet maps characters to values for the mod-11 verification
// character. Index in the string is the value; space (37) pads 12-character
// RFCs and Ñ carries value 38.
var rfcCheckAlphabet = []rune("0123456789ABCDEFGHIJKLMN&OPQRSTUVWXYZ Ñ")

// RFC is a validated federal taxpayer registry code, 13 characters for
// individuals and 12 for legal entities. Construct through ParseRFC.
type RFC struct {
	value string
}

// ParseRFC validates raw against the current time. See ParseRFCAt.
func ParseRFC(raw string) (RFC, error) {
	return ParseRFCAt(raw, time.Now())
}

// ParseRFCAt validates raw as an RFC, treating at as the evaluation instant
// for the embedded incorporation/birth date. Interior spaces and hyphens
// from conventional grouping are stripped before validation.
func ParseRFCAt(raw string, at time.Time) (RFC, error) {
	normalized := normalize(raw, true)
	if err := checkRFC(normalized, at); err != nil {
		return RFC{}, err
	}
	return RFC{value: normalized}, nil
}

// IsValidRFCAt screens raw without constructing an instance.
func IsValidRFCAt(raw string, at time.Time) bool {
	return checkRFC(normalize(raw, true), at) == nil
}

// IsValidRFC screens raw against the current time.
func IsValidRFC(raw string) bool {
	return IsValidRFCAt(raw, time.Now())
}

func checkRFC(s string, at time.Time) error {
	if s == "" {
		return parseErr(KindRFC, ReasonEmpty, "value is empty")
	}
	runes := []rune(s)
	if len(runes) != rfcLengthMoral && len(runes) != rfcLengthFisica {
		return parseErr(KindRFC, ReasonLength, "expected %d or %d characters, got %d", rfcLengthMoral, rfcLengthFisica, len(runes))
	}
	nameLen := len(runes) - 9

	// Name block: letters for individuals; legal entities may carry &.
	for i := 0; i < nameLen; i++ {
		if !isUpperLetter(runes[i]) && !(nameLen == 3 && runes[i] == '&') {
			return parseErr(KindRFC, ReasonMalformed, "name characters malformed")
		}
	}
	for i := nameLen; i < nameLen+6; i++ {
		if !isDigit(runes[i]) {
			return parseErr(KindRFC, ReasonMalformed, "date must be six digits")
		}
	}
	// Homoclave: two alphanumerics plus the verification character.
	for i := nameLen + 6; i < len(runes); i++ {
		if !isDigit(runes[i]) && !(runes[i] >= 'A' && runes[i] <= 'Z') {
			return parseErr(KindRFC, ReasonMalformed, "homoclave characters malformed")
		}
	}
	if nameLen == 4 {
		if _, bad := curpInconvenientWords[string(runes[0:4])]; bad {
			return parseErr(KindRFC, ReasonMalformed, "prefix %s is not issuable", string(runes[0:4]))
		}
	}

	// Embedded date component.
	dateStr := string(runes[nameLen : nameLen+6])
	if _, ok := parseYYMMDD(dateStr, rfcCentury(dateStr), at); !ok {
		return parseErr(KindRFC, ReasonComponent, "embedded date %s is not a valid past date", dateStr)
	}

	// Verification character, deliberately last.
	if rfcCheckChar(runes[:len(runes)-1]) != runes[len(runes)-1] {
		return parseErr(KindRFC, ReasonCheckDigit, "check character mismatch")
	}
	return nil
}

// rfcCentury resolves the two-digit year: 00-29 are read as 2000s. The RFC
// carries no century marker, so a fixed pivot keeps validation deterministic.
func rfcCentury(date string) int {
	yy := int(date[0]-'0')*10 + int(date[1]-'0')
	if yy <= 29 {
		return 2000
	}
	return 1900
}

// rfcCheckChar computes the mod-11 verification character over the 12
// characters preceding it; 12-character RFCs are padded with a leading space.
func rfcCheckChar(prefix []rune) rune {
	padded := prefix
	if len(padded) == 11 {
		padded = append([]rune{' '}, padded...)
	}
	sum := 0
	for i, r := range padded {
		sum += rfcAlphabetValue(r) * (13 - i)
	}
	switch d := 11 - sum%11; d {
	case 11:
		return '0'
	case 10:
		return 'A'
	default:
		return rune('0' + d)
	}
}

func rfcAlphabetValue(r rune) int {
	for i, a := range rfcCheckAlphabet {
		if a == r {
			return i
		}
	}
	return 0
}

// String returns the normalized value without separators.
func (r RFC) String() string { return r.value }

// Formatted returns the conventional grouped form, e.g. "GODE 561231 GR8".
func (r RFC) Formatted() string {
	runes := []rune(r.value)
	nameLen := len(runes) - 9
	return string(runes[:nameLen]) + " " + string(runes[nameLen:nameLen+6]) + " " + string(runes[nameLen+6:])
}

// IsPersonaMoral reports whether the RFC belongs to a legal entity.
func (r RFC) IsPersonaMoral() bool { return len([]rune(r.value)) == rfcLengthMoral }

// Date returns the embedded birth or incorporation date.
func (r RFC) Date() time.Time {
	runes := []rune(r.value)
	nameLen := len(runes) - 9
	dateStr := string(runes[nameLen : nameLen+6])
	date, _ := parseYYMMDD(dateStr, rfcCentury(dateStr), time.Date(2200, 1, 1, 0, 0, 0, 0, time.UTC))
	return date
}
