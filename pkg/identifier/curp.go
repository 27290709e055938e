package identifier

import (
	"time"
)

const curpLength = 18

// curpCheckAlphabet maps each character to its value for the verification
// digit: position in the string is the value (base-37 including Ñ).
var curpCheckAlphabet = []rune("0123456789ABCDEFGHIJKLMNÑOPQRSTUVWXYZ")

// curpStateCodes is the RENAPO two-letter federative entity catalog,
// including NE for citizens born abroad.
var curpStateCodes = map[string]struct{}{
	"AS": {}, "BC": {}, "BS": {}, "CC": {}, "CL": {}, "CM": {}, "CS": {},
	"CH": {}, "DF": {}, "DG": {}, "GT": {}, "GR": {}, "HG": {}, "JC": {},
	"MC": {}, "MN": {}, "MS": {}, "NT": {}, "NL": {}, "OC": {}, "PL": {},
	"QT": {}, "QR": {}, "SP": {}, "SL": {}, "SR": {}, "TC": {}, "TS": {},
	"TL": {}, "VZ": {}, "YN": {}, "ZS": {}, "NE": {},
}

// curpInconvenientWords are four-letter prefixes RENAPO never issues; the
// registry substitutes X for the offending vowel. A raw value carrying one
// of these cannot be an issued CURP.
var curpInconvenientWords = map[string]struct{}{
	"BACA": {}, "BAKA": {}, "BUEI": {}, "BUEY": {}, "CACA": {}, "CACO": {},
	"CAGA": {}, "CAGO": {}, "CAKA": {}, "CAKO": {}, "COGE": {}, "COGI": {},
	"COJA": {}, "COJE": {}, "COJI": {}, "COJO": {}, "COLA": {}, "CULO": {},
	"FALO": {}, "FETO": {}, "GETA": {}, "GUEI": {}, "GUEY": {}, "JETA": {},
	"JOTO": {}, "KACA": {}, "KACO": {}, "KAGA": {}, "KAGO": {}, "KAKA": {},
	"KAKO": {}, "KOGE": {}, "KOGI": {}, "KOJA": {}, "KOJE": {}, "KOJI": {},
	"KOJO": {}, "KOLA": {}, "KULO": {}, "LILO": {}, "LOCA": {}, "LOCO": {},
	"LOKA": {}, "LOKO": {}, "MAME": {}, "MAMO": {}, "MEAR": {}, "MEAS": {},
	"MEON": {}, "MIAR": {}, "MION": {}, "MOCO": {}, "MOKO": {}, "MULA": {},
	"MULO": {}, "NACA": {}, "NACO": {}, "PEDA": {}, "PEDO": {}, "PENE": {},
	"PIPI": {}, "PITO": {}, "POPO": {}, "PUTA": {}, "PUTO": {}, "QULO": {},
	"RATA": {}, "ROBA": {}, "ROBE": {}, "ROBO": {}, "RUIN": {}, "SENO": {},
	"TETA": {}, "VACA": {}, "VAGA": {}, "VAGO": {}, "VAKA": {}, "VUEI": {},
	"VUEY": {}, "WUEI": {}, "WUEY": {},
}

// CURP is a validated 18-character population registry key. The zero value
// is not valid; construct through ParseCURP.
type CURP struct {
	value string
}

// ParseCURP validates raw against the current time. See ParseCURPAt.
func ParseCURP(raw string) (CURP, error) {
	return ParseCURPAt(raw, time.Now())
}

// ParseCURPAt validates raw as a CURP, treating at as the evaluation
// instant for the embedded birth date.
func ParseCURPAt(raw string, at time.Time) (CURP, error) {
	normalized := normalize(raw, false)
	if err := checkCURP(normalized, at); err != nil {
		return CURP{}, err
	}
	return CURP{value: normalized}, nil
}

// IsValidCURPAt screens raw without constructing an instance.
func IsValidCURPAt(raw string, at time.Time) bool {
	return checkCURP(normalize(raw, false), at) == nil
}

// IsValidCURP screens raw against the current time.
func IsValidCURP(raw string) bool {
	return IsValidCURPAt(raw, time.Now())
}

func checkCURP(s string, at time.Time) error {
	if s == "" {
		return parseErr(KindCURP, ReasonEmpty, "value is empty")
	}
	runes := []rune(s)
	if len(runes) != curpLength {
		return parseErr(KindCURP, ReasonLength, "expected %d characters, got %d", curpLength, len(runes))
	}

	// Positional character classes: surname initial + vowel + two initials,
	// six date digits, sex marker, state code, three internal consonants,
	// homonymy character, check digit.
	if !isUpperLetter(runes[0]) || !isVowel(runes[1]) || !isUpperLetter(runes[2]) || !isUpperLetter(runes[3]) {
		return parseErr(KindCURP, ReasonMalformed, "name characters malformed")
	}
	for i := 4; i < 10; i++ {
		if !isDigit(runes[i]) {
			return parseErr(KindCURP, ReasonMalformed, "birth date must be six digits")
		}
	}
	if runes[10] != 'H' && runes[10] != 'M' {
		return parseErr(KindCURP, ReasonMalformed, "sex marker must be H or M")
	}
	if !isUpperLetter(runes[11]) || !isUpperLetter(runes[12]) {
		return parseErr(KindCURP, ReasonMalformed, "state code must be two letters")
	}
	for i := 13; i < 16; i++ {
		if !isConsonant(runes[i]) {
			return parseErr(KindCURP, ReasonMalformed, "internal consonants malformed")
		}
	}
	if !isDigit(runes[16]) && !(runes[16] >= 'A' && runes[16] <= 'Z') {
		return parseErr(KindCURP, ReasonMalformed, "homonymy character malformed")
	}
	if !isDigit(runes[17]) {
		return parseErr(KindCURP, ReasonMalformed, "check digit must be numeric")
	}
	if _, bad := curpInconvenientWords[string(runes[0:4])]; bad {
		return parseErr(KindCURP, ReasonMalformed, "prefix %s is not issuable", string(runes[0:4]))
	}

	// Embedded components.
	if _, ok := curpStateCodes[string(runes[11:13])]; !ok {
		return parseErr(KindCURP, ReasonComponent, "unknown state code %s", string(runes[11:13]))
	}
	if _, ok := parseYYMMDD(string(runes[4:10]), curpCentury(runes[16]), at); !ok {
		return parseErr(KindCURP, ReasonComponent, "embedded birth date %s is not a valid past date", string(runes[4:10]))
	}

	// Verification digit, deliberately last.
	if curpCheckDigit(runes[:17]) != runes[17] {
		return parseErr(KindCURP, ReasonCheckDigit, "check digit mismatch")
	}
	return nil
}

// curpCentury resolves the embedded date's century from the homonymy
// character: RENAPO assigns digits to births before 2000 and letters after.
func curpCentury(homonymy rune) int {
	if isDigit(homonymy) {
		return 1900
	}
	return 2000
}

func curpCheckDigit(prefix []rune) rune {
	sum := 0
	for i, r := range prefix {
		sum += curpAlphabetValue(r) * (18 - i)
	}
	return rune('0' + (10-sum%10)%10)
}

func curpAlphabetValue(r rune) int {
	for i, a := range curpCheckAlphabet {
		if a == r {
			return i
		}
	}
	return 0
}

// String returns the normalized 18-character value.
func (c CURP) String() string { return c.value }

// BirthDate returns the embedded birth date.
func (c CURP) BirthDate() time.Time {
	runes := []rune(c.value)
	date, _ := parseYYMMDD(string(runes[4:10]), curpCentury(runes[16]), time.Date(2200, 1, 1, 0, 0, 0, 0, time.UTC))
	return date
}

// Sex returns the sex marker, "H" or "M".
func (c CURP) Sex() string { return string([]rune(c.value)[10]) }

// StateCode returns the two-letter federative entity code.
func (c CURP) StateCode() string {
	runes := []rune(c.value)
	return string(runes[11:13])
}
