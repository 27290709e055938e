// Package identifier implements the self-validating identifier types used in
// Mexican regulatory files: CURP (population registry), RFC (taxpayer),
// NSS (social security), and CLABE (standardized bank account).
//
// Each type offers Parse/ParseAt returning a validated value or a typed
// ParseError, and a non-allocating IsValid/IsValidAt predicate for batch
// screening. Checks run cheapest-first: emptiness, exact length, positional
// character classes, embedded components, and the verification digit last.
//
// Domain purity: ParseAt and IsValidAt never call time.Now; the evaluation
// instant is an argument so batch validation stays deterministic.
package identifier

import (
	"fmt"
	"strings"
	"time"
)

// Kind names an identifier type in errors and over the wire.
type Kind string

const (
	KindCURP  Kind = "curp"
	KindRFC   Kind = "rfc"
	KindNSS   Kind = "nss"
	KindCLABE Kind = "clabe"
)

// ParseKind maps a wire string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindCURP:
		return KindCURP, nil
	case KindRFC:
		return KindRFC, nil
	case KindNSS:
		return KindNSS, nil
	case KindCLABE:
		return KindCLABE, nil
	}
	return "", fmt.Errorf("unknown identifier kind %q", s)
}

// Reason classifies why an identifier failed to parse.
type Reason string

const (
	ReasonEmpty      Reason = "empty"
	ReasonLength     Reason = "wrong_length"
	ReasonMalformed  Reason = "malformed"
	ReasonComponent  Reason = "bad_component"
	ReasonCheckDigit Reason = "bad_check_digit"
)

// ParseError is the typed failure returned by the Parse constructors.
type ParseError struct {
	Kind    Kind
	Reason  Reason
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Reason, e.Message)
}

func parseErr(kind Kind, reason Reason, format string, args ...any) *ParseError {
	return &ParseError{Kind: kind, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// IsValidKind screens a raw value as the named kind without allocating.
func IsValidKind(kind Kind, raw string, at time.Time) bool {
	switch kind {
	case KindCURP:
		return IsValidCURPAt(raw, at)
	case KindRFC:
		return IsValidRFCAt(raw, at)
	case KindNSS:
		return IsValidNSS(raw)
	case KindCLABE:
		return IsValidCLABE(raw)
	}
	return false
}

// normalize trims the raw value and uppercases it. When stripSeparators is
// set, interior spaces and hyphens are removed first (formats that are
// conventionally written in groups).
func normalize(raw string, stripSeparators bool) string {
	s := strings.TrimSpace(raw)
	if stripSeparators {
		s = strings.Map(func(r rune) rune {
			if r == ' ' || r == '-' {
				return -1
			}
			return r
		}, s)
	}
	return strings.ToUpper(s)
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isUpperLetter(r rune) bool { return (r >= 'A' && r <= 'Z') || r == 'Ñ' }

func isVowel(r rune) bool {
	return r == 'A' || r == 'E' || r == 'I' || r == 'O' || r == 'U'
}

func isConsonant(r rune) bool { return isUpperLetter(r) && !isVowel(r) }

func allDigits(s string) bool {
	for _, r := range s {
		if !isDigit(r) {
			return false
		}
	}
	return true
}

func daysInMonth(year, month int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	case 2:
		if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
			return 29
		}
		return 28
	}
	return 0
}

// parseYYMMDD resolves a 6-digit embedded date against a century and checks
// it is a real calendar date no later than the evaluation instant.
func parseYYMMDD(s string, century int, at time.Time) (time.Time, bool) {
	if len(s) != 6 || !allDigits(s) {
		return time.Time{}, false
	}
	year := century + int(s[0]-'0')*10 + int(s[1]-'0')
	month := int(s[2]-'0')*10 + int(s[3]-'0')
	day := int(s[4]-'0')*10 + int(s[5]-'0')
	if month < 1 || month > 12 {
		return time.Time{}, false
	}
	if day < 1 || day > daysInMonth(year, month) {
		return time.Time{}, false
	}
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.After(at) {
		return time.Time{}, false
	}
	return date, true
}
