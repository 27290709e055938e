package identifier

const nssLength = 11

// nssSubdelegationValid reports whether the two leading digits form an
// assigned IMSS subdelegation code. The catalog runs 01 through 97; 00, 98,
// and 99 have never been assigned.
func nssSubdelegationValid(code string) bool {
	return code >= "01" && code <= "97"
}

// NSS is a validated 11-digit social security number. Construct through
// ParseNSS.
type NSS struct {
	value string
}

// ParseNSS validates raw as an NSS. Interior spaces and hyphens from the
// conventional grouped form are stripped before validation.
func ParseNSS(raw string) (NSS, error) {
	normalized := normalize(raw, true)
	if err := checkNSS(normalized); err != nil {
		return NSS{}, err
	}
	return NSS{value: normalized}, nil
}

// IsValidNSS screens raw without constructing an instance.
func IsValidNSS(raw string) bool {
	return checkNSS(normalize(raw, true)) == nil
}

func checkNSS(s string) error {
	if s == "" {
		return parseErr(KindNSS, ReasonEmpty, "value is empty")
	}
	if len(s) != nssLength {
		return parseErr(KindNSS, ReasonLength, "expected %d digits, got %d", nssLength, len(s))
	}
	if !allDigits(s) {
		return parseErr(KindNSS, ReasonMalformed, "must be digits only")
	}
	if !nssSubdelegationValid(s[0:2]) {
		return parseErr(KindNSS, ReasonComponent, "unassigned subdelegation code %s", s[0:2])
	}
	if nssCheckDigit(s[:10]) != rune(s[10]) {
		return parseErr(KindNSS, ReasonCheckDigit, "check digit mismatch")
	}
	return nil
}

// nssCheckDigit computes the Luhn digit over the first ten digits.
func nssCheckDigit(prefix string) rune {
	sum := 0
	for i := 0; i < len(prefix); i++ {
		v := int(prefix[i] - '0')
		if i%2 == 1 {
			v *= 2
			if v > 9 {
				v -= 9
			}
		}
		sum += v
	}
	return rune('0' + (10-sum%10)%10)
}

// String returns the normalized 11-digit value.
func (n NSS) String() string { return n.value }

// Formatted returns the conventional grouped form "12-34-56-7890-1".
func (n NSS) Formatted() string {
	return n.value[0:2] + "-" + n.value[2:4] + "-" + n.value[4:6] + "-" + n.value[6:10] + "-" + n.value[10:]
}

// SubdelegationCode returns the two-digit IMSS subdelegation of enrollment.
func (n NSS) SubdelegationCode() string { return n.value[0:2] }

// EnrollmentYear returns the two embedded enrollment-year digits.
func (n NSS) EnrollmentYear() string { return n.value[2:4] }

// BirthYear returns the two embedded birth-year digits.
func (n NSS) BirthYear() string { return n.value[4:6] }
