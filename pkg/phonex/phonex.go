// Package phonex canonicalizes raw phone numbers into a single comparable
// international form plus the auxiliary representations needed for fuzzy
// roster matching.
package phonex

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// ErrInvalidNumber reports input that cannot be parsed into a plausible
// phone number.
var ErrInvalidNumber = errors.New("phonex: invalid phone number")

// DefaultCountryCode is assumed when the caller supplies no hint.
const DefaultCountryCode = "+91"

// callingCodePrefixes is a small fixed table of well-known calling codes
// used to derive the local (national) variant of an E.164 number. First
// match in table order wins. Numbers from calling codes outside the table
// keep the unstripped E.164 digits as their local form; this is a known
// limitation, not a country-code database.
var callingCodePrefixes = []string{
	"+49", "+91", "+1", "+44", "+33", "+86", "+81", "+55", "+61",
}

var (
	separators = strings.NewReplacer(" ", "", "\t", "", "-", "", "(", "", ")", "")
	nonDigits  = regexp.MustCompile(`\D`)
	hintForm   = regexp.MustCompile(`^\+\d{1,3}$`)
)

// Number is the canonical form of a phone number.
type Number struct {
	// E164 is the canonical international form, e.g. "+919876543210".
	E164 string

	// AllDigits is E164 with every non-digit stripped, e.g. "919876543210".
	AllDigits string

	// LocalDigits is AllDigits with the calling code removed when it
	// appears in the fixed prefix table, e.g. "9876543210". Equal to
	// AllDigits otherwise.
	LocalDigits string

	// Clean is the input with separator characters removed, preserved for
	// matching against roster records stored as entered by a third party.
	Clean string
}

// CountryCode returns the calling code portion of the number ("+91") when
// it was recognized from the prefix table, "" otherwise.
func (n Number) CountryCode() string {
	if len(n.AllDigits) > len(n.LocalDigits) {
		return "+" + n.AllDigits[:len(n.AllDigits)-len(n.LocalDigits)]
	}
	return ""
}

// Normalize canonicalizes raw plus a country code hint. It prefers a full
// international-number parse and falls back to a positional split when the
// parser cannot validate the input.
func Normalize(raw, countryCodeHint string) (Number, error) {
	clean := separators.Replace(strings.TrimSpace(raw))
	if clean == "" {
		return Number{}, ErrInvalidNumber
	}

	hint := strings.TrimSpace(countryCodeHint)
	if !hintForm.MatchString(hint) {
		hint = DefaultCountryCode
	}

	body := strings.TrimPrefix(clean, "+")
	if body == "" || nonDigits.MatchString(body) {
		return Number{}, ErrInvalidNumber
	}

	full := clean
	if !strings.HasPrefix(clean, "+") {
		full = hint + clean
	}

	e164, ok := parseE164(full, hint)
	if !ok {
		e164, ok = fallbackE164(clean, hint)
		if !ok {
			return Number{}, ErrInvalidNumber
		}
	}

	allDigits := nonDigits.ReplaceAllString(e164, "")

	localDigits := allDigits
	for _, cc := range callingCodePrefixes {
		if strings.HasPrefix(e164, cc) {
			localDigits = e164[len(cc):]
			break
		}
	}

	return Number{
		E164:        e164,
		AllDigits:   allDigits,
		LocalDigits: nonDigits.ReplaceAllString(localDigits, ""),
		Clean:       clean,
	}, nil
}

// parseE164 runs the full libphonenumber parse, using the hint's region as
// parsing context.
func parseE164(full, hint string) (string, bool) {
	region := ""
	if cc, err := strconv.Atoi(strings.TrimPrefix(hint, "+")); err == nil {
		region = phonenumbers.GetRegionCodeForCountryCode(cc)
	}

	num, err := phonenumbers.Parse(full, region)
	if err != nil {
		return "", false
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", false
	}
	return phonenumbers.Format(num, phonenumbers.E164), true
}

// fallbackE164 handles inputs the parser rejects: a leading + is taken at
// face value, otherwise the hint is prepended to the trailing 10 digits.
func fallbackE164(clean, hint string) (string, bool) {
	if strings.HasPrefix(clean, "+") {
		digits := clean[1:]
		// 1-3 digit calling code plus a national number.
		if len(digits) < 8 || len(digits) > 15 {
			return "", false
		}
		return "+" + digits, true
	}

	if len(clean) < 10 {
		return "", false
	}
	return hint + clean[len(clean)-10:], true
}
