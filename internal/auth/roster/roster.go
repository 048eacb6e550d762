// Package roster abstracts the externally managed student directory the
// login flow matches verifying phone numbers against. The directory is
// read-only, loosely structured, and populated by third parties, so a
// single number may be stored in any of several textual conventions.
package roster

import (
	"context"
	"regexp"
	"strings"

	"github.com/proskill/portal-auth/internal/auth/domain"
	"github.com/proskill/portal-auth/pkg/phonex"
)

// Directory is the read-side contract against the roster. FindByPhone
// returns (nil, nil) when no record matches; the driver reports store
// errors and leaves fail-soft recovery to the caller.
type Directory interface {
	FindByPhone(ctx context.Context, n phonex.Number) (*domain.StudentRecord, error)
	Close()
}

// Field names a roster phone column a predicate compares against.
type Field string

const (
	FieldPhone       Field = "phone"
	FieldPhoneRaw    Field = "phone_raw"
	FieldPhoneE164   Field = "phone_e164"
	FieldPhoneDigits Field = "phone_digits"
)

// Op is the comparison operator for a predicate.
type Op int

const (
	// OpExact is string equality.
	OpExact Op = iota
	// OpAnchored matches the whole value tolerating incidental trailing
	// whitespace stored upstream (^value\s*$).
	OpAnchored
	// OpSuffix matches values stored with inconsistent leading-zero or
	// country-code conventions (value$).
	OpSuffix
)

// Predicate is one comparison in the OR-set sent to the directory.
type Predicate struct {
	Field Field
	Op    Op
	Value string
}

// Pattern renders the regex form for OpAnchored/OpSuffix predicates. The
// value is escaped against injection into the store's query language.
func (p Predicate) Pattern() string {
	switch p.Op {
	case OpAnchored:
		return "^" + regexp.QuoteMeta(p.Value) + `\s*$`
	case OpSuffix:
		return regexp.QuoteMeta(p.Value) + "$"
	default:
		return p.Value
	}
}

var nonDigits = regexp.MustCompile(`\D`)

// BuildPredicates expands a normalized number into the prioritized set of
// equivalent search predicates. Construction order mirrors the matching
// conventions seen in roster imports; the directory evaluates the set as a
// logical OR, so order is not match priority. Empty values are dropped and
// duplicate (field, op, value) triples are de-duplicated.
func BuildPredicates(n phonex.Number) []Predicate {
	clean := strings.TrimSpace(n.Clean)
	cleanDigits := nonDigits.ReplaceAllString(clean, "")
	local := n.LocalDigits

	candidates := []Predicate{
		// 1. Canonical representations.
		{FieldPhoneE164, OpExact, n.E164},
		{FieldPhoneDigits, OpExact, n.AllDigits},

		// 2. The number as the caller typed it.
		{FieldPhone, OpExact, clean},
		{FieldPhoneRaw, OpExact, clean},

		// 3. Local (calling-code-stripped) variants.
		{FieldPhone, OpExact, local},
		{FieldPhoneRaw, OpExact, local},

		// Digits-only of the typed form.
		{FieldPhone, OpExact, cleanDigits},
		{FieldPhoneRaw, OpExact, cleanDigits},
		{FieldPhoneDigits, OpExact, cleanDigits},

		// 4. Anchored matches tolerate trailing whitespace upstream.
		{FieldPhone, OpAnchored, clean},
		{FieldPhoneRaw, OpAnchored, clean},
		{FieldPhone, OpAnchored, local},
		{FieldPhoneRaw, OpAnchored, local},
		{FieldPhone, OpAnchored, cleanDigits},
		{FieldPhoneRaw, OpAnchored, cleanDigits},

		// 5. Suffix matches tolerate legacy leading zeros and stray
		// country-code prefixes.
		{FieldPhone, OpSuffix, local},
		{FieldPhoneRaw, OpSuffix, local},
		{FieldPhoneDigits, OpSuffix, local},
	}

	seen := make(map[Predicate]struct{}, len(candidates))
	out := make([]Predicate, 0, len(candidates))
	for _, p := range candidates {
		if strings.TrimSpace(p.Value) == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
