package roster

import (
	"testing"

	"github.com/proskill/portal-auth/pkg/phonex"
	"github.com/stretchr/testify/require"
)

func TestBuildPredicatesCoversAllVariants(t *testing.T) {
	t.Parallel()

	n, err := phonex.Normalize("+91 98765 43210", "")
	require.NoError(t, err)

	preds := BuildPredicates(n)

	require.Contains(t, preds, Predicate{FieldPhoneE164, OpExact, "+919876543210"})
	require.Contains(t, preds, Predicate{FieldPhoneDigits, OpExact, "919876543210"})
	require.Contains(t, preds, Predicate{FieldPhone, OpExact, "9876543210"})
	require.Contains(t, preds, Predicate{FieldPhoneRaw, OpExact, "9876543210"})
	require.Contains(t, preds, Predicate{FieldPhone, OpSuffix, "9876543210"})
	require.Contains(t, preds, Predicate{FieldPhoneRaw, OpSuffix, "9876543210"})
	require.Contains(t, preds, Predicate{FieldPhoneDigits, OpSuffix, "9876543210"})
}

func TestBuildPredicatesDeduplicates(t *testing.T) {
	t.Parallel()

	// A plain national number makes the typed, digits-only, and local
	// variants identical; the OR-set must not repeat them.
	n, err := phonex.Normalize("9876543210", "+91")
	require.NoError(t, err)

	preds := BuildPredicates(n)

	seen := map[Predicate]int{}
	for _, p := range preds {
		seen[p]++
		require.Equal(t, 1, seen[p], "duplicate predicate %+v", p)
		require.NotEmpty(t, p.Value)
	}
}

func TestPredicatePatternEscapesRegexMeta(t *testing.T) {
	t.Parallel()

	p := Predicate{FieldPhone, OpAnchored, "+91(98)"}
	require.Equal(t, `^\+91\(98\)\s*$`, p.Pattern())

	p = Predicate{FieldPhoneDigits, OpSuffix, "43210"}
	require.Equal(t, "43210$", p.Pattern())
}

func TestPredicatePatternExactPassesThrough(t *testing.T) {
	t.Parallel()

	p := Predicate{FieldPhone, OpExact, "+919876543210"}
	require.Equal(t, "+919876543210", p.Pattern())
}
