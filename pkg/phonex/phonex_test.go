package phonex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeEquivalentForms(t *testing.T) {
	t.Parallel()

	// The same underlying number in different textual forms must produce
	// the same E.164.
	inputs := []struct {
		raw  string
		hint string
	}{
		{"+91 98765 43210", ""},
		{"+91-98765-43210", "+91"},
		{"9876543210", "+91"},
		{"(98765) 43210", "+91"},
		{"+919876543210", "+1"},
	}

	for _, in := range inputs {
		n, err := Normalize(in.raw, in.hint)
		require.NoError(t, err, "raw=%q", in.raw)
		require.Equal(t, "+919876543210", n.E164, "raw=%q", in.raw)
	}
}

func TestNormalizeDerivedForms(t *testing.T) {
	t.Parallel()

	n, err := Normalize("+91 98765 43210", "")
	require.NoError(t, err)

	require.Equal(t, "+919876543210", n.E164)
	require.Equal(t, "919876543210", n.AllDigits)
	require.Equal(t, "9876543210", n.LocalDigits)
	require.Equal(t, "+919876543210", n.Clean)
	require.Equal(t, "+91", n.CountryCode())
}

func TestNormalizeDefaultsHint(t *testing.T) {
	t.Parallel()

	n, err := Normalize("9876543210", "")
	require.NoError(t, err)
	require.Equal(t, "+919876543210", n.E164)

	// Malformed hints fall back to the default too.
	n, err = Normalize("9876543210", "91")
	require.NoError(t, err)
	require.Equal(t, "+919876543210", n.E164)
}

func TestNormalizeUSNumber(t *testing.T) {
	t.Parallel()

	n, err := Normalize("(202) 555-0143", "+1")
	require.NoError(t, err)
	require.Equal(t, "+12025550143", n.E164)
	require.Equal(t, "12025550143", n.AllDigits)
	require.Equal(t, "2025550143", n.LocalDigits)
}

func TestNormalizePrefixTableOrder(t *testing.T) {
	t.Parallel()

	// +49 precedes +4 in the table, so German numbers strip the full
	// calling code rather than a partial one.
	n, err := Normalize("+49 30 901820", "")
	require.NoError(t, err)
	require.Equal(t, "+4930901820", n.E164)
	require.Equal(t, "30901820", n.LocalDigits)
}

func TestNormalizeUnlistedCallingCode(t *testing.T) {
	t.Parallel()

	// +7 is not in the prefix table; the local form degrades to the full
	// digit string.
	n, err := Normalize("+74957556983", "")
	require.NoError(t, err)
	require.Equal(t, n.AllDigits, n.LocalDigits)
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "   ", "abc", "12ab34", "123", "+"} {
		_, err := Normalize(raw, "+91")
		require.ErrorIs(t, err, ErrInvalidNumber, "raw=%q", raw)
	}
}
