package postgres

import (
	"testing"

	"github.com/proskill/portal-auth/internal/auth/roster"
	"github.com/proskill/portal-auth/pkg/phonex"
	"github.com/stretchr/testify/require"
)

func TestBuildQueryRendersOperatorsAndBinds(t *testing.T) {
	t.Parallel()

	d := New(DefaultConfig(""), nil)

	preds := []roster.Predicate{
		{Field: roster.FieldPhoneE164, Op: roster.OpExact, Value: "+919876543210"},
		{Field: roster.FieldPhone, Op: roster.OpAnchored, Value: "98765 43210"},
		{Field: roster.FieldPhoneDigits, Op: roster.OpSuffix, Value: "9876543210"},
	}

	query, args := d.buildQuery(preds)

	require.Contains(t, query, "FROM students")
	require.Contains(t, query, "phone_e164 = $1")
	require.Contains(t, query, "phone ~ $2")
	require.Contains(t, query, "phone_digits ~ $3")
	require.Contains(t, query, "ORDER BY id")
	require.Contains(t, query, "LIMIT 1")

	require.Equal(t, []any{
		"+919876543210",
		`^98765 43210\s*$`,
		"9876543210$",
	}, args)
}

func TestBuildQueryUsesConfiguredTable(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig("")
	cfg.Table = "roster_imports"
	d := New(cfg, nil)

	n, err := phonex.Normalize("+91 98765 43210", "")
	require.NoError(t, err)

	query, args := d.buildQuery(roster.BuildPredicates(n))

	require.Contains(t, query, "FROM roster_imports")
	require.NotEmpty(t, args)
}
