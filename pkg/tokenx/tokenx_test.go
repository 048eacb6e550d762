package tokenx

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()
	iss, err := NewIssuer([]byte("test-secret-0123456789"), "portal-auth-test")
	require.NoError(t, err)
	return iss
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	t.Parallel()

	_, err := NewIssuer(nil, "portal-auth-test")
	require.ErrorIs(t, err, ErrNoSecret)

	_, err = NewIssuer([]byte{}, "portal-auth-test")
	require.ErrorIs(t, err, ErrNoSecret)
}

func TestMintVerifyRoundTrip(t *testing.T) {
	t.Parallel()
	iss := newTestIssuer(t)

	token, err := iss.Mint("01J9ZQ4X5Y6Z7A8B9C0D1E2F3G", 3, time.Hour)
	require.NoError(t, err)

	sess, err := iss.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "01J9ZQ4X5Y6Z7A8B9C0D1E2F3G", sess.AccountID)
	require.EqualValues(t, 3, sess.Generation)
}

func TestVerifyRejectsExpired(t *testing.T) {
	t.Parallel()
	iss := newTestIssuer(t)

	expired, err := iss.Mint("01J9ZQ4X5Y6Z7A8B9C0D1E2F3G", 0, time.Millisecond)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = iss.Verify(expired)
	require.ErrorIs(t, err, ErrExpired)
}

func TestVerifyRejectsTampering(t *testing.T) {
	t.Parallel()
	iss := newTestIssuer(t)

	token, err := iss.Mint("01J9ZQ4X5Y6Z7A8B9C0D1E2F3G", 1, time.Hour)
	require.NoError(t, err)

	// Flip the signature segment.
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	_, err = iss.Verify(tampered)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	a := newTestIssuer(t)
	b, err := NewIssuer([]byte("a-different-secret-value"), "portal-auth-test")
	require.NoError(t, err)

	token, err := b.Mint("01J9ZQ4X5Y6Z7A8B9C0D1E2F3G", 0, time.Hour)
	require.NoError(t, err)

	_, err = a.Verify(token)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyRejectsMalformed(t *testing.T) {
	t.Parallel()
	iss := newTestIssuer(t)

	for _, raw := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		_, err := iss.Verify(raw)
		require.ErrorIs(t, err, ErrMalformed, "raw=%q", raw)
	}
}
