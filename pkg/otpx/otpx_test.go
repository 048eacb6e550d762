package otpx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateCodeShape(t *testing.T) {
	t.Parallel()

	seen := map[string]struct{}{}
	for range 32 {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, CodeLength)
		require.True(t, ValidFormat(code))
		seen[code] = struct{}{}
	}

	// 32 draws from a million-code space colliding down to one value would
	// mean the generator is broken.
	require.Greater(t, len(seen), 1)
}

func TestHashAndVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	hash, err := HashCode("042719")
	require.NoError(t, err)
	require.NotEqual(t, "042719", hash)

	require.True(t, VerifyCode("042719", hash))
	require.False(t, VerifyCode("042718", hash))
	require.False(t, VerifyCode("", hash))
}

func TestVerifyCodeRejectsGarbageHash(t *testing.T) {
	t.Parallel()

	require.False(t, VerifyCode("042719", ""))
	require.False(t, VerifyCode("042719", "not-a-bcrypt-hash"))
}

func TestValidFormat(t *testing.T) {
	t.Parallel()

	require.True(t, ValidFormat("000000"))
	require.False(t, ValidFormat("00000"))
	require.False(t, ValidFormat("0000000"))
	require.False(t, ValidFormat("12345a"))
	require.False(t, ValidFormat(""))
}
