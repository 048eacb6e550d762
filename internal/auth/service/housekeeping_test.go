package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHousekeepingPurgesExpiredChallenges(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.otp.RequestChallenge(ctx, testPhone, "")
	require.NoError(t, err)

	account, err := env.store.Accounts().GetByPhone(ctx, testE164)
	require.NoError(t, err)
	require.NoError(t, env.store.Accounts().SetChallenge(ctx, account.ID, *account.OTPHash, time.Now().Add(-time.Minute)))

	hk := NewHousekeepingService(env.store, slog.New(slog.NewTextHandler(io.Discard, nil)), time.Hour)
	hk.Start()
	hk.Stop()

	account, err = env.store.Accounts().GetByPhone(ctx, testE164)
	require.NoError(t, err)
	require.False(t, account.HasPendingChallenge())
}
