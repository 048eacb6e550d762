package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/proskill/portal-auth/internal/auth/domain"
	"github.com/proskill/portal-auth/internal/auth/store"
	"github.com/proskill/portal-auth/pkg/idx"
	"github.com/proskill/portal-auth/pkg/slogx"
	"github.com/proskill/portal-auth/pkg/tokenx"
)

var (
	// ErrInvalidSession covers tokens that fail verification outright:
	// malformed, expired, bad signature, or a subject that is not an
	// account id.
	ErrInvalidSession = errors.New("invalid_session")

	// ErrSessionRevoked means the token was once valid but its generation
	// has been superseded by a logout, force logout, or deactivation.
	ErrSessionRevoked = errors.New("session_revoked")
)

// SessionService validates session tokens and revokes them. Revocation is a
// generation counter on the account row: a token carries the generation it
// was minted at and dies the moment the counter moves past it. There is no
// blocklist to maintain and revocation applies to every outstanding token
// at once.
type SessionService struct {
	Store  store.Store
	Tokens *tokenx.Issuer
}

// Authorize verifies the token and loads its account, re-checking the
// generation on every call so revocation takes effect immediately.
func (s *SessionService) Authorize(ctx context.Context, token string) (domain.Account, error) {
	session, err := s.Tokens.Verify(token)
	if err != nil {
		return domain.Account{}, ErrInvalidSession
	}

	if _, err := idx.Parse(session.AccountID); err != nil {
		return domain.Account{}, ErrInvalidSession
	}

	account, err := s.Store.Accounts().GetByID(ctx, session.AccountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, ErrAccountNotFound
		}
		return domain.Account{}, err
	}

	if !account.IsActive {
		return domain.Account{}, ErrAccountDeactivated
	}
	if account.TokenGeneration != session.Generation {
		return domain.Account{}, ErrSessionRevoked
	}

	return account, nil
}

// Logout invalidates every session for the account and records the logout
// time.
func (s *SessionService) Logout(ctx context.Context, accountID string) error {
	now := time.Now().UTC()

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Accounts().IncrementTokenGeneration(ctx, accountID); err != nil {
			return err
		}
		return tx.Accounts().UpdateLastLogout(ctx, accountID, now)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAccountNotFound
		}
		return err
	}

	slogx.FromContext(ctx).Info("logged out", slog.String("account_id", accountID))
	return nil
}

// ForceLogout invalidates every session for the account and returns the new
// generation. Meant for support-initiated revocation; it does not touch the
// logout timestamp.
func (s *SessionService) ForceLogout(ctx context.Context, accountID string) (int64, error) {
	gen, err := s.Store.Accounts().IncrementTokenGeneration(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}

	slogx.FromContext(ctx).Info("sessions force revoked",
		slog.String("account_id", accountID),
		slog.Int64("generation", gen),
	)
	return gen, nil
}

// Deactivate soft-deletes the account. The generation bump rides in the
// same statement, so outstanding sessions die with the account.
func (s *SessionService) Deactivate(ctx context.Context, accountID string) error {
	if err := s.Store.Accounts().Deactivate(ctx, accountID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAccountNotFound
		}
		return err
	}

	slogx.FromContext(ctx).Info("account deactivated", slog.String("account_id", accountID))
	return nil
}
