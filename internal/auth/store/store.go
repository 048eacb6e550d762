package store

import (
	"context"
	"errors"
	"time"

	"github.com/proskill/portal-auth/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for
// now) implement this. It exposes sub-repositories to keep concerns tidy
// and testable.
type Store interface {
	Accounts() Accounts

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. This is the
	// recommended way to handle multi-step mutations (e.g. verify + clear
	// challenge + registration).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	// GetByID returns an account by id.
	GetByID(ctx context.Context, id string) (domain.Account, error)

	// GetByPhone returns an account by its canonical E.164 number.
	GetByPhone(ctx context.Context, fullPhoneNumber string) (domain.Account, error)

	// Create inserts a new account (id is provided by app via ULID).
	Create(ctx context.Context, a domain.Account) error

	// SetChallenge stores a fresh OTP hash and expiry, overwriting any
	// outstanding challenge.
	SetChallenge(ctx context.Context, accountID, otpHash string, expiresAt time.Time) error

	// ClearChallenge removes the OTP hash and expiry unconditionally.
	ClearChallenge(ctx context.Context, accountID string) error

	// MarkVerified flips is_verified and records the login time.
	MarkVerified(ctx context.Context, accountID string, at time.Time) error

	// CompleteRegistration records first-login registration: display name
	// fallback, default preferences, and the registration timestamp.
	CompleteRegistration(ctx context.Context, accountID, firstName string, prefs domain.Preferences, at time.Time) error

	// UpdateFirstName sets the display name when a later roster match fills
	// a blank profile.
	UpdateFirstName(ctx context.Context, accountID, firstName string) error

	// UpdateLastLogin records a successful login.
	UpdateLastLogin(ctx context.Context, accountID string, at time.Time) error

	// UpdateLastLogout records a logout and clears last_login.
	UpdateLastLogout(ctx context.Context, accountID string, at time.Time) error

	// IncrementTokenGeneration atomically bumps the generation counter and
	// returns the new value. The increment must be a single statement so
	// concurrent revocations cannot lose updates.
	IncrementTokenGeneration(ctx context.Context, accountID string) (int64, error)

	// Deactivate soft-deletes the account and bumps the generation in the
	// same statement so existing sessions die with it.
	Deactivate(ctx context.Context, accountID string) error

	// PurgeExpiredChallenges clears OTP hashes whose expiry has passed and
	// returns the number of rows touched. Verification already rejects
	// stale codes; this just stops dead hashes accumulating.
	PurgeExpiredChallenges(ctx context.Context, now time.Time) (int64, error)
}
