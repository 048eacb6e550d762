package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/proskill/portal-auth/internal/auth/domain"
	"github.com/proskill/portal-auth/internal/auth/store"
)

type accountsRepo struct {
	db querier
}

const accountColumns = `id, phone_number, country_code, full_phone_number,
	is_verified, is_active, otp_hash, otp_expires_at, token_generation,
	first_name, last_name, email, place, language, notifications,
	last_login, last_logout, registered_at, created_at, updated_at`

func (r *accountsRepo) GetByID(ctx context.Context, id string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (r *accountsRepo) GetByPhone(ctx context.Context, fullPhoneNumber string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE full_phone_number = ?`, fullPhoneNumber)
	return scanAccount(row)
}

func (r *accountsRepo) Create(ctx context.Context, a domain.Account) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (
			id, phone_number, country_code, full_phone_number,
			is_verified, is_active, token_generation,
			first_name, last_name, email, place, language, notifications,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.PhoneNumber, a.CountryCode, a.FullPhoneNumber,
		a.IsVerified, a.IsActive, a.TokenGeneration,
		a.Profile.FirstName, a.Profile.LastName, a.Profile.Email, a.Profile.Place,
		a.Preferences.Language, a.Preferences.Notifications,
		now, now,
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *accountsRepo) SetChallenge(ctx context.Context, accountID, otpHash string, expiresAt time.Time) error {
	return r.exec(ctx, `
		UPDATE accounts
		SET otp_hash = ?, otp_expires_at = ?, updated_at = ?
		WHERE id = ?`,
		otpHash, expiresAt.UTC(), time.Now().UTC(), accountID)
}

func (r *accountsRepo) ClearChallenge(ctx context.Context, accountID string) error {
	return r.exec(ctx, `
		UPDATE accounts
		SET otp_hash = NULL, otp_expires_at = NULL, updated_at = ?
		WHERE id = ?`,
		time.Now().UTC(), accountID)
}

func (r *accountsRepo) MarkVerified(ctx context.Context, accountID string, at time.Time) error {
	return r.exec(ctx, `
		UPDATE accounts
		SET is_verified = 1, last_login = ?, updated_at = ?
		WHERE id = ?`,
		at.UTC(), time.Now().UTC(), accountID)
}

func (r *accountsRepo) CompleteRegistration(
	ctx context.Context,
	accountID, firstName string,
	prefs domain.Preferences,
	at time.Time,
) error {
	return r.exec(ctx, `
		UPDATE accounts
		SET first_name = ?, language = ?, notifications = ?,
		    registered_at = ?, updated_at = ?
		WHERE id = ?`,
		firstName, prefs.Language, prefs.Notifications,
		at.UTC(), time.Now().UTC(), accountID)
}

func (r *accountsRepo) UpdateFirstName(ctx context.Context, accountID, firstName string) error {
	return r.exec(ctx, `
		UPDATE accounts SET first_name = ?, updated_at = ? WHERE id = ?`,
		firstName, time.Now().UTC(), accountID)
}

func (r *accountsRepo) UpdateLastLogin(ctx context.Context, accountID string, at time.Time) error {
	return r.exec(ctx, `
		UPDATE accounts SET last_login = ?, updated_at = ? WHERE id = ?`,
		at.UTC(), time.Now().UTC(), accountID)
}

func (r *accountsRepo) UpdateLastLogout(ctx context.Context, accountID string, at time.Time) error {
	return r.exec(ctx, `
		UPDATE accounts
		SET last_logout = ?, last_login = NULL, updated_at = ?
		WHERE id = ?`,
		at.UTC(), time.Now().UTC(), accountID)
}

// IncrementTokenGeneration is a single-statement atomic bump so concurrent
// revocations never lose updates.
func (r *accountsRepo) IncrementTokenGeneration(ctx context.Context, accountID string) (int64, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE accounts
		SET token_generation = token_generation + 1, updated_at = ?
		WHERE id = ?
		RETURNING token_generation`,
		time.Now().UTC(), accountID)

	var gen int64
	if err := row.Scan(&gen); err != nil {
		return 0, mapNotFound(err)
	}
	return gen, nil
}

// Deactivate flips the soft-delete flag and bumps the generation in the
// same statement so existing sessions die with the account.
func (r *accountsRepo) Deactivate(ctx context.Context, accountID string) error {
	return r.exec(ctx, `
		UPDATE accounts
		SET is_active = 0, token_generation = token_generation + 1, updated_at = ?
		WHERE id = ?`,
		time.Now().UTC(), accountID)
}

func (r *accountsRepo) PurgeExpiredChallenges(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET otp_hash = NULL, otp_expires_at = NULL, updated_at = ?
		WHERE otp_expires_at IS NOT NULL AND otp_expires_at <= ?`,
		time.Now().UTC(), now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *accountsRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanAccount(row *sql.Row) (domain.Account, error) {
	var (
		a            domain.Account
		otpHash      sql.NullString
		otpExpiresAt sql.NullTime
		lastLogin    sql.NullTime
		lastLogout   sql.NullTime
		registeredAt sql.NullTime
	)

	err := row.Scan(
		&a.ID, &a.PhoneNumber, &a.CountryCode, &a.FullPhoneNumber,
		&a.IsVerified, &a.IsActive, &otpHash, &otpExpiresAt, &a.TokenGeneration,
		&a.Profile.FirstName, &a.Profile.LastName, &a.Profile.Email, &a.Profile.Place,
		&a.Preferences.Language, &a.Preferences.Notifications,
		&lastLogin, &lastLogout, &registeredAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}

	a.OTPHash = mapNullStringPtr(otpHash)
	a.OTPExpiresAt = mapNullTimePtr(otpExpiresAt)
	a.LastLogin = mapNullTimePtr(lastLogin)
	a.LastLogout = mapNullTimePtr(lastLogout)
	a.RegisteredAt = mapNullTimePtr(registeredAt)
	return a, nil
}
