package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/proskill/portal-auth/internal/auth/domain"
	"github.com/proskill/portal-auth/internal/auth/sms"
	"github.com/proskill/portal-auth/internal/auth/store"
	"github.com/proskill/portal-auth/pkg/idx"
	"github.com/proskill/portal-auth/pkg/otpx"
	"github.com/proskill/portal-auth/pkg/phonex"
	"github.com/proskill/portal-auth/pkg/slogx"
	"github.com/proskill/portal-auth/pkg/tokenx"
)

const (
	// DefaultOTPTTL is how long an issued code stays verifiable.
	DefaultOTPTTL = 10 * time.Minute

	// fallbackFirstName is used when registration completes without a
	// usable roster name.
	fallbackFirstName = "User"
)

var (
	ErrInvalidPhone       = errors.New("invalid_phone_number")
	ErrOTPFormat          = errors.New("invalid_otp_format")
	ErrAccountNotFound    = errors.New("account_not_found")
	ErrAccountDeactivated = errors.New("account_deactivated")
	ErrSMSDelivery        = errors.New("sms_send_failed")

	// ErrOTPInvalid covers every verification failure an outsider could use
	// to probe which numbers hold accounts: unknown number, deactivated
	// account, no pending code, expired code, and wrong code all map here.
	ErrOTPInvalid = errors.New("invalid_or_expired_otp")
)

// ChallengeService issues and verifies phone OTP challenges. Verification
// doubles as login and, on a first successful code, registration.
type ChallengeService struct {
	Store    store.Store
	Sender   sms.Sender
	Resolver *ResolverService
	Tokens   *tokenx.Issuer

	// OTPTTL defaults to DefaultOTPTTL when zero.
	OTPTTL time.Duration

	// SessionTTL defaults to tokenx.DefaultSessionTTL when zero.
	SessionTTL time.Duration

	// DevCode, when set to a 6-digit string, replaces the random code.
	// Local development only; leave empty everywhere else.
	DevCode string
}

// Challenge reports an issued (or reissued) OTP challenge.
type Challenge struct {
	PhoneNumber string // national part as stored
	CountryCode string
	ExpiresAt   time.Time
	StudentName string // sanitized roster name, "" when unknown
}

// LoginResult is a successful verification.
type LoginResult struct {
	Token         string
	Account       domain.Account
	FirstLogin    bool
	RosterStudent bool
}

// RequestChallenge issues an OTP for the number, creating an account on
// first contact. SMS delivery failure fails the whole operation; the
// roster lookup for the greeting name never does.
func (s *ChallengeService) RequestChallenge(ctx context.Context, rawPhone, countryCodeHint string) (Challenge, error) {
	l := slogx.FromContext(ctx)

	n, err := phonex.Normalize(rawPhone, countryCodeHint)
	if err != nil {
		return Challenge{}, ErrInvalidPhone
	}

	// 1. Find or create the account for this number.
	account, err := s.loadOrCreateAccount(ctx, n)
	if err != nil {
		return Challenge{}, err
	}
	if !account.IsActive {
		return Challenge{}, ErrAccountDeactivated
	}

	// 2. Issue the code, overwriting any outstanding challenge.
	expiresAt, err := s.issue(ctx, account, n)
	if err != nil {
		return Challenge{}, err
	}

	// 3. Greeting name from the roster, best effort.
	name := DisplayName(s.Resolver.FindMatch(ctx, n))

	l.Info("otp challenge issued",
		slog.String("account_id", account.ID),
		slog.Bool("roster_match", name != ""),
	)

	return Challenge{
		PhoneNumber: account.PhoneNumber,
		CountryCode: account.CountryCode,
		ExpiresAt:   expiresAt,
		StudentName: name,
	}, nil
}

// ResendChallenge reissues an OTP for an existing account. Unlike
// RequestChallenge it never creates one.
func (s *ChallengeService) ResendChallenge(ctx context.Context, rawPhone, countryCodeHint string) (Challenge, error) {
	n, err := phonex.Normalize(rawPhone, countryCodeHint)
	if err != nil {
		return Challenge{}, ErrInvalidPhone
	}

	account, err := s.Store.Accounts().GetByPhone(ctx, n.E164)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Challenge{}, ErrAccountNotFound
		}
		return Challenge{}, err
	}
	if !account.IsActive {
		return Challenge{}, ErrAccountDeactivated
	}

	expiresAt, err := s.issue(ctx, account, n)
	if err != nil {
		return Challenge{}, err
	}

	slogx.FromContext(ctx).Info("otp challenge reissued",
		slog.String("account_id", account.ID),
	)

	return Challenge{
		PhoneNumber: account.PhoneNumber,
		CountryCode: account.CountryCode,
		ExpiresAt:   expiresAt,
	}, nil
}

// VerifyChallenge checks the code and, on success, logs the account in:
// clears the challenge, completes first-time registration, and mints a
// session token at the account's current generation.
func (s *ChallengeService) VerifyChallenge(ctx context.Context, rawPhone, countryCodeHint, code string) (LoginResult, error) {
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)

	if !otpx.ValidFormat(code) {
		return LoginResult{}, ErrOTPFormat
	}

	n, err := phonex.Normalize(rawPhone, countryCodeHint)
	if err != nil {
		return LoginResult{}, ErrInvalidPhone
	}

	// 1. Kick off the roster lookup while bcrypt does its work. The result
	// is joined below; FindMatch owns its own timeout.
	rosterCh := make(chan *domain.StudentRecord, 1)
	go func() {
		rosterCh <- s.Resolver.FindMatch(ctx, n)
	}()

	// 2. Load and check the account. Every failure from here to the hash
	// compare collapses into ErrOTPInvalid.
	account, err := s.Store.Accounts().GetByPhone(ctx, n.E164)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, ErrOTPInvalid
		}
		return LoginResult{}, err
	}
	if !account.IsActive {
		return LoginResult{}, ErrOTPInvalid
	}
	if !account.HasPendingChallenge() {
		return LoginResult{}, ErrOTPInvalid
	}
	if !now.Before(*account.OTPExpiresAt) {
		return LoginResult{}, ErrOTPInvalid
	}
	if !otpx.VerifyCode(code, *account.OTPHash) {
		return LoginResult{}, ErrOTPInvalid
	}

	rec := <-rosterCh
	rosterName := DisplayName(rec)
	firstLogin := !account.IsVerified

	// 3. Commit the login. Clearing the challenge and flipping the flags
	// must land together or not at all.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		accounts := tx.Accounts()

		if err := accounts.ClearChallenge(ctx, account.ID); err != nil {
			return err
		}
		if err := accounts.MarkVerified(ctx, account.ID, now); err != nil {
			return err
		}

		if firstLogin {
			firstName := rosterName
			if firstName == "" {
				firstName = account.Profile.FirstName
			}
			if firstName == "" {
				firstName = fallbackFirstName
			}
			account.Profile.FirstName = firstName
			account.Preferences = domain.DefaultPreferences()
			account.RegisteredAt = &now
			return accounts.CompleteRegistration(ctx, account.ID, firstName, account.Preferences, now)
		}

		// A later roster import can fill a profile left blank at
		// registration time.
		if account.Profile.FirstName == "" && len(rosterName) >= 2 {
			account.Profile.FirstName = rosterName
			return accounts.UpdateFirstName(ctx, account.ID, rosterName)
		}

		return accounts.UpdateLastLogin(ctx, account.ID, now)
	})
	if err != nil {
		return LoginResult{}, err
	}

	account.IsVerified = true
	account.OTPHash = nil
	account.OTPExpiresAt = nil
	account.LastLogin = &now

	// 4. Mint the session at the current generation.
	ttl := s.SessionTTL
	if ttl <= 0 {
		ttl = tokenx.DefaultSessionTTL
	}
	token, err := s.Tokens.Mint(account.ID, account.TokenGeneration, ttl)
	if err != nil {
		return LoginResult{}, err
	}

	// 5. Welcome SMS on registration, best effort.
	if firstLogin {
		if err := s.Sender.SendWelcome(ctx, account.FullPhoneNumber, account.Profile.FirstName); err != nil {
			l.Warn("welcome sms failed",
				slog.String("account_id", account.ID),
				slog.Any("error", err),
			)
		}
		l.Info("account registered", slog.String("account_id", account.ID))
	} else {
		l.Info("login succeeded", slog.String("account_id", account.ID))
	}

	return LoginResult{
		Token:         token,
		Account:       account,
		FirstLogin:    firstLogin,
		RosterStudent: rec != nil,
	}, nil
}

func (s *ChallengeService) loadOrCreateAccount(ctx context.Context, n phonex.Number) (domain.Account, error) {
	accounts := s.Store.Accounts()

	account, err := accounts.GetByPhone(ctx, n.E164)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Account{}, err
	}

	now := time.Now().UTC()
	account = domain.Account{
		ID:              idx.New().String(),
		PhoneNumber:     n.LocalDigits,
		CountryCode:     n.CountryCode(),
		FullPhoneNumber: n.E164,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := accounts.Create(ctx, account); err != nil {
		// Two concurrent first requests race on the unique phone index;
		// the loser reuses the winner's row.
		if errors.Is(err, store.ErrAlreadyExists) {
			return accounts.GetByPhone(ctx, n.E164)
		}
		return domain.Account{}, err
	}
	return account, nil
}

// issue generates, stores, and delivers a fresh code.
func (s *ChallengeService) issue(ctx context.Context, account domain.Account, n phonex.Number) (time.Time, error) {
	code := s.DevCode
	if !otpx.ValidFormat(code) {
		var err error
		code, err = otpx.GenerateCode()
		if err != nil {
			return time.Time{}, err
		}
	}

	hash, err := otpx.HashCode(code)
	if err != nil {
		return time.Time{}, err
	}

	ttl := s.OTPTTL
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	expiresAt := time.Now().UTC().Add(ttl)

	if err := s.Store.Accounts().SetChallenge(ctx, account.ID, hash, expiresAt); err != nil {
		return time.Time{}, err
	}

	if err := s.Sender.SendOTP(ctx, account.FullPhoneNumber, code); err != nil {
		slogx.FromContext(ctx).Error("otp delivery failed",
			slog.String("account_id", account.ID),
			slog.Any("error", err),
		)
		return time.Time{}, ErrSMSDelivery
	}

	return expiresAt, nil
}
