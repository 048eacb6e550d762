package domain

import "time"

// Account is the authoritative record for one end user, keyed by phone
// number. Accounts are created on the first OTP request for an unseen
// number and never hard-deleted; deactivation is a flag flip.
type Account struct {
	ID              string // ULID
	PhoneNumber     string // national number as validated
	CountryCode     string // e.g. "+91"
	FullPhoneNumber string // canonical E.164, unique
	IsVerified      bool   // set on first successful OTP verification
	IsActive        bool   // inactive accounts are rejected everywhere

	// Outstanding OTP challenge. Either both set or both nil.
	OTPHash      *string
	OTPExpiresAt *time.Time

	// TokenGeneration is bumped on every logout, forced logout, and
	// deactivation. A session token is only valid while its embedded
	// generation equals this value. Never decremented.
	TokenGeneration int64

	Profile     Profile
	Preferences Preferences

	LastLogin    *time.Time
	LastLogout   *time.Time
	RegisteredAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPendingChallenge reports whether an OTP challenge is outstanding.
func (a Account) HasPendingChallenge() bool {
	return a.OTPHash != nil && a.OTPExpiresAt != nil
}

// Profile holds the optional display fields. FirstName doubles as the
// display name fallback sourced from the student roster on first
// registration.
type Profile struct {
	FirstName string
	LastName  string
	Email     string
	Place     string
}

// Preferences are the per-account portal settings.
type Preferences struct {
	Language      string
	Notifications bool
}

// DefaultPreferences are applied when an account completes registration.
func DefaultPreferences() Preferences {
	return Preferences{Language: "en", Notifications: true}
}
