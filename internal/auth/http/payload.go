package http

import (
	"time"

	"github.com/proskill/portal-auth/internal/auth/domain"
	"github.com/proskill/portal-auth/pkg/sanitize"
)

// accountPayload is the account shape exposed to clients. Profile fields
// are HTML-escaped on the way out: the roster and the profile forms are
// third-party input, and some portal clients render these values directly.
type accountPayload struct {
	ID              string             `json:"id"`
	PhoneNumber     string             `json:"phoneNumber"`
	CountryCode     string             `json:"countryCode"`
	FullPhoneNumber string             `json:"fullPhoneNumber"`
	IsVerified      bool               `json:"isVerified"`
	Profile         profilePayload     `json:"profile"`
	Preferences     preferencesPayload `json:"preferences"`
	LastLogin       *time.Time         `json:"lastLogin,omitempty"`
	RegisteredAt    *time.Time         `json:"registeredAt,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
}

type profilePayload struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Place     string `json:"place"`
}

type preferencesPayload struct {
	Language      string `json:"language"`
	Notifications bool   `json:"notifications"`
}

func newAccountPayload(a domain.Account) accountPayload {
	return accountPayload{
		ID:              a.ID,
		PhoneNumber:     a.PhoneNumber,
		CountryCode:     a.CountryCode,
		FullPhoneNumber: a.FullPhoneNumber,
		IsVerified:      a.IsVerified,
		Profile: profilePayload{
			FirstName: sanitize.EscapeHTML(a.Profile.FirstName),
			LastName:  sanitize.EscapeHTML(a.Profile.LastName),
			Email:     sanitize.EscapeHTML(a.Profile.Email),
			Place:     sanitize.EscapeHTML(a.Profile.Place),
		},
		Preferences: preferencesPayload{
			Language:      a.Preferences.Language,
			Notifications: a.Preferences.Notifications,
		},
		LastLogin:    a.LastLogin,
		RegisteredAt: a.RegisteredAt,
		CreatedAt:    a.CreatedAt,
	}
}
