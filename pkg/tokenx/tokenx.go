// Package tokenx mints and verifies the compact signed session tokens the
// portal hands out after OTP verification. Tokens are HS256 JWTs over a
// shared signing secret and embed the account ID plus the account's token
// generation at mint time; the generation is what makes global revocation
// O(1) — see service.SessionService.
package tokenx

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL is the default session token lifetime.
const DefaultSessionTTL = 7 * 24 * time.Hour

var (
	// ErrNoSecret means the signing secret is not configured. This is a
	// deployment error and must prevent service start.
	ErrNoSecret = errors.New("tokenx: signing secret not configured")

	// ErrMalformed reports a token that is not a well-formed JWT or is
	// missing required claims.
	ErrMalformed = errors.New("tokenx: malformed token")

	// ErrExpired reports a structurally valid token past its expiry.
	ErrExpired = errors.New("tokenx: token expired")

	// ErrInvalidSignature reports a token whose tamper-evident check failed.
	ErrInvalidSignature = errors.New("tokenx: invalid signature")
)

// Claims are the session token claims. Generation is compared against the
// account's current counter at authorization time.
type Claims struct {
	jwt.RegisteredClaims

	Generation int64 `json:"gen"`
}

// Session is the verified content of a token.
type Session struct {
	AccountID  string
	Generation int64
}

// Issuer mints and verifies session tokens with a shared secret.
type Issuer struct {
	secret []byte
	issuer string
}

// NewIssuer builds an Issuer. An empty secret is refused loudly rather than
// silently degrading to unsigned tokens.
func NewIssuer(secret []byte, issuer string) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, ErrNoSecret
	}
	return &Issuer{secret: secret, issuer: issuer}, nil
}

// Mint signs a token for accountID stamped with the given generation.
func (i *Issuer) Mint(accountID string, generation int64, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        newJTI(),
		},
		Generation: generation,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("tokenx: failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning its session content. It
// does not consult the account store; generation checking is layered on top.
func (i *Issuer) Verify(raw string) (Session, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Session{}, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Session{}, ErrInvalidSignature
		default:
			return Session{}, ErrMalformed
		}
	}

	if claims.Subject == "" {
		return Session{}, ErrMalformed
	}

	return Session{
		AccountID:  claims.Subject,
		Generation: claims.Generation,
	}, nil
}

// newJTI returns a URL-safe random identifier for the "jti" claim.
func newJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
