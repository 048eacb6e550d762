// Package otpx generates and checks the one-time passcodes sent during
// phone verification. Codes are short-lived 6-digit numerics; only a bcrypt
// hash is ever persisted, so an offline attacker still faces a slow hash
// over a small code space.
package otpx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

// CodeLength is the fixed length of issued passcodes.
const CodeLength = 6

// hashCost trades hash latency against guessing resistance. bcrypt's
// default cost keeps verification around tens of milliseconds.
const hashCost = bcrypt.DefaultCost

var codeForm = regexp.MustCompile(`^\d{6}$`)

// GenerateCode returns a cryptographically random 6-digit code, zero-padded.
func GenerateCode() (string, error) {
	max := big.NewInt(1)
	for range CodeLength {
		max.Mul(max, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("otpx: failed to generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", CodeLength, n), nil
}

// ValidFormat reports whether a supplied code has the expected shape. Used
// at the boundary so malformed input never reaches a hash compare.
func ValidFormat(code string) bool {
	return codeForm.MatchString(code)
}

// HashCode returns the salted bcrypt hash to persist in place of the code.
func HashCode(code string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), hashCost)
	if err != nil {
		return "", fmt.Errorf("otpx: failed to hash code: %w", err)
	}
	return string(hash), nil
}

// VerifyCode reports whether code matches the stored hash. bcrypt's compare
// is constant-time over the derived key.
func VerifyCode(code, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}
