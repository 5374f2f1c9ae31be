package identity

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 72 // bcrypt input bound
)

// HashPassword returns a salted bcrypt hash of the plain password.
func HashPassword(plain string) (string, error) {
	if len(plain) < minPasswordLen {
		return "", OpError{Op: "identity.HashPassword", Kind: ErrInvalidInput, Msg: "password too short"}
	}
	if len(plain) > maxPasswordLen {
		return "", OpError{Op: "identity.HashPassword", Kind: ErrInvalidInput, Msg: "password too long"}
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// VerifyPassword checks plain against a stored bcrypt hash.
// A mismatch returns (false, nil); malformed hashes return an error.
func VerifyPassword(plain, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}

// DummyHash is verified against when a login name does not resolve, so a
// missing user costs the same time as a wrong password.
func DummyHash() string {
	h, err := bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing-only"), bcrypt.DefaultCost)
	if err != nil {
		return ""
	}
	return string(h)
}
