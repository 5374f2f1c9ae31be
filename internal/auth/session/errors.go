package session

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid session config")

	// ErrSigningKey is returned when a token cannot be issued or verified
	// because the secret for its kind is not configured.
	ErrSigningKey = errors.New("token signing key missing")

	// ErrTokenInvalid is returned when a token fails signature or claim checks.
	ErrTokenInvalid = errors.New("invalid token")

	// ErrTokenExpired is returned when a token's signature is valid but its
	// lifetime has passed. For refresh tokens the persisted expiry is
	// authoritative and can trigger this even while the signature still parses.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenMissing is returned when no token accompanied a request at all.
	ErrTokenMissing = errors.New("no token presented")

	// ErrRowNotFound is returned when a refresh token does not match any
	// persisted row.
	ErrRowNotFound = errors.New("refresh token not recognized")

	// ErrInvalidInput is returned for absent or malformed store inputs.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPersist is the kind wrapped by StoreError for storage failures.
	ErrPersist = errors.New("refresh token persistence failed")

	// ErrPersistDegraded is returned by Login when both tokens were issued but
	// the refresh row could not be persisted. Callers should report a degraded
	// success, not a failure: the credentials were valid.
	ErrPersistDegraded = errors.New("session issued but not persisted")
)

// StoreError is a typed persistence failure with a stable Op for callers/logs.
type StoreError struct {
	Op  string
	Err error
}

func (e StoreError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrPersist, e.Err)
}

func (e StoreError) Unwrap() error { return ErrPersist }

// IsPersistFailure reports whether err represents a storage failure.
func IsPersistFailure(err error) bool { return errors.Is(err, ErrPersist) }
