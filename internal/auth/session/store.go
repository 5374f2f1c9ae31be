package session

import (
	"context"
	"time"
)

// Row mirrors the qureka.refresh_tokens row used by the session subsystem.
// TokenHash holds a salted bcrypt hash; the plain token is never stored.
type Row struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
}

// Store abstracts persistence for refresh-token state.
//
// Implementations must keep the single-row invariant: Save replaces any
// prior row for the user. All delete operations are idempotent; removing a
// row that does not exist is not an error.
type Store interface {
	// Save hashes plain and persists it as the user's only refresh row,
	// replacing any prior one. Returns ErrInvalidInput when userID, plain,
	// or expiresAt is absent.
	Save(ctx context.Context, now time.Time, userID, plain string, expiresAt time.Time) error

	// FindByPlaintext scans all rows and hash-compares plain against each
	// until a match is found. Returns ErrRowNotFound when the set is
	// exhausted. The scan is the contract: hashes are salted per-row and
	// cannot be looked up by value.
	FindByPlaintext(ctx context.Context, plain string) (Row, error)

	// DeleteByUser removes the user's row, if any.
	DeleteByUser(ctx context.Context, userID string) error

	// DeleteByValue resolves plain via FindByPlaintext and removes the
	// matching row, if any.
	DeleteByValue(ctx context.Context, plain string) error

	// DeleteExpired removes every row whose expiry has passed, regardless of
	// match, and returns the number removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

func validateSave(userID, plain string, expiresAt time.Time) error {
	if userID == "" || plain == "" || expiresAt.IsZero() {
		return ErrInvalidInput
	}
	return nil
}
