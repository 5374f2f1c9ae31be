package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// InMemoryStore is a dev/test fallback when no database is configured.
// It honors the same contract as PostgresStore, including the single-row
// invariant and the linear hash-compare scan.
type InMemoryStore struct {
	mu   sync.Mutex
	rows map[string]Row // id -> row
	cost int
}

// NewInMemoryStore constructs an in-memory Store implementation.
func NewInMemoryStore(bcryptCost int) *InMemoryStore {
	return &InMemoryStore{
		rows: make(map[string]Row),
		cost: bcryptCost,
	}
}

// Save replaces the user's row under the store mutex.
func (s *InMemoryStore) Save(ctx context.Context, now time.Time, userID, plain string, expiresAt time.Time) error {
	if err := validateSave(userID, plain, expiresAt); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return StoreError{Op: "session.Save", Err: err}
	}

	hash, err := hashRefreshToken(plain, s.cost)
	if err != nil {
		return StoreError{Op: "session.Save", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, row := range s.rows {
		if row.UserID == userID {
			delete(s.rows, id)
		}
	}

	id := ulid.Make().String()
	s.rows[id] = Row{ID: id, UserID: userID, TokenHash: hash, ExpiresAt: expiresAt}
	return nil
}

// FindByPlaintext hash-compares plain against every stored row.
func (s *InMemoryStore) FindByPlaintext(ctx context.Context, plain string) (Row, error) {
	if plain == "" {
		return Row{}, ErrRowNotFound
	}
	if err := ctx.Err(); err != nil {
		return Row{}, StoreError{Op: "session.FindByPlaintext", Err: err}
	}

	s.mu.Lock()
	all := make([]Row, 0, len(s.rows))
	for _, row := range s.rows {
		all = append(all, row)
	}
	s.mu.Unlock()

	// Compare outside the mutex: bcrypt is deliberately slow.
	for _, row := range all {
		if compareRefreshToken(row.TokenHash, plain) {
			return row, nil
		}
	}
	return Row{}, ErrRowNotFound
}

// DeleteByUser removes the user's row (idempotent).
func (s *InMemoryStore) DeleteByUser(_ context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, row := range s.rows {
		if row.UserID == userID {
			delete(s.rows, id)
		}
	}
	return nil
}

// DeleteByValue resolves plain to a row and removes it (idempotent).
func (s *InMemoryStore) DeleteByValue(ctx context.Context, plain string) error {
	row, err := s.FindByPlaintext(ctx, plain)
	if err != nil {
		if errors.Is(err, ErrRowNotFound) {
			return nil
		}
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, row.ID)
	return nil
}

// DeleteExpired removes rows past their expiry and returns the count.
func (s *InMemoryStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, row := range s.rows {
		if !row.ExpiresAt.After(now) {
			delete(s.rows, id)
			removed++
		}
	}
	return removed, nil
}
