package identity

import (
	"context"
	"sync"

	"github.com/HeoSeonJin0504/qureka-server/internal/identity/ids"
)

// InMemoryStore is a dev/test fallback when no database is configured.
// It honors the same uniqueness contract as PostgresStore.
type InMemoryStore struct {
	mu      sync.Mutex
	byID    map[string]User
	byLogin map[string]string // normalized login -> user id
}

// NewInMemoryStore constructs an in-memory Store implementation.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:    make(map[string]User),
		byLogin: make(map[string]string),
	}
}

// CreateUser inserts a new user, enforcing login uniqueness under the mutex.
func (s *InMemoryStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	if err := validateCreate(in); err != nil {
		return User{}, err
	}
	if err := ctx.Err(); err != nil {
		return User{}, OpError{Op: op, Kind: err}
	}

	id, err := ids.NewULID(in.Now)
	if err != nil {
		return User{}, OpError{Op: op, Kind: err}
	}

	norm := NormalizeLogin(in.LoginName)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byLogin[norm]; taken {
		return User{}, ConflictError{Op: op, Field: "login_name"}
	}

	u := User{
		ID:           id,
		LoginName:    in.LoginName,
		DisplayName:  in.DisplayName,
		PasswordHash: in.PasswordHash,
		CreatedAt:    in.Now,
	}
	s.byID[u.ID] = u
	s.byLogin[norm] = u.ID
	return u, nil
}

// GetByLogin resolves a user by normalized login name.
func (s *InMemoryStore) GetByLogin(_ context.Context, loginName string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byLogin[NormalizeLogin(loginName)]
	if !ok {
		return User{}, OpError{Op: "identity.GetByLogin", Kind: ErrNotFound}
	}
	return s.byID[id], nil
}

// GetByID resolves a user by id.
func (s *InMemoryStore) GetByID(_ context.Context, id string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return User{}, OpError{Op: "identity.GetByID", Kind: ErrNotFound}
	}
	return u, nil
}
