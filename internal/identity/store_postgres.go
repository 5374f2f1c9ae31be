package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HeoSeonJin0504/qureka-server/internal/identity/ids"
)

// PostgresStore implements identity persistence over PostgreSQL
// (qureka.users).
//
// The pgx pool is owned by the caller; this store must not close it.
// Driver errors are mapped to identity sentinel kinds where appropriate.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed credential store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, OpError{Op: "identity.NewPostgresStore", Kind: ErrInvalidInput, Msg: "nil pool"}
	}
	return &PostgresStore{pool: pool}, nil
}

// CreateUser inserts a new user row. Uniqueness is enforced by the database
// index on login_norm; a violation maps to ConflictError.
func (s *PostgresStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	if err := validateCreate(in); err != nil {
		return User{}, err
	}

	id, err := ids.NewULID(in.Now)
	if err != nil {
		return User{}, OpError{Op: op, Kind: err}
	}

	u := User{
		ID:           id,
		LoginName:    in.LoginName,
		DisplayName:  in.DisplayName,
		PasswordHash: in.PasswordHash,
		CreatedAt:    in.Now,
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO qureka.users (id, login_name, login_norm, display_name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, u.ID, u.LoginName, NormalizeLogin(u.LoginName), u.DisplayName, u.PasswordHash, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ConflictError{Op: op, Field: "login_name"}
		}
		return User{}, OpError{Op: op, Kind: err}
	}

	return u, nil
}

// GetByLogin resolves a user by normalized login name.
func (s *PostgresStore) GetByLogin(ctx context.Context, loginName string) (User, error) {
	return s.getBy(ctx, "identity.GetByLogin", `
		SELECT id, login_name, display_name, password_hash, created_at
		FROM qureka.users
		WHERE login_norm = $1
	`, NormalizeLogin(loginName))
}

// GetByID resolves a user by id.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (User, error) {
	return s.getBy(ctx, "identity.GetByID", `
		SELECT id, login_name, display_name, password_hash, created_at
		FROM qureka.users
		WHERE id = $1
	`, id)
}

func (s *PostgresStore) getBy(ctx context.Context, op, query, arg string) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID,
		&u.LoginName,
		&u.DisplayName,
		&u.PasswordHash,
		&u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, OpError{Op: op, Kind: ErrNotFound}
	}
	if err != nil {
		return User{}, OpError{Op: op, Kind: err}
	}
	return u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" // unique_violation
}
