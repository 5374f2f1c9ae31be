package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
)

// PostgresStore implements Store using PostgreSQL (qureka.refresh_tokens).
type PostgresStore struct {
	pool *pgxpool.Pool
	cost int
}

// NewPostgresStore creates a Postgres-backed refresh-token store.
func NewPostgresStore(pool *pgxpool.Pool, bcryptCost int) *PostgresStore {
	return &PostgresStore{pool: pool, cost: bcryptCost}
}

// Save replaces the user's refresh row inside a single transaction, so a
// crash between delete and insert cannot leave the user with zero rows.
func (s *PostgresStore) Save(ctx context.Context, now time.Time, userID, plain string, expiresAt time.Time) error {
	if err := validateSave(userID, plain, expiresAt); err != nil {
		return err
	}

	hash, err := hashRefreshToken(plain, s.cost)
	if err != nil {
		return StoreError{Op: "session.Save", Err: err}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return StoreError{Op: "session.Save", Err: err}
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		DELETE FROM qureka.refresh_tokens
		WHERE user_id = $1
	`, userID); err != nil {
		return StoreError{Op: "session.Save", Err: err}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO qureka.refresh_tokens (id, user_id, token_hash, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`, ulid.Make().String(), userID, hash, now, expiresAt); err != nil {
		return StoreError{Op: "session.Save", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return StoreError{Op: "session.Save", Err: err}
	}
	return nil
}

// FindByPlaintext loads all rows and hash-compares plain against each.
func (s *PostgresStore) FindByPlaintext(ctx context.Context, plain string) (Row, error) {
	if plain == "" {
		return Row{}, ErrRowNotFound
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, token_hash, expires_at
		FROM qureka.refresh_tokens
	`)
	if err != nil {
		return Row{}, StoreError{Op: "session.FindByPlaintext", Err: err}
	}

	all, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (Row, error) {
		var row Row
		err := r.Scan(&row.ID, &row.UserID, &row.TokenHash, &row.ExpiresAt)
		return row, err
	})
	if err != nil {
		return Row{}, StoreError{Op: "session.FindByPlaintext", Err: err}
	}

	for _, row := range all {
		if compareRefreshToken(row.TokenHash, plain) {
			return row, nil
		}
	}
	return Row{}, ErrRowNotFound
}

// DeleteByUser removes the user's row (idempotent).
func (s *PostgresStore) DeleteByUser(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	if _, err := s.pool.Exec(ctx, `
		DELETE FROM qureka.refresh_tokens
		WHERE user_id = $1
	`, userID); err != nil {
		return StoreError{Op: "session.DeleteByUser", Err: err}
	}
	return nil
}

// DeleteByValue resolves plain to a row and removes it (idempotent).
func (s *PostgresStore) DeleteByValue(ctx context.Context, plain string) error {
	row, err := s.FindByPlaintext(ctx, plain)
	if err != nil {
		if errors.Is(err, ErrRowNotFound) {
			return nil
		}
		return err
	}
	if _, err := s.pool.Exec(ctx, `
		DELETE FROM qureka.refresh_tokens
		WHERE id = $1
	`, row.ID); err != nil {
		return StoreError{Op: "session.DeleteByValue", Err: err}
	}
	return nil
}

// DeleteExpired removes rows past their expiry and returns the count.
func (s *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM qureka.refresh_tokens
		WHERE expires_at <= $1
	`, now)
	if err != nil {
		return 0, StoreError{Op: "session.DeleteExpired", Err: err}
	}
	return tag.RowsAffected(), nil
}
