package records

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists records in the qureka.questions, qureka.summaries,
// qureka.favorite_folders, and qureka.favorite_items tables. The pool is
// owned by the caller.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed record store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, StoreError{Op: "records.NewPostgresStore", Err: ErrInvalidInput}
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) CreateQuestion(ctx context.Context, q Question) error {
	const op = "records.CreateQuestion"
	if err := validQuestion(q); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO qureka.questions (id, user_id, title, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, q.ID, q.UserID, q.Title, q.Content, q.CreatedAt)
	if err != nil {
		return StoreError{Op: op, Err: err}
	}
	return nil
}

func (s *PostgresStore) ListQuestions(ctx context.Context, userID string) ([]Question, error) {
	const op = "records.ListQuestions"
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, title, content, created_at
		FROM qureka.questions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, StoreError{Op: op, Err: err}
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Question])
	if err != nil {
		return nil, StoreError{Op: op, Err: err}
	}
	return out, nil
}

func (s *PostgresStore) DeleteQuestion(ctx context.Context, userID, id string) error {
	return s.deleteOwned(ctx, "records.DeleteQuestion",
		`DELETE FROM qureka.questions WHERE id = $1 AND user_id = $2`, id, userID)
}

func (s *PostgresStore) CreateSummary(ctx context.Context, sum Summary) error {
	const op = "records.CreateSummary"
	if err := validSummary(sum); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO qureka.summaries (id, user_id, title, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, sum.ID, sum.UserID, sum.Title, sum.Content, sum.CreatedAt)
	if err != nil {
		return StoreError{Op: op, Err: err}
	}
	return nil
}

func (s *PostgresStore) ListSummaries(ctx context.Context, userID string) ([]Summary, error) {
	const op = "records.ListSummaries"
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, title, content, created_at
		FROM qureka.summaries
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, StoreError{Op: op, Err: err}
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Summary])
	if err != nil {
		return nil, StoreError{Op: op, Err: err}
	}
	return out, nil
}

func (s *PostgresStore) DeleteSummary(ctx context.Context, userID, id string) error {
	return s.deleteOwned(ctx, "records.DeleteSummary",
		`DELETE FROM qureka.summaries WHERE id = $1 AND user_id = $2`, id, userID)
}

func (s *PostgresStore) CreateFolder(ctx context.Context, f Folder) error {
	const op = "records.CreateFolder"
	if err := validFolder(f); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO qureka.favorite_folders (id, user_id, name, created_at)
		VALUES ($1, $2, $3, $4)
	`, f.ID, f.UserID, f.Name, f.CreatedAt)
	if err != nil {
		return StoreError{Op: op, Err: err}
	}
	return nil
}

func (s *PostgresStore) ListFolders(ctx context.Context, userID string) ([]Folder, error) {
	const op = "records.ListFolders"
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, name, created_at
		FROM qureka.favorite_folders
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, StoreError{Op: op, Err: err}
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Folder])
	if err != nil {
		return nil, StoreError{Op: op, Err: err}
	}
	return out, nil
}

// DeleteFolder removes the folder and its items in one transaction.
func (s *PostgresStore) DeleteFolder(ctx context.Context, userID, id string) error {
	const op = "records.DeleteFolder"

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return StoreError{Op: op, Err: err}
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		DELETE FROM qureka.favorite_items WHERE folder_id = $1 AND user_id = $2
	`, id, userID); err != nil {
		return StoreError{Op: op, Err: err}
	}

	tag, err := tx.Exec(ctx, `
		DELETE FROM qureka.favorite_folders WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return StoreError{Op: op, Err: err}
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return StoreError{Op: op, Err: err}
	}
	return nil
}

func (s *PostgresStore) CreateItem(ctx context.Context, it Item) error {
	const op = "records.CreateItem"
	if err := validItem(it); err != nil {
		return err
	}

	// The folder must exist and belong to the same user.
	var one int
	err := s.pool.QueryRow(ctx, `
		SELECT 1 FROM qureka.favorite_folders WHERE id = $1 AND user_id = $2
	`, it.FolderID, it.UserID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return StoreError{Op: op, Err: err}
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO qureka.favorite_items (id, folder_id, user_id, kind, ref_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, it.ID, it.FolderID, it.UserID, it.Kind, it.RefID, it.CreatedAt)
	if err != nil {
		return StoreError{Op: op, Err: err}
	}
	return nil
}

func (s *PostgresStore) ListItems(ctx context.Context, userID, folderID string) ([]Item, error) {
	const op = "records.ListItems"
	rows, err := s.pool.Query(ctx, `
		SELECT id, folder_id, user_id, kind, ref_id, created_at
		FROM qureka.favorite_items
		WHERE folder_id = $1 AND user_id = $2
		ORDER BY created_at DESC, id DESC
	`, folderID, userID)
	if err != nil {
		return nil, StoreError{Op: op, Err: err}
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Item])
	if err != nil {
		return nil, StoreError{Op: op, Err: err}
	}
	return out, nil
}

func (s *PostgresStore) DeleteItem(ctx context.Context, userID, id string) error {
	return s.deleteOwned(ctx, "records.DeleteItem",
		`DELETE FROM qureka.favorite_items WHERE id = $1 AND user_id = $2`, id, userID)
}

func (s *PostgresStore) deleteOwned(ctx context.Context, op, query string, args ...any) error {
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return StoreError{Op: op, Err: err}
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
