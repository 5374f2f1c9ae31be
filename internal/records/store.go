package records

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel kinds for store failures.
var (
	ErrNotFound     = errors.New("records: not found")
	ErrInvalidInput = errors.New("records: invalid input")
)

// StoreError wraps a driver failure with the operation that hit it.
type StoreError struct {
	Op  string
	Err error
}

func (e StoreError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e StoreError) Unwrap() error { return e.Err }

// Kind values for favorite items.
const (
	KindQuestion = "question"
	KindSummary  = "summary"
)

// Question is a generated practice question saved by a user.
type Question struct {
	ID        string
	UserID    string
	Title     string
	Content   string
	CreatedAt time.Time
}

// Summary is a generated study summary saved by a user.
type Summary struct {
	ID        string
	UserID    string
	Title     string
	Content   string
	CreatedAt time.Time
}

// Folder groups a user's favorite items.
type Folder struct {
	ID        string
	UserID    string
	Name      string
	CreatedAt time.Time
}

// Item is a saved reference to a question or summary inside a folder.
type Item struct {
	ID        string
	FolderID  string
	UserID    string
	Kind      string // KindQuestion or KindSummary
	RefID     string
	CreatedAt time.Time
}

// Store is the records persistence boundary. Every read and delete is scoped
// to the owning user; a row belonging to someone else behaves as absent.
type Store interface {
	CreateQuestion(ctx context.Context, q Question) error
	ListQuestions(ctx context.Context, userID string) ([]Question, error)
	DeleteQuestion(ctx context.Context, userID, id string) error

	CreateSummary(ctx context.Context, s Summary) error
	ListSummaries(ctx context.Context, userID string) ([]Summary, error)
	DeleteSummary(ctx context.Context, userID, id string) error

	CreateFolder(ctx context.Context, f Folder) error
	ListFolders(ctx context.Context, userID string) ([]Folder, error)
	// DeleteFolder removes the folder and every item in it.
	DeleteFolder(ctx context.Context, userID, id string) error

	CreateItem(ctx context.Context, it Item) error
	ListItems(ctx context.Context, userID, folderID string) ([]Item, error)
	DeleteItem(ctx context.Context, userID, id string) error
}

// newerFirst orders rows newest-first with the id as a stable tiebreak,
// matching the SQL ORDER BY used by PostgresStore.
func newerFirst(ta time.Time, ida string, tb time.Time, idb string) bool {
	if !ta.Equal(tb) {
		return ta.After(tb)
	}
	return ida > idb
}

func validQuestion(q Question) error {
	if q.ID == "" || q.UserID == "" || strings.TrimSpace(q.Title) == "" {
		return ErrInvalidInput
	}
	return nil
}

func validSummary(s Summary) error {
	if s.ID == "" || s.UserID == "" || strings.TrimSpace(s.Title) == "" {
		return ErrInvalidInput
	}
	return nil
}

func validFolder(f Folder) error {
	if f.ID == "" || f.UserID == "" || strings.TrimSpace(f.Name) == "" {
		return ErrInvalidInput
	}
	return nil
}

func validItem(it Item) error {
	if it.ID == "" || it.FolderID == "" || it.UserID == "" || it.RefID == "" {
		return ErrInvalidInput
	}
	if it.Kind != KindQuestion && it.Kind != KindSummary {
		return ErrInvalidInput
	}
	return nil
}
