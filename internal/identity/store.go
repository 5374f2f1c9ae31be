package identity

import (
	"context"
	"time"
)

// User is Qureka's canonical security principal.
type User struct {
	ID           string
	LoginName    string
	DisplayName  string
	PasswordHash string

	CreatedAt time.Time
}

// CreateUserInput describes a user registration request.
// LoginName is unique under NormalizeLogin; PasswordHash must already be a
// bcrypt hash (stores never see plain passwords).
type CreateUserInput struct {
	LoginName    string
	DisplayName  string
	PasswordHash string
	Now          time.Time
}

// Store is the credential persistence boundary.
type Store interface {
	// CreateUser inserts a new user. Returns ConflictError{Field:
	// "login_name"} when the normalized login name is taken.
	CreateUser(ctx context.Context, in CreateUserInput) (User, error)

	// GetByLogin resolves a user by normalized login name.
	GetByLogin(ctx context.Context, loginName string) (User, error)

	// GetByID resolves a user by id.
	GetByID(ctx context.Context, id string) (User, error)
}

func validateCreate(in CreateUserInput) error {
	if NormalizeLogin(in.LoginName) == "" || in.PasswordHash == "" {
		return OpError{Op: "identity.CreateUser", Kind: ErrInvalidInput}
	}
	return nil
}
