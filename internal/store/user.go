package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkaminski/vocadrill/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create saves a new user to the store. The user's plaintext Password
	// field is hashed before storage; the plaintext is never persisted.
	// Returns ErrEmailExists if the email is already in use.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	// Returns ErrUserNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// UpdatePreferences overwrites the user's study preferences.
	// Returns ErrUserNotFound if the user does not exist.
	UpdatePreferences(ctx context.Context, userID uuid.UUID, reversed, quizMode bool) error

	// WithTx returns a new UserStore instance bound to the transaction.
	WithTx(tx *sql.Tx) UserStore
}
