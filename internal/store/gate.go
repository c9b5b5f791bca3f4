package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkaminski/vocadrill/internal/domain"
)

// UnlockStore defines the interface for unit unlock persistence.
type UnlockStore interface {
	// Get retrieves the unlock row for a user and group.
	// Returns ErrUnlockNotFound if no row exists.
	Get(ctx context.Context, userID, groupID uuid.UUID) (*domain.UnitUnlock, error)

	// Upsert creates or overwrites the unlock row for a user and group.
	Upsert(ctx context.Context, unlock *domain.UnitUnlock) error

	// WithTx returns a new UnlockStore instance bound to the transaction.
	WithTx(tx *sql.Tx) UnlockStore
}

// DailyCountStore defines the interface for the free-tier daily review counter.
// Rows are keyed by (user, trusted date); stale rows from previous days are
// never consulted, which makes the midnight reset implicit.
type DailyCountStore interface {
	// Get returns the count for the user on the given day, or 0 if no row
	// exists yet.
	Get(ctx context.Context, userID uuid.UUID, day string) (int, error)

	// Increment atomically adds one to the user's counter for the given day,
	// creating the row if needed, and returns the new count.
	Increment(ctx context.Context, userID uuid.UUID, day string) (int, error)

	// WithTx returns a new DailyCountStore instance bound to the transaction.
	WithTx(tx *sql.Tx) DailyCountStore
}

// ClockMarkStore persists the trusted clock's high-water mark: the latest
// wall-clock value ever observed.
type ClockMarkStore interface {
	// Get returns the persisted high-water mark, or the zero time if none
	// has been recorded yet.
	Get(ctx context.Context) (time.Time, error)

	// Set overwrites the high-water mark. Implementations must never move
	// the mark backwards.
	Set(ctx context.Context, mark time.Time) error
}
