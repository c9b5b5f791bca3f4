package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkaminski/vocadrill/internal/domain"
)

// SessionStore defines the interface for study session persistence.
type SessionStore interface {
	// Create saves a new session row including the initial queue snapshot.
	Create(ctx context.Context, session *domain.StudySession) error

	// GetByID retrieves a session by its unique ID.
	// Returns ErrSessionNotFound if the session does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.StudySession, error)

	// FindResumable returns the most recently started in-progress session
	// for the user and group, or ErrSessionNotFound if there is none.
	// At most one in-progress session per group is considered resumable;
	// older ones are left for the maintenance sweep.
	FindResumable(ctx context.Context, userID, groupID uuid.UUID) (*domain.StudySession, error)

	// UpdateSnapshot persists the full progress snapshot of a session:
	// index, counters, cycle count, both queues and, when the session is
	// finished, the completion timestamp and final result counters.
	// Returns ErrSessionNotFound if the session does not exist.
	UpdateSnapshot(ctx context.Context, session *domain.StudySession) error

	// Delete removes a session row. Used to discard stale sessions whose
	// words can no longer be resolved.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteStale removes unfinished sessions started before the cutoff.
	// Returns the number of sessions removed.
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)

	// WithTx returns a new SessionStore instance bound to the transaction.
	WithTx(tx *sql.Tx) SessionStore
}

// RecordStore defines the interface for the append-only study record log.
type RecordStore interface {
	// Create appends one study record. Records are immutable; there are no
	// update or delete operations.
	Create(ctx context.Context, record *domain.StudyRecord) error

	// CountBySessionOutcome returns the number of records for a session
	// grouped by outcome. Backs the session summary and accuracy statistics.
	CountBySessionOutcome(ctx context.Context, sessionID uuid.UUID) (map[domain.ReviewOutcome]int, error)

	// WithTx returns a new RecordStore instance bound to the transaction.
	WithTx(tx *sql.Tx) RecordStore
}
