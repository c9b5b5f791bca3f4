package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkaminski/vocadrill/internal/domain"
)

// WordStore defines the interface for word data persistence.
type WordStore interface {
	// Create saves a new word to the store.
	// Returns validation errors if the word data is invalid.
	Create(ctx context.Context, word *domain.Word) error

	// GetByID retrieves a word by its unique ID.
	// Returns ErrWordNotFound if the word does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Word, error)

	// GetByIDs retrieves all words for the given IDs. The result preserves
	// the input order. Returns ErrWordNotFound if any ID cannot be resolved,
	// which the session service uses to detect stale snapshots.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Word, error)

	// ListByGroup retrieves up to limit words belonging to a group, oldest
	// first. Used as the same-group pool for distractor generation.
	ListByGroup(ctx context.Context, groupID uuid.UUID, limit int) ([]*domain.Word, error)

	// ListAcrossGroups retrieves up to limit words from any group except the
	// given one. Used as the fallback distractor pool when a group is too
	// small to supply three distinct wrong answers.
	ListAcrossGroups(ctx context.Context, excludeGroupID uuid.UUID, limit int) ([]*domain.Word, error)

	// SelectForStudy picks the word pool for a new session: words never
	// reviewed first (creation order), then words whose next review time is
	// at or before now, capped at limit.
	SelectForStudy(ctx context.Context, groupID uuid.UUID, now time.Time, limit int) ([]*domain.Word, error)

	// UpdateReview writes the scheduler's output for one word: the new
	// mastery level, next review timestamp, incremented review count and the
	// acquired flag. Returns ErrWordNotFound if the word does not exist.
	UpdateReview(ctx context.Context, word *domain.Word) error

	// ListMissingExamples retrieves up to limit words that have no example
	// sentences yet, oldest first. Used by the enrichment job.
	ListMissingExamples(ctx context.Context, limit int) ([]*domain.Word, error)

	// UpdateExamples stores generated example sentences for a word.
	// Returns ErrWordNotFound if the word does not exist.
	UpdateExamples(ctx context.Context, id uuid.UUID, exampleFront, exampleBack string) error

	// WithTx returns a new WordStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) WordStore
}

// GroupStore defines the interface for word group persistence.
type GroupStore interface {
	// Create saves a new word group to the store.
	Create(ctx context.Context, group *domain.WordGroup) error

	// GetByID retrieves a group by its unique ID.
	// Returns ErrGroupNotFound if the group does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WordGroup, error)

	// WithTx returns a new GroupStore instance bound to the transaction.
	WithTx(tx *sql.Tx) GroupStore
}
