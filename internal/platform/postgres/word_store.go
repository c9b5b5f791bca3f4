package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkaminski/vocadrill/internal/domain"
	"github.com/pkaminski/vocadrill/internal/platform/logger"
	"github.com/pkaminski/vocadrill/internal/store"
)

// wordColumns is the scan list shared by all word queries.
const wordColumns = `id, group_id, front, back, example_front, example_back,
	mastery_level, next_review_at, review_count, acquired, created_at, updated_at`

// PostgresWordStore implements the store.WordStore interface
// using a PostgreSQL database as the storage backend.
type PostgresWordStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresWordStore creates a new PostgreSQL implementation of the WordStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresWordStore(db store.DBTX, logger *slog.Logger) *PostgresWordStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresWordStore{
		db:     db,
		logger: logger.With(slog.String("component", "word_store")),
	}
}

// Ensure PostgresWordStore implements store.WordStore interface
var _ store.WordStore = (*PostgresWordStore)(nil)

// WithTx implements store.WordStore.WithTx
func (s *PostgresWordStore) WithTx(tx *sql.Tx) store.WordStore {
	return &PostgresWordStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.WordStore.Create
func (s *PostgresWordStore) Create(ctx context.Context, word *domain.Word) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := word.Validate(); err != nil {
		log.Warn("word validation failed during create",
			slog.String("error", err.Error()),
			slog.String("word_id", word.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO words (id, group_id, front, back, example_front, example_back,
			mastery_level, next_review_at, review_count, acquired, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		word.ID,
		word.GroupID,
		word.Front,
		word.Back,
		word.ExampleFront,
		word.ExampleBack,
		word.MasteryLevel,
		word.NextReviewAt,
		word.ReviewCount,
		word.Acquired,
		word.CreatedAt,
		word.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create word",
			slog.String("error", err.Error()),
			slog.String("word_id", word.ID.String()))
		return MapError(err)
	}

	log.Debug("word created",
		slog.String("word_id", word.ID.String()),
		slog.String("group_id", word.GroupID.String()))
	return nil
}

// GetByID implements store.WordStore.GetByID
func (s *PostgresWordStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Word, error) {
	query := `SELECT ` + wordColumns + ` FROM words WHERE id = $1`

	word, err := scanWord(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrWordNotFound
		}
		return nil, MapError(err)
	}
	return word, nil
}

// GetByIDs implements store.WordStore.GetByIDs
func (s *PostgresWordStore) GetByIDs(
	ctx context.Context,
	ids []uuid.UUID,
) ([]*domain.Word, error) {
	if len(ids) == 0 {
		return []*domain.Word{}, nil
	}

	query := `SELECT ` + wordColumns + ` FROM words WHERE id = ANY($1)`

	idStrings := make([]string, len(ids))
	for i, id := range ids {
		idStrings[i] = id.String()
	}

	rows, err := s.db.QueryContext(ctx, query, idStrings)
	if err != nil {
		return nil, MapError(err)
	}
	words, err := collectWords(rows, s.logger)
	if err != nil {
		return nil, err
	}

	// Re-order to the input order and fail if anything is missing: the caller
	// uses that to detect stale session snapshots.
	byID := make(map[uuid.UUID]*domain.Word, len(words))
	for _, w := range words {
		byID[w.ID] = w
	}

	ordered := make([]*domain.Word, 0, len(ids))
	for _, id := range ids {
		w, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", store.ErrWordNotFound, id)
		}
		ordered = append(ordered, w)
	}
	return ordered, nil
}

// ListByGroup implements store.WordStore.ListByGroup
func (s *PostgresWordStore) ListByGroup(
	ctx context.Context,
	groupID uuid.UUID,
	limit int,
) ([]*domain.Word, error) {
	query := `SELECT ` + wordColumns + `
		FROM words
		WHERE group_id = $1
		ORDER BY created_at ASC
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, groupID, limit)
	if err != nil {
		return nil, MapError(err)
	}
	return collectWords(rows, s.logger)
}

// ListAcrossGroups implements store.WordStore.ListAcrossGroups
func (s *PostgresWordStore) ListAcrossGroups(
	ctx context.Context,
	excludeGroupID uuid.UUID,
	limit int,
) ([]*domain.Word, error) {
	query := `SELECT ` + wordColumns + `
		FROM words
		WHERE group_id <> $1
		ORDER BY created_at ASC
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, excludeGroupID, limit)
	if err != nil {
		return nil, MapError(err)
	}
	return collectWords(rows, s.logger)
}

// SelectForStudy implements store.WordStore.SelectForStudy
//
// Never-reviewed words come first in creation order, then due words by how
// overdue they are. Words scheduled in the future are excluded entirely.
func (s *PostgresWordStore) SelectForStudy(
	ctx context.Context,
	groupID uuid.UUID,
	now time.Time,
	limit int,
) ([]*domain.Word, error) {
	query := `SELECT ` + wordColumns + `
		FROM words
		WHERE group_id = $1
		  AND (next_review_at IS NULL OR next_review_at <= $2)
		ORDER BY (next_review_at IS NULL) DESC, next_review_at ASC, created_at ASC
		LIMIT $3`

	rows, err := s.db.QueryContext(ctx, query, groupID, now, limit)
	if err != nil {
		return nil, MapError(err)
	}
	return collectWords(rows, s.logger)
}

// UpdateReview implements store.WordStore.UpdateReview
func (s *PostgresWordStore) UpdateReview(ctx context.Context, word *domain.Word) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := word.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE words
		SET mastery_level = $1, next_review_at = $2, review_count = $3,
			acquired = $4, updated_at = $5
		WHERE id = $6
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		word.MasteryLevel,
		word.NextReviewAt,
		word.ReviewCount,
		word.Acquired,
		time.Now().UTC(),
		word.ID,
	)
	if err != nil {
		log.Error("failed to update word review state",
			slog.String("error", err.Error()),
			slog.String("word_id", word.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "word"); err != nil {
		return err
	}

	log.Debug("word review state updated",
		slog.String("word_id", word.ID.String()),
		slog.Int("mastery_level", word.MasteryLevel))
	return nil
}

// ListMissingExamples implements store.WordStore.ListMissingExamples
func (s *PostgresWordStore) ListMissingExamples(
	ctx context.Context,
	limit int,
) ([]*domain.Word, error) {
	query := `SELECT ` + wordColumns + `
		FROM words
		WHERE example_front = '' OR example_back = ''
		ORDER BY created_at ASC
		LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, MapError(err)
	}
	return collectWords(rows, s.logger)
}

// UpdateExamples implements store.WordStore.UpdateExamples
func (s *PostgresWordStore) UpdateExamples(
	ctx context.Context,
	id uuid.UUID,
	exampleFront, exampleBack string,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE words
		SET example_front = $1, example_back = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(ctx, query, exampleFront, exampleBack, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to update word examples",
			slog.String("error", err.Error()),
			slog.String("word_id", id.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, "word")
}

// rowScanner abstracts *sql.Row and *sql.Rows for the shared scan helpers.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanWord reads one word row in wordColumns order.
func scanWord(row rowScanner) (*domain.Word, error) {
	var word domain.Word
	var nextReviewAt sql.NullTime

	err := row.Scan(
		&word.ID,
		&word.GroupID,
		&word.Front,
		&word.Back,
		&word.ExampleFront,
		&word.ExampleBack,
		&word.MasteryLevel,
		&nextReviewAt,
		&word.ReviewCount,
		&word.Acquired,
		&word.CreatedAt,
		&word.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if nextReviewAt.Valid {
		t := nextReviewAt.Time
		word.NextReviewAt = &t
	}
	return &word, nil
}

// collectWords drains and closes rows into a word slice.
func collectWords(rows *sql.Rows, log *slog.Logger) ([]*domain.Word, error) {
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	words := []*domain.Word{}
	for rows.Next() {
		word, err := scanWord(rows)
		if err != nil {
			return nil, MapError(err)
		}
		words = append(words, word)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return words, nil
}
