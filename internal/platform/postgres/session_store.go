package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkaminski/vocadrill/internal/domain"
	"github.com/pkaminski/vocadrill/internal/platform/logger"
	"github.com/pkaminski/vocadrill/internal/store"
)

// sessionColumns is the scan list shared by all session queries.
const sessionColumns = `id, user_id, group_id, started_at, completed_at,
	word_count, mastered_count, current_index, known_count, again_count,
	later_count, cycle_count, main_queue, later_queue, reversed, quiz_mode`

// PostgresSessionStore implements the store.SessionStore interface
// using a PostgreSQL database as the storage backend.
//
// The two word queues are persisted as JSONB arrays of UUID strings. They are
// snapshot state owned entirely by the queue engine, never queried by content,
// so a document column beats a join table here.
type PostgresSessionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSessionStore creates a new PostgreSQL implementation of the SessionStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresSessionStore(db store.DBTX, logger *slog.Logger) *PostgresSessionStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSessionStore{
		db:     db,
		logger: logger.With(slog.String("component", "session_store")),
	}
}

// Ensure PostgresSessionStore implements store.SessionStore interface
var _ store.SessionStore = (*PostgresSessionStore)(nil)

// WithTx implements store.SessionStore.WithTx
func (s *PostgresSessionStore) WithTx(tx *sql.Tx) store.SessionStore {
	return &PostgresSessionStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.SessionStore.Create
func (s *PostgresSessionStore) Create(ctx context.Context, session *domain.StudySession) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := session.Validate(); err != nil {
		log.Warn("session validation failed during create",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	mainQueue, laterQueue, err := marshalQueues(session)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO study_sessions (id, user_id, group_id, started_at, completed_at,
			word_count, mastered_count, current_index, known_count, again_count,
			later_count, cycle_count, main_queue, later_queue, reversed, quiz_mode)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		session.ID,
		session.UserID,
		session.GroupID,
		session.StartedAt,
		session.CompletedAt,
		session.WordCount,
		session.MasteredCount,
		session.CurrentIndex,
		session.KnownCount,
		session.AgainCount,
		session.LaterCount,
		session.CycleCount,
		mainQueue,
		laterQueue,
		session.Reversed,
		session.QuizMode,
	)
	if err != nil {
		log.Error("failed to create study session",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return MapError(err)
	}

	log.Debug("study session created",
		slog.String("session_id", session.ID.String()),
		slog.Int("word_count", session.WordCount))
	return nil
}

// GetByID implements store.SessionStore.GetByID
func (s *PostgresSessionStore) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*domain.StudySession, error) {
	query := `SELECT ` + sessionColumns + ` FROM study_sessions WHERE id = $1`

	session, err := scanSession(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSessionNotFound
		}
		return nil, MapError(err)
	}
	return session, nil
}

// FindResumable implements store.SessionStore.FindResumable
func (s *PostgresSessionStore) FindResumable(
	ctx context.Context,
	userID, groupID uuid.UUID,
) (*domain.StudySession, error) {
	query := `SELECT ` + sessionColumns + `
		FROM study_sessions
		WHERE user_id = $1 AND group_id = $2 AND completed_at IS NULL
		ORDER BY started_at DESC
		LIMIT 1`

	session, err := scanSession(s.db.QueryRowContext(ctx, query, userID, groupID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSessionNotFound
		}
		return nil, MapError(err)
	}
	return session, nil
}

// UpdateSnapshot implements store.SessionStore.UpdateSnapshot
func (s *PostgresSessionStore) UpdateSnapshot(
	ctx context.Context,
	session *domain.StudySession,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := session.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	mainQueue, laterQueue, err := marshalQueues(session)
	if err != nil {
		return err
	}

	query := `
		UPDATE study_sessions
		SET completed_at = $1, word_count = $2, mastered_count = $3,
			current_index = $4, known_count = $5, again_count = $6,
			later_count = $7, cycle_count = $8, main_queue = $9,
			later_queue = $10
		WHERE id = $11
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		session.CompletedAt,
		session.WordCount,
		session.MasteredCount,
		session.CurrentIndex,
		session.KnownCount,
		session.AgainCount,
		session.LaterCount,
		session.CycleCount,
		mainQueue,
		laterQueue,
		session.ID,
	)
	if err != nil {
		log.Error("failed to update session snapshot",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, "study session")
}

// Delete implements store.SessionStore.Delete
func (s *PostgresSessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM study_sessions WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, "study session")
}

// DeleteStale implements store.SessionStore.DeleteStale
func (s *PostgresSessionStore) DeleteStale(
	ctx context.Context,
	cutoff time.Time,
) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM study_sessions WHERE completed_at IS NULL AND started_at < $1`
	result, err := s.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		log.Error("failed to delete stale sessions",
			slog.String("error", err.Error()),
			slog.Time("cutoff", cutoff))
		return 0, MapError(err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return removed, nil
}

// marshalQueues serializes both queue snapshots for storage.
func marshalQueues(session *domain.StudySession) ([]byte, []byte, error) {
	mainQueue, err := json.Marshal(session.MainQueue)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal main queue: %w", err)
	}
	laterQueue, err := json.Marshal(session.LaterQueue)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal later queue: %w", err)
	}
	return mainQueue, laterQueue, nil
}

// scanSession reads one session row in sessionColumns order.
func scanSession(row rowScanner) (*domain.StudySession, error) {
	var session domain.StudySession
	var completedAt sql.NullTime
	var mainQueue, laterQueue []byte

	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.GroupID,
		&session.StartedAt,
		&completedAt,
		&session.WordCount,
		&session.MasteredCount,
		&session.CurrentIndex,
		&session.KnownCount,
		&session.AgainCount,
		&session.LaterCount,
		&session.CycleCount,
		&mainQueue,
		&laterQueue,
		&session.Reversed,
		&session.QuizMode,
	)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		t := completedAt.Time
		session.CompletedAt = &t
	}

	if err := json.Unmarshal(mainQueue, &session.MainQueue); err != nil {
		return nil, fmt.Errorf("failed to unmarshal main queue: %w", err)
	}
	if err := json.Unmarshal(laterQueue, &session.LaterQueue); err != nil {
		return nil, fmt.Errorf("failed to unmarshal later queue: %w", err)
	}
	return &session, nil
}
