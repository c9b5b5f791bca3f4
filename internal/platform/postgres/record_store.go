package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pkaminski/vocadrill/internal/domain"
	"github.com/pkaminski/vocadrill/internal/platform/logger"
	"github.com/pkaminski/vocadrill/internal/store"
)

// PostgresRecordStore implements the store.RecordStore interface
// using a PostgreSQL database as the storage backend.
//
// Records are append-only: the table sees INSERTs and aggregate SELECTs,
// never UPDATEs or DELETEs.
type PostgresRecordStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresRecordStore creates a new PostgreSQL implementation of the RecordStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresRecordStore(db store.DBTX, logger *slog.Logger) *PostgresRecordStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresRecordStore{
		db:     db,
		logger: logger.With(slog.String("component", "record_store")),
	}
}

// Ensure PostgresRecordStore implements store.RecordStore interface
var _ store.RecordStore = (*PostgresRecordStore)(nil)

// WithTx implements store.RecordStore.WithTx
func (s *PostgresRecordStore) WithTx(tx *sql.Tx) store.RecordStore {
	return &PostgresRecordStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.RecordStore.Create
func (s *PostgresRecordStore) Create(ctx context.Context, record *domain.StudyRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := record.Validate(); err != nil {
		log.Warn("record validation failed during create",
			slog.String("error", err.Error()),
			slog.String("record_id", record.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO study_records (id, session_id, word_id, outcome, latency_ms, answered_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		record.ID,
		record.SessionID,
		record.WordID,
		record.Outcome,
		record.Latency.Milliseconds(),
		record.AnsweredAt,
	)
	if err != nil {
		log.Error("failed to create study record",
			slog.String("error", err.Error()),
			slog.String("record_id", record.ID.String()),
			slog.String("session_id", record.SessionID.String()))
		return MapError(err)
	}

	return nil
}

// CountBySessionOutcome implements store.RecordStore.CountBySessionOutcome
func (s *PostgresRecordStore) CountBySessionOutcome(
	ctx context.Context,
	sessionID uuid.UUID,
) (map[domain.ReviewOutcome]int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT outcome, COUNT(*)
		FROM study_records
		WHERE session_id = $1
		GROUP BY outcome
	`
	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	counts := make(map[domain.ReviewOutcome]int)
	for rows.Next() {
		var outcome string
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, MapError(err)
		}
		counts[domain.ReviewOutcome(outcome)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return counts, nil
}
