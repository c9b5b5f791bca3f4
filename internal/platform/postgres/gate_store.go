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

// PostgresUnlockStore implements the store.UnlockStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUnlockStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUnlockStore creates a new PostgreSQL implementation of the UnlockStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresUnlockStore(db store.DBTX, logger *slog.Logger) *PostgresUnlockStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUnlockStore{
		db:     db,
		logger: logger.With(slog.String("component", "unlock_store")),
	}
}

// Ensure PostgresUnlockStore implements store.UnlockStore interface
var _ store.UnlockStore = (*PostgresUnlockStore)(nil)

// WithTx implements store.UnlockStore.WithTx
func (s *PostgresUnlockStore) WithTx(tx *sql.Tx) store.UnlockStore {
	return &PostgresUnlockStore{
		db:     tx,
		logger: s.logger,
	}
}

// Get implements store.UnlockStore.Get
func (s *PostgresUnlockStore) Get(
	ctx context.Context,
	userID, groupID uuid.UUID,
) (*domain.UnitUnlock, error) {
	query := `
		SELECT user_id, group_id, expires_at
		FROM unit_unlocks
		WHERE user_id = $1 AND group_id = $2
	`

	var unlock domain.UnitUnlock
	err := s.db.QueryRowContext(ctx, query, userID, groupID).Scan(
		&unlock.UserID,
		&unlock.GroupID,
		&unlock.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUnlockNotFound
		}
		return nil, MapError(err)
	}
	return &unlock, nil
}

// Upsert implements store.UnlockStore.Upsert
func (s *PostgresUnlockStore) Upsert(ctx context.Context, unlock *domain.UnitUnlock) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO unit_unlocks (user_id, group_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, group_id)
		DO UPDATE SET expires_at = EXCLUDED.expires_at
	`
	_, err := s.db.ExecContext(ctx, query, unlock.UserID, unlock.GroupID, unlock.ExpiresAt)
	if err != nil {
		log.Error("failed to upsert unit unlock",
			slog.String("error", err.Error()),
			slog.String("user_id", unlock.UserID.String()),
			slog.String("group_id", unlock.GroupID.String()))
		return MapError(err)
	}
	return nil
}

// PostgresDailyCountStore implements the store.DailyCountStore interface
// using a PostgreSQL database as the storage backend.
type PostgresDailyCountStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDailyCountStore creates a new PostgreSQL implementation of the DailyCountStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresDailyCountStore(db store.DBTX, logger *slog.Logger) *PostgresDailyCountStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresDailyCountStore{
		db:     db,
		logger: logger.With(slog.String("component", "daily_count_store")),
	}
}

// Ensure PostgresDailyCountStore implements store.DailyCountStore interface
var _ store.DailyCountStore = (*PostgresDailyCountStore)(nil)

// WithTx implements store.DailyCountStore.WithTx
func (s *PostgresDailyCountStore) WithTx(tx *sql.Tx) store.DailyCountStore {
	return &PostgresDailyCountStore{
		db:     tx,
		logger: s.logger,
	}
}

// Get implements store.DailyCountStore.Get
func (s *PostgresDailyCountStore) Get(
	ctx context.Context,
	userID uuid.UUID,
	day string,
) (int, error) {
	query := `
		SELECT count
		FROM daily_review_counts
		WHERE user_id = $1 AND day = $2
	`

	var count int
	err := s.db.QueryRowContext(ctx, query, userID, day).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, MapError(err)
	}
	return count, nil
}

// Increment implements store.DailyCountStore.Increment
//
// The upsert-and-return runs as a single statement, so concurrent callers each
// observe a distinct new count.
func (s *PostgresDailyCountStore) Increment(
	ctx context.Context,
	userID uuid.UUID,
	day string,
) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO daily_review_counts (user_id, day, count)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id, day)
		DO UPDATE SET count = daily_review_counts.count + 1
		RETURNING count
	`

	var count int
	err := s.db.QueryRowContext(ctx, query, userID, day).Scan(&count)
	if err != nil {
		log.Error("failed to increment daily count",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("day", day))
		return 0, MapError(err)
	}
	return count, nil
}

// clockMarkKey is the single-row key of the clock_marks table.
const clockMarkKey = "trusted_clock"

// PostgresClockMarkStore implements the store.ClockMarkStore interface
// using a PostgreSQL database as the storage backend. The table holds one row.
type PostgresClockMarkStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresClockMarkStore creates a new PostgreSQL implementation of the ClockMarkStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresClockMarkStore(db store.DBTX, logger *slog.Logger) *PostgresClockMarkStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresClockMarkStore{
		db:     db,
		logger: logger.With(slog.String("component", "clock_mark_store")),
	}
}

// Ensure PostgresClockMarkStore implements store.ClockMarkStore interface
var _ store.ClockMarkStore = (*PostgresClockMarkStore)(nil)

// Get implements store.ClockMarkStore.Get
func (s *PostgresClockMarkStore) Get(ctx context.Context) (time.Time, error) {
	query := `SELECT mark FROM clock_marks WHERE key = $1`

	var mark time.Time
	err := s.db.QueryRowContext(ctx, query, clockMarkKey).Scan(&mark)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, MapError(err)
	}
	return mark, nil
}

// Set implements store.ClockMarkStore.Set
//
// GREATEST in the upsert guarantees the mark never moves backwards even if
// two processes race on the write.
func (s *PostgresClockMarkStore) Set(ctx context.Context, mark time.Time) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO clock_marks (key, mark)
		VALUES ($1, $2)
		ON CONFLICT (key)
		DO UPDATE SET mark = GREATEST(clock_marks.mark, EXCLUDED.mark)
	`
	_, err := s.db.ExecContext(ctx, query, clockMarkKey, mark)
	if err != nil {
		log.Error("failed to persist clock mark",
			slog.String("error", err.Error()),
			slog.Time("mark", mark))
		return fmt.Errorf("failed to persist clock mark: %w", MapError(err))
	}
	return nil
}
