// Package access implements the free-tier gating rules: the daily review
// quota and the time-boxed unit unlocks. Both are evaluated against the
// trusted clock so that rolling the device clock back cannot reopen access.
package access

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
	"github.com/pkaminski/vocadrill/internal/timeguard"
)

// Unlimited is returned by RemainingToday for premium users.
const Unlimited = -1

// errQuotaExceeded aborts the consume transaction when the increment would
// pass the quota. Internal only; ConsumeReview maps it to allowed=false.
var errQuotaExceeded = errors.New("daily quota exceeded")

// Gate answers whether a user may study right now, and accounts for the
// reviews they spend.
//
// Failure semantics: a persistence error during any check makes the gate
// deny access (conservative) and surfaces the error to the caller; the
// caller must not treat it as fatal for a session already in progress.
type Gate interface {
	// CanReviewMore reports whether the user has free-tier reviews left
	// today. Premium users always can.
	CanReviewMore(ctx context.Context, userID uuid.UUID, premium bool) (bool, error)

	// RemainingToday returns the number of free-tier reviews left today,
	// or Unlimited for premium users.
	RemainingToday(ctx context.Context, userID uuid.UUID, premium bool) (int, error)

	// ConsumeReview atomically re-checks the quota and spends one review.
	// Returns false without consuming anything when the quota is exhausted.
	// Called once per known/correct-quiz evaluation, never for again/later.
	ConsumeReview(ctx context.Context, userID uuid.UUID, premium bool) (bool, error)

	// IsUnlocked reports whether the user may study the given group:
	// premium and top-level groups always, otherwise only while an unlock
	// row is active.
	IsUnlocked(ctx context.Context, userID, groupID uuid.UUID, premium, topLevel bool) (bool, error)

	// Unlock grants timed access to a group, overwriting any previous grant.
	// Callers invoke this only after the ads collaborator confirmed that a
	// reward was actually granted, not merely requested.
	Unlock(ctx context.Context, userID, groupID uuid.UUID) (*domain.UnitUnlock, error)
}

// gateImpl is the standard Gate implementation over the transactional store.
type gateImpl struct {
	db             *sql.DB
	counts         store.DailyCountStore
	unlocks        store.UnlockStore
	clock          timeguard.TrustedClock
	dailyQuota     int
	unlockDuration time.Duration
	logger         *slog.Logger
}

// Verify interface compliance at compile time
var _ Gate = (*gateImpl)(nil)

// NewGate creates a new Gate. If logger is nil, a default logger will be used.
func NewGate(
	db *sql.DB,
	counts store.DailyCountStore,
	unlocks store.UnlockStore,
	clock timeguard.TrustedClock,
	dailyQuota int,
	unlockDuration time.Duration,
	logger *slog.Logger,
) Gate {
	if db == nil {
		panic("db cannot be nil")
	}
	if counts == nil {
		panic("counts cannot be nil")
	}
	if unlocks == nil {
		panic("unlocks cannot be nil")
	}
	if clock == nil {
		panic("clock cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &gateImpl{
		db:             db,
		counts:         counts,
		unlocks:        unlocks,
		clock:          clock,
		dailyQuota:     dailyQuota,
		unlockDuration: unlockDuration,
		logger:         logger.With(slog.String("component", "access_gate")),
	}
}

// CanReviewMore implements Gate.
func (g *gateImpl) CanReviewMore(
	ctx context.Context,
	userID uuid.UUID,
	premium bool,
) (bool, error) {
	if premium {
		return true, nil
	}

	remaining, err := g.RemainingToday(ctx, userID, premium)
	if err != nil {
		return false, err
	}
	return remaining > 0, nil
}

// RemainingToday implements Gate.
func (g *gateImpl) RemainingToday(
	ctx context.Context,
	userID uuid.UUID,
	premium bool,
) (int, error) {
	if premium {
		return Unlimited, nil
	}

	day := domain.DayKey(g.clock.TrustedNow(ctx))
	count, err := g.counts.Get(ctx, userID, day)
	if err != nil {
		return 0, fmt.Errorf("failed to read daily count: %w", err)
	}

	remaining := g.dailyQuota - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// ConsumeReview implements Gate.
//
// The re-check and the increment run in one transaction: the increment is an
// atomic upsert returning the new count, and the transaction is rolled back
// when that count passes the quota, so two concurrent callers cannot both
// spend the last review.
func (g *gateImpl) ConsumeReview(
	ctx context.Context,
	userID uuid.UUID,
	premium bool,
) (bool, error) {
	if premium {
		return true, nil
	}

	log := logger.FromContextOrDefault(ctx, g.logger)
	day := domain.DayKey(g.clock.TrustedNow(ctx))

	err := store.RunInTransaction(ctx, g.db, func(ctx context.Context, tx *sql.Tx) error {
		count, err := g.counts.WithTx(tx).Increment(ctx, userID, day)
		if err != nil {
			return fmt.Errorf("failed to increment daily count: %w", err)
		}
		if count > g.dailyQuota {
			return errQuotaExceeded
		}
		return nil
	})

	if errors.Is(err, errQuotaExceeded) {
		log.Debug("daily quota exhausted",
			slog.String("user_id", userID.String()),
			slog.String("day", day))
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

// IsUnlocked implements Gate.
func (g *gateImpl) IsUnlocked(
	ctx context.Context,
	userID, groupID uuid.UUID,
	premium, topLevel bool,
) (bool, error) {
	if premium || topLevel {
		return true, nil
	}

	unlock, err := g.unlocks.Get(ctx, userID, groupID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read unit unlock: %w", err)
	}

	return unlock.Active(g.clock.TrustedNow(ctx)), nil
}

// Unlock implements Gate.
func (g *gateImpl) Unlock(
	ctx context.Context,
	userID, groupID uuid.UUID,
) (*domain.UnitUnlock, error) {
	log := logger.FromContextOrDefault(ctx, g.logger)

	unlock := &domain.UnitUnlock{
		UserID:    userID,
		GroupID:   groupID,
		ExpiresAt: g.clock.TrustedNow(ctx).Add(g.unlockDuration),
	}

	if err := g.unlocks.Upsert(ctx, unlock); err != nil {
		return nil, fmt.Errorf("failed to persist unit unlock: %w", err)
	}

	log.Info("unit unlocked",
		slog.String("user_id", userID.String()),
		slog.String("group_id", groupID.String()),
		slog.Time("expires_at", unlock.ExpiresAt))

	return unlock, nil
}
