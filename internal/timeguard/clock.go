// Package timeguard provides a rollback-resistant clock.
//
// All access gating (daily quota, timed unit unlocks) reads time through
// TrustedClock rather than the wall clock, so that winding the device clock
// backwards cannot reopen an exhausted quota or extend an unlock.
package timeguard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pkaminski/vocadrill/internal/platform/logger"
	"github.com/pkaminski/vocadrill/internal/store"
)

// TrustedClock produces a monotonic-non-decreasing notion of "now".
type TrustedClock interface {
	// TrustedNow returns the current trusted time: the wall clock, or the
	// persisted high-water mark if the wall clock is behind it. The returned
	// value never decreases across calls, regardless of device clock
	// manipulation.
	TrustedNow(ctx context.Context) time.Time
}

// guardedClock is the standard TrustedClock implementation. It combines the
// persisted high-water mark with an in-process cache so that monotonicity
// holds even when a mark write fails.
type guardedClock struct {
	marks  store.ClockMarkStore
	wall   func() time.Time // injectable for tests
	logger *slog.Logger

	mu   sync.Mutex
	last time.Time // highest value returned by this process
}

// NewTrustedClock creates a TrustedClock backed by the given mark store.
// If logger is nil, a default logger will be used.
func NewTrustedClock(marks store.ClockMarkStore, logger *slog.Logger) TrustedClock {
	if marks == nil {
		panic("marks cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &guardedClock{
		marks:  marks,
		wall:   time.Now,
		logger: logger.With(slog.String("component", "trusted_clock")),
	}
}

// NewTrustedClockWithWall creates a TrustedClock with an injected wall clock
// function. Intended for tests that simulate clock rollback.
func NewTrustedClockWithWall(
	marks store.ClockMarkStore,
	wall func() time.Time,
	logger *slog.Logger,
) TrustedClock {
	clock := NewTrustedClock(marks, logger).(*guardedClock)
	clock.wall = wall
	return clock
}

// TrustedNow implements TrustedClock.
//
// Failure semantics: storage errors fail open (the computed time is returned
// anyway), while clock rollback fails closed (the high-water mark wins). A
// rolled-back device clock must never be able to rewind trusted time, but a
// flaky disk must never block reading the time.
func (c *guardedClock) TrustedNow(ctx context.Context) time.Time {
	log := logger.FromContextOrDefault(ctx, c.logger)

	now := c.wall().UTC()

	mark, err := c.marks.Get(ctx)
	if err != nil {
		log.Warn("failed to read clock mark, using wall clock",
			slog.String("error", err.Error()))
		mark = time.Time{}
	}

	c.mu.Lock()
	trusted := now
	if mark.After(trusted) {
		trusted = mark
	}
	if c.last.After(trusted) {
		trusted = c.last
	}
	advanced := trusted.After(c.last) && trusted.After(mark)
	c.last = trusted
	c.mu.Unlock()

	if now.Before(mark) {
		log.Warn("wall clock is behind trusted mark, ignoring rollback",
			slog.Time("wall", now),
			slog.Time("mark", mark))
	}

	// Persist the new high-water mark best-effort: a failed write must not
	// fail the read.
	if advanced {
		if err := c.marks.Set(ctx, trusted); err != nil {
			log.Warn("failed to persist clock mark",
				slog.String("error", err.Error()),
				slog.Time("mark", trusted))
		}
	}

	return trusted
}
