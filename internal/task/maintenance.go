package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/pkaminski/vocadrill/internal/store"
	"github.com/pkaminski/vocadrill/internal/timeguard"
)

// sweepInterval is how often the stale-session sweep runs. Sessions become
// stale after the configured age, so an hourly pass keeps the lag small
// without hammering the table.
const sweepInterval = 1 * time.Hour

// MaintenanceScheduler owns the periodic cleanup jobs: it deletes abandoned
// in-progress sessions so they stop being offered for resume.
type MaintenanceScheduler struct {
	scheduler *gocron.Scheduler
	sessions  store.SessionStore
	clock     timeguard.TrustedClock
	staleAge  time.Duration
	logger    *slog.Logger
}

// NewMaintenanceScheduler creates a new MaintenanceScheduler.
// staleAge is how old an unfinished session must be before it is swept.
// If logger is nil, a default logger will be used.
func NewMaintenanceScheduler(
	sessions store.SessionStore,
	clock timeguard.TrustedClock,
	staleAge time.Duration,
	logger *slog.Logger,
) *MaintenanceScheduler {
	if sessions == nil {
		panic("sessions cannot be nil")
	}
	if clock == nil {
		panic("clock cannot be nil")
	}
	if staleAge <= 0 {
		panic("staleAge must be positive")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &MaintenanceScheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		sessions:  sessions,
		clock:     clock,
		staleAge:  staleAge,
		logger:    logger.With(slog.String("component", "maintenance")),
	}
}

// Start registers the jobs and begins running them asynchronously.
func (m *MaintenanceScheduler) Start() error {
	if _, err := m.scheduler.Every(sweepInterval).Do(m.sweepStaleSessions); err != nil {
		return fmt.Errorf("failed to schedule stale session sweep: %w", err)
	}

	m.scheduler.StartAsync()
	m.logger.Info("maintenance scheduler started",
		slog.Duration("sweep_interval", sweepInterval),
		slog.Duration("stale_age", m.staleAge))
	return nil
}

// Stop terminates all scheduled jobs. Safe to call multiple times.
func (m *MaintenanceScheduler) Stop() {
	m.scheduler.Stop()
	m.logger.Info("maintenance scheduler stopped")
}

// SweepNow runs the stale-session sweep immediately. Exposed for tests and
// for running one pass at startup before the first tick.
func (m *MaintenanceScheduler) SweepNow(ctx context.Context) (int64, error) {
	cutoff := m.clock.TrustedNow(ctx).Add(-m.staleAge)
	return m.sessions.DeleteStale(ctx, cutoff)
}

// sweepStaleSessions is the scheduled job body.
func (m *MaintenanceScheduler) sweepStaleSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := m.SweepNow(ctx)
	if err != nil {
		m.logger.Error("stale session sweep failed",
			slog.String("error", err.Error()))
		return
	}

	if removed > 0 {
		m.logger.Info("stale sessions swept",
			slog.Int64("removed", removed))
	}
}
