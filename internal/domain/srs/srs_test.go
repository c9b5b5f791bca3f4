package srs

import (
	"testing"
	"time"

	"github.com/pkaminski/vocadrill/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext_LevelTransitions(t *testing.T) {
	t.Parallel()

	svc := NewDefaultService()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		level     int
		outcome   domain.ReviewOutcome
		wantLevel int
	}{
		{"known increments", 2, domain.ReviewOutcomeKnown, 3},
		{"known at max stays at max", 5, domain.ReviewOutcomeKnown, 5},
		{"again decrements", 3, domain.ReviewOutcomeAgain, 2},
		{"again at min stays at min", 0, domain.ReviewOutcomeAgain, 0},
		{"later keeps level", 4, domain.ReviewOutcomeLater, 4},
		{"known from zero", 0, domain.ReviewOutcomeKnown, 1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := svc.Next(tt.level, tt.outcome, now)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLevel, result.Level)
		})
	}
}

func TestNext_IntervalTable(t *testing.T) {
	t.Parallel()

	svc := NewDefaultService()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		level        int
		outcome      domain.ReviewOutcome
		wantInterval time.Duration
	}{
		// Interval is indexed by the NEW level after applying the outcome.
		{"down to level 0 is immediate", 1, domain.ReviewOutcomeAgain, 0},
		{"up to level 1", 0, domain.ReviewOutcomeKnown, 1 * time.Hour},
		{"up to level 2", 1, domain.ReviewOutcomeKnown, 8 * time.Hour},
		{"up to level 3", 2, domain.ReviewOutcomeKnown, 24 * time.Hour},
		{"up to level 4", 3, domain.ReviewOutcomeKnown, 3 * 24 * time.Hour},
		{"up to level 5", 4, domain.ReviewOutcomeKnown, 7 * 24 * time.Hour},
		{"capped at level 5", 5, domain.ReviewOutcomeKnown, 7 * 24 * time.Hour},
		{"later reuses current level interval", 3, domain.ReviewOutcomeLater, 24 * time.Hour},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := svc.Next(tt.level, tt.outcome, now)
			require.NoError(t, err)
			assert.Equal(t, now.Add(tt.wantInterval), result.NextReviewAt)
		})
	}
}

func TestNext_InvalidInputs(t *testing.T) {
	t.Parallel()

	svc := NewDefaultService()
	now := time.Now().UTC()

	_, err := svc.Next(-1, domain.ReviewOutcomeKnown, now)
	assert.ErrorIs(t, err, ErrInvalidLevel)

	_, err = svc.Next(6, domain.ReviewOutcomeKnown, now)
	assert.ErrorIs(t, err, ErrInvalidLevel)

	_, err = svc.Next(2, domain.ReviewOutcome("perfect"), now)
	assert.ErrorIs(t, err, ErrInvalidOutcome)
}

func TestNext_NextReviewNeverBeforeNow(t *testing.T) {
	t.Parallel()

	svc := NewDefaultService()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for level := domain.MinMasteryLevel; level <= domain.MaxMasteryLevel; level++ {
		for _, outcome := range []domain.ReviewOutcome{
			domain.ReviewOutcomeAgain,
			domain.ReviewOutcomeLater,
			domain.ReviewOutcomeKnown,
		} {
			result, err := svc.Next(level, outcome, now)
			require.NoError(t, err)
			assert.False(t, result.NextReviewAt.Before(now),
				"level %d outcome %s scheduled into the past", level, outcome)
		}
	}
}

func TestNewServiceWithParams(t *testing.T) {
	t.Parallel()

	params := NewDefaultParams()
	params.Intervals[1] = 30 * time.Minute
	svc := NewServiceWithParams(params)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	result, err := svc.Next(0, domain.ReviewOutcomeKnown, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*time.Minute), result.NextReviewAt)
}
