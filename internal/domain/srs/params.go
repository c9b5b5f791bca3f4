// Package srs implements the level-based spaced repetition scheduler.
//
// The scheduler is a total, pure function over (mastery level, review
// outcome): it never performs I/O and has no failure modes within its
// domain. All timestamps are computed from the caller-supplied "now" so the
// caller can feed the rollback-resistant trusted clock.
package srs

import (
	"time"

	"github.com/pkaminski/vocadrill/internal/domain"
)

// Params defines all configurable parameters for the scheduler.
type Params struct {
	// LevelDelta maps a review outcome to the mastery level change before
	// clamping to [domain.MinMasteryLevel, domain.MaxMasteryLevel].
	LevelDelta map[domain.ReviewOutcome]int

	// Intervals maps each mastery level to the wait before the word becomes
	// eligible for review again. Indexed by the NEW level after applying the
	// delta. Level 0 is immediate.
	Intervals [domain.MaxMasteryLevel + 1]time.Duration
}

// NewDefaultParams creates a new Params instance with the default schedule:
// level 0 immediate, then 1h, 8h, 1d, 3d and 7d for levels 1 through 5.
func NewDefaultParams() *Params {
	return &Params{
		LevelDelta: map[domain.ReviewOutcome]int{
			domain.ReviewOutcomeAgain: -1,
			domain.ReviewOutcomeLater: 0,
			domain.ReviewOutcomeKnown: +1,
		},
		Intervals: [domain.MaxMasteryLevel + 1]time.Duration{
			0,                  // level 0: show again immediately
			1 * time.Hour,      // level 1
			8 * time.Hour,      // level 2
			24 * time.Hour,     // level 3
			3 * 24 * time.Hour, // level 4
			7 * 24 * time.Hour, // level 5
		},
	}
}

// Interval returns the review interval for the given mastery level, clamping
// out-of-range levels into the table.
func (p *Params) Interval(level int) time.Duration {
	if level < domain.MinMasteryLevel {
		level = domain.MinMasteryLevel
	}
	if level > domain.MaxMasteryLevel {
		level = domain.MaxMasteryLevel
	}
	return p.Intervals[level]
}
