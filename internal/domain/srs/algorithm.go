package srs

import (
	"time"

	"github.com/pkaminski/vocadrill/internal/domain"
)

// calculateNewLevel determines the new mastery level based on the review outcome.
//
// "Again" decreases the level by one, "later" leaves it unchanged, and
// "known" increases it by one. The result is always clamped to
// [domain.MinMasteryLevel, domain.MaxMasteryLevel], so "again" never
// increases a level and "known" never decreases one.
func calculateNewLevel(level int, outcome domain.ReviewOutcome, params *Params) int {
	newLevel := level + params.LevelDelta[outcome]

	if newLevel < domain.MinMasteryLevel {
		newLevel = domain.MinMasteryLevel
	}
	if newLevel > domain.MaxMasteryLevel {
		newLevel = domain.MaxMasteryLevel
	}

	return newLevel
}

// calculateNextReview computes the full scheduling result for one evaluation:
// the clamped new mastery level and the next-eligible-review timestamp, which
// is now plus the interval configured for the NEW level.
func calculateNextReview(
	level int,
	outcome domain.ReviewOutcome,
	now time.Time,
	params *Params,
) Result {
	newLevel := calculateNewLevel(level, outcome, params)

	return Result{
		Level:        newLevel,
		NextReviewAt: now.Add(params.Interval(newLevel)),
	}
}
