package srs

import (
	"errors"
	"time"

	"github.com/pkaminski/vocadrill/internal/domain"
)

// Common errors
var (
	ErrInvalidLevel   = errors.New("mastery level must be between 0 and 5")
	ErrInvalidOutcome = errors.New("invalid review outcome")
)

// Result is the scheduler's output for one evaluation.
type Result struct {
	// Level is the new mastery level, always within [0, 5].
	Level int

	// NextReviewAt is when the word becomes eligible for review again.
	NextReviewAt time.Time
}

// Service defines the interface for scheduler operations.
type Service interface {
	// Next computes the new mastery level and next review time for a word
	// at the given level after the given outcome. The supplied now should
	// come from the trusted clock so that device clock rollback cannot
	// shorten intervals.
	Next(level int, outcome domain.ReviewOutcome, now time.Time) (Result, error)
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new scheduler service with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new scheduler service with custom parameters
func NewServiceWithParams(params *Params) Service {
	return &defaultService{
		params: params,
	}
}

// Next implements the Service interface.
func (s *defaultService) Next(
	level int,
	outcome domain.ReviewOutcome,
	now time.Time,
) (Result, error) {
	if level < domain.MinMasteryLevel || level > domain.MaxMasteryLevel {
		return Result{}, ErrInvalidLevel
	}

	if !domain.IsValidOutcome(outcome) {
		return Result{}, ErrInvalidOutcome
	}

	return calculateNextReview(level, outcome, now, s.params), nil
}
