package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Mastery level bounds. A word at MaxMasteryLevel is considered learned.
const (
	MinMasteryLevel = 0
	MaxMasteryLevel = 5
)

// ReviewOutcome represents the result of evaluating a single word.
type ReviewOutcome string

// Possible review outcome values.
const (
	ReviewOutcomeAgain ReviewOutcome = "again" // forgot, show again immediately
	ReviewOutcomeLater ReviewOutcome = "later" // defer to the later queue
	ReviewOutcomeKnown ReviewOutcome = "known" // recalled correctly
)

// IsValidOutcome reports whether the given outcome is one of the defined values.
func IsValidOutcome(outcome ReviewOutcome) bool {
	switch outcome {
	case ReviewOutcomeAgain, ReviewOutcomeLater, ReviewOutcomeKnown:
		return true
	default:
		return false
	}
}

// OutcomeForQuizAnswer maps a quiz answer to its queue transition outcome.
// A wrong quiz answer is deliberately treated as "later" (defer and advance)
// rather than "again": the word is recorded as missed and deferred instead of
// being retried in place.
func OutcomeForQuizAnswer(correct bool) ReviewOutcome {
	if correct {
		return ReviewOutcomeKnown
	}
	return ReviewOutcomeLater
}

// Word-specific validation errors.
var (
	// ErrWordIDEmpty is returned when a word ID is empty or nil.
	ErrWordIDEmpty = errors.New("word ID cannot be empty")

	// ErrWordGroupIDEmpty is returned when a word's group ID is empty or nil.
	ErrWordGroupIDEmpty = errors.New("word group ID cannot be empty")

	// ErrWordTextEmpty is returned when a word's front or back text is empty.
	ErrWordTextEmpty = errors.New("word text cannot be empty")
)

// Word represents one vocabulary item in a group.
//
// MasteryLevel and NextReviewAt are owned by the scheduler: they are only
// mutated with the scheduler's output, applied by the session service.
// A nil NextReviewAt means the word is new and has never been reviewed.
// Acquired is set true only by a correct quiz answer and is tracked
// independently of the mastery level.
type Word struct {
	ID           uuid.UUID  `json:"id"`
	GroupID      uuid.UUID  `json:"group_id"`
	Front        string     `json:"front"`
	Back         string     `json:"back"`
	ExampleFront string     `json:"example_front,omitempty"`
	ExampleBack  string     `json:"example_back,omitempty"`
	MasteryLevel int        `json:"mastery_level"`
	NextReviewAt *time.Time `json:"next_review_at,omitempty"`
	ReviewCount  int        `json:"review_count"`
	Acquired     bool       `json:"acquired"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewWord creates a new Word in the given group with the given texts.
// It generates a new UUID and sets the creation/update timestamps.
// New words start at mastery level 0 with no scheduled review.
// Returns an error if validation fails.
func NewWord(groupID uuid.UUID, front, back string) (*Word, error) {
	now := time.Now().UTC()
	word := &Word{
		ID:           uuid.New(),
		GroupID:      groupID,
		Front:        front,
		Back:         back,
		MasteryLevel: MinMasteryLevel,
		NextReviewAt: nil,
		ReviewCount:  0,
		Acquired:     false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := word.Validate(); err != nil {
		return nil, err
	}

	return word, nil
}

// Validate checks if the Word has valid data.
// Returns an error if any field fails validation.
func (w *Word) Validate() error {
	if w.ID == uuid.Nil {
		return ErrWordIDEmpty
	}

	if w.GroupID == uuid.Nil {
		return ErrWordGroupIDEmpty
	}

	if strings.TrimSpace(w.Front) == "" || strings.TrimSpace(w.Back) == "" {
		return ErrWordTextEmpty
	}

	if w.MasteryLevel < MinMasteryLevel || w.MasteryLevel > MaxMasteryLevel {
		return ErrInvalidMasteryLevel
	}

	return nil
}

// TargetText returns the answer-side text for the given study direction.
func (w *Word) TargetText(reversed bool) string {
	if reversed {
		return w.Front
	}
	return w.Back
}

// PromptText returns the question-side text for the given study direction.
func (w *Word) PromptText(reversed bool) string {
	if reversed {
		return w.Back
	}
	return w.Front
}
