package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Record-specific validation errors.
var (
	// ErrRecordIDEmpty is returned when a record ID is empty or nil.
	ErrRecordIDEmpty = errors.New("record ID cannot be empty")

	// ErrRecordSessionIDEmpty is returned when a record's session ID is empty or nil.
	ErrRecordSessionIDEmpty = errors.New("record session ID cannot be empty")

	// ErrRecordWordIDEmpty is returned when a record's word ID is empty or nil.
	ErrRecordWordIDEmpty = errors.New("record word ID cannot be empty")

	// ErrRecordLatencyNegative is returned when a record's response latency is negative.
	ErrRecordLatencyNegative = errors.New("record latency cannot be negative")
)

// StudyRecord is one append-only log entry per word evaluation. Records are
// never mutated after creation; they back accuracy statistics.
type StudyRecord struct {
	ID         uuid.UUID     `json:"id"`
	SessionID  uuid.UUID     `json:"session_id"`
	WordID     uuid.UUID     `json:"word_id"`
	Outcome    ReviewOutcome `json:"outcome"`
	Latency    time.Duration `json:"latency"`
	AnsweredAt time.Time     `json:"answered_at"`
}

// NewStudyRecord creates a new StudyRecord for a single evaluation.
// Returns an error if validation fails.
func NewStudyRecord(
	sessionID, wordID uuid.UUID,
	outcome ReviewOutcome,
	latency time.Duration,
	answeredAt time.Time,
) (*StudyRecord, error) {
	record := &StudyRecord{
		ID:         uuid.New(),
		SessionID:  sessionID,
		WordID:     wordID,
		Outcome:    outcome,
		Latency:    latency,
		AnsweredAt: answeredAt,
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	return record, nil
}

// Validate checks if the StudyRecord has valid data.
func (r *StudyRecord) Validate() error {
	if r.ID == uuid.Nil {
		return ErrRecordIDEmpty
	}

	if r.SessionID == uuid.Nil {
		return ErrRecordSessionIDEmpty
	}

	if r.WordID == uuid.Nil {
		return ErrRecordWordIDEmpty
	}

	if !IsValidOutcome(r.Outcome) {
		return ErrInvalidOutcome
	}

	if r.Latency < 0 {
		return ErrRecordLatencyNegative
	}

	return nil
}
