package study

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkaminski/vocadrill/internal/domain"
)

// StartStatus classifies the outcome of a start request.
type StartStatus string

// Possible start statuses.
const (
	StartStatusStarted StartStatus = "started" // fresh session created
	StartStatusResumed StartStatus = "resumed" // interrupted session picked up
	StartStatusBlocked StartStatus = "blocked" // access gate denied
	StartStatusEmpty   StartStatus = "empty"   // nothing due to study
)

// BlockReason says which gate denied a blocked start.
type BlockReason string

// Possible block reasons.
const (
	BlockReasonQuota  BlockReason = "quota_exceeded"
	BlockReasonLocked BlockReason = "locked"
)

// StartResult is the typed outcome of SessionService.Start. Blocked and
// empty are expected control-flow results, never errors.
type StartResult struct {
	Status  StartStatus          `json:"status"`
	Reason  BlockReason          `json:"reason,omitempty"`
	Session *domain.StudySession `json:"session,omitempty"`
	// Words holds the resolved words referenced by the session snapshot,
	// main queue first, so the UI can present without further lookups.
	Words []*domain.Word `json:"words,omitempty"`

	// Quiz carries the option set for the current word in quiz mode, so the
	// first question needs no extra round trip. Nil when the pool cannot
	// supply enough distractors (flip-card fallback).
	Quiz *QuizOptions `json:"quiz,omitempty"`
}

// Summary reports the final counters of a finished session.
type Summary struct {
	SessionID     uuid.UUID `json:"session_id"`
	WordCount     int       `json:"word_count"`
	KnownCount    int       `json:"known_count"`
	AgainCount    int       `json:"again_count"`
	LaterCount    int       `json:"later_count"`
	MasteredCount int       `json:"mastered_count"`
	Forced        bool      `json:"forced"`
	CompletedAt   time.Time `json:"completed_at"`
}

// EvaluateResult is the typed outcome of SessionService.Evaluate.
type EvaluateResult struct {
	Completed bool `json:"completed"`

	// QuotaExhausted is set when a known answer was processed without
	// free-tier credit because the daily quota ran out mid-session. The
	// answer itself is never lost; the UI should wind the session down.
	QuotaExhausted bool `json:"quota_exhausted,omitempty"`

	Session *domain.StudySession `json:"session,omitempty"`

	// NextWord is the word to present next; nil when the session finished.
	NextWord *domain.Word `json:"next_word,omitempty"`

	// Quiz carries the option set for NextWord in quiz mode. Nil when the
	// pool cannot supply enough distractors (flip-card fallback).
	Quiz *QuizOptions `json:"quiz,omitempty"`

	// Summary is set when the session finished, naturally or forced.
	Summary *Summary `json:"summary,omitempty"`
}

// UnlockResult is the typed outcome of SessionService.RequestUnlock.
type UnlockResult struct {
	Granted   bool      `json:"granted"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Common error types for SessionService.
var (
	// ErrSessionNotFound indicates that the session does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionNotOwned indicates that the user does not own the session.
	ErrSessionNotOwned = errors.New("unauthorized access: session not owned by user")

	// ErrSessionFinished indicates an evaluation against a completed session.
	ErrSessionFinished = errors.New("session already completed")

	// ErrWordNotCurrent indicates that the evaluated word is not the word
	// at the session's current queue position.
	ErrWordNotCurrent = errors.New("word is not the current queue item")

	// ErrInvalidOutcome indicates an unknown review outcome.
	ErrInvalidOutcome = errors.New("invalid review outcome")

	// ErrGroupNotFound indicates that the word group does not exist.
	ErrGroupNotFound = errors.New("word group not found")
)

// Settings are the per-user inputs the session engine reads but never
// writes: billing status and study preferences.
type Settings struct {
	Premium  bool
	Reversed bool
	QuizMode bool
}

// SettingsProvider supplies user settings to the session service.
type SettingsProvider interface {
	Settings(ctx context.Context, userID uuid.UUID) (Settings, error)
}

// RewardedAds is the boundary to the ads SDK wrapper. The core never talks
// to the SDK directly; it only learns whether a reward was actually granted.
type RewardedAds interface {
	// ShowRewardedAd runs the rewarded flow and reports whether the reward
	// was granted (not merely requested).
	ShowRewardedAd(ctx context.Context, userID uuid.UUID) (bool, error)
}

// SessionService is the study engine's surface to the UI layer.
//
// Callers serialize Evaluate calls per session: no two evaluations for the
// same session may be in flight concurrently. This is a caller contract, not
// enforced by a lock inside the engine.
type SessionService interface {
	// Start begins or resumes studying a group. Gate denials and an empty
	// pool come back as typed results, not errors.
	Start(ctx context.Context, userID, groupID uuid.UUID) (*StartResult, error)

	// Evaluate processes one answer for the session's current word: it
	// appends the study record, applies the scheduler to the word, advances
	// the queue engine and persists the whole snapshot write-through. On a
	// persistence error no state is committed and the same call may be
	// retried without losing the user's answer.
	Evaluate(
		ctx context.Context,
		userID, sessionID, wordID uuid.UUID,
		outcome domain.ReviewOutcome,
		latency time.Duration,
	) (*EvaluateResult, error)

	// SessionSummary returns the outcome tallies of a session the user owns,
	// read from the append-only record log.
	SessionSummary(ctx context.Context, userID, sessionID uuid.UUID) (*Summary, error)

	// GenerateQuizOptions builds a standalone option set for a word.
	// Returns (nil, nil) when there are not enough distractors (degraded
	// mode, caller presents the flip card).
	GenerateQuizOptions(ctx context.Context, userID, wordID uuid.UUID) (*QuizOptions, error)

	// IsUnlocked reports whether the user may study the group right now.
	IsUnlocked(ctx context.Context, userID, groupID uuid.UUID) (bool, error)

	// RequestUnlock runs the rewarded-ad flow and, on a confirmed reward,
	// grants the timed unlock.
	RequestUnlock(ctx context.Context, userID, groupID uuid.UUID) (*UnlockResult, error)

	// RemainingToday returns how many free-tier reviews the user has left
	// today, or access.Unlimited for premium users.
	RemainingToday(ctx context.Context, userID uuid.UUID) (int, error)
}

// ServiceError wraps errors from the session service with operation context,
// so consumers can differentiate failures with errors.As instead of string
// matching.
type ServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// newServiceError creates a ServiceError for the given operation.
func newServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
